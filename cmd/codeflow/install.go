package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const mcpServerKey = "codeflow"

// editorConfig is an editor's JSON file listing MCP servers.
type editorConfig struct {
	name string
	path string
}

func editorConfigs() []editorConfig {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []editorConfig{
		{"Cursor", filepath.Join(home, ".cursor", "mcp.json")},
		{"Windsurf", filepath.Join(home, ".codeium", "windsurf", "mcp_config.json")},
	}
}

func targets(configPath string) []editorConfig {
	if configPath != "" {
		return []editorConfig{{"custom", configPath}}
	}
	return editorConfigs()
}

func newInstallCmd(_ *cli) *cobra.Command {
	var (
		dryRun     bool
		configPath string
	)
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Register the MCP server with Cursor and Windsurf",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			binaryPath, err := detectBinaryPath()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "codeflow %s install\nBinary: %s\n", version, binaryPath)
			for _, e := range targets(configPath) {
				if err := installEditorMCP(out, binaryPath, e, dryRun); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would change")
	cmd.Flags().StringVar(&configPath, "config-path", "", "write only this MCP config file")
	return cmd
}

func newUninstallCmd(_ *cli) *cobra.Command {
	var (
		dryRun     bool
		configPath string
	)
	cmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Remove the MCP server from editor configs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, e := range targets(configPath) {
				if err := removeEditorMCP(cmd.OutOrStdout(), e, dryRun); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would change")
	cmd.Flags().StringVar(&configPath, "config-path", "", "edit only this MCP config file")
	return cmd
}

// detectBinaryPath resolves the current binary's real path.
func detectBinaryPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("detect binary: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("resolve symlink: %w", err)
	}
	return resolved, nil
}

// readMCPConfig returns the parsed config, or an empty one when the file is
// missing or not valid JSON.
func readMCPConfig(path string) (root, servers map[string]any) {
	root = make(map[string]any)
	if data, err := os.ReadFile(path); err == nil {
		if json.Unmarshal(data, &root) != nil {
			root = make(map[string]any)
		}
	}
	servers, ok := root["mcpServers"].(map[string]any)
	if !ok {
		servers = make(map[string]any)
	}
	return root, servers
}

func writeMCPConfig(path string, root map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	out, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(out, '\n'), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// installEditorMCP upserts our server entry, keeping other servers.
func installEditorMCP(w io.Writer, binaryPath string, e editorConfig, dryRun bool) error {
	fmt.Fprintf(w, "[%s] MCP config: %s\n", e.name, e.path)
	if dryRun {
		fmt.Fprintf(w, "  [dry-run] would upsert %s\n", mcpServerKey)
		return nil
	}

	root, servers := readMCPConfig(e.path)
	servers[mcpServerKey] = map[string]any{
		"command": binaryPath,
		"args":    []string{"mcp"},
	}
	root["mcpServers"] = servers
	if err := writeMCPConfig(e.path, root); err != nil {
		return err
	}
	fmt.Fprintf(w, "  registered %s\n", mcpServerKey)
	return nil
}

// removeEditorMCP deletes our server entry. A missing file or entry is not
// an error.
func removeEditorMCP(w io.Writer, e editorConfig, dryRun bool) error {
	if _, err := os.Stat(e.path); err != nil {
		return nil
	}
	root, servers := readMCPConfig(e.path)
	if _, ok := servers[mcpServerKey]; !ok {
		return nil
	}

	fmt.Fprintf(w, "[%s] MCP config: %s\n", e.name, e.path)
	if dryRun {
		fmt.Fprintf(w, "  [dry-run] would remove %s\n", mcpServerKey)
		return nil
	}
	delete(servers, mcpServerKey)
	root["mcpServers"] = servers
	if err := writeMCPConfig(e.path, root); err != nil {
		return err
	}
	fmt.Fprintf(w, "  removed %s\n", mcpServerKey)
	return nil
}
