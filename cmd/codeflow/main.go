// Command codeflow indexes source repositories and answers structural
// questions about them: entities, call graphs, control flow and references.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/DeusData/codeflow/internal/config"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// cli carries state shared by the subcommands of one invocation.
type cli struct {
	configFile string
	v          *viper.Viper
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}

	root := &cobra.Command{
		Use:           "codeflow",
		Short:         "Multi-language code structure analysis",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.load(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.configFile, "config", "", "config file (default: ./codeflow.yaml)")
	pf.String("store", "", "SQLite database path (default: user cache dir)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("log-format", "text", "log format (text, json)")

	root.AddCommand(
		newIndexCmd(c),
		newEntitiesCmd(c),
		newCFGCmd(c),
		newCallGraphCmd(c),
		newRefsCmd(c),
		newASTCmd(c),
		newProjectsCmd(c),
		newWatchCmd(c),
		newMCPCmd(c),
		newInstallCmd(c),
		newUninstallCmd(c),
	)
	return root
}

// load reads configuration and installs the process logger. Flags bound
// here override the file and the environment.
func (c *cli) load(cmd *cobra.Command) error {
	v, err := config.NewViper(c.configFile)
	if err != nil {
		return err
	}
	for key, flag := range map[string]string{
		"store.path":   "store",
		"log.level":    "log-level",
		"log.format":   "log-format",
		"metrics.addr": "metrics-addr",
	} {
		if f := cmd.Flags().Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("bind %s: %w", flag, err)
			}
		}
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	c.v, c.cfg = v, cfg
	slog.SetDefault(cfg.NewLogger())
	return nil
}
