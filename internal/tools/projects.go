package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DeusData/codeflow/internal/store"
)

func (s *Server) handleListProjects(ctx context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return errResult(fmt.Sprintf("list projects: %v", err)), nil
	}

	type projectInfo struct {
		Name      string       `json:"name"`
		RootPath  string       `json:"root_path"`
		IndexedAt string       `json:"indexed_at"`
		Stats     *store.Stats `json:"stats,omitempty"`
	}

	result := make([]projectInfo, 0, len(projects))
	for _, p := range projects {
		st, _ := s.store.GetStats(ctx, p.Name)
		result = append(result, projectInfo{
			Name:      p.Name,
			RootPath:  p.RootPath,
			IndexedAt: p.IndexedAt,
			Stats:     st,
		})
	}
	return jsonResult(result), nil
}

func (s *Server) handleDeleteProject(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	name := getStringArg(args, "project")
	if name == "" {
		return errResult("project is required"), nil
	}
	proj, _ := s.store.GetProject(ctx, name)
	if proj == nil {
		return errResult(fmt.Sprintf("project not found: %s", name)), nil
	}

	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	if err := s.store.DeleteProject(ctx, name); err != nil {
		return errResult(fmt.Sprintf("delete failed: %v", err)), nil
	}
	return jsonResult(map[string]any{
		"deleted": name,
		"status":  "ok",
	}), nil
}
