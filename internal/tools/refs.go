package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) handleFindReferences(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	symbol := getStringArg(args, "symbol")
	if symbol == "" {
		return errResult("symbol is required"), nil
	}
	proj, err := s.resolveProject(ctx, getStringArg(args, "project"))
	if err != nil {
		return errResult(err.Error()), nil
	}

	refs, err := s.store.FindReferences(ctx, proj.Name, symbol)
	if err != nil {
		return errResult(fmt.Sprintf("find references: %v", err)), nil
	}
	total := len(refs)
	if limit := getIntArg(args, "limit", 200); limit > 0 && len(refs) > limit {
		refs = refs[:limit]
	}

	definitions := 0
	for _, r := range refs {
		if r.IsDefinition {
			definitions++
		}
	}
	return jsonResult(map[string]any{
		"project":     proj.Name,
		"symbol":      symbol,
		"total":       total,
		"definitions": definitions,
		"references":  refs,
	}), nil
}
