package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DeusData/codeflow/internal/callgraph"
)

// maxCallGraphDepth bounds agent-requested traversals.
const maxCallGraphDepth = 10

func (s *Server) handleGetCallGraph(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	symbol := getStringArg(args, "symbol")
	if symbol == "" {
		return errResult("symbol is required"), nil
	}
	depth := min(max(getIntArg(args, "depth", s.opts.MaxDepth), 0), maxCallGraphDepth)

	proj, err := s.resolveProject(ctx, getStringArg(args, "project"))
	if err != nil {
		return errResult(err.Error()), nil
	}

	g, err := callgraph.Build(ctx, s.store, symbol, proj.Name, depth)
	if errors.Is(err, callgraph.ErrSymbolNotFound) {
		return errResult(fmt.Sprintf("function not found: %s", symbol)), nil
	}
	if err != nil {
		return errResult(fmt.Sprintf("call graph: %v", err)), nil
	}
	return jsonResult(map[string]any{
		"project": proj.Name,
		"depth":   depth,
		"graph":   g,
	}), nil
}
