package tools

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DeusData/codeflow/internal/cfg"
	"github.com/DeusData/codeflow/internal/discover"
	"github.com/DeusData/codeflow/internal/lang"
	"github.com/DeusData/codeflow/internal/model"
)

func (s *Server) handleGetControlFlow(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	proj, err := s.resolveProject(ctx, getStringArg(args, "project"))
	if err != nil {
		return errResult(err.Error()), nil
	}

	var (
		file       = getStringArg(args, "file")
		language   string
		start, end int
	)
	switch symbol := getStringArg(args, "symbol"); {
	case symbol != "":
		ents, err := s.store.FindEntity(ctx, proj.Name, symbol, model.KindFunction)
		if err != nil {
			return errResult(fmt.Sprintf("find %s: %v", symbol, err)), nil
		}
		if len(ents) == 0 {
			return errResult(fmt.Sprintf("function not found: %s", symbol)), nil
		}
		e := ents[0]
		file, language, start, end = e.Filename, e.Language, e.StartLine, e.EndLine
	case file != "":
		start = getIntArg(args, "line", 0)
		if start < 1 {
			return errResult("line is required with file"), nil
		}
		end = start
		l, _ := lang.LanguageForExtension(filepath.Ext(file))
		language = string(l)
	default:
		return errResult("symbol or file is required"), nil
	}

	src, err := discover.ReadFile(filepath.Join(proj.RootPath, filepath.FromSlash(file)))
	if err != nil {
		return errResult(err.Error()), nil
	}
	g := cfg.SynthesizeFromSource(src, language, start, end, s.cfgOptions()...)
	if g.Error != "" {
		return errResult(g.Error), nil
	}

	if getStringArg(args, "format") == "mermaid" {
		return textResult(g.Mermaid()), nil
	}
	return jsonResult(map[string]any{
		"file":       file,
		"complexity": g.Complexity(),
		"graph":      g,
	}), nil
}

func (s *Server) cfgOptions() []cfg.Option {
	if s.opts.LabelWidth > 0 {
		return []cfg.Option{cfg.WithLabelWidth(s.opts.LabelWidth)}
	}
	return nil
}
