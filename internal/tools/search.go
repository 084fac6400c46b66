package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DeusData/codeflow/internal/fqn"
	"github.com/DeusData/codeflow/internal/store"
)

func (s *Server) handleSearchEntities(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	proj, err := s.resolveProject(ctx, getStringArg(args, "project"))
	if err != nil {
		return errResult(err.Error()), nil
	}

	params := store.SearchParams{
		Project:     proj.Name,
		Kind:        getStringArg(args, "kind"),
		NamePattern: getStringArg(args, "name_pattern"),
		FilePattern: getStringArg(args, "file_pattern"),
		Limit:       min(max(getIntArg(args, "limit", 50), 1), 200),
		Offset:      max(getIntArg(args, "offset", 0), 0),
	}
	output, err := s.store.Search(ctx, params)
	if err != nil {
		return errResult(fmt.Sprintf("search: %v", err)), nil
	}

	includeSource := getBoolArg(args, "include_source")
	type resultEntry struct {
		ID            int64  `json:"id"`
		Symbol        string `json:"symbol"`
		QualifiedName string `json:"qualified_name"`
		Kind          string `json:"kind"`
		Language      string `json:"language"`
		Filename      string `json:"filename"`
		StartLine     int    `json:"start_line"`
		EndLine       int    `json:"end_line"`
		Parameters    string `json:"parameters,omitempty"`
		ReturnType    string `json:"return_type,omitempty"`
		Comment       string `json:"comment,omitempty"`
		Source        string `json:"source,omitempty"`
		InDegree      int    `json:"in_degree"`
		OutDegree     int    `json:"out_degree"`
	}

	results := make([]resultEntry, 0, len(output.Results))
	for _, r := range output.Results {
		e := r.Entity
		entry := resultEntry{
			ID:            e.ID,
			Symbol:        e.Symbol,
			QualifiedName: fqn.Compute(proj.Name, e.Filename, e.Symbol),
			Kind:          e.Kind,
			Language:      e.Language,
			Filename:      e.Filename,
			StartLine:     e.StartLine,
			EndLine:       e.EndLine,
			Parameters:    e.Parameters,
			ReturnType:    e.ReturnType,
			Comment:       e.Comment,
			InDegree:      r.InDegree,
			OutDegree:     r.OutDegree,
		}
		if includeSource {
			entry.Source = e.Source
		}
		results = append(results, entry)
	}

	return jsonResult(map[string]any{
		"project":  proj.Name,
		"total":    output.Total,
		"limit":    params.Limit,
		"offset":   params.Offset,
		"has_more": params.Offset+params.Limit < output.Total,
		"results":  results,
	}), nil
}
