package store

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/DeusData/codeflow/internal/model"
)

// SearchParams defines structured entity search parameters.
type SearchParams struct {
	Project     string
	Kind        string
	NamePattern string // regex over the symbol
	FilePattern string // glob over the filename
	Limit       int
	Offset      int
}

// SearchResult is an entity with its call degree.
type SearchResult struct {
	Entity    model.Entity `json:"entity" yaml:"entity"`
	InDegree  int          `json:"in_degree" yaml:"in_degree"`
	OutDegree int          `json:"out_degree" yaml:"out_degree"`
}

// SearchOutput wraps search results with total count for pagination.
type SearchOutput struct {
	Results []*SearchResult `json:"results" yaml:"results"`
	Total   int             `json:"total" yaml:"total"`
}

// Search executes a parameterized entity search with pagination support.
func (s *Store) Search(ctx context.Context, params SearchParams) (*SearchOutput, error) {
	if params.Limit <= 0 {
		params.Limit = 100
	}

	conditions := []string{"project = ?"}
	args := []any{params.Project}
	if params.Kind != "" {
		conditions = append(conditions, "kind = ?")
		args = append(args, params.Kind)
	}
	if params.FilePattern != "" {
		conditions = append(conditions, "filename LIKE ?")
		args = append(args, globToLike(params.FilePattern))
	}

	query := fmt.Sprintf(`SELECT %s FROM entities WHERE %s ORDER BY filename, start_line, id`,
		entityColumns, strings.Join(conditions, " AND "))
	ents, err := s.queryEntities(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	if params.NamePattern != "" {
		if ents, err = filterByNamePattern(ents, params.NamePattern); err != nil {
			return nil, err
		}
	}

	total := len(ents)
	start := min(params.Offset, total)
	end := min(start+params.Limit, total)

	out := &SearchOutput{Total: total, Results: make([]*SearchResult, 0, end-start)}
	for _, e := range ents[start:end] {
		sr := &SearchResult{Entity: e}
		if err := s.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM call_edges WHERE callee_id=?", e.ID).Scan(&sr.InDegree); err != nil {
			return nil, fmt.Errorf("search in-degree: %w", err)
		}
		if err := s.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM call_edges WHERE caller_id=?", e.ID).Scan(&sr.OutDegree); err != nil {
			return nil, fmt.Errorf("search out-degree: %w", err)
		}
		out.Results = append(out.Results, sr)
	}
	return out, nil
}

// globToLike converts a glob pattern to SQL LIKE pattern.
func globToLike(pattern string) string {
	result := strings.ReplaceAll(pattern, "**", "%")
	result = strings.ReplaceAll(result, "*", "%")
	result = strings.ReplaceAll(result, "?", "_")
	return result
}

// filterByNamePattern filters entities by a regex over the symbol.
func filterByNamePattern(ents []model.Entity, pattern string) ([]model.Entity, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid name pattern: %w", err)
	}
	var filtered []model.Entity
	for _, e := range ents {
		if re.MatchString(e.Symbol) {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}
