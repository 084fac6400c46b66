package store

import (
	"context"
	"fmt"
)

// Stats summarizes what a project holds.
type Stats struct {
	Kinds         []KindCount `json:"kinds" yaml:"kinds"`
	Files         int         `json:"files" yaml:"files"`
	CallEdges     int         `json:"call_edges" yaml:"call_edges"`
	DanglingCalls int         `json:"dangling_calls" yaml:"dangling_calls"`
	Inheritance   int         `json:"inheritance" yaml:"inheritance"`
	Occurrences   int         `json:"occurrences" yaml:"occurrences"`
}

// KindCount is an entity kind with its count.
type KindCount struct {
	Kind  string `json:"kind" yaml:"kind"`
	Count int    `json:"count" yaml:"count"`
}

// GetStats returns entity and edge counts for a project.
func (s *Store) GetStats(ctx context.Context, project string) (*Stats, error) {
	st := &Stats{}
	rows, err := s.q.QueryContext(ctx, "SELECT kind, COUNT(*) AS cnt FROM entities WHERE project=? GROUP BY kind ORDER BY cnt DESC, kind", project)
	if err != nil {
		return nil, fmt.Errorf("stats kinds: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kc KindCount
		if err := rows.Scan(&kc.Kind, &kc.Count); err != nil {
			return nil, err
		}
		st.Kinds = append(st.Kinds, kc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if st.CallEdges, st.DanglingCalls, err = s.CountCallEdges(ctx, project); err != nil {
		return nil, fmt.Errorf("stats call edges: %w", err)
	}
	counts := []struct {
		dst   *int
		query string
	}{
		{&st.Files, "SELECT COUNT(*) FROM file_hashes WHERE project=?"},
		{&st.Inheritance, "SELECT COUNT(*) FROM inheritance WHERE project=?"},
		{&st.Occurrences, "SELECT COUNT(*) FROM occurrences WHERE project=?"},
	}
	for _, c := range counts {
		if err := s.q.QueryRowContext(ctx, c.query, project).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("stats: %w", err)
		}
	}
	return st, nil
}
