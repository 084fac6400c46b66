package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/DeusData/codeflow/internal/model"
)

// occurrencesBatchSize keeps 10 cols × 99 = 990 vars < 999.
const occurrencesBatchSize = 99

// SaveOccurrences appends identifier occurrences for a project.
func (s *Store) SaveOccurrences(ctx context.Context, project string, occs []model.IdentifierOccurrence) error {
	for i := 0; i < len(occs); i += occurrencesBatchSize {
		batch := occs[i:min(i+occurrencesBatchSize, len(occs))]
		var sb strings.Builder
		sb.WriteString(`INSERT INTO occurrences (project, symbol, role, is_definition, is_write, filename,
			line, start_column, end_column, context) VALUES `)
		args := make([]any, 0, len(batch)*10)
		for j, o := range batch {
			if j > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString("(?,?,?,?,?,?,?,?,?,?)")
			args = append(args, project, o.Symbol, o.Role, o.IsDefinition, o.IsWrite, o.Filename,
				o.Line, o.StartColumn, o.EndColumn, o.Context)
		}
		if _, err := s.q.ExecContext(ctx, sb.String(), args...); err != nil {
			return fmt.Errorf("insert occurrence batch: %w", err)
		}
	}
	return nil
}

// DeleteOccurrences deletes every occurrence of a project.
func (s *Store) DeleteOccurrences(ctx context.Context, project string) error {
	_, err := s.q.ExecContext(ctx, "DELETE FROM occurrences WHERE project=?", project)
	return err
}

// FindReferences returns the occurrences of symbol, definitions first, then
// in file and position order.
func (s *Store) FindReferences(ctx context.Context, project, symbol string) ([]model.IdentifierOccurrence, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT symbol, role, is_definition, is_write, filename, line,
		start_column, end_column, context
		FROM occurrences WHERE project=? AND symbol=?
		ORDER BY is_definition DESC, filename, line, start_column`, project, symbol)
	if err != nil {
		return nil, fmt.Errorf("find references: %w", err)
	}
	defer rows.Close()
	var result []model.IdentifierOccurrence
	for rows.Next() {
		var o model.IdentifierOccurrence
		if err := rows.Scan(&o.Symbol, &o.Role, &o.IsDefinition, &o.IsWrite, &o.Filename, &o.Line,
			&o.StartColumn, &o.EndColumn, &o.Context); err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	return result, rows.Err()
}
