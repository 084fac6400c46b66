package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/DeusData/codeflow/internal/model"
)

// callEdgesBatchSize is the max rows per batch INSERT (6 cols × 150 = 900 vars < 999).
const callEdgesBatchSize = 150

// SaveCallEdges inserts call edges. A repeated (caller, callee symbol, line)
// updates the resolution in place.
func (s *Store) SaveCallEdges(ctx context.Context, edges []model.CallEdge) error {
	for i := 0; i < len(edges); i += callEdgesBatchSize {
		if err := s.insertCallEdgeChunk(ctx, edges[i:min(i+callEdgesBatchSize, len(edges))]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) insertCallEdgeChunk(ctx context.Context, batch []model.CallEdge) error {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO call_edges (project, caller_id, callee_id, callee_symbol, line, comment) VALUES `)

	args := make([]any, 0, len(batch)*6)
	for i, e := range batch {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString("(?,?,?,?,?,?)")
		args = append(args, e.Project, e.CallerID, nullID(e.CalleeID), e.CalleeSymbol, e.Line, e.Comment)
	}
	sb.WriteString(` ON CONFLICT(caller_id, callee_symbol, line) DO UPDATE SET
		callee_id=excluded.callee_id, comment=excluded.comment`)

	if _, err := s.q.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("insert call edge batch: %w", err)
	}
	return nil
}

// ClearEdges deletes every call and inheritance edge of a project.
func (s *Store) ClearEdges(ctx context.Context, project string) error {
	if _, err := s.q.ExecContext(ctx, "DELETE FROM call_edges WHERE project=?", project); err != nil {
		return fmt.Errorf("clear call edges: %w", err)
	}
	if _, err := s.q.ExecContext(ctx, "DELETE FROM inheritance WHERE project=?", project); err != nil {
		return fmt.Errorf("clear inheritance: %w", err)
	}
	return nil
}

// Callees returns the distinct resolved callees of an entity.
func (s *Store) Callees(ctx context.Context, id int64) ([]model.Entity, error) {
	return s.queryEntities(ctx, `SELECT `+prefixed("e", entityColumns)+` FROM entities e
		WHERE e.id IN (SELECT callee_id FROM call_edges WHERE caller_id=? AND callee_id IS NOT NULL)
		ORDER BY e.filename, e.start_line, e.id`, id)
}

// Callers returns the distinct entities that call an entity.
func (s *Store) Callers(ctx context.Context, id int64) ([]model.Entity, error) {
	return s.queryEntities(ctx, `SELECT `+prefixed("e", entityColumns)+` FROM entities e
		WHERE e.id IN (SELECT caller_id FROM call_edges WHERE callee_id=?)
		ORDER BY e.filename, e.start_line, e.id`, id)
}

// CallEdgesFrom returns every call made by an entity, dangling ones included.
func (s *Store) CallEdgesFrom(ctx context.Context, callerID int64) ([]model.CallEdge, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT id, project, caller_id, callee_id, callee_symbol, line, comment
		FROM call_edges WHERE caller_id=? ORDER BY line, id`, callerID)
	if err != nil {
		return nil, fmt.Errorf("call edges from: %w", err)
	}
	defer rows.Close()
	return scanCallEdges(rows)
}

// CountCallEdges returns the project's call edges and how many are dangling.
func (s *Store) CountCallEdges(ctx context.Context, project string) (total, dangling int, err error) {
	err = s.q.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(callee_id IS NULL), 0)
		FROM call_edges WHERE project=?`, project).Scan(&total, &dangling)
	return total, dangling, err
}

func scanCallEdges(rows *sql.Rows) ([]model.CallEdge, error) {
	var result []model.CallEdge
	for rows.Next() {
		var (
			e      model.CallEdge
			callee sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &e.Project, &e.CallerID, &callee, &e.CalleeSymbol, &e.Line, &e.Comment); err != nil {
			return nil, err
		}
		e.CalleeID = idPtr(callee)
		result = append(result, e)
	}
	return result, rows.Err()
}

// inheritanceBatchSize keeps 7 cols × 140 = 980 vars < 999.
const inheritanceBatchSize = 140

// SaveInheritance inserts inheritance edges. Edges without a resolved child
// are skipped.
func (s *Store) SaveInheritance(ctx context.Context, edges []model.InheritanceEdge) error {
	var rows []model.InheritanceEdge
	for _, e := range edges {
		if e.ChildID != 0 {
			rows = append(rows, e)
		}
	}
	for i := 0; i < len(rows); i += inheritanceBatchSize {
		batch := rows[i:min(i+inheritanceBatchSize, len(rows))]
		var sb strings.Builder
		sb.WriteString(`INSERT INTO inheritance (project, child_id, parent_symbol, parent_id, kind, filename, line) VALUES `)
		args := make([]any, 0, len(batch)*7)
		for j, e := range batch {
			if j > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString("(?,?,?,?,?,?,?)")
			args = append(args, e.Project, e.ChildID, e.ParentSymbol, nullID(e.ParentID), e.Kind, e.Filename, e.Line)
		}
		sb.WriteString(` ON CONFLICT(child_id, parent_symbol) DO UPDATE SET
			parent_id=excluded.parent_id, kind=excluded.kind, line=excluded.line`)
		if _, err := s.q.ExecContext(ctx, sb.String(), args...); err != nil {
			return fmt.Errorf("insert inheritance batch: %w", err)
		}
	}
	return nil
}

// LoadInheritance returns a project's inheritance edges with child symbols.
func (s *Store) LoadInheritance(ctx context.Context, project string) ([]model.InheritanceEdge, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT i.project, i.filename, i.child_id, c.symbol, i.parent_symbol, i.parent_id, i.kind, i.line
		FROM inheritance i JOIN entities c ON c.id = i.child_id
		WHERE i.project=? ORDER BY i.filename, i.line, i.id`, project)
	if err != nil {
		return nil, fmt.Errorf("load inheritance: %w", err)
	}
	defer rows.Close()
	var result []model.InheritanceEdge
	for rows.Next() {
		var (
			e      model.InheritanceEdge
			parent sql.NullInt64
		)
		if err := rows.Scan(&e.Project, &e.Filename, &e.ChildID, &e.ChildSymbol, &e.ParentSymbol, &parent, &e.Kind, &e.Line); err != nil {
			return nil, err
		}
		e.ParentID = idPtr(parent)
		result = append(result, e)
	}
	return result, rows.Err()
}

func nullID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func idPtr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

// prefixed qualifies a comma-separated column list with a table alias.
func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
