package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/DeusData/codeflow/internal/model"
)

const entityColumns = `id, project, symbol, kind, language, filename, start_line, end_line,
	start_byte, end_byte, source, comment, parameters, return_type, source_hash`

// Formula-derived batch size: SQLite has a 999 bind variable limit.
const numEntityCols = 14
const entitiesBatchSize = 999 / numEntityCols // = 71

// SaveEntities upserts entities keyed by (project, filename, symbol,
// start_line) and writes the row ids back into ents.
func (s *Store) SaveEntities(ctx context.Context, ents []model.Entity) error {
	for i := 0; i < len(ents); i += entitiesBatchSize {
		end := min(i+entitiesBatchSize, len(ents))
		if err := s.upsertEntityChunk(ctx, ents[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) upsertEntityChunk(ctx context.Context, batch []model.Entity) error {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO entities (project, symbol, kind, language, filename, start_line, end_line,
		start_byte, end_byte, source, comment, parameters, return_type, source_hash) VALUES `)

	args := make([]any, 0, len(batch)*numEntityCols)
	for i, e := range batch {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString("(?,?,?,?,?,?,?,?,?,?,?,?,?,?)")
		args = append(args, e.Project, e.Symbol, e.Kind, e.Language, e.Filename, e.StartLine, e.EndLine,
			e.StartByte, e.EndByte, e.Source, e.Comment, e.Parameters, e.ReturnType, e.SourceHash)
	}
	sb.WriteString(` ON CONFLICT(project, filename, symbol, start_line) DO UPDATE SET
		kind=excluded.kind, language=excluded.language, end_line=excluded.end_line,
		start_byte=excluded.start_byte, end_byte=excluded.end_byte, source=excluded.source,
		comment=excluded.comment, parameters=excluded.parameters, return_type=excluded.return_type,
		source_hash=excluded.source_hash
		RETURNING id, project, filename, symbol, start_line`)

	rows, err := s.q.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return fmt.Errorf("upsert entity batch: %w", err)
	}
	defer rows.Close()

	type rowKey struct {
		project string
		key     model.Key
	}
	ids := make(map[rowKey]int64, len(batch))
	for rows.Next() {
		var (
			id int64
			k  rowKey
		)
		if err := rows.Scan(&id, &k.project, &k.key.Filename, &k.key.Symbol, &k.key.StartLine); err != nil {
			return err
		}
		ids[k] = id
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("upsert entity batch: %w", err)
	}
	for i := range batch {
		batch[i].ID = ids[rowKey{batch[i].Project, batch[i].Key()}]
	}
	return nil
}

// FindEntities returns the entities named symbol in a project.
func (s *Store) FindEntities(ctx context.Context, project, symbol string) ([]model.Entity, error) {
	return s.queryEntities(ctx, `SELECT `+entityColumns+` FROM entities
		WHERE project=? AND symbol=? ORDER BY filename, start_line, id`, project, symbol)
}

// FindEntity returns the entities named symbol with the given kind; an empty
// kind matches any.
func (s *Store) FindEntity(ctx context.Context, project, symbol, kind string) ([]model.Entity, error) {
	if kind == "" {
		return s.FindEntities(ctx, project, symbol)
	}
	return s.queryEntities(ctx, `SELECT `+entityColumns+` FROM entities
		WHERE project=? AND symbol=? AND kind=? ORDER BY filename, start_line, id`, project, symbol, kind)
}

// FindEntityByID returns one entity, or nil.
func (s *Store) FindEntityByID(ctx context.Context, id int64) (*model.Entity, error) {
	ents, err := s.queryEntities(ctx, `SELECT `+entityColumns+` FROM entities WHERE id=?`, id)
	if err != nil || len(ents) == 0 {
		return nil, err
	}
	return &ents[0], nil
}

// LoadEntities returns every entity of a project in file and line order.
func (s *Store) LoadEntities(ctx context.Context, project string) ([]model.Entity, error) {
	return s.queryEntities(ctx, `SELECT `+entityColumns+` FROM entities
		WHERE project=? ORDER BY filename, start_line, id`, project)
}

// CountEntities returns the number of entities in a project.
func (s *Store) CountEntities(ctx context.Context, project string) (int, error) {
	var count int
	err := s.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM entities WHERE project=?", project).Scan(&count)
	return count, err
}

// DeleteEntities deletes every entity of a project. Call edges and
// inheritance rows owned by them go too.
func (s *Store) DeleteEntities(ctx context.Context, project string) error {
	_, err := s.q.ExecContext(ctx, "DELETE FROM entities WHERE project=?", project)
	return err
}

// DeleteEntitiesByID deletes the given entities.
func (s *Store) DeleteEntitiesByID(ctx context.Context, ids []int64) error {
	// 999-var limit.
	const chunk = 998
	for i := 0; i < len(ids); i += chunk {
		part := ids[i:min(i+chunk, len(ids))]
		args := make([]any, len(part))
		for j, id := range part {
			args[j] = id
		}
		query := fmt.Sprintf("DELETE FROM entities WHERE id IN (%s)", placeholders(len(part)))
		if _, err := s.q.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("delete entities: %w", err)
		}
	}
	return nil
}

func (s *Store) queryEntities(ctx context.Context, query string, args ...any) ([]model.Entity, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entities: %w", err)
	}
	defer rows.Close()
	return scanEntities(rows)
}

func scanEntities(rows *sql.Rows) ([]model.Entity, error) {
	var result []model.Entity
	for rows.Next() {
		var e model.Entity
		if err := rows.Scan(&e.ID, &e.Project, &e.Symbol, &e.Kind, &e.Language, &e.Filename, &e.StartLine, &e.EndLine,
			&e.StartByte, &e.EndByte, &e.Source, &e.Comment, &e.Parameters, &e.ReturnType, &e.SourceHash); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}
