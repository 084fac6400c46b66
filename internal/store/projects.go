package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Project represents an indexed project.
type Project struct {
	Name      string `json:"name" yaml:"name"`
	IndexedAt string `json:"indexed_at" yaml:"indexed_at"`
	RootPath  string `json:"root_path" yaml:"root_path"`
}

// UpsertProject creates or updates a project record.
func (s *Store) UpsertProject(ctx context.Context, name, rootPath string) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO projects (name, indexed_at, root_path) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET indexed_at=excluded.indexed_at, root_path=excluded.root_path`,
		name, Now(), rootPath)
	if err != nil {
		return fmt.Errorf("upsert project: %w", err)
	}
	return nil
}

// GetProject returns a project by name, or nil when it does not exist.
func (s *Store) GetProject(ctx context.Context, name string) (*Project, error) {
	var p Project
	err := s.q.QueryRowContext(ctx, "SELECT name, indexed_at, root_path FROM projects WHERE name=?", name).
		Scan(&p.Name, &p.IndexedAt, &p.RootPath)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return &p, nil
}

// ListProjects returns all indexed projects.
func (s *Store) ListProjects(ctx context.Context) ([]*Project, error) {
	rows, err := s.q.QueryContext(ctx, "SELECT name, indexed_at, root_path FROM projects ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()
	var result []*Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.Name, &p.IndexedAt, &p.RootPath); err != nil {
			return nil, err
		}
		result = append(result, &p)
	}
	return result, rows.Err()
}

// ResolveProject returns the named project, or the only indexed one when
// name is empty.
func (s *Store) ResolveProject(ctx context.Context, name string) (*Project, error) {
	if name != "" {
		p, err := s.GetProject(ctx, name)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("project not found: %s", name)
		}
		return p, nil
	}
	projects, err := s.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	switch len(projects) {
	case 0:
		return nil, errors.New("no indexed projects; run index first")
	case 1:
		return projects[0], nil
	}
	return nil, fmt.Errorf("project is required when %d projects are indexed", len(projects))
}

// DeleteProject deletes a project and all associated data (CASCADE).
func (s *Store) DeleteProject(ctx context.Context, name string) error {
	_, err := s.q.ExecContext(ctx, "DELETE FROM projects WHERE name=?", name)
	return err
}

// UpsertFileHash stores a file's content hash.
func (s *Store) UpsertFileHash(ctx context.Context, project, relPath, hash string) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO file_hashes (project, rel_path, hash) VALUES (?, ?, ?)
		ON CONFLICT(project, rel_path) DO UPDATE SET hash=excluded.hash`,
		project, relPath, hash)
	return err
}

// GetFileHashes returns all file hashes for a project keyed by relative path.
func (s *Store) GetFileHashes(ctx context.Context, project string) (map[string]string, error) {
	rows, err := s.q.QueryContext(ctx, "SELECT rel_path, hash FROM file_hashes WHERE project=?", project)
	if err != nil {
		return nil, fmt.Errorf("get file hashes: %w", err)
	}
	defer rows.Close()
	result := make(map[string]string)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, err
		}
		result[path] = hash
	}
	return result, rows.Err()
}

// DeleteFileHashes deletes all file hashes for a project.
func (s *Store) DeleteFileHashes(ctx context.Context, project string) error {
	_, err := s.q.ExecContext(ctx, "DELETE FROM file_hashes WHERE project=?", project)
	return err
}
