// Package store persists harvested entities and their relationships in
// SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Querier abstracts *sql.DB and *sql.Tx so store methods work in both contexts.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store wraps a SQLite connection.
type Store struct {
	db     *sql.DB
	q      Querier // active querier: db or tx
	dbPath string
}

// DefaultPath returns the default database location under the user cache.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	return filepath.Join(home, ".cache", "codeflow", "codeflow.db"), nil
}

// OpenPath opens or creates the database at dbPath.
func OpenPath(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return open(db, dbPath)
}

// OpenMemory opens an in-memory database (for testing).
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open memory db: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	return open(db, ":memory:")
}

func open(db *sql.DB, path string) (*Store, error) {
	s := &Store{db: db, dbPath: path}
	s.q = s.db
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// WithTransaction executes fn within a single SQLite transaction.
// The callback receives a transaction-scoped Store; the receiver keeps using
// the plain connection, so concurrent readers are unaffected.
func (s *Store) WithTransaction(ctx context.Context, fn func(tx *Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	txStore := &Store{db: s.db, q: tx, dbPath: s.dbPath}
	if err := fn(txStore); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		name TEXT PRIMARY KEY,
		indexed_at TEXT NOT NULL,
		root_path TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS file_hashes (
		project TEXT NOT NULL REFERENCES projects(name) ON DELETE CASCADE,
		rel_path TEXT NOT NULL,
		hash TEXT NOT NULL,
		PRIMARY KEY (project, rel_path)
	);

	CREATE TABLE IF NOT EXISTS entities (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project TEXT NOT NULL REFERENCES projects(name) ON DELETE CASCADE,
		symbol TEXT NOT NULL,
		kind TEXT NOT NULL,
		language TEXT NOT NULL,
		filename TEXT NOT NULL,
		start_line INTEGER NOT NULL,
		end_line INTEGER NOT NULL,
		start_byte INTEGER DEFAULT 0,
		end_byte INTEGER DEFAULT 0,
		source TEXT DEFAULT '',
		comment TEXT DEFAULT '',
		parameters TEXT DEFAULT '',
		return_type TEXT DEFAULT '',
		source_hash TEXT DEFAULT '',
		UNIQUE(project, filename, symbol, start_line)
	);

	CREATE INDEX IF NOT EXISTS idx_entities_symbol ON entities(project, symbol);
	CREATE INDEX IF NOT EXISTS idx_entities_file ON entities(project, filename);
	CREATE INDEX IF NOT EXISTS idx_entities_kind ON entities(project, kind);

	CREATE TABLE IF NOT EXISTS call_edges (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project TEXT NOT NULL REFERENCES projects(name) ON DELETE CASCADE,
		caller_id INTEGER NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
		callee_id INTEGER REFERENCES entities(id) ON DELETE SET NULL,
		callee_symbol TEXT NOT NULL,
		line INTEGER DEFAULT 0,
		comment TEXT DEFAULT '',
		UNIQUE(caller_id, callee_symbol, line)
	);

	CREATE INDEX IF NOT EXISTS idx_call_edges_caller ON call_edges(caller_id);
	CREATE INDEX IF NOT EXISTS idx_call_edges_callee ON call_edges(callee_id);
	CREATE INDEX IF NOT EXISTS idx_call_edges_project ON call_edges(project);

	CREATE TABLE IF NOT EXISTS inheritance (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project TEXT NOT NULL REFERENCES projects(name) ON DELETE CASCADE,
		child_id INTEGER NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
		parent_symbol TEXT NOT NULL,
		parent_id INTEGER REFERENCES entities(id) ON DELETE SET NULL,
		kind TEXT NOT NULL,
		filename TEXT DEFAULT '',
		line INTEGER DEFAULT 0,
		UNIQUE(child_id, parent_symbol)
	);

	CREATE INDEX IF NOT EXISTS idx_inheritance_parent ON inheritance(parent_id);

	CREATE TABLE IF NOT EXISTS occurrences (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project TEXT NOT NULL REFERENCES projects(name) ON DELETE CASCADE,
		symbol TEXT NOT NULL,
		role TEXT NOT NULL,
		is_definition INTEGER NOT NULL DEFAULT 0,
		is_write INTEGER NOT NULL DEFAULT 0,
		filename TEXT NOT NULL,
		line INTEGER NOT NULL,
		start_column INTEGER NOT NULL,
		end_column INTEGER NOT NULL,
		context TEXT DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_occurrences_symbol ON occurrences(project, symbol);
	CREATE INDEX IF NOT EXISTS idx_occurrences_file ON occurrences(project, filename);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Now returns the current time in ISO 8601 format.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
