// Package store is the SQLite adapter. One Store wraps one database file;
// the pipeline is the only writer while a run is in flight.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLError wraps a failed statement with enough of its text to debug from a
// log line. The statement is truncated so a megabyte of generated SQL never
// lands in an error message.
type SQLError struct {
	Stmt string
	Err  error
}

const stmtTruncate = 500

func (e *SQLError) Error() string {
	return fmt.Sprintf("store: %v (stmt: %s)", e.Err, e.Stmt)
}

func (e *SQLError) Unwrap() error { return e.Err }

func newSQLError(stmt string, err error) *SQLError {
	if len(stmt) > stmtTruncate {
		stmt = stmt[:stmtTruncate] + "..."
	}
	return &SQLError{Stmt: stmt, Err: err}
}

// Store is a thin wrapper over database/sql for one SQLite file.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path, verifies
// connectivity, and applies the session pragmas: WAL journaling, normal
// syncing, a larger page cache, and in-memory temp storage.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: mkdir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping %s: %w", path, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -64000",
		"PRAGMA temp_store = MEMORY",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: %s: %w", p, err)
		}
	}
	return &Store{db: db, path: path}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for code that needs transactions.
func (s *Store) DB() *sql.DB { return s.db }

// Exec runs one statement in autocommit mode.
func (s *Store) Exec(ctx context.Context, stmt string, args ...any) error {
	if _, err := s.db.ExecContext(ctx, stmt, args...); err != nil {
		return newSQLError(stmt, err)
	}
	return nil
}

// QueryCount runs a single-value query and returns it as an int64.
func (s *Store) QueryCount(ctx context.Context, stmt string, args ...any) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, stmt, args...).Scan(&n); err != nil {
		return 0, newSQLError(stmt, err)
	}
	return n, nil
}

// TableExists reports whether a table of that name exists.
func (s *Store) TableExists(ctx context.Context, name string) (bool, error) {
	const q = "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?"
	n, err := s.QueryCount(ctx, q, name)
	return n > 0, err
}

// InsertRows inserts rows with the given parameterized statement inside one
// transaction, preparing once. Any failure rolls the whole batch back.
func (s *Store) InsertRows(ctx context.Context, stmt string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	ps, err := tx.PrepareContext(ctx, stmt)
	if err != nil {
		tx.Rollback()
		return newSQLError(stmt, err)
	}
	for _, row := range rows {
		if _, err := ps.ExecContext(ctx, row...); err != nil {
			ps.Close()
			tx.Rollback()
			return newSQLError(stmt, err)
		}
	}
	ps.Close()
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// ChunkFn receives result rows in order. cols and declTypes describe the
// result set and are the same on every call; an empty result still gets one
// call with no rows so the consumer can emit headers.
type ChunkFn func(cols []string, declTypes []string, rows [][]any) error

// QueryChunks streams a query's rows to fn in chunks of chunkSize.
func (s *Store) QueryChunks(ctx context.Context, stmt string, args []any, chunkSize int, fn ChunkFn) error {
	if chunkSize <= 0 {
		chunkSize = 5000
	}
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return newSQLError(stmt, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return newSQLError(stmt, err)
	}
	declTypes := make([]string, len(cols))
	if cts, err := rows.ColumnTypes(); err == nil {
		for i, ct := range cts {
			declTypes[i] = ct.DatabaseTypeName()
		}
	}

	chunk := make([][]any, 0, chunkSize)
	sent := false
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return newSQLError(stmt, err)
		}
		chunk = append(chunk, vals)
		if len(chunk) == chunkSize {
			if err := fn(cols, declTypes, chunk); err != nil {
				return err
			}
			sent = true
			chunk = chunk[:0]
		}
	}
	if err := rows.Err(); err != nil {
		return newSQLError(stmt, err)
	}
	if len(chunk) > 0 || !sent {
		return fn(cols, declTypes, chunk)
	}
	return nil
}
