package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// InMemory is the path designator for a transient in-memory database.
const InMemory = ":memory:"

var errNotEstablished = errors.New("database connection not established")

// SQLStore executes statements against a SQLite database. The handle
// is restricted to a single connection, so statements from concurrent
// callers are serialized by database/sql rather than interleaved, and
// an in-memory database stays coherent across calls.
type SQLStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Option configures an SQLStore.
type Option func(*SQLStore)

// WithLogger sets the logger used for statement-level debug logging.
func WithLogger(logger *slog.Logger) Option {
	return func(s *SQLStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New wraps an existing database handle. Open is the usual entry
// point; New exists for callers that manage the handle themselves.
func New(db *sql.DB, opts ...Option) *SQLStore {
	s := &SQLStore{db: db, path: InMemory, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open opens the database at path, creating parent directories as
// needed. An empty path or ":memory:" opens a transient in-memory
// database.
func Open(path string, opts ...Option) (*SQLStore, error) {
	s := &SQLStore{path: path, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(s)
	}

	dsn := path
	if path == "" || path == InMemory {
		s.path = InMemory
		dsn = InMemory
	} else {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		dsn = fmt.Sprintf("file:%s?mode=rwc", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to sqlite database: %w", err)
	}

	s.db = db
	s.logger.Debug("opened database", "path", s.path)
	return s, nil
}

// Path returns the path the store was opened with, or ":memory:".
func (s *SQLStore) Path() string {
	return s.path
}

// Run executes a mutating statement and reports its write summary.
// LastInsertID and RowsAffected are best-effort values as provided by
// the driver.
func (s *SQLStore) Run(ctx context.Context, query string, args ...any) (Result, error) {
	if s.db == nil {
		return Result{}, &Error{Op: "run", Err: errNotEstablished}
	}
	s.logger.Debug("run", "sql", query, "args", args)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return Result{}, &Error{Op: "run", Err: err}
	}
	id, _ := res.LastInsertId()
	affected, _ := res.RowsAffected()
	return Result{LastInsertID: id, RowsAffected: affected}, nil
}

// Get executes a query and returns the first row, or nil when the
// query matches nothing.
func (s *SQLStore) Get(ctx context.Context, query string, args ...any) (Row, error) {
	if s.db == nil {
		return nil, &Error{Op: "get", Err: errNotEstablished}
	}
	s.logger.Debug("get", "sql", query, "args", args)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &Error{Op: "get", Err: err}
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, &Error{Op: "get", Err: err}
		}
		return nil, nil
	}
	row, err := scanRow(rows)
	if err != nil {
		return nil, &Error{Op: "get", Err: err}
	}
	return row, nil
}

// All executes a query and returns every row in result order.
func (s *SQLStore) All(ctx context.Context, query string, args ...any) ([]Row, error) {
	if s.db == nil {
		return nil, &Error{Op: "all", Err: errNotEstablished}
	}
	s.logger.Debug("all", "sql", query, "args", args)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &Error{Op: "all", Err: err}
	}
	defer func() { _ = rows.Close() }()

	var out []Row
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, &Error{Op: "all", Err: err}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &Error{Op: "all", Err: err}
	}
	return out, nil
}

// Close releases the database handle. Safe to call on a store that
// never opened.
func (s *SQLStore) Close() error {
	if s.db == nil {
		return nil
	}
	s.logger.Debug("closing database", "path", s.path)
	err := s.db.Close()
	s.db = nil
	return err
}

// scanRow reads the current row into a map keyed by column name.
// Byte slices become strings so text columns render and compare as
// plain strings.
func scanRow(rows *sql.Rows) (Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	row := make(Row, len(cols))
	for i, col := range cols {
		v := values[i]
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		row[col] = v
	}
	return row, nil
}
