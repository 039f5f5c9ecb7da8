package sift

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/siftdb/sift/pkg/query"
	"github.com/siftdb/sift/pkg/store"
)

// DB is a handle on one database: the underlying store plus every
// declared table's schema and readiness state. Handles are safe for
// concurrent use; the store itself serializes statement execution.
type DB struct {
	store  store.Store
	logger *slog.Logger

	mu     sync.RWMutex
	tables map[string]*tableState
}

// tableState is one table's registration: its schema snapshot and the
// future for its outstanding creation statement. done is closed once
// the statement finished; err is set before the close on failure.
type tableState struct {
	schema query.Schema
	done   chan struct{}
	err    error
}

// Option configures a DB.
type Option func(*DB)

// WithLogger sets the logger used for creation failures and compiler
// diagnostics. Open passes it down to the store for statement-level
// debug logging.
func WithLogger(logger *slog.Logger) Option {
	return func(db *DB) {
		if logger != nil {
			db.logger = logger
		}
	}
}

// New builds a DB over an existing store. Open is the usual entry
// point; New exists for callers that construct the store themselves.
func New(st store.Store, opts ...Option) *DB {
	db := &DB{
		store:  st,
		logger: slog.New(slog.DiscardHandler),
		tables: make(map[string]*tableState),
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Open opens the database at path. An empty path or ":memory:" opens
// a transient in-memory database.
func Open(path string, opts ...Option) (*DB, error) {
	db := New(nil, opts...)
	st, err := store.Open(path, store.WithLogger(db.logger))
	if err != nil {
		return nil, err
	}
	db.store = st
	return db, nil
}

// Declare validates and records the schema for name, then issues its
// CREATE TABLE IF NOT EXISTS statement in the background; it does not
// wait for the statement to finish. Operations on the table block
// until the creation completes, so declare-then-write is safe.
// Re-declaring a table replaces its readiness state: operations
// started afterwards await the new creation.
func (db *DB) Declare(name string, schema Schema) error {
	if name == "" {
		return &SchemaError{Table: name, Reason: "table name is empty"}
	}
	if len(schema) == 0 {
		return &SchemaError{Table: name, Reason: "schema must be a non-empty column mapping"}
	}
	cloned := make(query.Schema, len(schema))
	for col, typ := range schema {
		if col == "" {
			return &SchemaError{Table: name, Reason: "schema contains an empty column name"}
		}
		cloned[col] = typ
	}

	st := &tableState{schema: cloned, done: make(chan struct{})}
	db.mu.Lock()
	db.tables[name] = st
	db.mu.Unlock()

	ddl := createTableSQL(name, cloned)
	go func() {
		if _, err := db.store.Run(context.Background(), ddl); err != nil {
			st.err = fmt.Errorf("creating table %s: %w", name, err)
			db.logger.Error("table creation failed", "table", name, "error", err)
		}
		close(st.done)
	}()
	return nil
}

// Table returns the operations facade for a declared table. The
// facade tracks re-declarations: each operation awaits the table's
// readiness state current at call time.
func (db *DB) Table(name string) (*Table, error) {
	if _, err := db.state(name); err != nil {
		return nil, err
	}
	return &Table{db: db, name: name}, nil
}

// Tables returns the declared table names in sorted order.
func (db *DB) Tables() []string {
	db.mu.RLock()
	names := make([]string, 0, len(db.tables))
	for name := range db.tables {
		names = append(names, name)
	}
	db.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Schema returns a copy of the declared schema for name.
func (db *DB) Schema(name string) (Schema, error) {
	st, err := db.state(name)
	if err != nil {
		return nil, err
	}
	out := make(Schema, len(st.schema))
	for col, typ := range st.schema {
		out[col] = typ
	}
	return out, nil
}

// Ready blocks until every declared table's creation has completed,
// returning the first failure. Useful after declaring several tables
// at startup.
func (db *DB) Ready(ctx context.Context) error {
	for _, name := range db.Tables() {
		if _, err := db.awaitReady(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying store. Declared state dies with the
// handle; there is no other teardown.
func (db *DB) Close() error {
	return db.store.Close()
}

func (db *DB) state(name string) (*tableState, error) {
	db.mu.RLock()
	st, ok := db.tables[name]
	db.mu.RUnlock()
	if !ok {
		return nil, &UndeclaredTableError{Table: name}
	}
	return st, nil
}

// awaitReady suspends until the table's outstanding creation has
// completed, then returns the schema snapshot that creation was
// issued with.
func (db *DB) awaitReady(ctx context.Context, name string) (query.Schema, error) {
	st, err := db.state(name)
	if err != nil {
		return nil, err
	}
	select {
	case <-st.done:
		if st.err != nil {
			return nil, st.err
		}
		return st.schema, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// createTableSQL renders the creation statement for a schema. Column
// types are forwarded verbatim; columns are emitted in sorted order
// so the statement is deterministic.
func createTableSQL(name string, schema query.Schema) string {
	cols := make([]string, 0, len(schema))
	for col := range schema {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	parts := make([]string, len(cols))
	for i, col := range cols {
		parts[i] = col + " " + schema[col]
	}
	return fmt.Sprintf("create table if not exists %s (%s)", name, strings.Join(parts, ", "))
}
