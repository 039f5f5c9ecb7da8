// Package store provides the raw SQL execution primitive: three
// operations (Run, Get, All) over an embedded relational database
// reached through database/sql. Statements are parameterized; the
// store binds positionally and knows nothing about schemas or
// criteria.
package store

import "context"

// Row is a single result row keyed by column name.
type Row map[string]any

// Result is the write summary of a mutating statement.
type Result struct {
	LastInsertID int64
	RowsAffected int64
}

// Store executes parameterized SQL. Run is for mutating statements,
// Get returns the first matching row or nil when none match, All
// returns every matching row in result order.
type Store interface {
	Run(ctx context.Context, query string, args ...any) (Result, error)
	Get(ctx context.Context, query string, args ...any) (Row, error)
	All(ctx context.Context, query string, args ...any) ([]Row, error)
	Close() error
}
