// Package sift is a schema-aware data access layer over an embedded
// SQLite database. Tables are declared with a column schema, queried
// with declarative, Mongo-style criteria objects, and created in the
// background: every operation first awaits its table's outstanding
// CREATE TABLE IF NOT EXISTS, so a table is usable the moment it is
// declared.
//
// Criteria compilation and key filtering live in pkg/query, raw SQL
// execution in pkg/store. This package re-exports their common types
// so most callers import only sift:
//
//	db, err := sift.Open(":memory:")
//	db.Declare("todos", sift.Schema{"id": "integer primary key", "content": "text"})
//	todos, err := db.Table("todos")
//	rows, err := todos.Find(ctx, sift.Criteria{"id": sift.Gt(1)})
package sift

import (
	"github.com/siftdb/sift/pkg/query"
	"github.com/siftdb/sift/pkg/store"
)

// Core shapes, shared with pkg/query and pkg/store.
type (
	// Schema maps column names to column-type declarations.
	Schema = query.Schema
	// Criteria maps column names to match specifications.
	Criteria = query.Criteria
	// Cond is a single operator/operand comparison.
	Cond = query.Cond
	// Row is a result row keyed by column name.
	Row = store.Row
	// Result is the write summary of a mutating operation.
	Result = store.Result
)

// Condition constructors, re-exported from pkg/query.
var (
	Eq   = query.Eq
	Ne   = query.Ne
	Gt   = query.Gt
	Gte  = query.Gte
	Lt   = query.Lt
	Lte  = query.Lte
	Like = query.Like
	Glob = query.Glob
	Not  = query.Not
	In   = query.In
)
