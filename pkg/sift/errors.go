package sift

import (
	"errors"
	"fmt"

	"github.com/siftdb/sift/pkg/query"
	"github.com/siftdb/sift/pkg/store"
)

// ErrNotFound is returned by FindOne when no row matches.
var ErrNotFound = errors.New("row not found")

// SchemaError reports an invalid schema passed to Declare.
type SchemaError struct {
	Table  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid schema for table %q: %s", e.Table, e.Reason)
}

// UndeclaredTableError reports an operation against a table name that
// was never declared on this handle.
type UndeclaredTableError struct {
	Table string
}

func (e *UndeclaredTableError) Error() string {
	return fmt.Sprintf("table %q has not been declared", e.Table)
}

// ArgumentShapeError reports a criteria or row argument that does not
// have the required shape.
type ArgumentShapeError struct {
	Reason string
}

func (e *ArgumentShapeError) Error() string {
	return "invalid argument: " + e.Reason
}

// Error types raised by the packages underneath, aliased so callers
// handling failures import one package.
type (
	// UnknownColumnError names a key rejected by the strict write-path
	// filter or an identifier argument absent from the schema.
	UnknownColumnError = query.UnknownColumnError
	// StoreError wraps a failure from the underlying database driver.
	StoreError = store.Error
)
