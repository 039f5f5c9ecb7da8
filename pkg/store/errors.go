package store

import "fmt"

// Error wraps a failure propagated from the underlying database
// driver: syntax errors, constraint violations, I/O failures. Op
// names the store operation that failed.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
