package explorer

import (
	"errors"
	"fmt"
)

// LoadError reports a failed table-list load or page read. Retrying the
// same read is always safe.
type LoadError struct {
	Op    string
	Table string
	Err   error
}

func (e *LoadError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// MutationError reports a failed insert, update, delete or reset. The row
// dialog that issued it stays open with its draft intact.
type MutationError struct {
	Op    string
	Table string
	Err   error
}

func (e *MutationError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

// QueryError reports a failed console statement.
type QueryError struct {
	Statement string
	Err       error
}

func (e *QueryError) Error() string { return "query: " + e.Message() }

func (e *QueryError) Unwrap() error { return e.Err }

// Message returns the backend's own message, without the wrapping added on
// the way up from the driver.
func (e *QueryError) Message() string {
	if e.Err == nil {
		return ""
	}
	inner := e.Err
	for {
		next := errors.Unwrap(inner)
		if next == nil {
			return inner.Error()
		}
		inner = next
	}
}
