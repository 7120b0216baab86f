package database

import "fmt"

// ConnectionError reports a failure to reach or stay connected to the
// database.
type ConnectionError struct {
	Message string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("database connection failed: %s", e.Message)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// PermissionError reports insufficient privileges. The message carries
// guidance toward unsafe mode, since a safe-mode read-only transaction is
// the usual cause.
type PermissionError struct {
	Message string
	Err     error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("access denied: %s; enable unsafe mode on the database surface for write operations", e.Message)
}

func (e *PermissionError) Unwrap() error { return e.Err }

// QueryError reports a statement that the database rejected: schema errors,
// constraint violations, and general execution failures.
type QueryError struct {
	Message string
	Err     error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query execution failed: %s", e.Message)
}

func (e *QueryError) Unwrap() error { return e.Err }
