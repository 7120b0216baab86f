package database

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapError_SQLStates(t *testing.T) {
	tests := []struct {
		code string
		want any
	}{
		{"42501", &PermissionError{}},
		{"08006", &ConnectionError{}},
		{"28P01", &ConnectionError{}},
		{"57P01", &ConnectionError{}},
		{"42P01", &QueryError{}}, // undefined_table
		{"23505", &QueryError{}}, // unique_violation
	}
	for _, tt := range tests {
		mapped := mapError(&pgconn.PgError{Code: tt.code, Message: "boom"})
		switch tt.want.(type) {
		case *PermissionError:
			var e *PermissionError
			if !errors.As(mapped, &e) {
				t.Errorf("code %s: got %T, want PermissionError", tt.code, mapped)
			}
		case *ConnectionError:
			var e *ConnectionError
			if !errors.As(mapped, &e) {
				t.Errorf("code %s: got %T, want ConnectionError", tt.code, mapped)
			}
		case *QueryError:
			var e *QueryError
			if !errors.As(mapped, &e) {
				t.Errorf("code %s: got %T, want QueryError", tt.code, mapped)
			}
		}
	}
}

func TestMapError_ContextAndTransport(t *testing.T) {
	var connErr *ConnectionError
	if !errors.As(mapError(context.DeadlineExceeded), &connErr) {
		t.Error("deadline exceeded must map to ConnectionError")
	}
	if !errors.As(mapError(errors.New("dial tcp: connection refused")), &connErr) {
		t.Error("transport failures must map to ConnectionError")
	}
}

func TestPermissionError_Guidance(t *testing.T) {
	err := &PermissionError{Message: "permission denied for table users"}
	if !strings.Contains(err.Error(), "unsafe mode") {
		t.Errorf("message must point at the mode switch: %s", err.Error())
	}
}

func TestErrors_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	for _, err := range []error{
		&ConnectionError{Message: "m", Err: inner},
		&PermissionError{Message: "m", Err: inner},
		&QueryError{Message: "m", Err: inner},
	} {
		if !errors.Is(err, inner) {
			t.Errorf("%T does not unwrap its cause", err)
		}
	}
}
