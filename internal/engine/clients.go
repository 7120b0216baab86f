// Package engine ties classification, policy evaluation, ledger
// cataloguing, and delegated execution together. It owns the order of
// operations; the heavy lifting lives in the classifier, safety, and client
// packages.
package engine

import (
	"context"

	"github.com/triage-ai/querygate/internal/database"
)

// DatabaseClient executes pre-validated statements. readonly selects
// read-only transaction semantics.
type DatabaseClient interface {
	Execute(ctx context.Context, statements []string, readonly bool) ([]database.RowSet, error)
}

// APIClient executes management-API requests that cleared the policy check.
type APIClient interface {
	Execute(ctx context.Context, method, path string, query map[string]string, body map[string]any) (any, error)
}

// QueryResult mirrors the executed statements, one row set each.
type QueryResult struct {
	Results []database.RowSet `json:"results"`
}

// truncateOp shortens operation text for logs and audit events.
func truncateOp(s string) string {
	const max = 120
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
