// Package database is the execution client for the protected PostgreSQL
// database. Statements arrive pre-validated; this package only runs them
// inside one transaction per call and maps driver errors to the gateway's
// error kinds.
package database

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// RowSet is the result of one statement.
type RowSet struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// PoolClient executes statements over a pgx connection pool.
type PoolClient struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPoolClient connects a pool and verifies it with a ping.
func NewPoolClient(ctx context.Context, dsn string, logger *zap.Logger) (*PoolClient, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, &ConnectionError{Message: err.Error(), Err: err}
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &ConnectionError{Message: err.Error(), Err: err}
	}
	return &PoolClient{pool: pool, logger: logger}, nil
}

// Close releases the pool.
func (c *PoolClient) Close() {
	c.pool.Close()
}

// Execute runs the statements in one transaction and returns one row set
// per statement. When readonly is set the transaction uses read-only access
// mode, so even a misclassified write fails inside the database.
func (c *PoolClient) Execute(ctx context.Context, statements []string, readonly bool) ([]RowSet, error) {
	access := pgx.ReadWrite
	if readonly {
		access = pgx.ReadOnly
	}

	tx, err := c.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: access})
	if err != nil {
		return nil, mapError(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	results := make([]RowSet, 0, len(statements))
	for _, stmt := range statements {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		rs, err := c.executeStatement(ctx, tx, stmt)
		if err != nil {
			return nil, err
		}
		results = append(results, rs)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, mapError(err)
	}
	return results, nil
}

func (c *PoolClient) executeStatement(ctx context.Context, tx pgx.Tx, stmt string) (RowSet, error) {
	rows, err := tx.Query(ctx, stmt)
	if err != nil {
		return RowSet{}, mapError(err)
	}
	defer rows.Close()

	var rs RowSet
	for _, fd := range rows.FieldDescriptions() {
		rs.Columns = append(rs.Columns, fd.Name)
	}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return RowSet{}, mapError(err)
		}
		row := make(map[string]any, len(values))
		for i, v := range values {
			row[rs.Columns[i]] = v
		}
		rs.Rows = append(rs.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return RowSet{}, mapError(err)
	}

	c.logger.Debug("statement executed", zap.Int("rows", len(rs.Rows)))
	return rs, nil
}

// mapError converts driver errors into the gateway's error kinds by
// SQLSTATE class.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "42501": // insufficient_privilege
			return &PermissionError{Message: pgErr.Message, Err: err}
		case strings.HasPrefix(pgErr.Code, "08"), // connection exception
			strings.HasPrefix(pgErr.Code, "28"), // invalid authorization
			pgErr.Code == "57P01":               // admin shutdown
			return &ConnectionError{Message: pgErr.Message, Err: err}
		default:
			return &QueryError{Message: pgErr.Message, Err: err}
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &ConnectionError{Message: err.Error(), Err: err}
	}
	// Anything below the protocol (dial, reset, TLS) is a connection issue.
	return &ConnectionError{Message: err.Error(), Err: err}
}
