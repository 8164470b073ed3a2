// Package db connects to PostgreSQL and classifies driver errors.
//
// The schema is embedded and applied on every connect; the DDL is idempotent
// so restarts are safe.
package db

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/kotosiro/kotosiro/common"
)

//go:embed schema.sql
var schema string

// SQLSTATE class shared by every integrity constraint violation.
const integrityErrorClass = "23"

// Connect opens a pgx-backed sqlx pool against dbURL and applies the embedded
// schema before returning it.
func Connect(ctx context.Context, dbURL string) (*sqlx.DB, error) {
	common.Logger.Info("connecting to database")
	pool, err := sqlx.ConnectContext(ctx, "pgx", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := pool.ExecContext(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply database schema: %w", err)
	}
	common.Logger.Info("connected to database")
	return pool, nil
}

// IsIntegrityError reports whether err (or anything it wraps) is a PostgreSQL
// integrity constraint violation: unique, foreign key, not-null, check.
func IsIntegrityError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return strings.HasPrefix(pgErr.Code, integrityErrorClass)
}
