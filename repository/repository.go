// Package repository implements PostgreSQL persistence for the kotosiro
// aggregates. Every method takes an sqlx.ExtContext so callers decide whether
// a statement runs on the pool or inside a transaction.
//
// Lookups return (nil, nil) when no row matches; absence is not an error at
// this layer.
package repository

import (
	"database/sql"
	"errors"
)

// defaultListLimit caps list queries when the caller does not give a limit.
const defaultListLimit int64 = 100

func noRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func orDefaultLimit(limit *int64) int64 {
	if limit == nil {
		return defaultListLimit
	}
	return *limit
}
