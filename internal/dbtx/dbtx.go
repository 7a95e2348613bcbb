// Package dbtx defines the connection and transaction handles that callers
// thread explicitly through every repository call participating in one
// atomic unit of work.
package dbtx

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier executes parameterized statements. It is satisfied by
// *pgxpool.Pool, *pgxpool.Conn and pgx.Tx, so the same repository code runs
// both on the pool and inside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Tx is a transaction handle bound to one exclusive connection.
type Tx interface {
	Querier
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Conn is an exclusive connection checked out of the pool. It is owned by
// the caller until Release.
type Conn interface {
	Begin(ctx context.Context) (Tx, error)
	Release()
}

// Provider hands out exclusive connections. Acquire blocks while the pool
// has no free capacity.
type Provider interface {
	Acquire(ctx context.Context) (Conn, error)
}
