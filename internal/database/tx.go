package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNoConnection is returned by the no-op transactor when SQL is issued
// without a database behind it.
var ErrNoConnection = errors.New("no database connection configured")

// Querier is the explicit handle models run their statements on. Both the
// pool and an open transaction satisfy it.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Tx is an open transaction. pgx.Tx satisfies it.
type Tx interface {
	Querier
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Transactor is a Querier that can open transactions.
type Transactor interface {
	Querier
	Begin(ctx context.Context) (Tx, error)
}

var (
	_ Transactor = (*Database)(nil)
	_ Transactor = NopTransactor{}
	_ Tx         = pgx.Tx(nil)
)

// Exec runs sql on the pool.
func (db *Database) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return db.Pool.Exec(ctx, sql, args...)
}

// Query runs sql on the pool.
func (db *Database) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return db.Pool.Query(ctx, sql, args...)
}

// QueryRow runs sql on the pool.
func (db *Database) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return db.Pool.QueryRow(ctx, sql, args...)
}

// Begin opens a transaction on the pool.
func (db *Database) Begin(ctx context.Context) (Tx, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// NopTransactor backs drivers that keep their data outside PostgreSQL, such
// as the memory driver. Transactions open and close without effect; any SQL
// fails with ErrNoConnection.
type NopTransactor struct{}

func (NopTransactor) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, ErrNoConnection
}

func (NopTransactor) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, ErrNoConnection
}

func (NopTransactor) QueryRow(context.Context, string, ...any) pgx.Row {
	return errRow{err: ErrNoConnection}
}

func (NopTransactor) Begin(context.Context) (Tx, error) {
	return &nopTx{}, nil
}

type nopTx struct {
	NopTransactor
	done bool
}

func (t *nopTx) Commit(context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	return nil
}

func (t *nopTx) Rollback(context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	return nil
}

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }
