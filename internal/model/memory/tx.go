package memory

import (
	"context"

	"github.com/deppfellow/start-service/internal/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var _ database.Transactor = (*Store)(nil)

// Exec fails with database.ErrNoConnection; the store runs no SQL.
func (s *Store) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return database.NopTransactor{}.Exec(ctx, sql, args...)
}

// Query fails with database.ErrNoConnection.
func (s *Store) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return database.NopTransactor{}.Query(ctx, sql, args...)
}

// QueryRow returns a row whose Scan fails with database.ErrNoConnection.
func (s *Store) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return database.NopTransactor{}.QueryRow(ctx, sql, args...)
}

// Begin opens a transaction. Writes made through it are journaled, and a
// rollback restores only the rows it wrote; writes by other callers are kept.
// Like a Postgres sequence, the id counter is not rewound on rollback.
func (s *Store) Begin(context.Context) (database.Tx, error) {
	return &storeTx{store: s}, nil
}

// undo is the state of one row before a transactional write. A nil prev
// means the row did not exist.
type undo struct {
	table string
	key   string
	prev  *row
}

type storeTx struct {
	database.NopTransactor
	store *Store

	// guarded by store.mu
	journal []undo
	done    bool
}

// txFor returns the open transaction of s that q refers to, if any.
// Callers hold s.mu for writing.
func (s *Store) txFor(q database.Querier) *storeTx {
	tx, ok := q.(*storeTx)
	if !ok || tx.store != s || tx.done {
		return nil
	}
	return tx
}

// record journals the state of table/key before a write. Callers hold
// store.mu for writing. A nil tx records nothing.
func (tx *storeTx) record(table, key string, prev *row) {
	if tx == nil {
		return
	}
	var saved *row
	if prev != nil {
		saved = &row{seq: prev.seq, record: prev.record.Clone()}
	}
	tx.journal = append(tx.journal, undo{table: table, key: key, prev: saved})
}

func (tx *storeTx) Commit(context.Context) error {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()

	if tx.done {
		return pgx.ErrTxClosed
	}
	tx.done = true
	tx.journal = nil
	return nil
}

// Rollback replays the journal newest first.
func (tx *storeTx) Rollback(context.Context) error {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()

	if tx.done {
		return pgx.ErrTxClosed
	}
	tx.done = true

	for i := len(tx.journal) - 1; i >= 0; i-- {
		u := tx.journal[i]
		td := tx.store.data(u.table)
		if u.prev == nil {
			delete(td.rows, u.key)
			continue
		}
		td.rows[u.key] = u.prev
	}
	tx.journal = nil
	return nil
}
