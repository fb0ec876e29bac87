package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/aussiebroadwan/orgdir/internal/orgdir/store"
)

type txStore struct {
	tx *sql.Tx
}

func newTx(tx *sql.Tx) *txStore {
	return &txStore{tx: tx}
}

func (t *txStore) Commit() error { return mapError(t.tx.Commit()) }

func (t *txStore) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return mapError(err)
	}
	return nil
}

func (t *txStore) Close() error { return nil } // outer DB stays open

// Ping is a no-op for transactions; the connection is already held.
func (t *txStore) Ping(ctx context.Context) error { return nil }

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	// Nested tx not supported; could emulate with SAVEPOINT if needed
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return sql.ErrTxDone
}

func (t *txStore) Organizations() store.Organizations { return &organizationsRepo{db: t.tx} }
func (t *txStore) Admins() store.Admins               { return &adminsRepo{db: t.tx} }
func (t *txStore) Journal() store.Journal             { return &journalRepo{db: t.tx} }
func (t *txStore) Partitions() store.Partitions       { return &partitionsRepo{db: t.tx} }

func (t *txStore) ApplyMigrations() error { return nil } // migrations run before any tx
