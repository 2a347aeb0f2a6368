package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TxRunner runs a function inside a database transaction. Services depend on
// this interface rather than on *pgxpool.Pool so their transactional logic
// can run under a fake in tests.
type TxRunner interface {
	// WithTx begins a transaction, invokes fn, and commits. Any error from
	// fn rolls the transaction back and is returned unchanged.
	WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// PoolRunner is the production TxRunner backed by a pgx connection pool.
type PoolRunner struct {
	pool *pgxpool.Pool
}

// NewPoolRunner wraps a pgx pool as a TxRunner.
func NewPoolRunner(pool *pgxpool.Pool) *PoolRunner {
	return &PoolRunner{pool: pool}
}

// WithTx implements TxRunner.
func (r *PoolRunner) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			_ = rbErr // rollback after commit is a no-op; anything else is unrecoverable here
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
