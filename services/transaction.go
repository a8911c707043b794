package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/foodloop/donation-engine/repositories"
)

// WithTransaction runs fn inside a transaction and commits when it returns nil.
// fn receives the transaction's context so repository calls made with it join the transaction.
// The error returned by fn is passed through unchanged, so callers can still match
// domain errors after a rollback. A failed rollback is joined onto it.
func WithTransaction(ctx context.Context, txMgr repositories.TransactionManager, fn func(ctx context.Context, tx repositories.Transaction) error) (err error) {
	tx, err := txMgr.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx.Context(), tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback failed: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
