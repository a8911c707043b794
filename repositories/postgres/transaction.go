package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/foodloop/donation-engine/repositories"
	"go.uber.org/zap"
)

type txKey struct{}

// TransactionManager runs repository calls inside *sql.Tx transactions.
// Capacity changes rely on conditional UPDATEs, so READ COMMITTED is enough.
type TransactionManager struct {
	db        *DB
	isolation sql.IsolationLevel
	logger    *zap.Logger
}

// NewTransactionManager creates a transaction manager using READ COMMITTED
func NewTransactionManager(db *DB, logger *zap.Logger) repositories.TransactionManager {
	return &TransactionManager{
		db:        db,
		isolation: sql.LevelReadCommitted,
		logger:    logger,
	}
}

// Begin starts a transaction. When ctx already carries one, the returned
// transaction joins it and leaves commit and rollback to the outer owner.
func (tm *TransactionManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	if outer, ok := ctx.Value(txKey{}).(*Transaction); ok {
		return &Transaction{tx: outer.tx, ctx: ctx, joined: true, logger: tm.logger}, nil
	}

	sqlTx, err := tm.db.BeginTx(ctx, &sql.TxOptions{Isolation: tm.isolation})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	tx := &Transaction{tx: sqlTx, started: time.Now(), logger: tm.logger}
	tx.ctx = context.WithValue(ctx, txKey{}, tx)
	return tx, nil
}

// InTransaction runs fn in a transaction, committing when it returns nil
func (tm *TransactionManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	tx, err := tm.Begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(tx.Context(), tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			tm.logger.Error("failed to rollback transaction",
				zap.Error(rbErr),
				zap.NamedError("cause", err))
		}
		return err
	}

	return tx.Commit()
}

// Transaction wraps a *sql.Tx and the context that carries it
type Transaction struct {
	tx      *sql.Tx
	ctx     context.Context
	joined  bool
	started time.Time
	logger  *zap.Logger
}

// Commit commits the transaction. It is a no-op for a joined transaction.
func (t *Transaction) Commit() error {
	if t.joined {
		return nil
	}
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	t.logger.Debug("transaction committed", zap.Duration("duration", time.Since(t.started)))
	return nil
}

// Rollback rolls back the transaction. Rolling back a finished or joined
// transaction is a no-op.
func (t *Transaction) Rollback() error {
	if t.joined {
		return nil
	}
	if err := t.tx.Rollback(); err != nil {
		if errors.Is(err, sql.ErrTxDone) {
			return nil
		}
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	t.logger.Debug("transaction rolled back", zap.Duration("duration", time.Since(t.started)))
	return nil
}

// Context returns the context repositories use to join this transaction
func (t *Transaction) Context() context.Context {
	return t.ctx
}

// GetTransactionFromContext returns the transaction carried by ctx, if any
func GetTransactionFromContext(ctx context.Context) (repositories.Transaction, bool) {
	tx, ok := ctx.Value(txKey{}).(*Transaction)
	return tx, ok
}

// Querier is satisfied by both *sql.DB and *sql.Tx
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// querier returns the transaction carried by ctx, or the pool when there is none
func querier(ctx context.Context, db *DB) Querier {
	if tx, ok := ctx.Value(txKey{}).(*Transaction); ok {
		return tx.tx
	}
	return db.DB
}
