// Package memory provides in-process repositories for development mode and tests.
//
// Every repository shares one Store guarded by a single mutex. Transactions keep an undo
// journal: each mutation made with a transaction context registers its inverse, and Rollback
// replays the journal in reverse.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/foodloop/donation-engine/models"
	"github.com/foodloop/donation-engine/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store holds all in-memory state
type Store struct {
	mu sync.RWMutex

	organizations map[uuid.UUID]*models.Organization
	donations     map[uuid.UUID]*models.DonationOffer
	auditLogs     []*models.AuditLog
	feedback      []*models.Feedback
	waste         []*models.WasteRecord
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		organizations: make(map[uuid.UUID]*models.Organization),
		donations:     make(map[uuid.UUID]*models.DonationOffer),
	}
}

// NewRepositories wires every repository against one store
func NewRepositories(store *Store, logger *zap.Logger) *repositories.Repositories {
	return &repositories.Repositories{
		Organizations: &OrganizationRepository{store: store, logger: logger},
		Donations:     &DonationRepository{store: store, logger: logger},
		AuditLogs:     &AuditRepository{store: store},
		Feedback:      &FeedbackRepository{store: store},
		Waste:         &WasteRepository{store: store},
	}
}

type transactionContextKey struct{}

// TransactionManager implements repositories.TransactionManager over a Store
type TransactionManager struct {
	store  *Store
	logger *zap.Logger
}

// NewTransactionManager creates a new transaction manager
func NewTransactionManager(store *Store, logger *zap.Logger) repositories.TransactionManager {
	return &TransactionManager{store: store, logger: logger}
}

// Begin starts a new transaction
func (tm *TransactionManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	tx := &Transaction{store: tm.store, logger: tm.logger}
	tx.ctx = context.WithValue(ctx, transactionContextKey{}, tx)
	return tx, nil
}

// InTransaction executes fn within a transaction, committing on success and rolling back on error
func (tm *TransactionManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	tx, err := tm.Begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(tx.Context(), tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			tm.logger.Error("failed to rollback transaction",
				zap.Error(rbErr),
				zap.NamedError("original_error", err),
			)
		}
		return err
	}

	return tx.Commit()
}

// ErrTxDone is returned when committing a finished transaction
var ErrTxDone = errors.New("transaction has already been committed or rolled back")

// Transaction is an undo-journal transaction
type Transaction struct {
	store  *Store
	ctx    context.Context
	logger *zap.Logger

	mu      sync.Mutex
	journal []func()
	done    bool
}

// Commit discards the undo journal
func (t *Transaction) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return ErrTxDone
	}
	t.done = true
	t.journal = nil
	return nil
}

// Rollback undoes every mutation recorded in the transaction, newest first
func (t *Transaction) Rollback() error {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return nil
	}
	t.done = true
	journal := t.journal
	t.journal = nil
	t.mu.Unlock()

	t.store.mu.Lock()
	for i := len(journal) - 1; i >= 0; i-- {
		journal[i]()
	}
	t.store.mu.Unlock()

	t.logger.Debug("transaction rolled back", zap.Int("undone", len(journal)))
	return nil
}

// Context returns the context carrying this transaction
func (t *Transaction) Context() context.Context {
	return t.ctx
}

// recordUndo registers undo with the transaction in ctx, if any. undo runs with store.mu held.
func recordUndo(ctx context.Context, undo func()) {
	tx, ok := ctx.Value(transactionContextKey{}).(*Transaction)
	if !ok {
		return
	}
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if !tx.done {
		tx.journal = append(tx.journal, undo)
	}
}
