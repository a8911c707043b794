package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/foodloop/donation-engine/models"
	"github.com/foodloop/donation-engine/repositories"
	"github.com/foodloop/donation-engine/repositories/memory"
	"github.com/foodloop/donation-engine/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockTransactionManager struct {
	mock.Mock
}

func (m *MockTransactionManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	args := m.Called(ctx)
	if tx := args.Get(0); tx != nil {
		return tx.(repositories.Transaction), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTransactionManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	return m.Called(ctx, fn).Error(0)
}

type MockTransaction struct {
	mock.Mock
}

func (m *MockTransaction) Commit() error {
	return m.Called().Error(0)
}

func (m *MockTransaction) Rollback() error {
	return m.Called().Error(0)
}

func (m *MockTransaction) Context() context.Context {
	return context.Background()
}

// seededStore returns a memory store holding one 100 kg organization
func seededStore(t *testing.T) (*repositories.Repositories, repositories.TransactionManager, *models.Organization) {
	t.Helper()
	store := memory.NewStore()
	repos := memory.NewRepositories(store, zap.NewNop())
	org := models.NewOrganization("seva-vihar", "Seva Vihar", 28.6, 77.2, 100, []string{"cooked_rice"})
	require.NoError(t, repos.Organizations.Upsert(context.Background(), org))
	return repos, memory.NewTransactionManager(store, zap.NewNop()), org
}

func currentLoad(t *testing.T, repos *repositories.Repositories, org *models.Organization) float64 {
	t.Helper()
	got, err := repos.Organizations.GetByID(context.Background(), org.ID)
	require.NoError(t, err)
	return got.CurrentLoadKg
}

func TestWithTransaction_CommitsReservation(t *testing.T) {
	repos, txMgr, org := seededStore(t)

	err := services.WithTransaction(context.Background(), txMgr, func(ctx context.Context, tx repositories.Transaction) error {
		ok, err := repos.Organizations.ReserveCapacity(ctx, org.ID, 30)
		require.True(t, ok)
		return err
	})

	require.NoError(t, err)
	assert.Equal(t, 30.0, currentLoad(t, repos, org))
}

func TestWithTransaction_RollsBackOnDomainError(t *testing.T) {
	repos, txMgr, org := seededStore(t)

	err := services.WithTransaction(context.Background(), txMgr, func(ctx context.Context, tx repositories.Transaction) error {
		ok, err := repos.Organizations.ReserveCapacity(ctx, org.ID, 30)
		require.NoError(t, err)
		require.True(t, ok)
		return services.NewInvalidTransition(models.DonationStatusPickedUp, models.DonationStatusConfirmed)
	})

	assert.True(t, services.IsInvalidTransitionError(err))
	assert.Zero(t, currentLoad(t, repos, org))
}

func TestWithTransaction_RollsBackOnPanic(t *testing.T) {
	repos, txMgr, org := seededStore(t)

	assert.Panics(t, func() {
		_ = services.WithTransaction(context.Background(), txMgr, func(ctx context.Context, tx repositories.Transaction) error {
			_, _ = repos.Organizations.ReserveCapacity(ctx, org.ID, 30)
			panic("boom")
		})
	})
	assert.Zero(t, currentLoad(t, repos, org))
}

func TestWithTransaction_BeginError(t *testing.T) {
	txMgr := new(MockTransactionManager)
	txMgr.On("Begin", mock.Anything).Return(nil, errors.New("connection refused"))

	called := false
	err := services.WithTransaction(context.Background(), txMgr, func(ctx context.Context, tx repositories.Transaction) error {
		called = true
		return nil
	})

	assert.ErrorContains(t, err, "failed to begin transaction")
	assert.False(t, called)
}

func TestWithTransaction_CommitError(t *testing.T) {
	tx := new(MockTransaction)
	tx.On("Commit").Return(errors.New("serialization failure"))
	txMgr := new(MockTransactionManager)
	txMgr.On("Begin", mock.Anything).Return(tx, nil)

	err := services.WithTransaction(context.Background(), txMgr, func(ctx context.Context, tx repositories.Transaction) error {
		return nil
	})

	assert.ErrorContains(t, err, "failed to commit transaction")
	tx.AssertExpectations(t)
}

func TestWithTransaction_RollbackErrorKeepsCause(t *testing.T) {
	tx := new(MockTransaction)
	tx.On("Rollback").Return(errors.New("connection reset"))
	txMgr := new(MockTransactionManager)
	txMgr.On("Begin", mock.Anything).Return(tx, nil)

	err := services.WithTransaction(context.Background(), txMgr, func(ctx context.Context, tx repositories.Transaction) error {
		return services.NewCapacityExceeded("org-1", 50, 10)
	})

	assert.True(t, services.IsCapacityExceededError(err))
	assert.ErrorContains(t, err, "rollback failed: connection reset")
	tx.AssertExpectations(t)
}
