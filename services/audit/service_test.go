package audit

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/foodloop/donation-engine/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// MockAuditRepository is a mock implementation of AuditRepository
type MockAuditRepository struct {
	mock.Mock
	mu           sync.Mutex
	insertedLogs []*models.AuditLog
}

func (m *MockAuditRepository) Insert(ctx context.Context, log *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	args := m.Called(ctx, log)
	m.insertedLogs = append(m.insertedLogs, log)
	return args.Error(0)
}

func (m *MockAuditRepository) GetByResource(ctx context.Context, resourceID uuid.UUID) ([]*models.AuditLog, error) {
	args := m.Called(ctx, resourceID)
	if logs := args.Get(0); logs != nil {
		return logs.([]*models.AuditLog), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuditRepository) GetInsertedLogs() []*models.AuditLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.AuditLog, len(m.insertedLogs))
	copy(out, m.insertedLogs)
	return out
}

func (m *MockAuditRepository) insertedCount() int {
	return len(m.GetInsertedLogs())
}

func TestAuditService_StartStop(t *testing.T) {
	mockRepo := new(MockAuditRepository)
	config := Config{
		BufferSize:  10,
		WorkerCount: 2,
	}

	service := NewAuditService(mockRepo, zaptest.NewLogger(t), config)

	err := service.Start()
	require.NoError(t, err)

	stats := service.GetStats()
	assert.True(t, stats.Started)
	assert.Equal(t, 2, stats.WorkerCount)
	assert.Equal(t, 10, stats.BufferSize)

	// Cannot start again
	err = service.Start()
	assert.Error(t, err)

	err = service.Stop(5 * time.Second)
	require.NoError(t, err)
	assert.False(t, service.GetStats().Started)

	// Stopping twice is harmless
	assert.NoError(t, service.Stop(time.Second))
}

func TestAuditService_StopBeforeStart(t *testing.T) {
	service := NewAuditService(new(MockAuditRepository), zap.NewNop(), DefaultConfig())

	assert.Error(t, service.Stop(time.Second))
}

func TestAuditService_LogEvent(t *testing.T) {
	mockRepo := new(MockAuditRepository)
	service := NewAuditService(mockRepo, zap.NewNop(), Config{BufferSize: 100, WorkerCount: 2})
	require.NoError(t, service.Start())
	defer service.Stop(5 * time.Second)

	orgID := uuid.New()
	log := models.NewAuditLog(orgID, models.AuditActionDonationCreated, ResourceTypeDonation)

	mockRepo.On("Insert", mock.Anything, mock.Anything).Return(nil)

	err := service.LogEvent(&AuditEvent{Log: log, Priority: 1})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return mockRepo.insertedCount() == 1 }, time.Second, 10*time.Millisecond)

	insertedLogs := mockRepo.GetInsertedLogs()
	assert.Equal(t, orgID, insertedLogs[0].OrgID)
	assert.Equal(t, models.AuditActionDonationCreated, insertedLogs[0].Action)
}

func TestAuditService_LogEventBeforeStart(t *testing.T) {
	service := NewAuditService(new(MockAuditRepository), zap.NewNop(), DefaultConfig())

	err := service.LogEvent(&AuditEvent{Log: models.NewAuditLog(uuid.New(), models.AuditActionDonationCreated, ResourceTypeDonation)})
	assert.Error(t, err)
}

func TestAuditService_LogEventBlocking(t *testing.T) {
	mockRepo := new(MockAuditRepository)
	service := NewAuditService(mockRepo, zap.NewNop(), Config{BufferSize: 100, WorkerCount: 2})
	require.NoError(t, service.Start())
	defer service.Stop(5 * time.Second)

	mockRepo.On("Insert", mock.Anything, mock.Anything).Return(nil)

	log := models.NewAuditLog(uuid.New(), models.AuditActionOrgStatusChanged, ResourceTypeOrganization)
	err := service.LogEventBlocking(context.Background(), &AuditEvent{Log: log, Priority: 1})
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return mockRepo.insertedCount() >= 1 }, time.Second, 10*time.Millisecond)
}

func TestAuditService_ConcurrentLogging(t *testing.T) {
	mockRepo := new(MockAuditRepository)
	service := NewAuditService(mockRepo, zap.NewNop(), Config{BufferSize: 1000, WorkerCount: 5})
	require.NoError(t, service.Start())

	orgID := uuid.New()
	mockRepo.On("Insert", mock.Anything, mock.Anything).Return(nil)

	goroutineCount := 10
	eventsPerGoroutine := 10
	var wg sync.WaitGroup

	for i := 0; i < goroutineCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < eventsPerGoroutine; j++ {
				log := models.NewAuditLog(orgID, models.AuditActionDonationConfirmed, ResourceTypeDonation)
				_ = service.LogEvent(&AuditEvent{Log: log, Priority: 1})
			}
		}()
	}
	wg.Wait()

	// Stop drains the buffer before returning
	require.NoError(t, service.Stop(5*time.Second))
	assert.Equal(t, goroutineCount*eventsPerGoroutine, mockRepo.insertedCount())
}

func TestAuditService_InsertFailureIsLogged(t *testing.T) {
	mockRepo := new(MockAuditRepository)
	service := NewAuditService(mockRepo, zap.NewNop(), Config{BufferSize: 10, WorkerCount: 1})
	require.NoError(t, service.Start())

	mockRepo.On("Insert", mock.Anything, mock.Anything).Return(errors.New("db down"))

	require.NoError(t, service.LogEvent(&AuditEvent{Log: models.NewAuditLog(uuid.New(), models.AuditActionDonationCreated, ResourceTypeDonation)}))
	require.NoError(t, service.Stop(5*time.Second))

	assert.Equal(t, 1, mockRepo.insertedCount())
}

func TestAuditService_LogDonationTransition(t *testing.T) {
	mockRepo := new(MockAuditRepository)
	service := NewAuditService(mockRepo, zap.NewNop(), DefaultConfig())
	require.NoError(t, service.Start())

	mockRepo.On("Insert", mock.Anything, mock.Anything).Return(nil)

	offer := models.NewDonationOffer(uuid.New(), "mess-1", 7.5, models.FoodTypeDalCurry, time.Now())
	offer.MarkAs(models.DonationStatusConfirmed, time.Now())

	require.NoError(t, service.LogDonationTransition(offer, models.DonationStatusPending, "req-1"))
	require.NoError(t, service.Stop(5*time.Second))

	logs := mockRepo.GetInsertedLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, models.AuditActionDonationConfirmed, logs[0].Action)
	assert.Equal(t, "mess-1", logs[0].ActorID)
	assert.Equal(t, offer.ID, *logs[0].ResourceID)
	assert.Equal(t, "req-1", logs[0].RequestID)
	assert.Equal(t, offer.LastTransitionAt, logs[0].Timestamp)

	var details map[string]interface{}
	require.NoError(t, json.Unmarshal(logs[0].Details, &details))
	assert.Equal(t, "pending", details["from_status"])
	assert.Equal(t, "confirmed", details["to_status"])
	assert.Equal(t, 7.5, details["quantity_kg"])
}

func TestAuditService_LogDonationCreated_OmitsFromStatus(t *testing.T) {
	mockRepo := new(MockAuditRepository)
	service := NewAuditService(mockRepo, zap.NewNop(), DefaultConfig())
	require.NoError(t, service.Start())

	mockRepo.On("Insert", mock.Anything, mock.Anything).Return(nil)

	offer := models.NewDonationOffer(uuid.New(), "mess-1", 3, models.FoodTypeFruits, time.Now())
	require.NoError(t, service.LogDonationTransition(offer, "", ""))
	require.NoError(t, service.Stop(5*time.Second))

	logs := mockRepo.GetInsertedLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, models.AuditActionDonationCreated, logs[0].Action)

	var details map[string]interface{}
	require.NoError(t, json.Unmarshal(logs[0].Details, &details))
	assert.NotContains(t, details, "from_status")
}

func TestAuditService_LogOrganizationStatusChanged(t *testing.T) {
	mockRepo := new(MockAuditRepository)
	service := NewAuditService(mockRepo, zap.NewNop(), DefaultConfig())
	require.NoError(t, service.Start())

	mockRepo.On("Insert", mock.Anything, mock.Anything).Return(nil)

	orgID := uuid.New()
	require.NoError(t, service.LogOrganizationStatusChanged(orgID, "admin-1", false, "req-9"))
	require.NoError(t, service.Stop(5*time.Second))

	logs := mockRepo.GetInsertedLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, models.AuditActionOrgStatusChanged, logs[0].Action)
	assert.Equal(t, orgID, *logs[0].ResourceID)
}

func TestAuditService_Trail(t *testing.T) {
	mockRepo := new(MockAuditRepository)
	service := NewAuditService(mockRepo, zap.NewNop(), DefaultConfig())

	resourceID := uuid.New()
	want := []*models.AuditLog{models.NewAuditLog(uuid.New(), models.AuditActionDonationCreated, ResourceTypeDonation)}
	mockRepo.On("GetByResource", mock.Anything, resourceID).Return(want, nil)

	got, err := service.Trail(context.Background(), resourceID)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestAuditService_BufferFull(t *testing.T) {
	mockRepo := new(MockAuditRepository)
	service := NewAuditService(mockRepo, zap.NewNop(), Config{BufferSize: 5, WorkerCount: 1})
	require.NoError(t, service.Start())
	defer service.Stop(5 * time.Second)

	orgID := uuid.New()

	// Slow down processing
	mockRepo.On("Insert", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		time.Sleep(100 * time.Millisecond)
	})

	successCount := 0
	for i := 0; i < 20; i++ {
		log := models.NewAuditLog(orgID, models.AuditActionDonationCreated, ResourceTypeDonation)
		if err := service.LogEvent(&AuditEvent{Log: log, Priority: 1}); err == nil {
			successCount++
		}
	}

	assert.Less(t, successCount, 20)
	assert.GreaterOrEqual(t, successCount, 5)
}
