package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/foodloop/donation-engine/models"
	"github.com/foodloop/donation-engine/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ResourceTypeDonation and ResourceTypeOrganization name the audited resources
const (
	ResourceTypeDonation     = "donation"
	ResourceTypeOrganization = "organization"
)

// AuditEvent represents an event to be audited
type AuditEvent struct {
	Log      *models.AuditLog
	Priority int // Higher priority events are processed first (for future enhancements)
}

// AuditService handles asynchronous audit logging
type AuditService struct {
	auditRepo   repositories.AuditRepository
	logger      *zap.Logger
	eventChan   chan *AuditEvent
	workerCount int
	bufferSize  int
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	started     bool
	stopped     bool
	mu          sync.Mutex
}

// Config holds configuration for the AuditService
type Config struct {
	BufferSize  int // Size of the event buffer channel
	WorkerCount int // Number of concurrent workers
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:  1000,
		WorkerCount: 2,
	}
}

// NewAuditService creates a new AuditService instance
func NewAuditService(auditRepo repositories.AuditRepository, logger *zap.Logger, config Config) *AuditService {
	ctx, cancel := context.WithCancel(context.Background())

	if config.WorkerCount <= 0 {
		config.WorkerCount = 1
	}
	if config.BufferSize < 0 {
		config.BufferSize = 0
	}

	return &AuditService{
		auditRepo:   auditRepo,
		logger:      logger,
		eventChan:   make(chan *AuditEvent, config.BufferSize),
		workerCount: config.WorkerCount,
		bufferSize:  config.BufferSize,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start starts the background workers
func (s *AuditService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("audit service already started")
	}

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.started = true
	s.logger.Info("started audit service",
		zap.Int("worker_count", s.workerCount),
		zap.Int("buffer_size", s.bufferSize))

	return nil
}

// Stop gracefully stops the audit service
// Waits for all pending events to be processed
func (s *AuditService) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return fmt.Errorf("audit service not started")
	}
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	// No more events will be accepted
	close(s.eventChan)
	s.mu.Unlock()

	s.logger.Info("stopping audit service", zap.Int("pending_events", len(s.eventChan)))

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("audit service stopped gracefully")
		s.cancel()
		return nil
	case <-time.After(timeout):
		s.cancel()
		return fmt.Errorf("audit service stop timeout after %v", timeout)
	}
}

// LogEvent logs an event asynchronously (non-blocking)
// Returns immediately, event is processed in background
func (s *AuditService) LogEvent(event *AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started || s.stopped {
		return fmt.Errorf("audit service not running")
	}

	select {
	case s.eventChan <- event:
		return nil
	default:
		s.logger.Warn("audit event channel full, dropping event",
			zap.String("action", string(event.Log.Action)),
			zap.String("org_id", event.Log.OrgID.String()))
		return fmt.Errorf("audit event buffer full")
	}
}

// LogEventBlocking logs an event synchronously (blocking)
// Waits until event is queued or context is cancelled
func (s *AuditService) LogEventBlocking(ctx context.Context, event *AuditEvent) error {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return fmt.Errorf("audit service not running")
	}
	// Holding the lock keeps Stop from closing the channel mid-send
	defer s.mu.Unlock()

	select {
	case s.eventChan <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ctx.Done():
		return fmt.Errorf("audit service stopped")
	}
}

// worker processes events from the channel
func (s *AuditService) worker(id int) {
	defer s.wg.Done()

	s.logger.Debug("audit worker started", zap.Int("worker_id", id))

	for event := range s.eventChan {
		if err := s.processEvent(event); err != nil {
			s.logger.Error("failed to process audit event",
				zap.Int("worker_id", id),
				zap.Error(err),
				zap.String("action", string(event.Log.Action)),
				zap.String("org_id", event.Log.OrgID.String()))
		}
	}

	s.logger.Debug("audit worker stopped", zap.Int("worker_id", id))
}

// processEvent processes a single audit event
func (s *AuditService) processEvent(event *AuditEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.auditRepo.Insert(ctx, event.Log); err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	return nil
}

// GetStats returns statistics about the audit service
func (s *AuditService) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		BufferSize:    s.bufferSize,
		PendingEvents: len(s.eventChan),
		WorkerCount:   s.workerCount,
		Started:       s.started && !s.stopped,
	}
}

// Stats represents audit service statistics
type Stats struct {
	BufferSize    int
	PendingEvents int
	WorkerCount   int
	Started       bool
}

// Trail returns the recorded history of a resource, oldest first
func (s *AuditService) Trail(ctx context.Context, resourceID uuid.UUID) ([]*models.AuditLog, error) {
	return s.auditRepo.GetByResource(ctx, resourceID)
}

// Convenience methods for logging common events

// LogDonationTransition logs an offer having entered its current status from previous.
// previous is empty for a newly created offer.
func (s *AuditService) LogDonationTransition(offer *models.DonationOffer, previous models.DonationStatus, requestID string) error {
	log := models.NewAuditLog(offer.OrgID, models.AuditActionForStatus(offer.Status), ResourceTypeDonation)
	log.WithActor(offer.DonorID)
	log.WithResource(offer.ID)
	log.WithRequest(requestID)
	log.Timestamp = offer.LastTransitionAt

	details := map[string]interface{}{
		"quantity_kg": offer.QuantityKg,
		"food_type":   offer.FoodType,
		"to_status":   offer.Status,
	}
	if previous != "" {
		details["from_status"] = previous
	}
	log.WithDetails(details)

	event := &AuditEvent{
		Log:      log,
		Priority: 1,
	}

	return s.LogEvent(event)
}

// LogOrganizationStatusChanged logs an organization being activated or deactivated by actorID
func (s *AuditService) LogOrganizationStatusChanged(orgID uuid.UUID, actorID string, active bool, requestID string) error {
	log := models.NewAuditLog(orgID, models.AuditActionOrgStatusChanged, ResourceTypeOrganization)
	log.WithActor(actorID)
	log.WithResource(orgID)
	log.WithRequest(requestID)
	log.WithDetails(map[string]interface{}{
		"is_active": active,
	})

	event := &AuditEvent{
		Log:      log,
		Priority: 2, // Higher priority for availability changes
	}

	return s.LogEvent(event)
}
