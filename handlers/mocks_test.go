package handlers

import (
	"context"

	"github.com/foodloop/donation-engine/models"
	"github.com/foodloop/donation-engine/repositories"
	"github.com/foodloop/donation-engine/services/donation"
	"github.com/foodloop/donation-engine/services/geo"
	"github.com/foodloop/donation-engine/services/matching"
	"github.com/foodloop/donation-engine/services/records"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockMatchService is a mock implementation of MatchService
type MockMatchService struct {
	mock.Mock
}

func (m *MockMatchService) FindMatches(ctx context.Context, donor geo.Point, c matching.Criteria) ([]matching.Match, error) {
	args := m.Called(ctx, donor, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]matching.Match), args.Error(1)
}

// MockOrganizationService is a mock implementation of OrganizationService
type MockOrganizationService struct {
	mock.Mock
}

func (m *MockOrganizationService) List(ctx context.Context, limit, offset int) ([]*models.Organization, int, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.Organization), args.Int(1), args.Error(2)
}

func (m *MockOrganizationService) Get(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Organization), args.Error(1)
}

func (m *MockOrganizationService) SetActive(ctx context.Context, id uuid.UUID, active bool, actorID string) (*models.Organization, error) {
	args := m.Called(ctx, id, active, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Organization), args.Error(1)
}

// MockDonationService is a mock implementation of DonationService
type MockDonationService struct {
	mock.Mock
}

func (m *MockDonationService) offer(args mock.Arguments) (*models.DonationOffer, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DonationOffer), args.Error(1)
}

func (m *MockDonationService) Create(ctx context.Context, in donation.CreateInput) (*models.DonationOffer, error) {
	return m.offer(m.Called(ctx, in))
}

func (m *MockDonationService) Confirm(ctx context.Context, id uuid.UUID) (*models.DonationOffer, error) {
	return m.offer(m.Called(ctx, id))
}

func (m *MockDonationService) Complete(ctx context.Context, id uuid.UUID) (*models.DonationOffer, error) {
	return m.offer(m.Called(ctx, id))
}

func (m *MockDonationService) Cancel(ctx context.Context, id uuid.UUID) (*models.DonationOffer, error) {
	return m.offer(m.Called(ctx, id))
}

func (m *MockDonationService) Get(ctx context.Context, id uuid.UUID) (*models.DonationOffer, error) {
	return m.offer(m.Called(ctx, id))
}

func (m *MockDonationService) List(ctx context.Context, filter repositories.DonationFilter) ([]*models.DonationOffer, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.DonationOffer), args.Int(1), args.Error(2)
}

func (m *MockDonationService) History(ctx context.Context, id uuid.UUID) ([]*models.AuditLog, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AuditLog), args.Error(1)
}

// MockImpactService is a mock implementation of ImpactService
type MockImpactService struct {
	mock.Mock
}

func (m *MockImpactService) Snapshot(ctx context.Context, donorID string) (models.ImpactSnapshot, error) {
	args := m.Called(ctx, donorID)
	return args.Get(0).(models.ImpactSnapshot), args.Error(1)
}

// MockRecordsService is a mock implementation of RecordsService
type MockRecordsService struct {
	mock.Mock
}

func (m *MockRecordsService) RecordFeedback(ctx context.Context, in records.FeedbackInput) (*models.Feedback, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Feedback), args.Error(1)
}

func (m *MockRecordsService) ListFeedback(ctx context.Context, limit int) ([]*models.Feedback, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Feedback), args.Error(1)
}

func (m *MockRecordsService) RecordWaste(ctx context.Context, in records.WasteInput) (*models.WasteRecord, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WasteRecord), args.Error(1)
}

func (m *MockRecordsService) ListWaste(ctx context.Context, limit int) ([]*models.WasteRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WasteRecord), args.Error(1)
}

// MockInsightService is a mock implementation of InsightService
type MockInsightService struct {
	mock.Mock
}

func (m *MockInsightService) Generate(ctx context.Context) ([]models.Insight, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Insight), args.Error(1)
}
