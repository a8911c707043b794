package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of action being audited
type AuditAction string

const (
	AuditActionDonationCreated   AuditAction = "donation_created"
	AuditActionDonationConfirmed AuditAction = "donation_confirmed"
	AuditActionDonationPickedUp  AuditAction = "donation_picked_up"
	AuditActionDonationCancelled AuditAction = "donation_cancelled"
	AuditActionOrgStatusChanged  AuditAction = "organization_status_changed"
)

// AuditActionForStatus returns the audit action recorded when an offer enters status
func AuditActionForStatus(status DonationStatus) AuditAction {
	switch status {
	case DonationStatusConfirmed:
		return AuditActionDonationConfirmed
	case DonationStatusPickedUp:
		return AuditActionDonationPickedUp
	case DonationStatusCancelled:
		return AuditActionDonationCancelled
	default:
		return AuditActionDonationCreated
	}
}

// AuditLog represents an audit trail entry
type AuditLog struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	OrgID        uuid.UUID       `json:"org_id" db:"org_id"`
	ActorID      string          `json:"actor_id,omitempty" db:"actor_id"`
	Action       AuditAction     `json:"action" db:"action"`
	ResourceType string          `json:"resource_type" db:"resource_type"` // donation, organization
	ResourceID   *uuid.UUID      `json:"resource_id,omitempty" db:"resource_id"`
	Details      json.RawMessage `json:"details,omitempty" db:"details"` // JSONB for flexible metadata
	RequestID    string          `json:"request_id,omitempty" db:"request_id"`
	Timestamp    time.Time       `json:"timestamp" db:"timestamp"`
}

// TableName returns the table name for the AuditLog model
func (AuditLog) TableName() string {
	return "audit_logs"
}

// NewAuditLog creates a new AuditLog instance
func NewAuditLog(orgID uuid.UUID, action AuditAction, resourceType string) *AuditLog {
	return &AuditLog{
		ID:           uuid.New(),
		OrgID:        orgID,
		Action:       action,
		ResourceType: resourceType,
		Timestamp:    time.Now(),
	}
}

// WithActor sets who performed the action
func (a *AuditLog) WithActor(actorID string) *AuditLog {
	a.ActorID = actorID
	return a
}

// WithResource sets the resource ID
func (a *AuditLog) WithResource(resourceID uuid.UUID) *AuditLog {
	a.ResourceID = &resourceID
	return a
}

// WithDetails sets the details
func (a *AuditLog) WithDetails(details interface{}) *AuditLog {
	if data, err := json.Marshal(details); err == nil {
		a.Details = data
	}
	return a
}

// WithRequest sets the request ID the action was performed under
func (a *AuditLog) WithRequest(requestID string) *AuditLog {
	a.RequestID = requestID
	return a
}
