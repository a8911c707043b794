package messaging

import (
	"time"

	"github.com/foodloop/donation-engine/models"
	"github.com/google/uuid"
)

// ServiceName is stamped on every event
const ServiceName = "donation-engine"

// Event routing keys
const (
	EventDonationCreated           = "donation.created"
	EventDonationConfirmed         = "donation.confirmed"
	EventDonationPickedUp          = "donation.picked_up"
	EventDonationCancelled         = "donation.cancelled"
	EventOrganizationStatusChanged = "organization.status_changed"
)

// RoutingKeyForStatus returns the routing key announcing an offer's arrival in status
func RoutingKeyForStatus(status models.DonationStatus) string {
	switch status {
	case models.DonationStatusConfirmed:
		return EventDonationConfirmed
	case models.DonationStatusPickedUp:
		return EventDonationPickedUp
	case models.DonationStatusCancelled:
		return EventDonationCancelled
	default:
		return EventDonationCreated
	}
}

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventType   string    `json:"event_type"`
	EventID     string    `json:"event_id"`
	Timestamp   time.Time `json:"timestamp"`
	ServiceName string    `json:"service_name"`
}

// NewBaseEvent creates a base event with common fields
func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		EventType:   eventType,
		EventID:     uuid.NewString(),
		Timestamp:   time.Now().UTC(),
		ServiceName: ServiceName,
	}
}

// DonationEvent announces a donation offer lifecycle transition
type DonationEvent struct {
	BaseEvent
	Data DonationEventData `json:"data"`
}

// DonationEventData describes the offer after the transition
type DonationEventData struct {
	DonationID     string    `json:"donation_id"`
	OrganizationID string    `json:"organization_id"`
	DonorID        string    `json:"donor_id"`
	QuantityKg     float64   `json:"quantity_kg"`
	FoodType       string    `json:"food_type"`
	OldStatus      string    `json:"old_status,omitempty"`
	NewStatus      string    `json:"new_status"`
	PickupTime     time.Time `json:"pickup_time"`
	ChangedAt      time.Time `json:"changed_at"`
}

// NewDonationEvent builds the event for offer having moved from oldStatus to its current status
func NewDonationEvent(offer *models.DonationOffer, oldStatus models.DonationStatus) DonationEvent {
	return DonationEvent{
		BaseEvent: NewBaseEvent(RoutingKeyForStatus(offer.Status)),
		Data: DonationEventData{
			DonationID:     offer.ID.String(),
			OrganizationID: offer.OrgID.String(),
			DonorID:        offer.DonorID,
			QuantityKg:     offer.QuantityKg,
			FoodType:       string(offer.FoodType),
			OldStatus:      string(oldStatus),
			NewStatus:      string(offer.Status),
			PickupTime:     offer.PickupTime.UTC(),
			ChangedAt:      offer.LastTransitionAt.UTC(),
		},
	}
}

// OrganizationStatusChangedEvent announces an organization being activated or deactivated
type OrganizationStatusChangedEvent struct {
	BaseEvent
	Data OrganizationStatusChangedData `json:"data"`
}

// OrganizationStatusChangedData describes the status change
type OrganizationStatusChangedData struct {
	OrganizationID string    `json:"organization_id"`
	OldStatus      string    `json:"old_status"` // "active" or "inactive"
	NewStatus      string    `json:"new_status"`
	ChangedAt      time.Time `json:"changed_at"`
}

// NewOrganizationStatusChangedEvent builds the event for an activation change
func NewOrganizationStatusChangedEvent(orgID uuid.UUID, wasActive, isActive bool) OrganizationStatusChangedEvent {
	return OrganizationStatusChangedEvent{
		BaseEvent: NewBaseEvent(EventOrganizationStatusChanged),
		Data: OrganizationStatusChangedData{
			OrganizationID: orgID.String(),
			OldStatus:      activeLabel(wasActive),
			NewStatus:      activeLabel(isActive),
			ChangedAt:      time.Now().UTC(),
		},
	}
}

func activeLabel(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}
