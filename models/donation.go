package models

import (
	"time"

	"github.com/google/uuid"
)

// CapacityEpsilon absorbs float rounding when comparing kilogram quantities
const CapacityEpsilon = 1e-9

// DonationStatus represents the lifecycle state of a donation offer
type DonationStatus string

const (
	DonationStatusPending   DonationStatus = "pending"
	DonationStatusConfirmed DonationStatus = "confirmed"
	DonationStatusPickedUp  DonationStatus = "picked_up"
	DonationStatusCancelled DonationStatus = "cancelled"
)

// allowedTransitions maps each state to the states it may move to
var allowedTransitions = map[DonationStatus][]DonationStatus{
	DonationStatusPending:   {DonationStatusConfirmed, DonationStatusCancelled},
	DonationStatusConfirmed: {DonationStatusPickedUp, DonationStatusCancelled},
}

// IsValid reports whether s is a known status
func (s DonationStatus) IsValid() bool {
	switch s {
	case DonationStatusPending, DonationStatusConfirmed, DonationStatusPickedUp, DonationStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible from s
func (s DonationStatus) IsTerminal() bool {
	return s == DonationStatusPickedUp || s == DonationStatusCancelled
}

// CanTransitionTo reports whether the lifecycle permits moving from s to next
func (s DonationStatus) CanTransitionTo(next DonationStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// HoldsCapacity reports whether an offer in this state counts toward the organization's load
func (s DonationStatus) HoldsCapacity() bool {
	return s == DonationStatusConfirmed
}

// DonationOffer is a proposed transfer of surplus food from a donor to one organization
type DonationOffer struct {
	ID          uuid.UUID      `json:"id" db:"id"`
	OrgID       uuid.UUID      `json:"org_id" db:"org_id"`
	DonorID     string         `json:"donor_id" db:"donor_id"`
	QuantityKg  float64        `json:"quantity_kg" db:"quantity_kg"`
	FoodType    FoodType       `json:"food_type" db:"food_type"`
	Description string         `json:"description,omitempty" db:"description"`
	PickupTime  time.Time      `json:"pickup_time" db:"pickup_time"`
	Status      DonationStatus `json:"status" db:"status"`

	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	LastTransitionAt time.Time `json:"last_transition_at" db:"last_transition_at"`
}

// TableName returns the table name for the DonationOffer model
func (DonationOffer) TableName() string {
	return "donation_offers"
}

// NewDonationOffer creates a pending offer
func NewDonationOffer(orgID uuid.UUID, donorID string, quantityKg float64, foodType FoodType, pickupTime time.Time) *DonationOffer {
	now := time.Now()
	return &DonationOffer{
		ID:               uuid.New(),
		OrgID:            orgID,
		DonorID:          donorID,
		QuantityKg:       quantityKg,
		FoodType:         foodType,
		PickupTime:       pickupTime,
		Status:           DonationStatusPending,
		CreatedAt:        now,
		LastTransitionAt: now,
	}
}

// MarkAs moves the offer to next, stamping the transition time
func (d *DonationOffer) MarkAs(next DonationStatus, at time.Time) {
	d.Status = next
	d.LastTransitionAt = at
}
