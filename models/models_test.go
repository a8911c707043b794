package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Organization tests
func TestNewOrganization(t *testing.T) {
	org := NewOrganization("hunger-free-india", "Hunger Free India", 28.6139, 77.2090, 500, []string{CategoryCooked})

	assert.Equal(t, OrganizationIDFromSlug("hunger-free-india"), org.ID)
	assert.Equal(t, "Hunger Free India", org.Name)
	assert.True(t, org.IsActive)
	assert.Equal(t, 0.0, org.CurrentLoadKg)
	assert.False(t, org.CreatedAt.IsZero())
	assert.Equal(t, org.CreatedAt, org.UpdatedAt)
}

func TestOrganizationIDFromSlug(t *testing.T) {
	assert.Equal(t, OrganizationIDFromSlug("a"), OrganizationIDFromSlug("a"))
	assert.NotEqual(t, OrganizationIDFromSlug("a"), OrganizationIDFromSlug("b"))
	assert.NotEqual(t, uuid.Nil, OrganizationIDFromSlug("a"))
}

func TestOrganization_TableName(t *testing.T) {
	org := Organization{}
	assert.Equal(t, "organizations", org.TableName())
}

func TestOrganization_Capacity(t *testing.T) {
	org := &Organization{TotalCapacityKg: 50, CurrentLoadKg: 40}

	assert.Equal(t, 10.0, org.AvailableKg())
	assert.True(t, org.CanAccept(10))
	assert.True(t, org.CanAccept(0.5))
	assert.False(t, org.CanAccept(10.5))
}

func TestOrganization_AcceptsAny(t *testing.T) {
	org := &Organization{FoodCategories: []string{CategoryCooked, CategoryPackaged}}

	tests := []struct {
		name       string
		categories []string
		want       bool
	}{
		{"single overlap", []string{CategoryPackaged}, true},
		{"partial overlap", []string{CategoryRaw, CategoryCooked}, true},
		{"no overlap", []string{CategoryFruits, CategoryRaw}, false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, org.AcceptsAny(tt.categories))
		})
	}
}

func TestOrganization_Clone(t *testing.T) {
	rating := 4.5
	org := &Organization{Name: "A", FoodCategories: []string{CategoryCooked}, Rating: &rating}

	c := org.Clone()
	c.FoodCategories[0] = CategoryRaw
	*c.Rating = 1

	assert.Equal(t, CategoryCooked, org.FoodCategories[0])
	assert.Equal(t, 4.5, *org.Rating)
	assert.Equal(t, -1.0, (&Organization{}).RatingValue())
}

// DonationOffer tests
func TestNewDonationOffer(t *testing.T) {
	orgID := uuid.New()
	pickup := time.Now().Add(time.Hour)

	offer := NewDonationOffer(orgID, "mess-1", 10, FoodTypeCookedRice, pickup)

	assert.NotEqual(t, uuid.Nil, offer.ID)
	assert.Equal(t, orgID, offer.OrgID)
	assert.Equal(t, "mess-1", offer.DonorID)
	assert.Equal(t, DonationStatusPending, offer.Status)
	assert.Equal(t, offer.CreatedAt, offer.LastTransitionAt)
	assert.Equal(t, "donation_offers", offer.TableName())
}

func TestDonationStatus_Transitions(t *testing.T) {
	tests := []struct {
		from DonationStatus
		to   DonationStatus
		want bool
	}{
		{DonationStatusPending, DonationStatusConfirmed, true},
		{DonationStatusPending, DonationStatusCancelled, true},
		{DonationStatusPending, DonationStatusPickedUp, false},
		{DonationStatusConfirmed, DonationStatusPickedUp, true},
		{DonationStatusConfirmed, DonationStatusCancelled, true},
		{DonationStatusConfirmed, DonationStatusPending, false},
		{DonationStatusPickedUp, DonationStatusCancelled, false},
		{DonationStatusCancelled, DonationStatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestDonationStatus_Predicates(t *testing.T) {
	assert.True(t, DonationStatusPickedUp.IsTerminal())
	assert.True(t, DonationStatusCancelled.IsTerminal())
	assert.False(t, DonationStatusPending.IsTerminal())
	assert.True(t, DonationStatusConfirmed.HoldsCapacity())
	assert.False(t, DonationStatusPending.HoldsCapacity())
	assert.False(t, DonationStatus("shipped").IsValid())
}

func TestDonationOffer_MarkAs(t *testing.T) {
	offer := NewDonationOffer(uuid.New(), "mess-1", 5, FoodTypeFruits, time.Now())
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	offer.MarkAs(DonationStatusConfirmed, at)

	assert.Equal(t, DonationStatusConfirmed, offer.Status)
	assert.Equal(t, at, offer.LastTransitionAt)
}

func TestFoodType_Category(t *testing.T) {
	assert.Equal(t, CategoryCooked, FoodTypeDalCurry.Category())
	assert.Equal(t, CategoryPackaged, FoodTypePackagedSnacks.Category())
	assert.Equal(t, CategoryRaw, FoodTypeRawVegetables.Category())
	assert.Equal(t, "", FoodTypeOther.Category())
	assert.True(t, FoodTypeOther.IsValid())
	assert.False(t, FoodType("caviar").IsValid())
	assert.Len(t, FoodTypes(), 9)
}

// Feedback tests
func TestSentimentForRating(t *testing.T) {
	assert.Equal(t, SentimentPositive, SentimentForRating(4))
	assert.Equal(t, SentimentPositive, SentimentForRating(3))
	assert.Equal(t, SentimentNeutral, SentimentForRating(2))
	assert.Equal(t, SentimentNegative, SentimentForRating(1))
}

func TestMealType_IsValid(t *testing.T) {
	assert.True(t, MealTypeSnacks.IsValid())
	assert.False(t, MealType("Brunch").IsValid())
	assert.False(t, MealType("lunch").IsValid())
}

func TestNewFeedback(t *testing.T) {
	fb := NewFeedback("Paneer Butter Masala", MealTypeLunch, 2, "too salty")

	assert.NotEqual(t, uuid.Nil, fb.ID)
	assert.Equal(t, SentimentNeutral, fb.Sentiment)
	assert.Equal(t, "feedback", fb.TableName())
}

// AuditLog tests
func TestNewAuditLog(t *testing.T) {
	orgID := uuid.New()

	log := NewAuditLog(orgID, AuditActionDonationConfirmed, "donation")

	assert.NotEqual(t, uuid.Nil, log.ID)
	assert.Equal(t, orgID, log.OrgID)
	assert.Equal(t, AuditActionDonationConfirmed, log.Action)
	assert.Equal(t, "donation", log.ResourceType)
	assert.False(t, log.Timestamp.IsZero())
}

func TestAuditLog_BuilderMethods(t *testing.T) {
	resourceID := uuid.New()

	log := NewAuditLog(uuid.New(), AuditActionDonationCreated, "donation").
		WithActor("mess-1").
		WithResource(resourceID).
		WithRequest("req-123").
		WithDetails(map[string]interface{}{"quantity_kg": 10})

	assert.Equal(t, "mess-1", log.ActorID)
	assert.Equal(t, resourceID, *log.ResourceID)
	assert.Equal(t, "req-123", log.RequestID)

	var details map[string]interface{}
	require.NoError(t, json.Unmarshal(log.Details, &details))
	assert.Equal(t, float64(10), details["quantity_kg"])
}

func TestAuditActionForStatus(t *testing.T) {
	assert.Equal(t, AuditActionDonationCreated, AuditActionForStatus(DonationStatusPending))
	assert.Equal(t, AuditActionDonationConfirmed, AuditActionForStatus(DonationStatusConfirmed))
	assert.Equal(t, AuditActionDonationPickedUp, AuditActionForStatus(DonationStatusPickedUp))
	assert.Equal(t, AuditActionDonationCancelled, AuditActionForStatus(DonationStatusCancelled))
}
