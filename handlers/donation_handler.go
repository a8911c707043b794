package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/foodloop/donation-engine/internal/pagination"
	"github.com/foodloop/donation-engine/middleware"
	"github.com/foodloop/donation-engine/models"
	"github.com/foodloop/donation-engine/repositories"
	"github.com/foodloop/donation-engine/services"
	"github.com/foodloop/donation-engine/services/donation"
	"github.com/foodloop/donation-engine/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DonationService defines the lifecycle operations the handler needs
type DonationService interface {
	Create(ctx context.Context, in donation.CreateInput) (*models.DonationOffer, error)
	Confirm(ctx context.Context, id uuid.UUID) (*models.DonationOffer, error)
	Complete(ctx context.Context, id uuid.UUID) (*models.DonationOffer, error)
	Cancel(ctx context.Context, id uuid.UUID) (*models.DonationOffer, error)
	Get(ctx context.Context, id uuid.UUID) (*models.DonationOffer, error)
	List(ctx context.Context, filter repositories.DonationFilter) ([]*models.DonationOffer, int, error)
	History(ctx context.Context, id uuid.UUID) ([]*models.AuditLog, error)
}

// CreateDonationRequest is the body of POST /api/v1/donations
type CreateDonationRequest struct {
	OrgID       string    `json:"org_id" validate:"required,uuid"`
	QuantityKg  float64   `json:"quantity_kg" validate:"required,gt=0"`
	FoodType    string    `json:"food_type" validate:"required"`
	Description string    `json:"description,omitempty" validate:"max=500"`
	PickupTime  time.Time `json:"pickup_time" validate:"required"`
}

// DonationHandler handles donation offers
type DonationHandler struct {
	service   DonationService
	adminRole string
	logger    *zap.Logger
}

// NewDonationHandler creates a new DonationHandler. adminRole may read any donor's offers.
func NewDonationHandler(service DonationService, adminRole string, logger *zap.Logger) *DonationHandler {
	return &DonationHandler{
		service:   service,
		adminRole: adminRole,
		logger:    logger,
	}
}

// HandleCreate handles POST /api/v1/donations
func (h *DonationHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	donorID := middleware.GetDonorIDFromContext(ctx)
	if donorID == "" {
		_ = utils.WriteUnauthorized(w, "Missing donor identity")
		return
	}

	var req CreateDonationRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.Debug("invalid donation request",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleValidationError(w, err, h.logger)
		return
	}

	offer, err := h.service.Create(ctx, donation.CreateInput{
		DonorID:     donorID,
		OrgID:       uuid.MustParse(req.OrgID),
		QuantityKg:  req.QuantityKg,
		FoodType:    models.FoodType(req.FoodType),
		Description: req.Description,
		PickupTime:  req.PickupTime,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteCreated(w, offer)
}

// HandleList handles GET /api/v1/donations, the caller's own offers
func (h *DonationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := pagination.FromRequest(r)

	filter := repositories.DonationFilter{
		DonorID: middleware.GetDonorIDFromContext(ctx),
		Status:  models.DonationStatus(r.URL.Query().Get("status")),
		Limit:   page.Limit,
		Offset:  page.Offset(),
	}
	if filter.DonorID == "" {
		_ = utils.WriteUnauthorized(w, "Missing donor identity")
		return
	}

	offers, total, err := h.service.List(ctx, filter)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if offers == nil {
		offers = []*models.DonationOffer{}
	}
	_ = utils.WriteOK(w, page.NewList(offers, total))
}

// HandleGet handles GET /api/v1/donations/{id}
func (h *DonationHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	offer, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	_ = utils.WriteOK(w, offer)
}

// HandleHistory handles GET /api/v1/donations/{id}/history
func (h *DonationHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	offer, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	logs, err := h.service.History(r.Context(), offer.ID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if logs == nil {
		logs = []*models.AuditLog{}
	}
	_ = utils.WriteOK(w, logs)
}

// HandleConfirm handles POST /api/v1/donations/{id}/confirm
func (h *DonationHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Confirm)
}

// HandleComplete handles POST /api/v1/donations/{id}/complete
func (h *DonationHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Complete)
}

// HandleCancel handles POST /api/v1/donations/{id}/cancel
func (h *DonationHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Cancel)
}

func (h *DonationHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	apply func(context.Context, uuid.UUID) (*models.DonationOffer, error),
) {
	id, err := pathUUID(r, "id")
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	offer, err := apply(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, offer)
}

// loadOwned fetches the offer named in the path and checks the caller may read it.
// It writes the error response itself and reports false on failure.
func (h *DonationHandler) loadOwned(w http.ResponseWriter, r *http.Request) (*models.DonationOffer, bool) {
	ctx := r.Context()

	id, err := pathUUID(r, "id")
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return nil, false
	}

	offer, err := h.service.Get(ctx, id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return nil, false
	}

	if offer.DonorID != middleware.GetDonorIDFromContext(ctx) && !h.isAdmin(ctx) {
		HandleServiceError(w, services.ErrForbidden, h.logger)
		return nil, false
	}
	return offer, true
}

func (h *DonationHandler) isAdmin(ctx context.Context) bool {
	claims := middleware.GetClaimsFromContext(ctx)
	return claims != nil && h.adminRole != "" && claims.Role == h.adminRole
}
