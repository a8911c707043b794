package handlers

import (
	"context"
	"net/http"

	"github.com/foodloop/donation-engine/internal/pagination"
	"github.com/foodloop/donation-engine/middleware"
	"github.com/foodloop/donation-engine/models"
	"github.com/foodloop/donation-engine/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrganizationService defines the directory operations the handler needs
type OrganizationService interface {
	List(ctx context.Context, limit, offset int) ([]*models.Organization, int, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool, actorID string) (*models.Organization, error)
}

// OrganizationResponse is an organization with its remaining capacity
type OrganizationResponse struct {
	*models.Organization
	AvailableKg float64 `json:"available_kg"`
}

// UpdateOrganizationStatusRequest is the body of PATCH /api/v1/organizations/{id}/status
type UpdateOrganizationStatusRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// OrganizationHandler handles the organization directory
type OrganizationHandler struct {
	service OrganizationService
	logger  *zap.Logger
}

// NewOrganizationHandler creates a new OrganizationHandler
func NewOrganizationHandler(service OrganizationService, logger *zap.Logger) *OrganizationHandler {
	return &OrganizationHandler{
		service: service,
		logger:  logger,
	}
}

func toOrganizationResponse(org *models.Organization) OrganizationResponse {
	return OrganizationResponse{Organization: org, AvailableKg: org.AvailableKg()}
}

// HandleList handles GET /api/v1/organizations
func (h *OrganizationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page := pagination.FromRequest(r)

	orgs, total, err := h.service.List(r.Context(), page.Limit, page.Offset())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	items := make([]OrganizationResponse, 0, len(orgs))
	for _, org := range orgs {
		items = append(items, toOrganizationResponse(org))
	}
	_ = utils.WriteOK(w, page.NewList(items, total))
}

// HandleGet handles GET /api/v1/organizations/{id}
func (h *OrganizationHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	org, err := h.service.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, toOrganizationResponse(org))
}

// HandleUpdateStatus handles PATCH /api/v1/organizations/{id}/status (admin only)
func (h *OrganizationHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathUUID(r, "id")
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	var req UpdateOrganizationStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	var actorID string
	if claims := middleware.GetClaimsFromContext(ctx); claims != nil {
		actorID = claims.Subject
	}

	org, err := h.service.SetActive(ctx, id, *req.IsActive, actorID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, toOrganizationResponse(org))
}
