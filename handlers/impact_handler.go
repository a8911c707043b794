package handlers

import (
	"context"
	"net/http"

	"github.com/foodloop/donation-engine/middleware"
	"github.com/foodloop/donation-engine/models"
	"github.com/foodloop/donation-engine/utils"
	"go.uber.org/zap"
)

// Impact scopes
const (
	ImpactScopeMine = "mine"
	ImpactScopeAll  = "all"
)

// ImpactService defines the aggregation the handler needs. An empty donorID covers every offer.
type ImpactService interface {
	Snapshot(ctx context.Context, donorID string) (models.ImpactSnapshot, error)
}

// ImpactResponse is a snapshot labelled with its scope
type ImpactResponse struct {
	Scope string `json:"scope"`
	models.ImpactSnapshot
}

// ImpactHandler handles GET /api/v1/impact
type ImpactHandler struct {
	service ImpactService
	logger  *zap.Logger
}

// NewImpactHandler creates a new ImpactHandler
func NewImpactHandler(service ImpactService, logger *zap.Logger) *ImpactHandler {
	return &ImpactHandler{
		service: service,
		logger:  logger,
	}
}

// HandleSnapshot handles GET /api/v1/impact?scope=mine|all
func (h *ImpactHandler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	scope := r.URL.Query().Get("scope")
	if scope == "" {
		scope = ImpactScopeMine
	}
	if err := utils.ValidateOneOf(scope, "scope", []string{ImpactScopeMine, ImpactScopeAll}); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	var donorID string
	if scope == ImpactScopeMine {
		donorID = middleware.GetDonorIDFromContext(ctx)
		if donorID == "" {
			_ = utils.WriteUnauthorized(w, "Missing donor identity")
			return
		}
	}

	snapshot, err := h.service.Snapshot(ctx, donorID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, ImpactResponse{Scope: scope, ImpactSnapshot: snapshot})
}
