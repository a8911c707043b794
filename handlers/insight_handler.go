package handlers

import (
	"context"
	"net/http"

	"github.com/foodloop/donation-engine/models"
	"github.com/foodloop/donation-engine/utils"
	"go.uber.org/zap"
)

// InsightService defines the insight generation the handler needs
type InsightService interface {
	Generate(ctx context.Context) ([]models.Insight, error)
}

// InsightResponse wraps generated suggestions
type InsightResponse struct {
	Insights []models.Insight `json:"insights"`
}

// InsightHandler handles POST /api/v1/insights
type InsightHandler struct {
	service InsightService
	logger  *zap.Logger
}

// NewInsightHandler creates a new InsightHandler
func NewInsightHandler(service InsightService, logger *zap.Logger) *InsightHandler {
	return &InsightHandler{
		service: service,
		logger:  logger,
	}
}

// HandleGenerate handles POST /api/v1/insights
func (h *InsightHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	insights, err := h.service.Generate(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if insights == nil {
		insights = []models.Insight{}
	}
	_ = utils.WriteOK(w, InsightResponse{Insights: insights})
}
