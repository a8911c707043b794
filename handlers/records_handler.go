package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/foodloop/donation-engine/models"
	"github.com/foodloop/donation-engine/services/records"
	"github.com/foodloop/donation-engine/utils"
	"go.uber.org/zap"
)

// RecordsService defines the feedback and waste operations the handler needs
type RecordsService interface {
	RecordFeedback(ctx context.Context, in records.FeedbackInput) (*models.Feedback, error)
	ListFeedback(ctx context.Context, limit int) ([]*models.Feedback, error)
	RecordWaste(ctx context.Context, in records.WasteInput) (*models.WasteRecord, error)
	ListWaste(ctx context.Context, limit int) ([]*models.WasteRecord, error)
}

// CreateFeedbackRequest is the body of POST /api/v1/feedback
type CreateFeedbackRequest struct {
	DishName   string `json:"dish_name" validate:"required,max=120"`
	Rating     int    `json:"rating" validate:"required,min=1,max=4"`
	Transcript string `json:"transcript,omitempty" validate:"max=2000"`
	MealType   string `json:"meal_type" validate:"required,oneof=Breakfast Lunch Dinner Snacks"`
}

// CreateWasteRequest is the body of POST /api/v1/waste. Date is YYYY-MM-DD and defaults to today.
type CreateWasteRequest struct {
	DishName  string  `json:"dish_name" validate:"required,max=120"`
	MealType  string  `json:"meal_type" validate:"required,oneof=Breakfast Lunch Dinner Snacks"`
	WastageKg float64 `json:"wastage_kg" validate:"required,gt=0"`
	Date      string  `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// RecordsHandler handles cafeteria feedback and waste records
type RecordsHandler struct {
	service  RecordsService
	location *time.Location
	logger   *zap.Logger
}

// NewRecordsHandler creates a new RecordsHandler. location interprets waste dates.
func NewRecordsHandler(service RecordsService, location *time.Location, logger *zap.Logger) *RecordsHandler {
	if location == nil {
		location = time.Local
	}
	return &RecordsHandler{
		service:  service,
		location: location,
		logger:   logger,
	}
}

// HandleCreateFeedback handles POST /api/v1/feedback
func (h *RecordsHandler) HandleCreateFeedback(w http.ResponseWriter, r *http.Request) {
	var req CreateFeedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	fb, err := h.service.RecordFeedback(r.Context(), records.FeedbackInput{
		DishName:   req.DishName,
		MealType:   models.MealType(req.MealType),
		Rating:     req.Rating,
		Transcript: req.Transcript,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteCreated(w, fb)
}

// HandleListFeedback handles GET /api/v1/feedback
func (h *RecordsHandler) HandleListFeedback(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	list, err := h.service.ListFeedback(r.Context(), limit)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if list == nil {
		list = []*models.Feedback{}
	}
	_ = utils.WriteOK(w, list)
}

// HandleCreateWaste handles POST /api/v1/waste
func (h *RecordsHandler) HandleCreateWaste(w http.ResponseWriter, r *http.Request) {
	var req CreateWasteRequest
	if err := decodeJSON(r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	in := records.WasteInput{
		DishName:  req.DishName,
		MealType:  models.MealType(req.MealType),
		WastageKg: req.WastageKg,
	}
	if req.Date != "" {
		// Format already checked by the datetime tag
		in.Date, _ = time.ParseInLocation("2006-01-02", req.Date, h.location)
	}

	rec, err := h.service.RecordWaste(r.Context(), in)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteCreated(w, rec)
}

// HandleListWaste handles GET /api/v1/waste
func (h *RecordsHandler) HandleListWaste(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	list, err := h.service.ListWaste(r.Context(), limit)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if list == nil {
		list = []*models.WasteRecord{}
	}
	_ = utils.WriteOK(w, list)
}
