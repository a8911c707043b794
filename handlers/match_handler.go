package handlers

import (
	"context"
	"net/http"

	"github.com/foodloop/donation-engine/middleware"
	"github.com/foodloop/donation-engine/models"
	"github.com/foodloop/donation-engine/services/geo"
	"github.com/foodloop/donation-engine/services/matching"
	"github.com/foodloop/donation-engine/utils"
	"go.uber.org/zap"
)

// MatchService defines the matching operations the handler needs
type MatchService interface {
	FindMatches(ctx context.Context, donor geo.Point, c matching.Criteria) ([]matching.Match, error)
}

// MatchResponse lists the eligible organizations, nearest first
type MatchResponse struct {
	Location geo.Point         `json:"location"`
	Criteria matching.Criteria `json:"criteria"`
	Matches  []matching.Match  `json:"matches"`
	Count    int               `json:"count"`
}

// MatchHandler handles GET /api/v1/matches
type MatchHandler struct {
	service         MatchService
	defaults        matching.Criteria
	defaultLocation geo.Point
	logger          *zap.Logger
}

// NewMatchHandler creates a MatchHandler. defaults and defaultLocation apply to omitted parameters.
func NewMatchHandler(service MatchService, defaults matching.Criteria, defaultLocation geo.Point, logger *zap.Logger) *MatchHandler {
	return &MatchHandler{
		service:         service,
		defaults:        defaults,
		defaultLocation: defaultLocation,
		logger:          logger,
	}
}

// HandleFindMatches handles GET /api/v1/matches
func (h *MatchHandler) HandleFindMatches(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	donor, criteria, err := h.parse(r)
	if err != nil {
		h.logger.Debug("invalid match query",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleValidationError(w, err, h.logger)
		return
	}

	matches, err := h.service.FindMatches(ctx, donor, criteria)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if matches == nil {
		matches = []matching.Match{}
	}

	_ = utils.WriteOK(w, MatchResponse{
		Location: donor,
		Criteria: criteria,
		Matches:  matches,
		Count:    len(matches),
	})
}

// parse reads the donor location and criteria overrides from the query string
func (h *MatchHandler) parse(r *http.Request) (geo.Point, matching.Criteria, error) {
	c := h.defaults
	donor := h.defaultLocation

	lat, hasLat, err := queryFloat(r, "lat", 0)
	if err != nil {
		return donor, c, err
	}
	lon, hasLon, err := queryFloat(r, "lon", 0)
	if err != nil {
		return donor, c, err
	}
	switch {
	case hasLat && hasLon:
		donor = geo.Point{Latitude: lat, Longitude: lon}
	case hasLat || hasLon:
		return donor, c, utils.NewFieldError("location", "lat and lon must be given together")
	}
	if err := donor.Validate(); err != nil {
		return donor, c, utils.NewFieldError("location", err.Error())
	}

	if c.MaxDistanceKm, _, err = queryFloat(r, "max_distance_km", c.MaxDistanceKm); err != nil {
		return donor, c, err
	}
	if c.MinAvailableKg, _, err = queryFloat(r, "min_available_kg", c.MinAvailableKg); err != nil {
		return donor, c, err
	}
	if c.MaxResponseTimeMinutes, err = queryInt(r, "max_response_minutes", c.MaxResponseTimeMinutes); err != nil {
		return donor, c, err
	}
	if c.OnlyActive, err = queryBool(r, "only_active", c.OnlyActive); err != nil {
		return donor, c, err
	}

	categories := queryList(r, "categories")
	if raw := r.URL.Query().Get("food_type"); raw != "" {
		foodType := models.FoodType(raw)
		if !foodType.IsValid() {
			return donor, c, utils.NewFieldError("food_type", "food_type is not a known food type")
		}
		// "other" has no category and so adds no filter
		if cat := foodType.Category(); cat != "" {
			categories = appendUnique(categories, cat)
		}
	}
	for _, cat := range categories {
		if !models.IsValidCategory(cat) {
			return donor, c, utils.NewFieldError("categories", "unknown food category "+cat)
		}
	}
	c.FoodCategories = categories

	if err := c.Validate(); err != nil {
		return donor, c, utils.NewFieldError("criteria", err.Error())
	}
	return donor, c, nil
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}
