package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/foodloop/donation-engine/utils"
	"go.uber.org/zap"
)

const probeTimeout = 5 * time.Second

// Readiness states
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Probe reports the state of one dependency, e.g. "postgres" or "disabled"
type Probe func(ctx context.Context) (string, error)

// Check is a named readiness probe. A failing critical check makes the
// service unready; any other failure only degrades it.
type Check struct {
	Name     string
	Critical bool
	Probe    Probe
}

// HealthHandler serves liveness and readiness
type HealthHandler struct {
	checks []Check
	logger *zap.Logger
}

// NewHealthHandler creates a HealthHandler running checks in order
func NewHealthHandler(logger *zap.Logger, checks ...Check) *HealthHandler {
	return &HealthHandler{
		checks: checks,
		logger: logger,
	}
}

// HandleHealth handles GET /healthz.
// Liveness only; always 200 while the process serves requests.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, HealthResponse{
		Status:    StatusHealthy,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleReadiness handles GET /readyz
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()

	status := StatusHealthy
	results := make(map[string]string, len(h.checks))
	for _, c := range h.checks {
		state, err := c.Probe(ctx)
		if err == nil {
			results[c.Name] = state
			continue
		}

		h.logger.Warn("readiness check failed",
			zap.String("check", c.Name),
			zap.Bool("critical", c.Critical),
			zap.Error(err))
		results[c.Name] = StatusUnhealthy
		switch {
		case c.Critical:
			status = StatusUnhealthy
		case status == StatusHealthy:
			status = StatusDegraded
		}
	}

	httpStatus := http.StatusOK
	if status == StatusUnhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    results,
	}
	if err := utils.WriteJSON(w, httpStatus, utils.SuccessResponse{Data: response}); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}

// StaticProbe always reports state
func StaticProbe(state string) Probe {
	return func(context.Context) (string, error) {
		return state, nil
	}
}

// SQLProbe pings db and runs a trivial query, reporting label when both succeed
func SQLProbe(db *sql.DB, label string) Probe {
	return func(ctx context.Context) (string, error) {
		if err := db.PingContext(ctx); err != nil {
			return "", err
		}
		var one int
		if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
			return "", err
		}
		return label, nil
	}
}
