package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/foodloop/donation-engine/services/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRateLimit(t *testing.T) {
	limiter := ratelimit.NewService(ratelimit.Config{RequestsPerMinute: 1}, zap.NewNop())
	handler := RateLimit(limiter, "insights", zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	serve := func(donorID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/insights", nil)
		req = req.WithContext(WithDonorID(req.Context(), donorID))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	first := serve("mess-1")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "0", first.Header().Get("X-RateLimit-Remaining"))

	denied := serve("mess-1")
	require.Equal(t, http.StatusTooManyRequests, denied.Code)
	assert.NotEmpty(t, denied.Header().Get("Retry-After"))

	var body struct {
		Error   string                 `json:"error"`
		Details map[string]interface{} `json:"details"`
	}
	require.NoError(t, json.NewDecoder(denied.Body).Decode(&body))
	assert.Equal(t, "rate_limited", body.Error)
	assert.Equal(t, "minute", body.Details["window"])

	// Limits are per donor
	assert.Equal(t, http.StatusOK, serve("mess-2").Code)
}

func TestRateLimit_Disabled(t *testing.T) {
	limiter := ratelimit.NewService(ratelimit.Config{}, zap.NewNop())
	handler := RateLimit(limiter, "insights", zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/insights", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Remaining"))
	}
}
