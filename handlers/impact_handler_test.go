package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/foodloop/donation-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func TestImpactHandler_HandleSnapshot(t *testing.T) {
	snapshot := models.ImpactSnapshot{
		TotalKg:              25,
		DonationCount:        2,
		MealsFed:             83,
		OrganizationsEngaged: 2,
		ActiveToday:          1,
		CO2SavedKg:           62.5,
	}

	tests := []struct {
		name        string
		query       string
		donorID     string
		wantDonor   string
		wantStatus  int
		wantScope   string
		callService bool
	}{
		{"defaults to own offers", "", "mess-1", "mess-1", http.StatusOK, "mine", true},
		{"explicit mine", "?scope=mine", "mess-1", "mess-1", http.StatusOK, "mine", true},
		{"all offers", "?scope=all", "mess-1", "", http.StatusOK, "all", true},
		{"all without identity", "?scope=all", "", "", http.StatusOK, "all", true},
		{"mine without identity", "?scope=mine", "", "", http.StatusUnauthorized, "", false},
		{"unknown scope", "?scope=everyone", "mess-1", "", http.StatusBadRequest, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockImpactService)
			if tt.callService {
				svc.On("Snapshot", mock.Anything, tt.wantDonor).Return(snapshot, nil)
			}
			h := NewImpactHandler(svc, zap.NewNop())

			req := httptest.NewRequest(http.MethodGet, "/api/v1/impact"+tt.query, nil)
			if tt.donorID != "" {
				req = req.WithContext(asDonor(req.Context(), tt.donorID, ""))
			}
			w := httptest.NewRecorder()
			h.HandleSnapshot(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.callService {
				var got ImpactResponse
				decodeData(t, w, &got)
				assert.Equal(t, tt.wantScope, got.Scope)
				assert.Equal(t, snapshot, got.ImpactSnapshot)
			} else {
				svc.AssertNotCalled(t, "Snapshot", mock.Anything, mock.Anything)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestImpactHandler_ServiceError(t *testing.T) {
	svc := new(MockImpactService)
	svc.On("Snapshot", mock.Anything, "").Return(models.ImpactSnapshot{}, errors.New("database unavailable"))
	h := NewImpactHandler(svc, zap.NewNop())

	w := httptest.NewRecorder()
	h.HandleSnapshot(w, httptest.NewRequest(http.MethodGet, "/api/v1/impact?scope=all", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "database unavailable")
}
