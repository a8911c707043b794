package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/foodloop/donation-engine/middleware"
	"github.com/foodloop/donation-engine/utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// asDonor returns ctx as seen by handlers behind RequireAuth and ExtractDonor
func asDonor(ctx context.Context, donorID, role string) context.Context {
	claims := &middleware.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: donorID},
		Role:             role,
	}
	ctx = middleware.WithClaims(ctx, claims)
	return middleware.WithDonorID(ctx, donorID)
}

func newJSONRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// decodeData decodes the data envelope of a success response into dst
func decodeData(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, dst))
}

func decodeErrorResponse(t *testing.T, w *httptest.ResponseRecorder) utils.ErrorResponse {
	t.Helper()
	var response utils.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	return response
}
