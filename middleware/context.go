package middleware

import (
	"context"

	"github.com/foodloop/donation-engine/internal/observability"
	"github.com/golang-jwt/jwt/v5"
)

// Context key type to avoid collisions
type contextKey string

const (
	// ClaimsKey is the context key for JWT claims
	ClaimsKey contextKey = "claims"

	// DonorIDKey is the context key for the authenticated donor
	DonorIDKey contextKey = "donor_id"
)

// Claims represents JWT claims extracted from the token
type Claims struct {
	jwt.RegisteredClaims
	Email   string `json:"email,omitempty"`
	Role    string `json:"role,omitempty"`
	DonorID string `json:"donor_id,omitempty"` // Falls back to sub when empty
}

// Donor returns the donor identity carried by the claims
func (c *Claims) Donor() string {
	if c.DonorID != "" {
		return c.DonorID
	}
	return c.Subject
}

// GetRequestIDFromContext retrieves the request ID from context
func GetRequestIDFromContext(ctx context.Context) string {
	return observability.RequestIDFromContext(ctx)
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return observability.WithRequestID(ctx, requestID)
}

// GetClaimsFromContext retrieves JWT claims from context
func GetClaimsFromContext(ctx context.Context) *Claims {
	if val := ctx.Value(ClaimsKey); val != nil {
		if claims, ok := val.(*Claims); ok {
			return claims
		}
	}
	return nil
}

// WithClaims adds JWT claims to the context
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// GetDonorIDFromContext retrieves the donor ID from context
func GetDonorIDFromContext(ctx context.Context) string {
	if donorID, ok := ctx.Value(DonorIDKey).(string); ok {
		return donorID
	}
	return ""
}

// WithDonorID adds the donor ID to the context
func WithDonorID(ctx context.Context, donorID string) context.Context {
	return context.WithValue(ctx, DonorIDKey, donorID)
}
