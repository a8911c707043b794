package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/foodloop/donation-engine/utils"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

var (
	// ErrInvalidToken is returned when the token cannot be verified
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when the token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrAuthDisabled is returned by the validator used when no signing secret is configured
	ErrAuthDisabled = errors.New("authentication is not configured")
)

// TokenValidator defines the interface for validating JWT tokens
type TokenValidator interface {
	// ValidateToken validates a JWT token and returns claims
	ValidateToken(ctx context.Context, token string) (*Claims, error)
}

// JWTValidator validates HS256 bearer tokens signed with a shared secret
type JWTValidator struct {
	secret []byte
	parser *jwt.Parser
}

// NewJWTValidator creates a validator. Issuer and audience are only enforced when non-empty.
// An empty secret yields a validator that rejects every token.
func NewJWTValidator(secret, issuer, audience string) TokenValidator {
	if secret == "" {
		return rejectAll{}
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}

	return &JWTValidator{
		secret: []byte(secret),
		parser: jwt.NewParser(opts...),
	}
}

// ValidateToken implements TokenValidator
func (v *JWTValidator) ValidateToken(_ context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Donor() == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrInvalidToken)
	}
	return claims, nil
}

type rejectAll struct{}

func (rejectAll) ValidateToken(context.Context, string) (*Claims, error) {
	return nil, ErrAuthDisabled
}

// AuthMiddleware provides authentication middleware functionality
type AuthMiddleware struct {
	validator TokenValidator
	logger    *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(validator TokenValidator, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		validator: validator,
		logger:    logger,
	}
}

// authTokenCookieName is the cookie name for JWT tokens (Authorization header takes precedence)
const authTokenCookieName = "auth_token"

// RequireAuth is a middleware that requires a valid JWT token
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		token := extractToken(r)
		if token == "" {
			m.logger.Warn("missing token",
				zap.String("request_id", requestID))
			_ = utils.WriteUnauthorized(w, "Missing or invalid authorization")
			return
		}

		claims, err := m.validator.ValidateToken(ctx, token)
		if err != nil {
			m.logger.Warn("token validation failed",
				zap.String("request_id", requestID),
				zap.Error(err))
			_ = utils.WriteUnauthorized(w, "Invalid or expired token")
			return
		}

		ctx = WithClaims(ctx, claims)

		m.logger.Debug("authentication successful",
			zap.String("request_id", requestID),
			zap.String("sub", claims.Subject))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ExtractDonor places the donor identity from the claims in the context.
// This should be called after RequireAuth
func (m *AuthMiddleware) ExtractDonor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		claims := GetClaimsFromContext(ctx)
		if claims == nil {
			m.logger.Error("claims not found in context",
				zap.String("request_id", requestID))
			_ = utils.WriteUnauthorized(w, "Authentication required")
			return
		}

		donorID := claims.Donor()
		if donorID == "" {
			m.logger.Warn("token carries no donor identity",
				zap.String("request_id", requestID))
			_ = utils.WriteForbidden(w, "Missing donor identity")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithDonorID(ctx, donorID)))
	})
}

// RequireRole is a middleware that requires a specific role
func (m *AuthMiddleware) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestIDFromContext(ctx)

			claims := GetClaimsFromContext(ctx)
			if claims == nil {
				m.logger.Error("claims not found in context",
					zap.String("request_id", requestID))
				_ = utils.WriteUnauthorized(w, "Authentication required")
				return
			}

			if claims.Role != role {
				m.logger.Warn("insufficient permissions",
					zap.String("request_id", requestID),
					zap.String("required_role", role),
					zap.String("role", claims.Role))
				_ = utils.WriteForbidden(w, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// extractToken extracts JWT from the Authorization header ("Bearer TOKEN") or the auth_token cookie
func extractToken(r *http.Request) string {
	if token := extractBearerToken(r); token != "" {
		return token
	}
	if cookie, err := r.Cookie(authTokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
