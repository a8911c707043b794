package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/foodloop/donation-engine/services/ratelimit"
	"github.com/foodloop/donation-engine/utils"
	"go.uber.org/zap"
)

// RateLimiter decides whether a scope may make another request
type RateLimiter interface {
	Allow(scopeKey string) *ratelimit.Result
}

// RateLimit limits requests per donor under the given scope name.
// Must run after ExtractDonor.
func RateLimit(limiter RateLimiter, scope string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			donorID := GetDonorIDFromContext(ctx)

			result := limiter.Allow(scope + ":donor:" + donorID)
			if !result.Allowed {
				retryAfter := result.RetryAfter(time.Now())
				logger.Warn("rate limit exceeded",
					zap.String("request_id", GetRequestIDFromContext(ctx)),
					zap.String("scope", scope),
					zap.String("donor_id", donorID),
					zap.String("window", string(result.ViolatedWindow)))

				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
				_ = utils.WriteError(w, http.StatusTooManyRequests, "Rate limit exceeded", map[string]interface{}{
					"window": string(result.ViolatedWindow),
					"reason": result.ViolationReason,
				})
				return
			}

			if result.RequestsRemaining >= 0 {
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.RequestsRemaining))
			}
			next.ServeHTTP(w, r)
		})
	}
}
