package ratelimit

import (
	"net/http"
	"strconv"

	"github.com/senyabanana/bid-award/internal/models"
	"github.com/senyabanana/bid-award/internal/utils"
)

// KeyFunc extracts the client identity of a request.
type KeyFunc func(r *http.Request) string

// ClientIPKeyFunc keys requests on the client network address.
func ClientIPKeyFunc(trustXFF bool) KeyFunc {
	return func(r *http.Request) string {
		return utils.ClientIP(r, trustXFF)
	}
}

// Middleware rejects requests over policy with 429 and a Retry-After header.
func Middleware(limiter *Limiter, policy Policy, keyFn KeyFunc) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := limiter.Allow(r.Context(), policy, keyFn(r))
			if err != nil {
				utils.SendError(w, models.NewTransientError("rate limiter unavailable", err), "service temporarily unavailable")
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(policy.MaxAttempts))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			if !res.Allowed {
				utils.SendError(w, models.NewRateLimitedError("too many requests", res.RetryAfter(limiter.now())), "too many requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
