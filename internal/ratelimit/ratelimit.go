package ratelimit

import (
	"net/http"
	"strconv"

	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/ovenline/backend-bakery/internal/common"
)

// NewLoginLimiter builds a Redis-backed limiter from a formatted rate such
// as "10-M" (ten per minute).
func NewLoginLimiter(client *redis.Client, rate string) (*limiter.Limiter, error) {
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, err
	}
	store, err := limiterredis.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix: "ratelimit:login",
	})
	if err != nil {
		return nil, err
	}
	return limiter.New(store, parsed), nil
}

// Middleware enforces the limit keyed by client IP. A limiter backend error
// fails open so a Redis hiccup never locks out the registers.
func Middleware(l *limiter.Limiter, onError func(error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lctx, err := l.Get(r.Context(), common.ClientIP(r))
			if err != nil {
				if onError != nil {
					onError(err)
				}
				next.ServeHTTP(w, r)
				return
			}
			headers := w.Header()
			headers.Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
			headers.Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
			headers.Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))
			if lctx.Reached {
				common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many attempts, slow down", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
