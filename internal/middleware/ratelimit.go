package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/petit-ilot/petit-ilot-api/internal/pkg/response"
)

// RateLimit returns middleware limiting a user to `limit` requests per
// `window` on the wrapped routes, counted in Redis. A nil client disables
// the limiter. Used on promo redemption to blunt code guessing.
func RateLimit(client *redis.Client, prefix string, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if client == nil || limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			userID := GetUserID(r.Context())
			key := fmt.Sprintf("ratelimit:%s:%s", prefix, userID)

			count, err := client.Incr(r.Context(), key).Result()
			if err != nil {
				// Redis being down must not block the request path.
				log.Warn().Err(err).Str("key", key).Msg("rate limit check failed")
				next.ServeHTTP(w, r)
				return
			}
			if count == 1 {
				client.Expire(r.Context(), key, window)
			}

			if count > int64(limit) {
				response.TooManyRequests(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
