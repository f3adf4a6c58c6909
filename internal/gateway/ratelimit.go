package gateway

import (
	"net"
	"net/http"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/saldo-labs/akuntansid/internal/server"
)

// limiterCacheSize bounds the number of tracked clients. Eviction
// effectively resets an idle client's bucket, which is harmless.
const limiterCacheSize = 8192

// RateLimiter enforces a per-client-IP token bucket at the edge.
type RateLimiter struct {
	clients *lru.Cache[string, *rate.Limiter]
	rps     rate.Limit
	burst   int
}

// NewRateLimiter builds a limiter allowing rps requests per second with
// the given burst per client IP.
func NewRateLimiter(rps float64, burst int) (*RateLimiter, error) {
	cache, err := lru.New[string, *rate.Limiter](limiterCacheSize)
	if err != nil {
		return nil, err
	}
	return &RateLimiter{clients: cache, rps: rate.Limit(rps), burst: burst}, nil
}

// Allow reports whether the client may proceed.
func (l *RateLimiter) Allow(clientIP string) bool {
	limiter, ok := l.clients.Get(clientIP)
	if !ok {
		limiter = rate.NewLimiter(l.rps, l.burst)
		// Two concurrent first requests may each build a limiter; the
		// losing write just burns one extra token.
		l.clients.Add(clientIP, limiter)
	}
	return limiter.Allow()
}

// Middleware rejects over-limit clients with 429.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientIP(r)) {
			server.WriteJSON(w, http.StatusTooManyRequests, map[string]interface{}{
				"error": map[string]string{
					"kind":    "RATE_LIMITED",
					"message": "too many requests",
				},
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the remote host, falling back to the raw address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
