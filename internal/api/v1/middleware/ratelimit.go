package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/deepgram/qabot/internal/config"
	"github.com/deepgram/qabot/pkg/httpext"
	"github.com/deepgram/qabot/pkg/ratelimit"
	"github.com/rs/zerolog/log"
)

func RateLimit(limitKey string) func(http.Handler) http.Handler {
	cfg := config.GetRateLimitConfig(limitKey)
	limiter := ratelimit.NewLimiter(cfg.Window, cfg.MaxHits)

	var sweepMu sync.Mutex
	lastSweep := time.Now()
	// idle clients are dropped at most once per window
	sweep := func() {
		sweepMu.Lock()
		defer sweepMu.Unlock()
		if time.Since(lastSweep) < cfg.Window {
			return
		}
		lastSweep = time.Now()
		if removed := limiter.Sweep(); removed > 0 {
			log.Debug().Str("limit", limitKey).Int("removed", removed).Msg("Swept idle rate limit keys")
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			sweep()

			ip := clientIP(r)
			if !limiter.Allow(ip) {
				log.Warn().
					Str("client_ip", ip).
					Str("limit", limitKey).
					Msg("Rate limit exceeded")
				httpext.JsonError(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP prefers the first X-Forwarded-For hop, then the remote address without port
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
