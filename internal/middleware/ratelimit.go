package middleware

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"
	"go.uber.org/zap"

	"github.com/capitalize-ai/sales-coach/internal/model"
	"github.com/capitalize-ai/sales-coach/internal/ratelimit"
	"github.com/capitalize-ai/sales-coach/pkg/logger"
	"github.com/capitalize-ai/sales-coach/pkg/metrics"
)

// RateLimit limits authenticated API traffic per user.
func RateLimit(requestLimit int, windowLength time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		requestLimit,
		windowLength,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			if userID := GetUserID(r.Context()); userID != "" {
				return "user:" + userID, nil
			}
			return "ip:" + clientIP(r), nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.RateLimitRejectionsTotal.WithLabelValues("api").Inc()
			retry := windowLength
			if reset, err := strconv.ParseInt(w.Header().Get("X-RateLimit-Reset"), 10, 64); err == nil {
				retry = time.Until(time.Unix(reset, 0))
			}
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded", retry)
		}),
	)
}

// Throttle limits requests per client address and path with a sliding
// window counter. Counter failures are logged and the request is let
// through.
func Throttle(counter ratelimit.Counter, limit int, window time.Duration, scope string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r) + ":" + r.URL.Path

			d, err := counter.IncrementAndCheck(r.Context(), key, limit, window)
			if err != nil {
				log.Warn("rate limit check failed", zap.String("scope", scope), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if !d.Allowed {
				metrics.RateLimitRejectionsTotal.WithLabelValues(scope).Inc()
				log.Warn("rate limit exceeded", zap.String("scope", scope), zap.String("key", key))
				writeError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.", d.RetryAfter)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeError(w http.ResponseWriter, status int, msg string, retryAfter time.Duration) {
	body := model.ErrorResponse{Error: msg}
	if retryAfter > 0 {
		secs := int(math.Ceil(retryAfter.Seconds()))
		w.Header().Set("Retry-After", strconv.Itoa(secs))
		body.RetryAfter = secs
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
