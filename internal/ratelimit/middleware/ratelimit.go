// Package middleware throttles HTTP routes with a sliding-window limiter.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"tokenscope/internal/ratelimit/models"
	"tokenscope/pkg/platform/httputil"
	request "tokenscope/pkg/platform/middleware/request"
	"tokenscope/pkg/requestcontext"
)

type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)
}

// KeyFunc derives the bucket key for a request.
type KeyFunc func(r *http.Request) string

// ByClientIP keys on the client IP set by the metadata middleware.
func ByClientIP(r *http.Request) string {
	return requestcontext.ClientIP(r.Context())
}

type Middleware struct {
	limiter  Limiter
	logger   *slog.Logger
	disabled bool
}

type Option func(*Middleware)

// WithDisabled disables rate limiting entirely (for testing/demo mode).
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

func New(limiter Limiter, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		limiter: limiter,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// Limit allows limit requests per window for each key. Limiter failures let
// the request through.
func (m *Middleware) Limit(name string, limit int, window time.Duration, key KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.disabled || limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			result, err := m.limiter.Allow(ctx, name+":"+key(r), limit, window)
			if err != nil {
				m.logger.ErrorContext(ctx, "failed to check rate limit",
					"limit", name,
					"error", err,
					"request_id", request.GetRequestID(ctx),
				)
				next.ServeHTTP(w, r)
				return
			}

			addRateLimitHeaders(w, result)
			if !result.Allowed {
				m.logger.WarnContext(ctx, "rate limit exceeded",
					"limit", name,
					"client_ip", requestcontext.ClientIP(ctx),
					"request_id", request.GetRequestID(ctx),
				)
				writeRateLimitExceeded(w, result)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.RateLimitResult) {
	if result == nil {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.RateLimitResult) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.RateLimitExceededResponse{
		Error:      "rate_limit_exceeded",
		Message:    "Too many requests. Please try again later.",
		RetryAfter: result.RetryAfter,
	})
}
