package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tokenscope/internal/ratelimit/models"
	"tokenscope/internal/ratelimit/store/bucket"
	"tokenscope/pkg/requestcontext"
)

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string, int, time.Duration) (*models.RateLimitResult, error) {
	return nil, errors.New("store down")
}

func newRequest(ip string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/verify", nil)
	return req.WithContext(requestcontext.WithClientMetadata(req.Context(), ip, ""))
}

func TestLimit(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mw := New(bucket.NewInMemoryBucketStore(), logger).Limit("verify", 2, time.Minute, ByClientIP)
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for range 2 {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, newRequest("10.0.0.1"))
		assert.Equal(t, http.StatusNoContent, rr.Code)
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, newRequest("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
	assert.Contains(t, rr.Body.String(), "rate_limit_exceeded")

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, newRequest("10.0.0.2"))
	assert.Equal(t, http.StatusNoContent, rr.Code, "other clients keep their own window")
}

func TestLimit_FailsOpen(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(failingLimiter{}, logger).Limit("verify", 1, time.Minute, ByClientIP)(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, newRequest("10.0.0.1"))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestLimit_Disabled(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(failingLimiter{}, logger, WithDisabled(true)).Limit("verify", 1, time.Minute, ByClientIP)(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, newRequest("10.0.0.1"))
	assert.Equal(t, http.StatusOK, rr.Code)
}
