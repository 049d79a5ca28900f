// Package metrics records per-route HTTP latency.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// LatencyObserver receives one observation per request.
type LatencyObserver interface {
	ObserveEndpointLatency(route, method, status string, duration time.Duration)
}

// Latency labels observations with the chi route pattern rather than the raw
// path, so accessor IDs never become label values.
func Latency(observer LatencyObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			observer.ObserveEndpointLatency(route, r.Method, strconv.Itoa(status), time.Since(start))
		})
	}
}
