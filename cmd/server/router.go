package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tokenscope/internal/acl/handler"
	"tokenscope/internal/platform/metrics"
	"tokenscope/pkg/platform/httputil"
	"tokenscope/pkg/platform/middleware/metadata"
	metricsmw "tokenscope/pkg/platform/middleware/metrics"
	request "tokenscope/pkg/platform/middleware/request"
	"tokenscope/pkg/platform/middleware/requesttime"
)

type healthCheck struct {
	name  string
	check func(context.Context) error
}

func newRouter(
	svc handler.Service,
	requireAdmin func(http.Handler) http.Handler,
	m *metrics.Metrics,
	checks []healthCheck,
	log *slog.Logger,
	opts ...handler.Option,
) chi.Router {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(request.Recovery(log))
	r.Use(request.Logger(log))
	r.Use(metadata.ClientMetadata)
	r.Use(metricsmw.Latency(m))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", healthHandler(checks))

	handler.New(svc, log, requireAdmin, opts...).Register(r)
	return r
}

func healthHandler(checks []healthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		result := map[string]string{"status": "ok"}
		for _, c := range checks {
			if err := c.check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				result["status"] = "degraded"
				result[c.name] = err.Error()
				continue
			}
			result[c.name] = "ok"
		}
		httputil.WriteJSON(w, status, result)
	}
}
