package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type observation struct {
	route, method, status string
}

type recordingObserver struct {
	seen []observation
}

func (o *recordingObserver) ObserveEndpointLatency(route, method, status string, _ time.Duration) {
	o.seen = append(o.seen, observation{route, method, status})
}

func TestLatency_UsesRoutePattern(t *testing.T) {
	obs := &recordingObserver{}
	r := chi.NewRouter()
	r.Use(Latency(obs))
	r.Get("/v1/acl/token/{accessor_id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/acl/token/abc", nil))

	require.Len(t, obs.seen, 1)
	assert.Equal(t, observation{"/v1/acl/token/{accessor_id}", http.MethodGet, "404"}, obs.seen[0])
}
