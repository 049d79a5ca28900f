package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for token administration.
type Metrics struct {
	TokensCreated   prometheus.Counter
	TokensDeleted   prometheus.Counter
	TokensPurged    prometheus.Counter
	SecretChecks    *prometheus.CounterVec
	Searches        *prometheus.CounterVec
	SearchDuration  prometheus.Histogram
	SearchResults   prometheus.Histogram
	EndpointLatency *prometheus.HistogramVec
}

// New registers the collectors with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the collectors with reg. Tests pass a fresh
// prometheus.NewRegistry() so repeated construction does not collide.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		TokensCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "tokenscope_tokens_created_total",
			Help: "Total number of ACL tokens created",
		}),
		TokensDeleted: f.NewCounter(prometheus.CounterOpts{
			Name: "tokenscope_tokens_deleted_total",
			Help: "Total number of ACL tokens deleted through the API",
		}),
		TokensPurged: f.NewCounter(prometheus.CounterOpts{
			Name: "tokenscope_tokens_purged_total",
			Help: "Total number of expired ACL tokens removed by the purge loop",
		}),
		SecretChecks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tokenscope_secret_checks_total",
			Help: "Secret verifications by outcome",
		}, []string{"outcome"}),
		Searches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tokenscope_token_searches_total",
			Help: "Token searches by searched field",
		}, []string{"field"}),
		SearchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "tokenscope_token_search_duration_seconds",
			Help:    "Duration of token searches including the store listing",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		SearchResults: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "tokenscope_token_search_results",
			Help:    "Number of tokens returned per search",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		EndpointLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tokenscope_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}
}

func (m *Metrics) IncrementTokensCreated() {
	m.TokensCreated.Inc()
}

func (m *Metrics) IncrementTokensDeleted() {
	m.TokensDeleted.Inc()
}

func (m *Metrics) AddTokensPurged(n int) {
	m.TokensPurged.Add(float64(n))
}

func (m *Metrics) IncrementSecretCheck(outcome string) {
	m.SecretChecks.WithLabelValues(outcome).Inc()
}

// ObserveSearch records one search over fields.
func (m *Metrics) ObserveSearch(fields []string, duration time.Duration, results int) {
	for _, f := range fields {
		m.Searches.WithLabelValues(f).Inc()
	}
	m.SearchDuration.Observe(duration.Seconds())
	m.SearchResults.Observe(float64(results))
}

func (m *Metrics) ObserveEndpointLatency(route, method, status string, duration time.Duration) {
	m.EndpointLatency.WithLabelValues(route, method, status).Observe(duration.Seconds())
}
