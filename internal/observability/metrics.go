// Package observability exposes Prometheus metrics for the ingestion
// and tax-calculation pipeline.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline counters. Create one per process with
// NewMetrics and share it by pointer.
type Metrics struct {
	registry *prometheus.Registry

	RecordsFetched  prometheus.Counter
	RecordsDecoded  prometheus.Counter
	FetchFailures   prometheus.Counter
	PriceLookups    prometheus.Counter
	ReportsComputed *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec
}

// NewMetrics creates a Metrics set on its own registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RecordsFetched: factory.NewCounter(prometheus.CounterOpts{
			Name: "taxtracker_records_fetched_total",
			Help: "Raw transaction records fetched from the indexer.",
		}),
		RecordsDecoded: factory.NewCounter(prometheus.CounterOpts{
			Name: "taxtracker_records_decoded_total",
			Help: "Canonical transactions produced by the decoder.",
		}),
		FetchFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "taxtracker_fetch_failures_total",
			Help: "Record detail fetches that failed after retries.",
		}),
		PriceLookups: factory.NewCounter(prometheus.CounterOpts{
			Name: "taxtracker_price_lookups_total",
			Help: "Historical price lookups issued upstream.",
		}),
		ReportsComputed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "taxtracker_reports_computed_total",
			Help: "Tax reports computed, by country.",
		}, []string{"country"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "taxtracker_http_requests_total",
			Help: "HTTP requests served, by route and status class.",
		}, []string{"route", "status"}),
	}
}

// Handler returns the /metrics HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
