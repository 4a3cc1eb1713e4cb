// Package metrics exposes Prometheus collectors for the ingestion service.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal  *prometheus.CounterVec
	cooldownSeconds    prometheus.Histogram
	vacanciesTotal     *prometheus.CounterVec
	pagesFetchedTotal  prometheus.Counter
	dimensionRowsTotal *prometheus.CounterVec

	once sync.Once
)

// Init registers the collectors. Safe to call more than once.
func Init() {
	once.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_http_requests_total",
				Help: "Total API requests, labeled by endpoint and status code.",
			},
			[]string{"endpoint", "status"},
		)

		cooldownSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ingest_rate_limit_cooldown_seconds",
				Help:    "Histogram of cooldown pauses taken after 429 responses.",
				Buckets: []float64{1, 2, 5, 10, 30},
			},
		)

		vacanciesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_vacancies_total",
				Help: "Total vacancies seen, labeled by outcome (processed, error, skipped).",
			},
			[]string{"outcome"},
		)

		pagesFetchedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "ingest_listing_pages_total",
				Help: "Total listing pages fetched successfully.",
			},
		)

		dimensionRowsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_dimension_rows_total",
				Help: "Total dimension rows upserted, labeled by entity.",
			},
			[]string{"entity"},
		)
	})
}

// ObserveRequest counts one API request by endpoint and status code.
func ObserveRequest(endpoint string, status int) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
}

// ObserveCooldown records one rate-limit cooldown pause.
func ObserveCooldown(d time.Duration) {
	if cooldownSeconds == nil {
		return
	}
	cooldownSeconds.Observe(d.Seconds())
}

// IncVacancy counts one vacancy by processing outcome.
func IncVacancy(outcome string) {
	if vacanciesTotal == nil {
		return
	}
	vacanciesTotal.WithLabelValues(outcome).Inc()
}

// IncPage counts one successfully fetched listing page.
func IncPage() {
	if pagesFetchedTotal == nil {
		return
	}
	pagesFetchedTotal.Inc()
}

// AddDimensionRows counts upserted dimension rows for an entity.
func AddDimensionRows(entity string, n int) {
	if dimensionRowsTotal == nil {
		return
	}
	dimensionRowsTotal.WithLabelValues(entity).Add(float64(n))
}
