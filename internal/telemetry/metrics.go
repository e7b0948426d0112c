// Package telemetry exposes Prometheus metrics for ingestion and queries.
package telemetry

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"weather-metrics/internal/models"
)

const namespace = "weather"

var (
	// ReadingsIngestedTotal counts persisted readings by canonical metric.
	ReadingsIngestedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_ingested_total",
			Help:      "Total number of readings persisted, by metric.",
		},
		[]string{"metric"},
	)

	// IngestErrorsTotal counts rejected or failed ingestions by error kind.
	IngestErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_errors_total",
			Help:      "Total number of failed ingestions, by error kind.",
		},
		[]string{"kind"},
	)

	// QueriesTotal counts queries by statistic and outcome.
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Total number of aggregation queries, by statistic and status.",
		},
		[]string{"statistic", "status"},
	)

	QueryDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Aggregation query duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2.5, 10),
		},
	)
)

// ErrorKind maps an error to a low-cardinality label value.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, models.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, models.ErrUnknownMetric):
		return "unknown_metric"
	case errors.Is(err, models.ErrUnknownStatistic):
		return "unknown_statistic"
	case errors.Is(err, models.ErrInvalidRange):
		return "invalid_range"
	case errors.Is(err, models.ErrStorage):
		return "storage"
	default:
		return "internal"
	}
}
