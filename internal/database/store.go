package database

import (
	"context"
	"time"

	"weather-metrics/internal/models"
)

// Filter selects the readings an aggregation runs over.
// Empty SensorIDs or Metrics means no constraint on that field.
type Filter struct {
	SensorIDs []string
	Metrics   []models.Metric
	From      time.Time
	To        time.Time
}

// Matches reports whether r satisfies the filter. Bounds are inclusive.
func (f Filter) Matches(r models.Reading) bool {
	if r.Timestamp.Before(f.From) || r.Timestamp.After(f.To) {
		return false
	}
	if len(f.SensorIDs) > 0 && !containsString(f.SensorIDs, r.SensorID) {
		return false
	}
	if len(f.Metrics) > 0 && !containsString(f.metricNames(), r.Metric.String()) {
		return false
	}
	return true
}

func (f Filter) metricNames() []string {
	names := make([]string, len(f.Metrics))
	for i, m := range f.Metrics {
		names[i] = m.String()
	}
	return names
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ReadingWriter persists validated readings.
type ReadingWriter interface {
	// Save returns the persisted form of r, with an identifier assigned.
	Save(ctx context.Context, r models.Reading) (models.Reading, error)
}

// Aggregator reduces the readings matching a filter, grouped by metric.
// The result holds one entry per metric with at least one matching reading.
type Aggregator interface {
	Aggregate(ctx context.Context, f Filter, stat models.Statistic) (map[string]float64, error)
}

// Store is the full storage collaborator.
type Store interface {
	ReadingWriter
	Aggregator
	// Reset removes every reading. Used by the demo seeder.
	Reset(ctx context.Context) error
	Close() error
}
