package aggregator

import (
	"context"
	"strings"

	"weather-metrics/internal/database"
	"weather-metrics/internal/models"
)

// Engine turns filters, a window and a reducer into a QueryResult.
// It holds no state besides the storage collaborator and is safe for concurrent use.
type Engine struct {
	store database.Aggregator
}

// NewEngine creates an aggregation engine backed by store
func NewEngine(store database.Aggregator) *Engine {
	return &Engine{store: store}
}

// Query aggregates readings in w, grouped by metric. Empty sensorIDs or
// metrics select everything and are echoed as nil. Metrics without matching
// readings are absent from ResultsByMetric. Storage errors are returned as is.
func (e *Engine) Query(
	ctx context.Context,
	sensorIDs []string,
	metrics []models.Metric,
	stat models.Statistic,
	w models.Window,
) (*models.QueryResult, error) {
	sensorIDs = cleanSensorIDs(sensorIDs)
	metrics = uniqueMetrics(metrics)

	filter := database.Filter{
		SensorIDs: sensorIDs,
		Metrics:   metrics,
		From:      w.From,
		To:        w.To,
	}

	results, err := e.store.Aggregate(ctx, filter, stat)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = map[string]float64{}
	}

	return &models.QueryResult{
		SensorIDs:       sensorIDs,
		Metrics:         metricStrings(metrics),
		Statistic:       stat.String(),
		From:            w.From,
		To:              w.To,
		ResultsByMetric: results,
	}, nil
}

// cleanSensorIDs drops blank and repeated ids. Returns nil when nothing is left.
func cleanSensorIDs(ids []string) []string {
	var out []string
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if strings.TrimSpace(id) == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func uniqueMetrics(metrics []models.Metric) []models.Metric {
	var out []models.Metric
	seen := make(map[models.Metric]bool, len(metrics))
	for _, m := range metrics {
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

func metricStrings(metrics []models.Metric) []string {
	if len(metrics) == 0 {
		return nil
	}
	out := make([]string, len(metrics))
	for i, m := range metrics {
		out[i] = m.String()
	}
	return out
}
