package seed

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"weather-metrics/internal/database"
	"weather-metrics/internal/models"
	"weather-metrics/internal/services"
)

const (
	Days     = 7
	Interval = 6 * time.Hour
)

var Sensors = []string{"1", "2", "3"}

// valueRange is the half-open interval demo values are drawn from.
// Rounding can land a value on max.
type valueRange struct{ min, max float64 }

var ranges = map[models.Metric]valueRange{
	models.MetricTemperature: {14, 27},
	models.MetricHumidity:    {40, 80},
	models.MetricWindSpeed:   {2, 18},
}

// Store is what the seeder writes to
type Store interface {
	database.ReadingWriter
	Reset(ctx context.Context) error
}

// Seed clears the store and fills it with Days of readings every Interval for
// each demo sensor and metric, ending at now truncated to the hour.
// It returns the number of readings written.
func Seed(ctx context.Context, store Store, now time.Time, rng *rand.Rand) (int, error) {
	if err := store.Reset(ctx); err != nil {
		return 0, fmt.Errorf("failed to reset store: %w", err)
	}

	end := now.UTC().Truncate(time.Hour)
	start := end.Add(-Days * 24 * time.Hour)

	written := 0
	for ts := start; ts.Before(end); ts = ts.Add(Interval) {
		for _, sensorID := range Sensors {
			for _, metric := range models.AllMetrics() {
				r := ranges[metric]
				value := round1(r.min + rng.Float64()*(r.max-r.min))

				reading, err := services.NormalizeForWrite(sensorID, metric.String(), value, ts)
				if err != nil {
					return written, err
				}
				if _, err := store.Save(ctx, reading); err != nil {
					return written, err
				}
				written++
			}
		}
	}

	zap.S().Infof("Seeded %d readings from %s to %s", written, start.Format(time.RFC3339), end.Format(time.RFC3339))
	return written, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
