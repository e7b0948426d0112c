package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weather-metrics/internal/models"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return ts
}

func seedStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	readings := []models.Reading{
		{SensorID: "1", Metric: models.MetricTemperature, Value: 20.0, Timestamp: mustTime(t, "2025-08-01T12:00:00Z")},
		{SensorID: "1", Metric: models.MetricTemperature, Value: 22.0, Timestamp: mustTime(t, "2025-08-02T12:00:00Z")},
		{SensorID: "1", Metric: models.MetricTemperature, Value: 24.0, Timestamp: mustTime(t, "2025-08-03T12:00:00Z")},
		{SensorID: "1", Metric: models.MetricHumidity, Value: 60.0, Timestamp: mustTime(t, "2025-08-02T12:00:00Z")},
		{SensorID: "2", Metric: models.MetricTemperature, Value: 30.0, Timestamp: mustTime(t, "2025-08-02T12:00:00Z")},
		{SensorID: "1", Metric: models.MetricWindSpeed, Value: 5.0, Timestamp: mustTime(t, "2025-09-01T00:00:00Z")},
	}
	for _, r := range readings {
		saved, err := s.Save(ctx, r)
		require.NoError(t, err)
		assert.NotEmpty(t, saved.ID)
		assert.Equal(t, r.Metric, saved.Metric)
	}
}

func storeImplementations(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"sqlite": func(t *testing.T) Store {
			s, err := NewSQLStore("sqlite", ":memory:")
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
}

func TestStores_Aggregate(t *testing.T) {
	window := Filter{
		From: mustTime(t, "2025-08-01T00:00:00Z"),
		To:   mustTime(t, "2025-08-03T23:59:59Z"),
	}

	tests := []struct {
		name   string
		filter func(Filter) Filter
		stat   models.Statistic
		want   map[string]float64
	}{
		{
			name: "avg per metric for sensor 1",
			filter: func(f Filter) Filter {
				f.SensorIDs = []string{"1"}
				f.Metrics = []models.Metric{models.MetricTemperature, models.MetricHumidity}
				return f
			},
			stat: models.StatisticAvg,
			want: map[string]float64{"temperature": 22.0, "humidity": 60.0},
		},
		{
			name: "max temperature",
			filter: func(f Filter) Filter {
				f.SensorIDs = []string{"1"}
				f.Metrics = []models.Metric{models.MetricTemperature}
				return f
			},
			stat: models.StatisticMax,
			want: map[string]float64{"temperature": 24.0},
		},
		{
			name: "sum temperature",
			filter: func(f Filter) Filter {
				f.SensorIDs = []string{"1"}
				f.Metrics = []models.Metric{models.MetricTemperature}
				return f
			},
			stat: models.StatisticSum,
			want: map[string]float64{"temperature": 66.0},
		},
		{
			name:   "all sensors and metrics",
			filter: func(f Filter) Filter { return f },
			stat:   models.StatisticMin,
			want:   map[string]float64{"temperature": 20.0, "humidity": 60.0},
		},
		{
			name: "no matching readings",
			filter: func(f Filter) Filter {
				f.Metrics = []models.Metric{models.MetricWindSpeed}
				return f
			},
			stat: models.StatisticAvg,
			want: map[string]float64{},
		},
		{
			name: "inclusive bounds",
			filter: func(f Filter) Filter {
				f.From = mustTime(t, "2025-08-02T12:00:00Z")
				f.To = mustTime(t, "2025-08-02T12:00:00Z")
				f.SensorIDs = []string{"1", "2"}
				return f
			},
			stat: models.StatisticSum,
			want: map[string]float64{"temperature": 52.0, "humidity": 60.0},
		},
	}

	for name, newStore := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			seedStore(t, s)

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					got, err := s.Aggregate(context.Background(), tt.filter(window), tt.stat)
					require.NoError(t, err)
					require.Len(t, got, len(tt.want))
					for metric, want := range tt.want {
						assert.InDelta(t, want, got[metric], 1e-9, metric)
					}
				})
			}
		})
	}
}

func TestStores_Reset(t *testing.T) {
	for name, newStore := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			seedStore(t, s)
			require.NoError(t, s.Reset(context.Background()))

			got, err := s.Aggregate(context.Background(), Filter{
				From: mustTime(t, "2025-01-01T00:00:00Z"),
				To:   mustTime(t, "2026-01-01T00:00:00Z"),
			}, models.StatisticSum)
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestMemoryStore_CancelledContextIsStorageError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemoryStore().Aggregate(ctx, Filter{}, models.StatisticAvg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrStorage))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestMemoryStore_KeepsProvidedID(t *testing.T) {
	s := NewMemoryStore()
	saved, err := s.Save(context.Background(), models.Reading{ID: "abc123", SensorID: "1", Metric: models.MetricHumidity})
	require.NoError(t, err)
	assert.Equal(t, "abc123", saved.ID)
	assert.Equal(t, 1, s.Len())
}

func TestFilter_Matches(t *testing.T) {
	f := Filter{
		SensorIDs: []string{"1"},
		Metrics:   []models.Metric{models.MetricHumidity},
		From:      mustTime(t, "2025-08-01T00:00:00Z"),
		To:        mustTime(t, "2025-08-02T00:00:00Z"),
	}
	base := models.Reading{SensorID: "1", Metric: models.MetricHumidity, Timestamp: mustTime(t, "2025-08-01T00:00:00Z")}

	assert.True(t, f.Matches(base))

	other := base
	other.SensorID = "2"
	assert.False(t, f.Matches(other))

	other = base
	other.Metric = models.MetricTemperature
	assert.False(t, f.Matches(other))

	other = base
	other.Timestamp = f.To.Add(time.Millisecond)
	assert.False(t, f.Matches(other))
}

func TestBuildSQLAggregate(t *testing.T) {
	f := Filter{
		SensorIDs: []string{"1", "2"},
		Metrics:   []models.Metric{models.MetricTemperature},
		From:      mustTime(t, "2025-08-01T00:00:00Z"),
		To:        mustTime(t, "2025-08-03T00:00:00Z"),
	}

	query, args, err := buildSQLAggregate(f, models.StatisticMax)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT metric, max(value) AS value FROM sensor_data WHERE ts_ms >= ? AND ts_ms <= ? AND sensor_id IN (?, ?) AND metric IN (?) GROUP BY metric",
		query)
	assert.Equal(t, []any{f.From.UnixMilli(), f.To.UnixMilli(), "1", "2", "temperature"}, args)

	query, args, err = buildSQLAggregate(Filter{From: f.From, To: f.To}, models.StatisticAvg)
	require.NoError(t, err)
	assert.Equal(t, "SELECT metric, avg(value) AS value FROM sensor_data WHERE ts_ms >= ? AND ts_ms <= ? GROUP BY metric", query)
	assert.Len(t, args, 2)
}

func TestStores_SubMillisecondBoundsAgree(t *testing.T) {
	at := mustTime(t, "2025-08-02T12:00:00Z").Add(7 * time.Millisecond)

	for name, newStore := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			_, err := s.Save(ctx, models.Reading{SensorID: "1", Metric: models.MetricHumidity, Value: 50, Timestamp: at})
			require.NoError(t, err)

			after := Filter{From: at.Add(500 * time.Microsecond), To: at.Add(48 * time.Hour)}
			got, err := s.Aggregate(ctx, after, models.StatisticSum)
			require.NoError(t, err)
			assert.Empty(t, got, "start bound just past the reading excludes it")

			upTo := Filter{From: at.Add(-24 * time.Hour), To: at.Add(500 * time.Microsecond)}
			got, err = s.Aggregate(ctx, upTo, models.StatisticSum)
			require.NoError(t, err)
			assert.Equal(t, map[string]float64{"humidity": 50}, got)

			exact := Filter{From: at, To: at}
			got, err = s.Aggregate(ctx, exact, models.StatisticSum)
			require.NoError(t, err)
			assert.Equal(t, map[string]float64{"humidity": 50}, got)
		})
	}
}

func TestCeilMilli(t *testing.T) {
	base := mustTime(t, "2025-08-01T00:00:00Z")
	assert.Equal(t, base.UnixMilli(), ceilMilli(base))
	assert.Equal(t, base.UnixMilli()+1, ceilMilli(base.Add(time.Nanosecond)))
	assert.Equal(t, base.UnixMilli()+1, ceilMilli(base.Add(time.Millisecond)))
}

func TestBuildClickHouseAggregate(t *testing.T) {
	f := Filter{
		SensorIDs: []string{"1"},
		Metrics:   []models.Metric{models.MetricTemperature, models.MetricHumidity},
		From:      mustTime(t, "2025-08-01T00:00:00Z"),
		To:        mustTime(t, "2025-08-03T00:00:00Z"),
	}

	query, args := buildClickHouseAggregate(f, models.StatisticSum)
	assert.Equal(t,
		"SELECT metric, sum(value) AS value FROM sensor_data WHERE timestamp >= ? AND timestamp <= ? AND has(?, sensor_id) AND has(?, metric) GROUP BY metric",
		query)
	assert.Equal(t, []any{f.From, f.To, []string{"1"}, []string{"temperature", "humidity"}}, args)
}
