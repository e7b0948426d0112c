package models

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMetric_AcceptsCommonSpellings(t *testing.T) {
	cases := map[string]Metric{
		"temperature": MetricTemperature,
		"Temperature": MetricTemperature,
		" humidity ":  MetricHumidity,
		"HUMIDITY":    MetricHumidity,
		"wind-speed":  MetricWindSpeed,
		"wind_speed":  MetricWindSpeed,
		"windSpeed":   MetricWindSpeed,
		"WindSpeed":   MetricWindSpeed,
		"WIND_SPEED":  MetricWindSpeed,
		"windspeed":   MetricWindSpeed,
		"Wind-Speed":  MetricWindSpeed,
	}

	for raw, want := range cases {
		t.Run(raw, func(t *testing.T) {
			got, err := ParseMetric(raw)
			require.NoError(t, err)
			assert.Equal(t, want, got)

			again, err := ParseMetric(got.String())
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}
}

func TestMetric_CanonicalForm(t *testing.T) {
	assert.Equal(t, "temperature", MetricTemperature.String())
	assert.Equal(t, "humidity", MetricHumidity.String())
	assert.Equal(t, "wind_speed", MetricWindSpeed.String())

	for _, m := range AllMetrics() {
		parsed, err := ParseMetric(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
		assert.True(t, parsed.Valid())
	}
	assert.False(t, Metric("pressure").Valid())
}

func TestParseMetric_RejectsBlank(t *testing.T) {
	for _, raw := range []string{"", "   ", "\t\n"} {
		_, err := ParseMetric(raw)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidInput), "raw=%q", raw)
		assert.False(t, errors.Is(err, ErrUnknownMetric))
	}
}

func TestParseMetric_RejectsUnknown(t *testing.T) {
	_, err := ParseMetric("humidty")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownMetric))

	msg := strings.ToLower(err.Error())
	assert.Contains(t, msg, "invalid metric")
	assert.Contains(t, msg, "humidty")
	for _, name := range []string{"temperature", "humidity", "wind_speed"} {
		assert.Contains(t, msg, name)
	}

	var uv *UnknownValueError
	require.True(t, errors.As(err, &uv))
	assert.Equal(t, "humidty", uv.Value)
}

func TestParseMetrics_DedupesInOrder(t *testing.T) {
	got, err := ParseMetrics([]string{"Humidity", "temperature", "humidity", "wind-speed"})
	require.NoError(t, err)
	assert.Equal(t, []Metric{MetricHumidity, MetricTemperature, MetricWindSpeed}, got)

	none, err := ParseMetrics(nil)
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = ParseMetrics([]string{"temperature", "pressure"})
	assert.True(t, errors.Is(err, ErrUnknownMetric))
}
