package models

import (
	"strings"
)

// Metric is one of the measured quantities. Its string value is the
// canonical lowercase form used for persistence and storage matching.
type Metric string

const (
	MetricTemperature Metric = "temperature"
	MetricHumidity    Metric = "humidity"
	MetricWindSpeed   Metric = "wind_speed"
)

// AllMetrics returns every metric in declaration order.
func AllMetrics() []Metric {
	return []Metric{MetricTemperature, MetricHumidity, MetricWindSpeed}
}

func metricNames() []string {
	names := make([]string, 0, 3)
	for _, m := range AllMetrics() {
		names = append(names, m.String())
	}
	return names
}

// ParseMetric accepts case- and separator-insensitive spellings such as
// "Temperature", "wind-speed", "windSpeed" or "WIND_SPEED".
func ParseMetric(raw string) (Metric, error) {
	if strings.TrimSpace(raw) == "" {
		return "", InvalidInputf("metric is required (temperature, humidity, wind_speed)")
	}

	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_")
	switch norm {
	case "temperature":
		return MetricTemperature, nil
	case "humidity":
		return MetricHumidity, nil
	case "wind_speed", "windspeed":
		return MetricWindSpeed, nil
	default:
		return "", &UnknownValueError{Kind: ErrUnknownMetric, Value: raw, Allowed: metricNames()}
	}
}

// ParseMetrics parses every entry of raw, dropping duplicates while keeping
// first-seen order. An empty input yields a nil slice.
func ParseMetrics(raw []string) ([]Metric, error) {
	var out []Metric
	seen := make(map[Metric]bool, len(raw))
	for _, r := range raw {
		m, err := ParseMetric(r)
		if err != nil {
			return nil, err
		}
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out, nil
}

// String returns the canonical form.
func (m Metric) String() string {
	return string(m)
}

// Valid reports whether m is part of the vocabulary.
func (m Metric) Valid() bool {
	switch m {
	case MetricTemperature, MetricHumidity, MetricWindSpeed:
		return true
	}
	return false
}
