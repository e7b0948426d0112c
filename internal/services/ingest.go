package services

import (
	"math"
	"strings"
	"time"

	"weather-metrics/internal/models"
)

// NormalizeForWrite validates a single reading and returns it with its metric
// in canonical form and its timestamp in UTC at millisecond precision, the
// finest resolution every store keeps. It has no side effects.
func NormalizeForWrite(sensorID, metric string, value float64, timestamp time.Time) (models.Reading, error) {
	if strings.TrimSpace(sensorID) == "" {
		return models.Reading{}, models.InvalidInputf("sensorId is required")
	}

	m, err := models.ParseMetric(metric)
	if err != nil {
		return models.Reading{}, err
	}

	if math.IsNaN(value) || math.IsInf(value, 0) {
		return models.Reading{}, models.InvalidInputf("value must be a finite number, got %v", value)
	}

	if timestamp.IsZero() {
		return models.Reading{}, models.InvalidInputf("timestamp is required")
	}

	return models.Reading{
		SensorID:  sensorID,
		Metric:    m,
		Value:     value,
		Timestamp: timestamp.UTC().Truncate(time.Millisecond),
	}, nil
}

// normalizeRequest applies NormalizeForWrite to a request whose value or
// timestamp may be missing, reporting problems in field order.
func normalizeRequest(req models.IngestRequest) (models.Reading, error) {
	if req.Value != nil && req.Timestamp != nil {
		return NormalizeForWrite(req.SensorID, req.Metric, *req.Value, *req.Timestamp)
	}

	if strings.TrimSpace(req.SensorID) == "" {
		return models.Reading{}, models.InvalidInputf("sensorId is required")
	}
	if _, err := models.ParseMetric(req.Metric); err != nil {
		return models.Reading{}, err
	}
	if req.Value == nil {
		return models.Reading{}, models.InvalidInputf("value is required")
	}
	return models.Reading{}, models.InvalidInputf("timestamp is required")
}
