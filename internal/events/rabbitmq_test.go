package events

import (
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weather-metrics/internal/models"
)

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "reading.wind_speed", RoutingKey(models.Reading{Metric: models.MetricWindSpeed}))
	assert.Equal(t, "reading.temperature", RoutingKey(models.Reading{Metric: models.MetricTemperature}))
}

func TestReadingMessage(t *testing.T) {
	r := models.Reading{
		ID:        "abc123",
		SensorID:  "1",
		Metric:    models.MetricHumidity,
		Value:     61.5,
		Timestamp: time.Date(2025, 8, 2, 12, 0, 0, 0, time.UTC),
	}

	msg, err := readingMessage(r)
	require.NoError(t, err)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "abc123", msg.MessageId)

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Body, &body))
	assert.Equal(t, "1", body["sensorId"])
	assert.Equal(t, "humidity", body["metric"])
	assert.Equal(t, 61.5, body["value"])
	assert.Equal(t, "2025-08-02T12:00:00Z", body["timestamp"])
}
