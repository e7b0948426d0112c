package mqtt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/relvacode/iso8601"
	"go.uber.org/zap"

	"weather-metrics/internal/models"
)

// Subscriber handles MQTT subscriptions and writes messages to channels
type Subscriber struct {
	client mqtt.Client

	// Output channels (written by subscriber, read by services)
	IngestChan   chan *models.IngestRequest
	QueryChan    chan *models.QueryEnvelope
	ResponseChan chan *models.QueryResponse // malformed queries are answered directly

	readingsTopic string
	queryTopic    string

	now func() time.Time
}

// SubscriberConfig holds configuration for MQTT subscriber
type SubscriberConfig struct {
	ReadingsTopic     string // e.g., "sensors/+/+" : first wildcard is the sensor id, second the metric
	QueryRequestTopic string // e.g., "query/+/request" : wildcard is the client id
}

// readingPayload is the JSON form of a reading message
type readingPayload struct {
	Value     *float64 `json:"value"`
	Timestamp string   `json:"timestamp"`
}

// queryPayload is the JSON form of a query request message
type queryPayload struct {
	SensorIDs []string `json:"sensorIds"`
	Metrics   []string `json:"metrics"`
	Stat      string   `json:"stat"`
	Statistic string   `json:"statistic"`
	From      string   `json:"from"`
	To        string   `json:"to"`
}

// NewSubscriber creates a new MQTT subscriber with channels
func NewSubscriber(
	client mqtt.Client,
	config SubscriberConfig,
	ingestChan chan *models.IngestRequest,
	queryChan chan *models.QueryEnvelope,
	responseChan chan *models.QueryResponse,
) *Subscriber {
	return &Subscriber{
		client:        client,
		IngestChan:    ingestChan,
		QueryChan:     queryChan,
		ResponseChan:  responseChan,
		readingsTopic: config.ReadingsTopic,
		queryTopic:    config.QueryRequestTopic,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// SubscribeAll subscribes to all configured topics
func (s *Subscriber) SubscribeAll() error {
	if s.readingsTopic != "" {
		if err := s.subscribeToTopic(s.readingsTopic, s.handleReading); err != nil {
			return fmt.Errorf("failed to subscribe to readings topic: %w", err)
		}
		zap.S().Infof("Subscribed to readings topic: %s", s.readingsTopic)
	}

	if s.queryTopic != "" {
		if err := s.subscribeToTopic(s.queryTopic, s.handleQueryRequest); err != nil {
			return fmt.Errorf("failed to subscribe to query topic: %w", err)
		}
		zap.S().Infof("Subscribed to query topic: %s", s.queryTopic)
	}

	return nil
}

// Resubscribe restores subscriptions after a reconnect
func (s *Subscriber) Resubscribe(client mqtt.Client) {
	if err := s.SubscribeAll(); err != nil {
		zap.S().Errorf("Error restoring MQTT subscriptions: %v", err)
	}
}

// subscribeToTopic is a helper function to subscribe to a topic with a handler
func (s *Subscriber) subscribeToTopic(topic string, handler mqtt.MessageHandler) error {
	token := s.client.Subscribe(topic, 1, handler)
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

// handleReading processes sensor readings and writes them to the ingest channel
func (s *Subscriber) handleReading(client mqtt.Client, msg mqtt.Message) {
	values := wildcardValues(s.readingsTopic, msg.Topic())
	if len(values) < 2 {
		zap.S().Warnf("Could not extract sensor id and metric from topic: %s", msg.Topic())
		return
	}

	req, err := parseReading(values[0], values[1], msg.Payload(), s.now())
	if err != nil {
		zap.S().Warnf("Error parsing reading on %s: %v", msg.Topic(), err)
		return
	}

	// Write to channel (non-blocking with timeout)
	select {
	case s.IngestChan <- req:
	case <-time.After(1 * time.Second):
		zap.S().Warnf("Ingest channel full, dropping reading from %s", req.SensorID)
	}
}

// handleQueryRequest processes query requests and writes them to the query channel
func (s *Subscriber) handleQueryRequest(client mqtt.Client, msg mqtt.Message) {
	values := wildcardValues(s.queryTopic, msg.Topic())
	if len(values) < 1 || values[0] == "" {
		zap.S().Warnf("Could not extract client id from topic: %s", msg.Topic())
		return
	}
	clientID := values[0]

	req, err := parseQuery(msg.Payload())
	if err != nil {
		zap.S().Infof("Rejecting query from %s: %v", clientID, err)
		s.reply(&models.QueryResponse{ClientID: clientID, Error: err.Error()})
		return
	}

	select {
	case s.QueryChan <- &models.QueryEnvelope{ClientID: clientID, Request: req}:
	case <-time.After(1 * time.Second):
		zap.S().Warnf("Query channel full, dropping query from %s", clientID)
	}
}

func (s *Subscriber) reply(resp *models.QueryResponse) {
	if s.ResponseChan == nil {
		return
	}
	select {
	case s.ResponseChan <- resp:
	case <-time.After(1 * time.Second):
		zap.S().Warnf("Response channel full, dropping response for %s", resp.ClientID)
	}
}

// parseReading accepts a bare number (timestamped with now) or a JSON object
// {"value": n, "timestamp": "<ISO-8601>"}.
func parseReading(sensorID, metric string, payload []byte, now time.Time) (*models.IngestRequest, error) {
	req := &models.IngestRequest{SensorID: sensorID, Metric: metric}

	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var p readingPayload
		if err := json.Unmarshal(trimmed, &p); err != nil {
			return nil, fmt.Errorf("invalid reading payload: %w", err)
		}
		req.Value = p.Value
		if p.Timestamp == "" {
			req.Timestamp = &now
			return req, nil
		}
		ts, err := iso8601.ParseString(p.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp %q: %w", p.Timestamp, err)
		}
		req.Timestamp = &ts
		return req, nil
	}

	value, err := strconv.ParseFloat(string(trimmed), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid reading value %q", string(trimmed))
	}
	req.Value = &value
	req.Timestamp = &now
	return req, nil
}

func parseQuery(payload []byte) (models.QueryRequest, error) {
	var p queryPayload
	if len(bytes.TrimSpace(payload)) > 0 {
		if err := json.Unmarshal(payload, &p); err != nil {
			return models.QueryRequest{}, models.InvalidInputf("invalid query payload: %v", err)
		}
	}

	req := models.QueryRequest{
		SensorIDs: p.SensorIDs,
		Metrics:   p.Metrics,
		Statistic: p.Stat,
	}
	if req.Statistic == "" {
		req.Statistic = p.Statistic
	}

	var err error
	if req.From, err = parseInstant("from", p.From); err != nil {
		return models.QueryRequest{}, err
	}
	if req.To, err = parseInstant("to", p.To); err != nil {
		return models.QueryRequest{}, err
	}
	return req, nil
}

func parseInstant(field, raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	ts, err := iso8601.ParseString(strings.TrimSpace(raw))
	if err != nil {
		return nil, models.InvalidInputf("invalid %s instant %q", field, raw)
	}
	ts = ts.UTC()
	return &ts, nil
}

// wildcardValues returns the topic levels matched by each "+" in pattern.
// Example: ("sensors/+/+", "sensors/sensor-001/temperature") -> ["sensor-001", "temperature"]
func wildcardValues(pattern, topic string) []string {
	patternParts := strings.Split(pattern, "/")
	topicParts := strings.Split(topic, "/")
	if len(patternParts) != len(topicParts) {
		return nil
	}

	var values []string
	for i, p := range patternParts {
		switch p {
		case "+":
			values = append(values, topicParts[i])
		case topicParts[i]:
		default:
			return nil
		}
	}
	return values
}
