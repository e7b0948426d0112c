package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"weather-metrics/internal/models"
)

// Publisher handles MQTT publishing from channels
type Publisher struct {
	client mqtt.Client

	// Input channel (read by publisher, written by sensor service and subscriber)
	ResponseChan chan *models.QueryResponse

	// Topic pattern
	responseTopic string // e.g., "query/{client_id}/response"
}

// PublisherConfig holds configuration for MQTT publisher
type PublisherConfig struct {
	QueryResponseTopic string // e.g., "query/{client_id}/response"
}

// NewPublisher creates a new MQTT publisher with channels
func NewPublisher(
	client mqtt.Client,
	config PublisherConfig,
	responseChan chan *models.QueryResponse,
) *Publisher {
	return &Publisher{
		client:        client,
		ResponseChan:  responseChan,
		responseTopic: config.QueryResponseTopic,
	}
}

// Start begins publishing query responses from the channel
// Runs until context is cancelled or channel is closed
func (p *Publisher) Start(ctx context.Context) {
	zap.S().Info("MQTT Publisher: Starting...")

	for {
		select {
		case <-ctx.Done():
			zap.S().Info("MQTT Publisher: Context cancelled, shutting down...")
			return

		case resp, ok := <-p.ResponseChan:
			if !ok {
				zap.S().Info("MQTT Publisher: Response channel closed, shutting down...")
				return
			}

			if err := p.publishQueryResponse(resp); err != nil {
				zap.S().Errorf("Error publishing query response: %v", err)
			}
		}
	}
}

// publishQueryResponse publishes a query answer to the requesting client
func (p *Publisher) publishQueryResponse(resp *models.QueryResponse) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to marshal query response: %w", err)
	}

	topic := formatTopic(p.responseTopic, resp.ClientID)

	token := p.client.Publish(topic, 1, false, payload)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to publish query response: %w", token.Error())
	}

	zap.S().Debugf("Published query response for client %s to topic: %s", resp.ClientID, topic)
	return nil
}

// formatTopic replaces the {client_id} placeholder with the actual client ID
func formatTopic(topicPattern, clientID string) string {
	return strings.ReplaceAll(topicPattern, "{client_id}", clientID)
}
