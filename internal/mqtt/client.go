package mqtt

import (
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// Client owns the broker connection. Subscriber and Publisher share it through
// GetNativeClient.
type Client struct {
	client mqtt.Client
	config ClientConfig

	mu        sync.Mutex
	onConnect []func(mqtt.Client)
}

// ClientConfig holds MQTT client configuration
type ClientConfig struct {
	Broker         string
	ClientID       string
	Username       string
	Password       string
	ConnectTimeout time.Duration // zero means 10s
}

// NewClient connects to the broker. Reconnects are automatic; callbacks
// registered with OnConnect run after every (re)connection.
func NewClient(config ClientConfig) (*Client, error) {
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = 10 * time.Second
	}

	c := &Client{config: config}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.Broker)
	opts.SetClientID(config.ClientID)
	opts.SetUsername(config.Username)
	opts.SetPassword(config.Password)
	opts.SetDefaultPublishHandler(c.handleUnrouted)
	opts.SetOnConnectHandler(c.handleConnect)
	opts.SetConnectionLostHandler(c.handleConnectionLost)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(config.ConnectTimeout)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	c.client = mqtt.NewClient(opts)

	token := c.client.Connect()
	if !token.WaitTimeout(config.ConnectTimeout) {
		return nil, fmt.Errorf("timed out connecting to MQTT broker %s", config.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}

	zap.S().Infof("MQTT Client: Connected to broker: %s", config.Broker)
	return c, nil
}

// OnConnect registers fn to run after each reconnection, e.g. to restore subscriptions
func (c *Client) OnConnect(fn func(mqtt.Client)) {
	c.mu.Lock()
	c.onConnect = append(c.onConnect, fn)
	c.mu.Unlock()
}

// GetNativeClient returns the underlying paho MQTT client
func (c *Client) GetNativeClient() mqtt.Client {
	return c.client
}

// IsConnected returns whether the client is currently connected
func (c *Client) IsConnected() bool {
	return c.client.IsConnected()
}

// Close closes the MQTT client connection
func (c *Client) Close() {
	c.client.Disconnect(250)
	zap.S().Info("MQTT Client: Disconnected")
}

func (c *Client) handleUnrouted(client mqtt.Client, msg mqtt.Message) {
	zap.S().Debugf("MQTT: Unrouted message on topic: %s", msg.Topic())
}

func (c *Client) handleConnect(client mqtt.Client) {
	zap.S().Info("MQTT: Connection established")

	c.mu.Lock()
	callbacks := append(([]func(mqtt.Client))(nil), c.onConnect...)
	c.mu.Unlock()

	for _, fn := range callbacks {
		fn(client)
	}
}

func (c *Client) handleConnectionLost(client mqtt.Client, err error) {
	zap.S().Warnf("MQTT: Connection lost: %v", err)
}
