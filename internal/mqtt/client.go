package mqtt

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// Client publishes JSON payloads below a fixed topic root.
type Client struct {
	topicRoot string
	opts      *paho.ClientOptions
	client    paho.Client
	logger    *slog.Logger
}

func NewClient(brokerURL, clientID, topicRoot string, logger *slog.Logger) *Client {
	opts := paho.NewClientOptions().AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(10 * time.Second)

	return &Client{
		topicRoot: strings.TrimRight(topicRoot, "/"),
		opts:      opts,
		logger:    logger,
	}
}

func (c *Client) Connect() error {
	c.client = paho.NewClient(c.opts)
	token := c.client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect error: %w", err)
	}
	return nil
}

func (c *Client) Disconnect() {
	if c.client == nil {
		return
	}
	c.client.Disconnect(250)
}

// Topic returns the absolute topic for a relative one.
func (c *Client) Topic(topic string) string {
	return c.topicRoot + "/" + topic
}

// Publish sends payload as JSON. Delivery is confirmed asynchronously and
// failures are only logged.
func (c *Client) Publish(topic string, payload any, retained bool) error {
	if c.client == nil {
		return fmt.Errorf("client not connected")
	}
	if len(topic) == 0 {
		return fmt.Errorf("topic is empty")
	}
	if topic[0] == '/' {
		return fmt.Errorf("expected relative topic (cannot begin with slash)")
	}

	scopedTopic := c.Topic(topic)

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("unable to encode payload: %w", err)
	}

	token := c.client.Publish(scopedTopic, 0, retained, payloadBytes)
	go func() {
		token.Wait()
		if err := token.Error(); err != nil && c.logger != nil {
			c.logger.Error("publish failed", "topic", scopedTopic, "error", err)
		}
	}()

	return nil
}
