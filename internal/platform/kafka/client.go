// Package kafka builds the franz-go producer used for live status updates.
package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"creditflow/internal/platform/config"
)

// Client wraps a franz-go client configured to produce to one default topic.
type Client struct {
	*kgo.Client
	topic string
}

// New creates a producer client. Returns nil if no brokers are configured.
func New(ctx context.Context, cfg config.Kafka) (*Client, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.AllowAutoTopicCreation(),
		kgo.ProducerLinger(5*time.Millisecond),
		kgo.RecordRetries(3),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("kafka ping failed: %w", err)
	}

	return &Client{Client: client, topic: cfg.Topic}, nil
}

func (c *Client) Topic() string {
	return c.topic
}

// Health checks if at least one broker is reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx)
}
