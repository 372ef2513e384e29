package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher is the subset of the go-redis client the publisher needs.
type RedisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisLiveUpdates publishes JSON updates on a Redis pub/sub channel.
type RedisLiveUpdates struct {
	client  RedisPublisher
	channel string
}

func NewRedisLiveUpdates(client RedisPublisher, channel string) *RedisLiveUpdates {
	return &RedisLiveUpdates{client: client, channel: channel}
}

func (p *RedisLiveUpdates) Publish(ctx context.Context, update LiveUpdate) error {
	body, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("encode live update: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, body).Err(); err != nil {
		return fmt.Errorf("redis publish to %s: %w", p.channel, err)
	}
	return nil
}
