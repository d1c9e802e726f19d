// Package events publishes domain events to other services.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gdugdh24/mpit2026-discovery/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisNotifier publishes MatchCreated events on a Redis Pub/Sub channel
// consumed by the chat service.
type RedisNotifier struct {
	client  redis.Cmdable
	channel string
}

func NewRedisNotifier(client redis.Cmdable, channel string) *RedisNotifier {
	return &RedisNotifier{client: client, channel: channel}
}

func (n *RedisNotifier) NotifyMatch(ctx context.Context, event *domain.MatchCreated) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal match event: %w", err)
	}
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish match event: %w", err)
	}
	return nil
}
