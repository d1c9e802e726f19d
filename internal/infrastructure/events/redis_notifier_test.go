package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gdugdh24/mpit2026-discovery/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisNotifier_PublishesEvent(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub := client.Subscribe(ctx, "matches")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	event := &domain.MatchCreated{MatchID: "m-1", ProfileAID: "a", ProfileBID: "b", CreatedAt: time.Now().UTC()}
	require.NoError(t, NewRedisNotifier(client, "matches").NotifyMatch(ctx, event))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var got domain.MatchCreated
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, "m-1", got.MatchID)
	assert.Equal(t, "a", got.ProfileAID)
	assert.Equal(t, "b", got.ProfileBID)
}

func TestRedisNotifier_PublishError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	mr.Close()

	err := NewRedisNotifier(client, "matches").NotifyMatch(context.Background(), &domain.MatchCreated{MatchID: "m-1"})
	assert.Error(t, err)
}
