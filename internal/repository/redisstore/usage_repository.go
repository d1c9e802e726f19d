// Package redisstore stores the daily usage ledger as one hash per profile and day.
package redisstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gdugdh24/mpit2026-discovery/internal/domain"
	"github.com/gdugdh24/mpit2026-discovery/internal/repository"
	"github.com/redis/go-redis/v9"
)

// UsageTTL keeps a day's hash around long enough to cover every timezone.
const UsageTTL = 48 * time.Hour

type usageRepository struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewUsageRepository(client redis.Cmdable) repository.UsageRepository {
	return &usageRepository{client: client, ttl: UsageTTL}
}

func usageKey(profileID, day string) string {
	return fmt.Sprintf("usage:%s:%s", profileID, day)
}

func (r *usageRepository) GetOrCreate(ctx context.Context, profileID, day string) (*domain.DailyUsage, error) {
	key := usageKey(profileID, day)

	var all *redis.MapStringStringCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, kind := range domain.DailyKinds {
			pipe.HSetNX(ctx, key, string(kind), 0)
		}
		pipe.Expire(ctx, key, r.ttl)
		all = pipe.HGetAll(ctx, key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get or create usage: %w", err)
	}
	return toDailyUsage(profileID, day, all.Val())
}

func (r *usageRepository) Increment(ctx context.Context, profileID, day string, kind domain.UsageKind) (*domain.DailyUsage, error) {
	if !isDaily(kind) {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidUsageKind, kind)
	}
	key := usageKey(profileID, day)

	var all *redis.MapStringStringCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, key, string(kind), 1)
		pipe.Expire(ctx, key, r.ttl)
		all = pipe.HGetAll(ctx, key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("increment usage: %w", err)
	}
	return toDailyUsage(profileID, day, all.Val())
}

func isDaily(kind domain.UsageKind) bool {
	for _, k := range domain.DailyKinds {
		if k == kind {
			return true
		}
	}
	return false
}

func toDailyUsage(profileID, day string, fields map[string]string) (*domain.DailyUsage, error) {
	usage := &domain.DailyUsage{ProfileID: profileID, Date: day}
	for field, raw := range fields {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("usage field %s: %w", field, err)
		}
		switch domain.UsageKind(field) {
		case domain.UsageMatches:
			usage.MatchesShown = n
		case domain.UsageAIPrompts:
			usage.AIPromptsUsed = n
		case domain.UsageOpeners:
			usage.OpenersSent = n
		}
	}
	return usage, nil
}
