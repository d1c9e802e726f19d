package repository

import (
	"context"

	"github.com/gdugdh24/mpit2026-discovery/internal/domain"
)

// UsageRepository stores daily counters. Both methods must be safe under
// concurrent first access for the same (profile, day).
type UsageRepository interface {
	GetOrCreate(ctx context.Context, profileID, day string) (*domain.DailyUsage, error)
	Increment(ctx context.Context, profileID, day string, kind domain.UsageKind) (*domain.DailyUsage, error)
}

type SubscriptionRepository interface {
	// GetByProfileID returns the billing state, or a free state when none exists.
	GetByProfileID(ctx context.Context, profileID string) (*domain.SubscriptionState, error)
}
