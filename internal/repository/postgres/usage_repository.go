package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gdugdh24/mpit2026-discovery/internal/domain"
	"github.com/gdugdh24/mpit2026-discovery/internal/repository"
	"github.com/jmoiron/sqlx"
)

const usageReturning = `RETURNING profile_id, usage_date::text AS usage_date, matches_shown, ai_prompts_used, openers_sent`

var usageColumns = map[domain.UsageKind]string{
	domain.UsageMatches:   "matches_shown",
	domain.UsageAIPrompts: "ai_prompts_used",
	domain.UsageOpeners:   "openers_sent",
}

type usageRepository struct {
	db *sqlx.DB
}

func NewUsageRepository(db *sqlx.DB) repository.UsageRepository {
	return &usageRepository{db: db}
}

func (r *usageRepository) GetOrCreate(ctx context.Context, profileID, day string) (*domain.DailyUsage, error) {
	// the no-op update makes RETURNING yield the existing row on conflict
	query := `
		INSERT INTO daily_usage (profile_id, usage_date)
		VALUES ($1, $2)
		ON CONFLICT (profile_id, usage_date) DO UPDATE SET profile_id = EXCLUDED.profile_id
		` + usageReturning

	var usage domain.DailyUsage
	if err := r.db.GetContext(ctx, &usage, query, profileID, day); err != nil {
		return nil, fmt.Errorf("get or create usage: %w", err)
	}
	return &usage, nil
}

func (r *usageRepository) Increment(ctx context.Context, profileID, day string, kind domain.UsageKind) (*domain.DailyUsage, error) {
	column, ok := usageColumns[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidUsageKind, kind)
	}

	query := fmt.Sprintf(`
		INSERT INTO daily_usage (profile_id, usage_date, %[1]s)
		VALUES ($1, $2, 1)
		ON CONFLICT (profile_id, usage_date)
		DO UPDATE SET %[1]s = daily_usage.%[1]s + 1, updated_at = CURRENT_TIMESTAMP
		`, column) + usageReturning

	var usage domain.DailyUsage
	if err := r.db.GetContext(ctx, &usage, query, profileID, day); err != nil {
		return nil, fmt.Errorf("increment usage: %w", err)
	}
	return &usage, nil
}

type subscriptionRepository struct {
	db *sqlx.DB
}

func NewSubscriptionRepository(db *sqlx.DB) repository.SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) GetByProfileID(ctx context.Context, profileID string) (*domain.SubscriptionState, error) {
	var state domain.SubscriptionState
	query := `
		SELECT profile_id, plan_type, is_lifetime, expires_at
		FROM subscriptions WHERE profile_id = $1
	`
	err := r.db.GetContext(ctx, &state, query, profileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.FreeSubscription(profileID), nil
		}
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return &state, nil
}
