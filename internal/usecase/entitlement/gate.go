// Package entitlement decides whether a profile may perform a metered action.
package entitlement

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gdugdh24/mpit2026-discovery/internal/domain"
	"github.com/gdugdh24/mpit2026-discovery/internal/logging"
	"github.com/gdugdh24/mpit2026-discovery/internal/metrics"
	"github.com/gdugdh24/mpit2026-discovery/internal/repository"
	"github.com/gdugdh24/mpit2026-discovery/internal/usecase/usage"
)

// Decision is the outcome of an entitlement check.
type Decision struct {
	Kind      domain.UsageKind `json:"kind"`
	Allowed   bool             `json:"allowed"`
	Plan      domain.PlanType  `json:"plan"`
	Remaining int              `json:"remaining"`
}

// Status is the viewer's usage summary for one day.
type Status struct {
	Date      string                   `json:"date"`
	Plan      domain.PlanType          `json:"plan"`
	Usage     *domain.DailyUsage       `json:"usage"`
	Remaining map[domain.UsageKind]int `json:"remaining"`
}

type Gate struct {
	ledger *usage.Ledger
	subs   repository.SubscriptionRepository
	log    logging.Logger
	now    func() time.Time

	// check, action and increment for one (profile, kind) are serialized
	locks keyedMutex
}

func NewGate(ledger *usage.Ledger, subs repository.SubscriptionRepository, log logging.Logger) *Gate {
	return &Gate{ledger: ledger, subs: subs, log: log, now: time.Now}
}

// Plan returns the effective plan, treating expired premium as free.
func (g *Gate) Plan(ctx context.Context, profileID string) (domain.PlanType, error) {
	state, err := g.subs.GetByProfileID(ctx, profileID)
	if err != nil {
		return domain.PlanFree, fmt.Errorf("failed to load subscription: %w", err)
	}
	return state.EffectivePlan(g.now()), nil
}

// CanConsume reports whether one more unit of kind is available today.
func (g *Gate) CanConsume(ctx context.Context, profileID, day string, kind domain.UsageKind) (*Decision, error) {
	if kind == domain.UsageCommunities || !kind.Valid() {
		return nil, fmt.Errorf("%w: %s is not a daily kind", domain.ErrInvalidUsageKind, kind)
	}

	plan, err := g.Plan(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if plan == domain.PlanPremium {
		return &Decision{Kind: kind, Allowed: true, Plan: plan, Remaining: usage.Unlimited}, nil
	}

	u, err := g.ledger.GetOrCreate(ctx, profileID, day)
	if err != nil {
		return nil, err
	}
	remaining := usage.Remaining(u, plan, kind)
	return &Decision{Kind: kind, Allowed: remaining > 0, Plan: plan, Remaining: remaining}, nil
}

// Consume runs action if the profile has allowance left and records one unit
// when action succeeds. A refusal happens before action runs.
func (g *Gate) Consume(ctx context.Context, profileID, day string, kind domain.UsageKind, action func(ctx context.Context) error) error {
	unlock := g.locks.lock(profileID + ":" + string(kind))
	defer unlock()

	decision, err := g.CanConsume(ctx, profileID, day, kind)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		metrics.EntitlementRefusals.WithLabelValues(string(kind)).Inc()
		g.log.Info(ctx, "entitlement refused", "profile_id", profileID, "kind", kind, "day", day)
		return fmt.Errorf("%w: %s", domain.ErrEntitlementExceeded, kind)
	}

	if err := action(ctx); err != nil {
		return err
	}

	metrics.UsageConsumed.WithLabelValues(string(kind)).Inc()
	if _, err := g.ledger.Increment(ctx, profileID, day, kind, decision.Plan); err != nil {
		// the action already took effect, so the caller still gets success
		g.log.Error(ctx, "failed to record usage", "profile_id", profileID, "kind", kind, "error", err)
	}
	return nil
}

// CanJoinCommunity checks the standing communities cap against the number already joined.
func (g *Gate) CanJoinCommunity(ctx context.Context, profileID string, joined int) (*Decision, error) {
	plan, err := g.Plan(ctx, profileID)
	if err != nil {
		return nil, err
	}
	remaining := usage.RemainingAfter(joined, plan, domain.UsageCommunities)
	decision := &Decision{Kind: domain.UsageCommunities, Allowed: remaining > 0, Plan: plan, Remaining: remaining}
	if !decision.Allowed {
		metrics.EntitlementRefusals.WithLabelValues(string(domain.UsageCommunities)).Inc()
	}
	return decision, nil
}

// Status summarises the day's counters and remaining allowance per daily kind.
func (g *Gate) Status(ctx context.Context, profileID, day string) (*Status, error) {
	plan, err := g.Plan(ctx, profileID)
	if err != nil {
		return nil, err
	}
	u, err := g.ledger.GetOrCreate(ctx, profileID, day)
	if err != nil {
		return nil, err
	}

	remaining := make(map[domain.UsageKind]int, len(domain.DailyKinds))
	for _, kind := range domain.DailyKinds {
		remaining[kind] = usage.Remaining(u, plan, kind)
	}
	return &Status{Date: day, Plan: plan, Usage: u, Remaining: remaining}, nil
}

type refMutex struct {
	sync.Mutex
	refs int
}

// keyedMutex hands out one mutex per key and forgets it once nobody holds it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

func (k *keyedMutex) lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
