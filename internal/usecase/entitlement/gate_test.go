package entitlement

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gdugdh24/mpit2026-discovery/internal/domain"
	"github.com/gdugdh24/mpit2026-discovery/internal/logging"
	"github.com/gdugdh24/mpit2026-discovery/internal/repository/memory"
	"github.com/gdugdh24/mpit2026-discovery/internal/usecase/usage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const day = "2025-03-01"

func newGate(t *testing.T) (*Gate, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return NewGate(usage.NewLedger(store.Usage()), store.Subscriptions(), logging.Nop()), store
}

func TestConsume_FreeTierExhaustion(t *testing.T) {
	gate, _ := newGate(t)
	ctx := context.Background()

	calls := 0
	action := func(ctx context.Context) error {
		calls++
		return nil
	}

	for i := 0; i < 5; i++ {
		require.NoError(t, gate.Consume(ctx, "viewer", day, domain.UsageMatches, action))
	}

	err := gate.Consume(ctx, "viewer", day, domain.UsageMatches, action)
	assert.ErrorIs(t, err, domain.ErrEntitlementExceeded)
	assert.Equal(t, 5, calls)

	decision, err := gate.CanConsume(ctx, "viewer", day, domain.UsageMatches)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Zero(t, decision.Remaining)

	decision, err = gate.CanConsume(ctx, "viewer", "2025-03-02", domain.UsageMatches)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 5, decision.Remaining)
}

func TestConsume_FailedActionDoesNotCount(t *testing.T) {
	gate, _ := newGate(t)
	ctx := context.Background()
	boom := errors.New("ai down")

	err := gate.Consume(ctx, "viewer", day, domain.UsageAIPrompts, func(ctx context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	decision, err := gate.CanConsume(ctx, "viewer", day, domain.UsageAIPrompts)
	require.NoError(t, err)
	assert.Equal(t, 3, decision.Remaining)
}

func TestConsume_PremiumIsUnlimitedAndUncounted(t *testing.T) {
	gate, store := newGate(t)
	ctx := context.Background()
	store.SetSubscription(&domain.SubscriptionState{ProfileID: "viewer", PlanType: domain.PlanPremium, IsLifetime: true})

	for i := 0; i < 20; i++ {
		require.NoError(t, gate.Consume(ctx, "viewer", day, domain.UsageOpeners, func(ctx context.Context) error { return nil }))
	}

	status, err := gate.Status(ctx, "viewer", day)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanPremium, status.Plan)
	assert.Zero(t, status.Usage.OpenersSent)
	assert.Equal(t, usage.Unlimited, status.Remaining[domain.UsageOpeners])
}

func TestCanConsume_ExpiredPremiumIsFree(t *testing.T) {
	gate, store := newGate(t)
	expired := time.Now().Add(-time.Hour)
	store.SetSubscription(&domain.SubscriptionState{ProfileID: "viewer", PlanType: domain.PlanPremium, ExpiresAt: &expired})

	decision, err := gate.CanConsume(context.Background(), "viewer", day, domain.UsageAIPrompts)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanFree, decision.Plan)
	assert.Equal(t, 3, decision.Remaining)
}

func TestCanConsume_RejectsCommunities(t *testing.T) {
	gate, _ := newGate(t)
	_, err := gate.CanConsume(context.Background(), "viewer", day, domain.UsageCommunities)
	assert.ErrorIs(t, err, domain.ErrInvalidUsageKind)
}

func TestCanJoinCommunity(t *testing.T) {
	gate, store := newGate(t)
	ctx := context.Background()

	decision, err := gate.CanJoinCommunity(ctx, "viewer", 0)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	decision, err = gate.CanJoinCommunity(ctx, "viewer", 1)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)

	store.SetSubscription(&domain.SubscriptionState{ProfileID: "viewer", PlanType: domain.PlanPremium, IsLifetime: true})
	decision, err = gate.CanJoinCommunity(ctx, "viewer", 12)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestConsume_ConcurrentCallsNeverExceedLimit(t *testing.T) {
	gate, _ := newGate(t)
	ctx := context.Background()

	var performed int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = gate.Consume(ctx, "viewer", day, domain.UsageOpeners, func(ctx context.Context) error {
				atomic.AddInt32(&performed, 1)
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(5), atomic.LoadInt32(&performed))
	status, err := gate.Status(ctx, "viewer", day)
	require.NoError(t, err)
	assert.Equal(t, 5, status.Usage.OpenersSent)
	assert.Zero(t, status.Remaining[domain.UsageOpeners])
}

func TestKeyedMutex_ReleasesEntries(t *testing.T) {
	var k keyedMutex
	unlock := k.lock("a")
	unlock()
	assert.Empty(t, k.locks)
}
