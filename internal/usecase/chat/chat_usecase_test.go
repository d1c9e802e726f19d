package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/gdugdh24/mpit2026-discovery/internal/domain"
	"github.com/gdugdh24/mpit2026-discovery/internal/logging"
	"github.com/gdugdh24/mpit2026-discovery/internal/repository/memory"
	"github.com/gdugdh24/mpit2026-discovery/internal/usecase/compatibility"
	"github.com/gdugdh24/mpit2026-discovery/internal/usecase/entitlement"
	"github.com/gdugdh24/mpit2026-discovery/internal/usecase/usage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const day = "2025-03-01"

type stubAI struct {
	answer string
	err    error
	calls  int
}

func (s *stubAI) GenerateText(ctx context.Context, prompt string) (string, error) {
	s.calls++
	return s.answer, s.err
}

func setup(t *testing.T, ai compatibility.TextGenerator) (*ChatUseCase, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.AddProfile(&domain.Profile{ID: "alice", DisplayName: "Alice", Interests: []string{"jazz"}})
	store.AddProfile(&domain.Profile{ID: "bob", DisplayName: "Bob", Interests: []string{"jazz", "chess"}})
	store.AddProfile(&domain.Profile{ID: "eve", DisplayName: "Eve"})
	gate := entitlement.NewGate(usage.NewLedger(store.Usage()), store.Subscriptions(), logging.Nop())
	return NewChatUseCase(store.Profiles(), store.Matches(), store.Openers(), gate, ai, logging.Nop()), store
}

func TestSuggestIcebreaker_ConsumesAIPrompts(t *testing.T) {
	ai := &stubAI{answer: `"Seen any good jazz lately?"`}
	uc, _ := setup(t, ai)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := uc.SuggestIcebreaker(ctx, "alice", "bob", day)
		require.NoError(t, err)
		assert.Equal(t, "Seen any good jazz lately?", res.Suggestion)
	}

	_, err := uc.SuggestIcebreaker(ctx, "alice", "bob", day)
	assert.ErrorIs(t, err, domain.ErrEntitlementExceeded)
	assert.Equal(t, 3, ai.calls)
}

func TestSuggestIcebreaker_FailureIsFree(t *testing.T) {
	ai := &stubAI{err: errors.New("timeout")}
	uc, store := setup(t, ai)
	ctx := context.Background()

	_, err := uc.SuggestIcebreaker(ctx, "alice", "bob", day)
	assert.ErrorIs(t, err, domain.ErrScoringUnavailable)

	u, err := store.Usage().GetOrCreate(ctx, "alice", day)
	require.NoError(t, err)
	assert.Zero(t, u.AIPromptsUsed)
}

func TestSuggestIcebreaker_UnknownCandidate(t *testing.T) {
	uc, _ := setup(t, &stubAI{answer: "hi"})
	_, err := uc.SuggestIcebreaker(context.Background(), "alice", "ghost", day)
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func TestSendOpener(t *testing.T) {
	uc, store := setup(t, nil)
	ctx := context.Background()

	match := &domain.Match{ProfileAID: "alice", ProfileBID: "bob"}
	_, err := store.Matches().CreateIfAbsent(ctx, match)
	require.NoError(t, err)

	_, err = uc.SendOpener(ctx, "eve", match.ID, "hey", day)
	assert.ErrorIs(t, err, domain.ErrNotMatchParticipant)

	_, err = uc.SendOpener(ctx, "alice", "missing", "hey", day)
	assert.ErrorIs(t, err, domain.ErrMatchNotFound)

	_, err = uc.SendOpener(ctx, "alice", match.ID, "   ", day)
	assert.ErrorIs(t, err, domain.ErrEmptyMessage)

	for i := 0; i < 5; i++ {
		opener, err := uc.SendOpener(ctx, "alice", match.ID, "hey bob", day)
		require.NoError(t, err)
		assert.NotEmpty(t, opener.ID)
	}
	_, err = uc.SendOpener(ctx, "alice", match.ID, "one more", day)
	assert.ErrorIs(t, err, domain.ErrEntitlementExceeded)

	assert.Len(t, store.OpenersFor(match.ID), 5)

	// bob has his own allowance
	_, err = uc.SendOpener(ctx, "bob", match.ID, "hi alice", day)
	assert.NoError(t, err)
}

func TestCleanSuggestion(t *testing.T) {
	assert.Equal(t, "hello", cleanSuggestion("  \"hello\" "))
	assert.Equal(t, "hello", cleanSuggestion("```\nhello\n```"))
	assert.Equal(t, compatibility.DefaultIcebreaker, cleanSuggestion("   "))
}
