package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gdugdh24/mpit2026-discovery/internal/domain"
	"github.com/gdugdh24/mpit2026-discovery/internal/geo"
	"github.com/gdugdh24/mpit2026-discovery/internal/logging"
	"github.com/gdugdh24/mpit2026-discovery/internal/repository"
	"github.com/gdugdh24/mpit2026-discovery/internal/repository/memory"
	"github.com/gdugdh24/mpit2026-discovery/internal/usecase/compatibility"
	"github.com/gdugdh24/mpit2026-discovery/internal/usecase/entitlement"
	"github.com/gdugdh24/mpit2026-discovery/internal/usecase/feed"
	"github.com/gdugdh24/mpit2026-discovery/internal/usecase/swipe"
	"github.com/gdugdh24/mpit2026-discovery/internal/usecase/usage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const today = "2025-03-01"

// scriptedAI answers with a score per candidate name and can hold back one candidate.
type scriptedAI struct {
	mu      sync.Mutex
	scores  map[string]int
	hold    map[string]chan struct{}
	failFor map[string]bool
}

func newScriptedAI() *scriptedAI {
	return &scriptedAI{scores: map[string]int{}, hold: map[string]chan struct{}{}, failFor: map[string]bool{}}
}

func (a *scriptedAI) GenerateText(ctx context.Context, prompt string) (string, error) {
	a.mu.Lock()
	var name string
	for n := range a.scores {
		if strings.Contains(prompt, "Person B: "+n+",") {
			name = n
		}
	}
	hold := a.hold[name]
	fail := a.failFor[name]
	score := a.scores[name]
	a.mu.Unlock()

	if hold != nil {
		<-hold
	}
	if fail {
		return "", errors.New("model overloaded")
	}
	return fmt.Sprintf(`{"score": %d, "icebreaker": "hi %s"}`, score, name), nil
}

type fixture struct {
	store   *memory.Store
	ai      *scriptedAI
	service *Service
}

func newFixture(t *testing.T, wrap func(repository.SwipeRepository) repository.SwipeRepository) *fixture {
	t.Helper()
	store := memory.NewStore()
	swipeRepo := store.Swipes()
	if wrap != nil {
		swipeRepo = wrap(swipeRepo)
	}
	ai := newScriptedAI()
	log := logging.Nop()

	pool := feed.NewCandidatePool(store.Profiles(), store.Photos(), store.Swipes(), store.Blocks(), feed.MaxQueueSize, log)
	scorer := compatibility.NewScorer(ai, time.Second, log)
	processor := swipe.NewProcessor(swipeRepo, store.Matches(), store.Profiles(), nil, log)
	gate := entitlement.NewGate(usage.NewLedger(store.Usage()), store.Subscriptions(), log)
	locator := geo.NewLocator(store.Profiles(), 0, 0, log)

	svc := NewService(NewRegistry(time.Minute, log), pool, scorer, processor, gate, locator, store.Profiles(), log)
	return &fixture{store: store, ai: ai, service: svc}
}

// addCandidates stores profiles so that the queue comes out in the given order.
func (f *fixture) addCandidates(names ...string) {
	for i := len(names) - 1; i >= 0; i-- {
		f.store.AddProfile(&domain.Profile{ID: names[i], DisplayName: names[i], Age: 30})
		f.ai.scores[names[i]] = 50 + i
	}
}

func TestService_CurrentRequiresSession(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.service.Current(context.Background(), "viewer", today)
	assert.ErrorIs(t, err, domain.ErrNoSession)
}

func TestService_StartSessionPersistsFreshPosition(t *testing.T) {
	f := newFixture(t, nil)
	f.store.AddProfile(&domain.Profile{ID: "viewer", Age: 30})
	ctx := context.Background()

	info, err := f.service.StartSession(ctx, "viewer", &geo.Position{Latitude: 62.03, Longitude: 129.73, CapturedAt: time.Now()})
	require.NoError(t, err)
	assert.True(t, info.HasLocation)

	viewer, err := f.store.Profiles().GetByID(ctx, "viewer")
	require.NoError(t, err)
	require.True(t, viewer.HasCoordinates())
	assert.Equal(t, 62.03, *viewer.Latitude)
}

func TestService_StartSessionUnknownViewer(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.service.StartSession(context.Background(), "ghost", nil)
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func TestService_FreeTierExhaustion(t *testing.T) {
	f := newFixture(t, nil)
	f.store.AddProfile(&domain.Profile{ID: "viewer", Age: 30})
	f.addCandidates("c1", "c2", "c3", "c4", "c5", "c6", "c7")
	ctx := context.Background()

	_, err := f.service.StartSession(ctx, "viewer", nil)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		card, err := f.service.Current(ctx, "viewer", today)
		require.NoError(t, err, "card %d", i+1)

		// showing the same card again is not counted twice
		again, err := f.service.Current(ctx, "viewer", today)
		require.NoError(t, err)
		assert.Equal(t, card.Candidate.ID(), again.Candidate.ID())

		_, err = f.service.Swipe(ctx, "viewer", card.Candidate.ID(), domain.DirectionDislike)
		require.NoError(t, err)
	}

	_, err = f.service.Current(ctx, "viewer", today)
	assert.ErrorIs(t, err, domain.ErrEntitlementExceeded)

	// the next local day starts over
	card, err := f.service.Current(ctx, "viewer", "2025-03-02")
	require.NoError(t, err)
	assert.NotNil(t, card)
	f.service.WaitScoring()
}

func TestService_PremiumIsNotMetered(t *testing.T) {
	f := newFixture(t, nil)
	f.store.AddProfile(&domain.Profile{ID: "viewer", Age: 30})
	f.store.SetSubscription(&domain.SubscriptionState{ProfileID: "viewer", PlanType: domain.PlanPremium, IsLifetime: true})
	names := make([]string, 8)
	for i := range names {
		names[i] = fmt.Sprintf("p%d", i)
	}
	f.addCandidates(names...)
	ctx := context.Background()

	_, err := f.service.StartSession(ctx, "viewer", nil)
	require.NoError(t, err)
	for range names {
		card, err := f.service.Current(ctx, "viewer", today)
		require.NoError(t, err)
		_, err = f.service.Swipe(ctx, "viewer", card.Candidate.ID(), domain.DirectionLike)
		require.NoError(t, err)
	}
	_, err = f.service.Current(ctx, "viewer", today)
	assert.ErrorIs(t, err, domain.ErrQueueExhausted)
	f.service.WaitScoring()
}

func TestService_ScoreArrivesOnCurrentCard(t *testing.T) {
	f := newFixture(t, nil)
	f.store.AddProfile(&domain.Profile{ID: "viewer", Age: 30})
	f.addCandidates("anna")
	ctx := context.Background()

	_, err := f.service.StartSession(ctx, "viewer", nil)
	require.NoError(t, err)
	_, err = f.service.Current(ctx, "viewer", today)
	require.NoError(t, err)
	f.service.WaitScoring()

	card, err := f.service.Current(ctx, "viewer", today)
	require.NoError(t, err)
	assert.Equal(t, ScoreReady, card.ScoreState)
	require.NotNil(t, card.Annotation)
	assert.Equal(t, 50, card.Annotation.Score)
	assert.Equal(t, "hi anna", card.Annotation.Icebreaker)
}

func TestService_ScoringFailureStillShowsCard(t *testing.T) {
	f := newFixture(t, nil)
	f.store.AddProfile(&domain.Profile{ID: "viewer", Age: 30})
	f.addCandidates("anna")
	f.ai.failFor["anna"] = true
	ctx := context.Background()

	_, err := f.service.StartSession(ctx, "viewer", nil)
	require.NoError(t, err)
	_, err = f.service.Current(ctx, "viewer", today)
	require.NoError(t, err)
	f.service.WaitScoring()

	card, err := f.service.Current(ctx, "viewer", today)
	require.NoError(t, err)
	assert.Equal(t, ScoreUnavailable, card.ScoreState)
	assert.Nil(t, card.Annotation)

	_, err = f.service.Swipe(ctx, "viewer", "anna", domain.DirectionLike)
	assert.NoError(t, err)
}

func TestService_StaleScoreDiscard(t *testing.T) {
	f := newFixture(t, nil)
	f.store.AddProfile(&domain.Profile{ID: "viewer", Age: 30})
	f.addCandidates("first", "second")
	release := make(chan struct{})
	f.ai.hold["first"] = release
	ctx := context.Background()

	_, err := f.service.StartSession(ctx, "viewer", nil)
	require.NoError(t, err)

	card, err := f.service.Current(ctx, "viewer", today)
	require.NoError(t, err)
	require.Equal(t, "first", card.Candidate.ID())
	assert.Equal(t, ScorePending, card.ScoreState)

	_, err = f.service.Swipe(ctx, "viewer", "first", domain.DirectionDislike)
	require.NoError(t, err)

	close(release)
	f.service.WaitScoring()

	card, err = f.service.Current(ctx, "viewer", today)
	require.NoError(t, err)
	require.Equal(t, "second", card.Candidate.ID())
	f.service.WaitScoring()

	card, err = f.service.Current(ctx, "viewer", today)
	require.NoError(t, err)
	require.NotNil(t, card.Annotation)
	assert.Equal(t, "second", card.Annotation.ProfileID)
}

func TestService_SwipeMustTargetShownCurrentCard(t *testing.T) {
	f := newFixture(t, nil)
	f.store.AddProfile(&domain.Profile{ID: "viewer", Age: 30})
	f.addCandidates("first", "second")
	ctx := context.Background()

	_, err := f.service.StartSession(ctx, "viewer", nil)
	require.NoError(t, err)

	_, err = f.service.Swipe(ctx, "viewer", "first", domain.DirectionLike)
	assert.ErrorIs(t, err, domain.ErrNotCurrentCandidate, "card not surfaced yet")

	_, err = f.service.Current(ctx, "viewer", today)
	require.NoError(t, err)
	_, err = f.service.Swipe(ctx, "viewer", "second", domain.DirectionLike)
	assert.ErrorIs(t, err, domain.ErrNotCurrentCandidate)
	f.service.WaitScoring()
}

type flakySwipes struct {
	repository.SwipeRepository
	fail bool
}

func (f *flakySwipes) CreateIfAbsent(ctx context.Context, s *domain.Swipe) (bool, error) {
	if f.fail {
		return false, errors.New("write timeout")
	}
	return f.SwipeRepository.CreateIfAbsent(ctx, s)
}

func TestService_PersistFailureKeepsCursor(t *testing.T) {
	var flaky *flakySwipes
	f := newFixture(t, func(r repository.SwipeRepository) repository.SwipeRepository {
		flaky = &flakySwipes{SwipeRepository: r, fail: true}
		return flaky
	})
	f.store.AddProfile(&domain.Profile{ID: "viewer", Age: 30})
	f.addCandidates("first", "second")
	ctx := context.Background()

	_, err := f.service.StartSession(ctx, "viewer", nil)
	require.NoError(t, err)
	_, err = f.service.Current(ctx, "viewer", today)
	require.NoError(t, err)

	_, err = f.service.Swipe(ctx, "viewer", "first", domain.DirectionLike)
	assert.ErrorIs(t, err, domain.ErrSwipePersistFailed)

	card, err := f.service.Current(ctx, "viewer", today)
	require.NoError(t, err)
	assert.Equal(t, "first", card.Candidate.ID())

	flaky.fail = false
	_, err = f.service.Swipe(ctx, "viewer", "first", domain.DirectionLike)
	require.NoError(t, err)
	card, err = f.service.Current(ctx, "viewer", today)
	require.NoError(t, err)
	assert.Equal(t, "second", card.Candidate.ID())
	f.service.WaitScoring()
}

func TestService_NoResurfacingAfterRefresh(t *testing.T) {
	f := newFixture(t, nil)
	f.store.AddProfile(&domain.Profile{ID: "viewer", Age: 30})
	f.addCandidates("first", "second")
	ctx := context.Background()

	_, err := f.service.StartSession(ctx, "viewer", nil)
	require.NoError(t, err)
	_, err = f.service.Current(ctx, "viewer", today)
	require.NoError(t, err)
	_, err = f.service.Swipe(ctx, "viewer", "first", domain.DirectionDislike)
	require.NoError(t, err)

	info, err := f.service.StartSession(ctx, "viewer", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, info.QueueSize)

	card, err := f.service.Current(ctx, "viewer", today)
	require.NoError(t, err)
	assert.Equal(t, "second", card.Candidate.ID())
	f.service.WaitScoring()
}

func TestService_RefreshDoesNotChargeSameCardTwice(t *testing.T) {
	f := newFixture(t, nil)
	f.store.AddProfile(&domain.Profile{ID: "viewer", Age: 30})
	f.addCandidates("c1", "c2")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.service.StartSession(ctx, "viewer", nil)
		require.NoError(t, err)
		card, err := f.service.Current(ctx, "viewer", today)
		require.NoError(t, err)
		assert.Equal(t, "c1", card.Candidate.ID())
	}
	f.service.WaitScoring()

	usage, err := f.store.Usage().GetOrCreate(ctx, "viewer", today)
	require.NoError(t, err)
	assert.Equal(t, 1, usage.MatchesShown)

	// a fresh queue still requires the card to be shown before swiping
	_, err = f.service.StartSession(ctx, "viewer", nil)
	require.NoError(t, err)
	_, err = f.service.Swipe(ctx, "viewer", "c1", domain.DirectionLike)
	assert.ErrorIs(t, err, domain.ErrNotCurrentCandidate)
}

// blockingSwipes parks the first insert until release is closed.
type blockingSwipes struct {
	repository.SwipeRepository
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingSwipes) CreateIfAbsent(ctx context.Context, s *domain.Swipe) (bool, error) {
	b.once.Do(func() {
		close(b.entered)
		<-b.release
	})
	return b.SwipeRepository.CreateIfAbsent(ctx, s)
}

func TestService_RefreshDuringSwipeKeepsNewQueueHead(t *testing.T) {
	blocking := &blockingSwipes{entered: make(chan struct{}), release: make(chan struct{})}
	f := newFixture(t, func(r repository.SwipeRepository) repository.SwipeRepository {
		blocking.SwipeRepository = r
		return blocking
	})
	f.store.AddProfile(&domain.Profile{ID: "viewer", Age: 30})
	f.addCandidates("first", "second", "third")
	ctx := context.Background()

	_, err := f.service.StartSession(ctx, "viewer", nil)
	require.NoError(t, err)
	_, err = f.service.Current(ctx, "viewer", today)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := f.service.Swipe(ctx, "viewer", "first", domain.DirectionDislike)
		done <- err
	}()
	<-blocking.entered

	info, err := f.service.StartSession(ctx, "viewer", nil)
	require.NoError(t, err)
	close(blocking.release)
	require.NoError(t, <-done)

	card, err := f.service.Current(ctx, "viewer", today)
	require.NoError(t, err)
	assert.Equal(t, 0, card.Position)
	assert.Equal(t, info.QueueSize, card.QueueSize)
	assert.Equal(t, info.Generation, card.Generation)
	assert.Equal(t, "first", card.Candidate.ID())
	f.service.WaitScoring()
}
