package compatibility

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gdugdh24/mpit2026-discovery/internal/domain"
	"github.com/gdugdh24/mpit2026-discovery/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAI struct {
	answer  string
	err     error
	release chan struct{}
	calls   int32
	prompts []string
	mu      sync.Mutex
}

func (f *fakeAI) GenerateText(ctx context.Context, prompt string) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.answer, f.err
}

var (
	viewer    = &domain.Profile{ID: "viewer", DisplayName: "Anna", Age: 27, Gender: "female", Interests: []string{"jazz", "hiking"}}
	candidate = &domain.Profile{ID: "cand", DisplayName: "Ivan", Age: 29, Gender: "male", Interests: []string{"hiking"}}
)

func TestScore_ParsesAnswer(t *testing.T) {
	ai := &fakeAI{answer: "```json\n{\"score\": 88, \"icebreaker\": \"Which trail is next?\", \"shared_interests\": [\"hiking\"]}\n```"}
	s := NewScorer(ai, time.Second, logging.Nop())

	a, err := s.Score(context.Background(), viewer, candidate)
	require.NoError(t, err)
	assert.Equal(t, "cand", a.ProfileID)
	assert.Equal(t, 88, a.Score)
	assert.Equal(t, "Which trail is next?", a.Icebreaker)
	assert.Equal(t, []string{"hiking"}, a.SharedInterests)
	assert.False(t, a.ComputedAt.IsZero())

	require.Len(t, ai.prompts, 1)
	assert.Contains(t, ai.prompts[0], "Anna")
	assert.Contains(t, ai.prompts[0], "Ivan")
}

func TestScore_MalformedAnswerFallsBackToNeutral(t *testing.T) {
	s := NewScorer(&fakeAI{answer: "I think they'd be great together!"}, time.Second, logging.Nop())

	a, err := s.Score(context.Background(), viewer, candidate)
	require.NoError(t, err)
	assert.Equal(t, NeutralScore, a.Score)
	assert.Equal(t, DefaultIcebreaker, a.Icebreaker)
}

func TestScore_CollaboratorFailureIsScoringUnavailable(t *testing.T) {
	quota := errors.New("quota exceeded")
	s := NewScorer(&fakeAI{err: quota}, time.Second, logging.Nop())

	_, err := s.Score(context.Background(), viewer, candidate)
	assert.ErrorIs(t, err, domain.ErrScoringUnavailable)
	assert.ErrorIs(t, err, quota)
}

func TestScore_TimeoutIsScoringUnavailable(t *testing.T) {
	s := NewScorer(&fakeAI{release: make(chan struct{})}, 20*time.Millisecond, logging.Nop())

	_, err := s.Score(context.Background(), viewer, candidate)
	assert.ErrorIs(t, err, domain.ErrScoringUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestScore_NoProvider(t *testing.T) {
	s := NewScorer(nil, time.Second, logging.Nop())
	_, err := s.Score(context.Background(), viewer, candidate)
	assert.ErrorIs(t, err, domain.ErrScoringUnavailable)
}

func TestScore_ConcurrentCallsShareOneRequest(t *testing.T) {
	ai := &fakeAI{answer: `{"score": 60}`, release: make(chan struct{})}
	s := NewScorer(ai, 5*time.Second, logging.Nop())

	var wg sync.WaitGroup
	results := make([]*domain.CompatibilityAnnotation, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := s.Score(context.Background(), viewer, candidate)
			assert.NoError(t, err)
			results[i] = a
		}(i)
	}

	require.Eventually(t, func() bool { return atomic.LoadInt32(&ai.calls) >= 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(ai.release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&ai.calls))
	for _, a := range results {
		require.NotNil(t, a)
		assert.Equal(t, 60, a.Score)
	}
	assert.NotSame(t, results[0], results[1])
}

func TestScore_CallerCancellationDoesNotAbortSharedFlight(t *testing.T) {
	ai := &fakeAI{answer: `{"score": 70}`, release: make(chan struct{})}
	s := NewScorer(ai, 5*time.Second, logging.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := s.Score(ctx, viewer, candidate)
		done <- err
	}()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&ai.calls) == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	close(ai.release)
	assert.NoError(t, <-done)
}

func TestParseCompatibility(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantScore int
		wantOK    bool
	}{
		{"plain json", `{"score": 91, "icebreaker": "hi"}`, 91, true},
		{"prose around json", `Sure! {"score": 42, "icebreaker": "hi"} Hope that helps.`, 42, true},
		{"fraction rounds", `{"score": 66.6}`, 67, true},
		{"clamped high", `{"score": 140}`, 100, true},
		{"clamped low", `{"score": -3}`, 0, true},
		{"missing score", `{"icebreaker": "hi"}`, NeutralScore, false},
		{"not json", `score: 80`, NeutralScore, false},
		{"broken json", `{"score": 80`, NeutralScore, false},
		{"empty", ``, NeutralScore, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseCompatibility(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantScore, got.Score)
			assert.NotEmpty(t, got.Icebreaker)
		})
	}
}

func TestParseCompatibility_CamelCaseSharedInterests(t *testing.T) {
	got, ok := ParseCompatibility(`{"score": 50, "sharedInterests": ["chess"]}`)
	require.True(t, ok)
	assert.Equal(t, []string{"chess"}, got.SharedInterests)
	assert.Equal(t, DefaultIcebreaker, got.Icebreaker)
}
