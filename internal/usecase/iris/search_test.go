package iris

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/gdugdh24/mpit2026-discovery/internal/domain"
	"github.com/gdugdh24/mpit2026-discovery/internal/logging"
	"github.com/gdugdh24/mpit2026-discovery/internal/repository"
	"github.com/gdugdh24/mpit2026-discovery/internal/repository/memory"
	"github.com/gdugdh24/mpit2026-discovery/internal/usecase/entitlement"
	"github.com/gdugdh24/mpit2026-discovery/internal/usecase/usage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const day = "2025-03-01"

type stubAI struct{ answer string }

func (s stubAI) GenerateText(ctx context.Context, prompt string) (string, error) {
	return s.answer, nil
}

func city(s string) *string { return &s }

func newIris(store *memory.Store, answer string) *IrisUseCase {
	gate := entitlement.NewGate(usage.NewLedger(store.Usage()), store.Subscriptions(), logging.Nop())
	return NewIrisUseCase(store.Profiles(), store.Blocks(), gate, stubAI{answer: answer}, logging.Nop())
}

func TestSearch_AppliesCriteria(t *testing.T) {
	store := memory.NewStore()
	store.AddProfile(&domain.Profile{ID: "viewer", Age: 30, Gender: "male", City: city("Yakutsk")})
	store.AddProfile(&domain.Profile{ID: "match", Age: 27, Gender: "female", City: city("Yakutsk")})
	store.AddProfile(&domain.Profile{ID: "other-city", Age: 27, Gender: "female", City: city("Moscow")})
	store.AddProfile(&domain.Profile{ID: "too-old", Age: 45, Gender: "female", City: city("Yakutsk")})
	store.AddProfile(&domain.Profile{ID: "blocked", Age: 26, Gender: "female", City: city("Yakutsk")})
	store.Block("blocked", "viewer")

	uc := newIris(store, "```json\n{\"gender\": [\"Female\"], \"min_age\": 25, \"max_age\": 35, \"city\": \"yakutsk\"}\n```")
	res, err := uc.Search(context.Background(), "viewer", "a girl from Yakutsk, 25 to 35", day)
	require.NoError(t, err)

	require.Len(t, res.Profiles, 1)
	assert.Equal(t, "match", res.Profiles[0].ID)
	assert.Equal(t, []string{"female"}, res.Criteria.Gender)
	assert.Equal(t, "I found one person who fits.", res.Message)
}

func TestSearch_UnparseableCriteriaMeansEveryone(t *testing.T) {
	store := memory.NewStore()
	store.AddProfile(&domain.Profile{ID: "viewer", Age: 30})
	for i := 0; i < MaxResults+5; i++ {
		store.AddProfile(&domain.Profile{ID: fmt.Sprintf("p%d", i), Age: 30})
	}

	res, err := newIris(store, "sorry, I can't help").Search(context.Background(), "viewer", "anyone nice", day)
	require.NoError(t, err)
	assert.Len(t, res.Profiles, MaxResults)
	for _, p := range res.Profiles {
		assert.NotEqual(t, "viewer", p.ID)
	}
}

func TestSearch_GatedByAIPrompts(t *testing.T) {
	store := memory.NewStore()
	store.AddProfile(&domain.Profile{ID: "viewer", Age: 30})
	uc := newIris(store, "{}")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := uc.Search(ctx, "viewer", "someone", day)
		require.NoError(t, err)
	}
	_, err := uc.Search(ctx, "viewer", "someone", day)
	assert.ErrorIs(t, err, domain.ErrEntitlementExceeded)
}

type failingBlocks struct{}

func (failingBlocks) BlockedIDs(ctx context.Context, profileID string) ([]string, error) {
	return nil, errors.New("connection refused")
}

func TestSearch_LookupFailureIsNotCharged(t *testing.T) {
	store := memory.NewStore()
	store.AddProfile(&domain.Profile{ID: "viewer", Age: 30})
	gate := entitlement.NewGate(usage.NewLedger(store.Usage()), store.Subscriptions(), logging.Nop())
	var blocks repository.BlockRepository = failingBlocks{}
	uc := NewIrisUseCase(store.Profiles(), blocks, gate, stubAI{answer: "{}"}, logging.Nop())
	ctx := context.Background()

	_, err := uc.Search(ctx, "viewer", "someone", day)
	assert.ErrorIs(t, err, domain.ErrPoolFetchFailed)

	used, err := store.Usage().GetOrCreate(ctx, "viewer", day)
	require.NoError(t, err)
	assert.Equal(t, 0, used.AIPromptsUsed)
}

func TestSearch_GenderMatchIgnoresStoredCase(t *testing.T) {
	store := memory.NewStore()
	store.AddProfile(&domain.Profile{ID: "viewer", Age: 30, Gender: "male"})
	store.AddProfile(&domain.Profile{ID: "anna", Age: 27, Gender: "Female"})
	store.AddProfile(&domain.Profile{ID: "ivan", Age: 27, Gender: "Male"})

	res, err := newIris(store, `{"gender": ["female"]}`).Search(context.Background(), "viewer", "a girl", day)
	require.NoError(t, err)
	require.Len(t, res.Profiles, 1)
	assert.Equal(t, "anna", res.Profiles[0].ID)
}

func TestSearch_EmptyQuery(t *testing.T) {
	store := memory.NewStore()
	_, err := newIris(store, "{}").Search(context.Background(), "viewer", "  ", day)
	assert.ErrorIs(t, err, domain.ErrEmptyQuery)
}

func TestParseCriteria(t *testing.T) {
	c := ParseCriteria(`{"gender": [" MALE ", ""], "min_age": 40, "max_age": 30, "city": " Kazan "}`)
	assert.Equal(t, []string{"male"}, c.Gender)
	assert.Equal(t, 30, c.MinAge)
	assert.Equal(t, 40, c.MaxAge)
	assert.Equal(t, "Kazan", c.City)

	assert.Equal(t, Criteria{}, ParseCriteria(`{"gender": "male"}`))
	assert.Equal(t, Criteria{}, ParseCriteria("no json here"))
}
