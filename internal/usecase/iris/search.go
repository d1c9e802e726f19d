// Package iris is the natural-language matchmaker: a free-text request is
// turned into search criteria by the AI and run against the profile store.
package iris

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gdugdh24/mpit2026-discovery/internal/domain"
	"github.com/gdugdh24/mpit2026-discovery/internal/geo"
	"github.com/gdugdh24/mpit2026-discovery/internal/logging"
	"github.com/gdugdh24/mpit2026-discovery/internal/repository"
	"github.com/gdugdh24/mpit2026-discovery/internal/usecase/compatibility"
	"github.com/gdugdh24/mpit2026-discovery/internal/usecase/entitlement"
)

const (
	MaxResults     = 10
	maxQueryLength = 500
)

// Criteria is what the AI extracted from the query. Zero values mean "any".
type Criteria struct {
	Gender []string `json:"gender"`
	MinAge int      `json:"min_age"`
	MaxAge int      `json:"max_age"`
	City   string   `json:"city"`
}

// Result is the IRIS answer shown to the viewer.
type Result struct {
	Message  string            `json:"message"`
	Profiles []*ProfileSummary `json:"profiles"`
	Criteria Criteria          `json:"criteria"`
}

type ProfileSummary struct {
	ID            string   `json:"id"`
	DisplayName   string   `json:"display_name"`
	Age           int      `json:"age"`
	Gender        string   `json:"gender"`
	City          *string  `json:"city"`
	Interests     []string `json:"interests"`
	DistanceMiles *int     `json:"distance_miles,omitempty"`
}

type IrisUseCase struct {
	profileRepo repository.ProfileRepository
	blockRepo   repository.BlockRepository
	gate        *entitlement.Gate
	ai          compatibility.TextGenerator
	log         logging.Logger
}

func NewIrisUseCase(
	profileRepo repository.ProfileRepository,
	blockRepo repository.BlockRepository,
	gate *entitlement.Gate,
	ai compatibility.TextGenerator,
	log logging.Logger,
) *IrisUseCase {
	return &IrisUseCase{
		profileRepo: profileRepo,
		blockRepo:   blockRepo,
		gate:        gate,
		ai:          ai,
		log:         log,
	}
}

// Search interprets query and returns up to MaxResults matching profiles.
// It costs one ai_prompts unit only when both the AI and the lookup succeed.
func (uc *IrisUseCase) Search(ctx context.Context, viewerID, query, day string) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}
	if len([]rune(query)) > maxQueryLength {
		query = string([]rune(query)[:maxQueryLength])
	}

	viewer, err := uc.profileRepo.GetByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	var (
		criteria Criteria
		profiles []*ProfileSummary
	)
	err = uc.gate.Consume(ctx, viewerID, day, domain.UsageAIPrompts, func(ctx context.Context) error {
		if uc.ai == nil {
			return fmt.Errorf("%w: no AI provider configured", domain.ErrScoringUnavailable)
		}
		raw, err := uc.ai.GenerateText(ctx, criteriaPrompt(query))
		if err != nil {
			uc.log.Warn(ctx, "iris criteria extraction failed", "viewer_id", viewerID, "error", err)
			return fmt.Errorf("%w: %w", domain.ErrScoringUnavailable, err)
		}
		criteria = ParseCriteria(raw)

		profiles, err = uc.find(ctx, viewer, criteria)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Message:  message(len(profiles)),
		Profiles: profiles,
		Criteria: criteria,
	}, nil
}

func (uc *IrisUseCase) find(ctx context.Context, viewer *domain.Profile, c Criteria) ([]*ProfileSummary, error) {
	found, err := uc.profileRepo.Search(ctx, repository.ProfileFilter{
		ExcludeID: viewer.ID,
		Genders:   c.Gender,
		MinAge:    c.MinAge,
		MaxAge:    c.MaxAge,
		City:      c.City,
		Limit:     MaxResults * 2,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPoolFetchFailed, err)
	}

	blocked, err := uc.blockRepo.BlockedIDs(ctx, viewer.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPoolFetchFailed, err)
	}
	skip := make(map[string]struct{}, len(blocked))
	for _, id := range blocked {
		skip[id] = struct{}{}
	}

	out := make([]*ProfileSummary, 0, MaxResults)
	for _, p := range found {
		if len(out) == MaxResults {
			break
		}
		if _, ok := skip[p.ID]; ok || p.ID == viewer.ID {
			continue
		}
		out = append(out, &ProfileSummary{
			ID:            p.ID,
			DisplayName:   p.DisplayName,
			Age:           p.Age,
			Gender:        p.Gender,
			City:          p.City,
			Interests:     p.Interests,
			DistanceMiles: geo.Between(viewer.Latitude, viewer.Longitude, p.Latitude, p.Longitude),
		})
	}
	return out, nil
}

// ParseCriteria reads the AI answer; anything unreadable means "no constraints".
func ParseCriteria(raw string) Criteria {
	var c Criteria
	body := compatibility.ExtractJSON(raw)
	if body == "" {
		return c
	}
	if err := json.Unmarshal([]byte(body), &c); err != nil {
		return Criteria{}
	}

	genders := c.Gender[:0]
	for _, g := range c.Gender {
		if g = strings.ToLower(strings.TrimSpace(g)); g != "" {
			genders = append(genders, g)
		}
	}
	c.Gender = genders
	c.City = strings.TrimSpace(c.City)
	if c.MinAge < 0 {
		c.MinAge = 0
	}
	if c.MaxAge < 0 {
		c.MaxAge = 0
	}
	if c.MinAge > 0 && c.MaxAge > 0 && c.MinAge > c.MaxAge {
		c.MinAge, c.MaxAge = c.MaxAge, c.MinAge
	}
	return c
}

func criteriaPrompt(query string) string {
	return fmt.Sprintf(`Extract dating search filters from the request below.
Request: %q
Answer with JSON only: {"gender": ["male"|"female"|...], "min_age": <int or 0>, "max_age": <int or 0>, "city": "<city or empty>"}`, query)
}

func message(n int) string {
	switch n {
	case 0:
		return "I couldn't find anyone matching that yet. Try widening your request."
	case 1:
		return "I found one person who fits."
	default:
		return fmt.Sprintf("I found %d people who fit.", n)
	}
}
