// Package compatibility annotates discovery candidates with an AI-derived score.
package compatibility

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gdugdh24/mpit2026-discovery/internal/domain"
	"github.com/gdugdh24/mpit2026-discovery/internal/logging"
	"github.com/gdugdh24/mpit2026-discovery/internal/metrics"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultTimeout = 15 * time.Second

	// NeutralScore and DefaultIcebreaker are used when the model answer can't be parsed.
	NeutralScore      = 75
	DefaultIcebreaker = "Hey! Your profile caught my eye. What's the best thing that happened to you this week?"
)

// TextGenerator is the AI collaborator: a prompt in, free text out.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

type Scorer struct {
	ai      TextGenerator
	timeout time.Duration
	group   singleflight.Group
	now     func() time.Time
	log     logging.Logger
}

func NewScorer(ai TextGenerator, timeout time.Duration, log logging.Logger) *Scorer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Scorer{ai: ai, timeout: timeout, now: time.Now, log: log}
}

// Score asks the AI collaborator to rate viewer and candidate. Concurrent calls
// for the same pair share one request. Any collaborator failure is returned as
// ErrScoringUnavailable; an unparseable answer yields the neutral default.
func (s *Scorer) Score(ctx context.Context, viewer, candidate *domain.Profile) (*domain.CompatibilityAnnotation, error) {
	if s.ai == nil {
		return nil, fmt.Errorf("%w: no AI provider configured", domain.ErrScoringUnavailable)
	}

	key := viewer.ID + ":" + candidate.ID
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		return s.score(ctx, viewer, candidate)
	})
	if err != nil {
		return nil, err
	}

	// callers sharing a flight must not share the annotation
	shared := v.(*domain.CompatibilityAnnotation)
	annotation := *shared
	annotation.SharedInterests = append([]string(nil), shared.SharedInterests...)
	return &annotation, nil
}

func (s *Scorer) score(ctx context.Context, viewer, candidate *domain.Profile) (*domain.CompatibilityAnnotation, error) {
	// the flight outlives any single caller
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	start := s.now()
	raw, err := s.ai.GenerateText(ctx, BuildPrompt(viewer, candidate))
	if err != nil {
		metrics.ScoringDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		s.log.Warn(ctx, "compatibility scoring failed", "viewer_id", viewer.ID, "candidate_id", candidate.ID, "error", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrScoringUnavailable, err)
	}
	metrics.ScoringDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())

	result, ok := ParseCompatibility(raw)
	if !ok {
		s.log.Debug(ctx, "unparseable compatibility answer, using neutral default", "candidate_id", candidate.ID)
	}
	metrics.CompatibilityScores.Observe(float64(result.Score))

	return &domain.CompatibilityAnnotation{
		ProfileID:       candidate.ID,
		Score:           result.Score,
		Icebreaker:      result.Icebreaker,
		Summary:         result.Summary,
		SharedInterests: result.SharedInterests,
		ComputedAt:      s.now(),
	}, nil
}

// BuildPrompt describes both profiles and the expected JSON answer.
func BuildPrompt(viewer, candidate *domain.Profile) string {
	return fmt.Sprintf(`You are a dating app matchmaker. Rate how compatible these two people are.

Person A: %s
Person B: %s

Answer with JSON only, no prose:
{"score": <integer 0-100>, "icebreaker": "<one friendly opening line A could send B>", "summary": "<one sentence>", "shared_interests": ["..."]}`,
		describe(viewer), describe(candidate))
}

func describe(p *domain.Profile) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s, %d, %s", p.DisplayName, p.Age, p.Gender)
	if p.City != nil && *p.City != "" {
		fmt.Fprintf(&sb, ", lives in %s", *p.City)
	}
	if len(p.Interests) > 0 {
		fmt.Fprintf(&sb, ". Interests: %s", strings.Join(p.Interests, ", "))
	}
	if p.Bio != nil && *p.Bio != "" {
		fmt.Fprintf(&sb, ". Bio: %q", *p.Bio)
	}
	return sb.String()
}
