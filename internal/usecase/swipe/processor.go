// Package swipe records swipe decisions and turns mutual likes into matches.
package swipe

import (
	"context"
	"errors"
	"fmt"

	"github.com/gdugdh24/mpit2026-discovery/internal/domain"
	"github.com/gdugdh24/mpit2026-discovery/internal/geo"
	"github.com/gdugdh24/mpit2026-discovery/internal/logging"
	"github.com/gdugdh24/mpit2026-discovery/internal/metrics"
	"github.com/gdugdh24/mpit2026-discovery/internal/repository"
)

// MatchNotifier receives MatchCreated events. Implementations must be safe for concurrent use.
type MatchNotifier interface {
	NotifyMatch(ctx context.Context, event *domain.MatchCreated) error
}

// LogNotifier only logs events. Used when no broker is configured.
type LogNotifier struct {
	Log logging.Logger
}

func (n LogNotifier) NotifyMatch(ctx context.Context, event *domain.MatchCreated) error {
	n.Log.Info(ctx, "match created", "match_id", event.MatchID, "profile_a_id", event.ProfileAID, "profile_b_id", event.ProfileBID)
	return nil
}

// Result is the outcome of one swipe.
type Result struct {
	Matched   bool            `json:"matched"`
	Duplicate bool            `json:"duplicate,omitempty"`
	Match     *domain.Match   `json:"match,omitempty"`
	Partner   *MatchedProfile `json:"partner,omitempty"`
}

// MatchedProfile is the other side of a match as shown to the viewer.
type MatchedProfile struct {
	ID            string   `json:"id"`
	DisplayName   string   `json:"display_name"`
	Age           int      `json:"age"`
	Bio           *string  `json:"bio"`
	City          *string  `json:"city"`
	Interests     []string `json:"interests"`
	DistanceMiles *int     `json:"distance_miles,omitempty"`
}

// MatchView is one entry of the viewer's match list.
type MatchView struct {
	*domain.Match
	Partner *MatchedProfile `json:"partner"`
}

type Processor struct {
	swipeRepo   repository.SwipeRepository
	matchRepo   repository.MatchRepository
	profileRepo repository.ProfileRepository
	notifier    MatchNotifier
	log         logging.Logger
}

func NewProcessor(
	swipeRepo repository.SwipeRepository,
	matchRepo repository.MatchRepository,
	profileRepo repository.ProfileRepository,
	notifier MatchNotifier,
	log logging.Logger,
) *Processor {
	if notifier == nil {
		notifier = LogNotifier{Log: log}
	}
	return &Processor{
		swipeRepo:   swipeRepo,
		matchRepo:   matchRepo,
		profileRepo: profileRepo,
		notifier:    notifier,
		log:         log,
	}
}

// RecordSwipe persists the viewer's decision on candidateID. A like that is
// already reciprocated creates the pair's match once. Repeating a swipe keeps
// the first decision; a repeated like finishes a match whose creation failed
// earlier. A failed match step after the swipe is stored returns
// ErrSwipePersistFailed so the client retries the same swipe.
func (p *Processor) RecordSwipe(ctx context.Context, viewerID, candidateID string, direction domain.Direction) (*Result, error) {
	if !direction.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidDirection, direction)
	}
	if viewerID == candidateID {
		return nil, domain.ErrCannotSwipeSelf
	}

	swipe := &domain.Swipe{SwiperID: viewerID, SwipedID: candidateID, Direction: direction}
	created, err := p.swipeRepo.CreateIfAbsent(ctx, swipe)
	if err != nil {
		metrics.SwipesTotal.WithLabelValues(string(direction), "error").Inc()
		p.log.Error(ctx, "failed to persist swipe", "viewer_id", viewerID, "candidate_id", candidateID, "error", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrSwipePersistFailed, err)
	}

	if !created {
		metrics.SwipesTotal.WithLabelValues(string(direction), "duplicate").Inc()
		p.log.Debug(ctx, "duplicate swipe ignored", "viewer_id", viewerID, "candidate_id", candidateID)
		return p.existingState(ctx, viewerID, candidateID)
	}
	metrics.SwipesTotal.WithLabelValues(string(direction), "recorded").Inc()

	if direction == domain.DirectionDislike {
		return &Result{Matched: false}, nil
	}
	return p.matchIfMutual(ctx, viewerID, candidateID)
}

// matchIfMutual creates the pair's match when candidateID already likes viewerID.
// The insert is idempotent, so only the call that created the row notifies.
func (p *Processor) matchIfMutual(ctx context.Context, viewerID, candidateID string) (*Result, error) {
	mutual, err := p.swipeRepo.HasLike(ctx, candidateID, viewerID)
	if err != nil {
		p.log.Error(ctx, "reciprocal like lookup failed", "viewer_id", viewerID, "candidate_id", candidateID, "error", err)
		return nil, fmt.Errorf("%w: reciprocal like lookup: %w", domain.ErrSwipePersistFailed, err)
	}
	if !mutual {
		return &Result{Matched: false}, nil
	}

	match := &domain.Match{ProfileAID: viewerID, ProfileBID: candidateID}
	matchCreated, err := p.matchRepo.CreateIfAbsent(ctx, match)
	if err != nil {
		p.log.Error(ctx, "failed to create match", "viewer_id", viewerID, "candidate_id", candidateID, "error", err)
		return nil, fmt.Errorf("%w: create match: %w", domain.ErrSwipePersistFailed, err)
	}

	if matchCreated {
		metrics.MatchesTotal.Inc()
		if err := p.notifier.NotifyMatch(ctx, domain.NewMatchCreated(match)); err != nil {
			p.log.Warn(ctx, "failed to publish match event", "match_id", match.ID, "error", err)
		}
	}

	return &Result{Matched: true, Match: match, Partner: p.partner(ctx, viewerID, candidateID)}, nil
}

// existingState answers a repeated swipe. It writes only when the stored swipe
// is a like that is reciprocated but has no match row yet.
func (p *Processor) existingState(ctx context.Context, viewerID, candidateID string) (*Result, error) {
	match, err := p.matchRepo.GetByProfiles(ctx, viewerID, candidateID)
	if err == nil {
		return &Result{Matched: true, Duplicate: true, Match: match, Partner: p.partner(ctx, viewerID, candidateID)}, nil
	}
	if !errors.Is(err, domain.ErrMatchNotFound) {
		p.log.Warn(ctx, "match lookup failed for duplicate swipe", "viewer_id", viewerID, "error", err)
		return nil, fmt.Errorf("%w: match lookup: %w", domain.ErrSwipePersistFailed, err)
	}

	liked, err := p.swipeRepo.HasLike(ctx, viewerID, candidateID)
	if err != nil {
		return nil, fmt.Errorf("%w: stored swipe lookup: %w", domain.ErrSwipePersistFailed, err)
	}
	if !liked {
		return &Result{Matched: false, Duplicate: true}, nil
	}

	result, err := p.matchIfMutual(ctx, viewerID, candidateID)
	if err != nil {
		return nil, err
	}
	result.Duplicate = true
	return result, nil
}

// ListMatches returns the viewer's matches, newest first, with partner summaries.
func (p *Processor) ListMatches(ctx context.Context, viewerID string) ([]*MatchView, error) {
	matches, err := p.matchRepo.ListByProfile(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}

	views := make([]*MatchView, 0, len(matches))
	for _, m := range matches {
		otherID, ok := m.OtherProfileID(viewerID)
		if !ok {
			continue
		}
		views = append(views, &MatchView{Match: m, Partner: p.partner(ctx, viewerID, otherID)})
	}
	return views, nil
}

// partner loads the other profile for display; a missing profile yields nil.
func (p *Processor) partner(ctx context.Context, viewerID, otherID string) *MatchedProfile {
	other, err := p.profileRepo.GetByID(ctx, otherID)
	if err != nil {
		p.log.Warn(ctx, "failed to load matched profile", "profile_id", otherID, "error", err)
		return nil
	}

	mp := &MatchedProfile{
		ID:          other.ID,
		DisplayName: other.DisplayName,
		Age:         other.Age,
		Bio:         other.Bio,
		City:        other.City,
		Interests:   other.Interests,
	}
	if viewer, err := p.profileRepo.GetByID(ctx, viewerID); err == nil {
		mp.DistanceMiles = geo.Between(viewer.Latitude, viewer.Longitude, other.Latitude, other.Longitude)
	}
	return mp
}
