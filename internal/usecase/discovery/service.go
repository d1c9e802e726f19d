package discovery

import (
	"context"
	"fmt"
	"sync"

	"github.com/gdugdh24/mpit2026-discovery/internal/domain"
	"github.com/gdugdh24/mpit2026-discovery/internal/geo"
	"github.com/gdugdh24/mpit2026-discovery/internal/logging"
	"github.com/gdugdh24/mpit2026-discovery/internal/repository"
	"github.com/gdugdh24/mpit2026-discovery/internal/usecase/compatibility"
	"github.com/gdugdh24/mpit2026-discovery/internal/usecase/entitlement"
	"github.com/gdugdh24/mpit2026-discovery/internal/usecase/feed"
	"github.com/gdugdh24/mpit2026-discovery/internal/usecase/swipe"
)

// SessionInfo describes a freshly built queue.
type SessionInfo struct {
	QueueSize   int              `json:"queue_size"`
	Generation  uint64           `json:"generation"`
	Location    *geo.Coordinates `json:"location,omitempty"`
	HasLocation bool             `json:"has_location"`
}

type Service struct {
	registry    *Registry
	pool        *feed.CandidatePool
	scorer      *compatibility.Scorer
	swipes      *swipe.Processor
	gate        *entitlement.Gate
	locator     *geo.Locator
	profileRepo repository.ProfileRepository
	log         logging.Logger

	scoring sync.WaitGroup
}

func NewService(
	registry *Registry,
	pool *feed.CandidatePool,
	scorer *compatibility.Scorer,
	swipes *swipe.Processor,
	gate *entitlement.Gate,
	locator *geo.Locator,
	profileRepo repository.ProfileRepository,
	log logging.Logger,
) *Service {
	return &Service{
		registry:    registry,
		pool:        pool,
		scorer:      scorer,
		swipes:      swipes,
		gate:        gate,
		locator:     locator,
		profileRepo: profileRepo,
		log:         log,
	}
}

// StartSession resolves the viewer's location, builds a new queue and installs
// it as the viewer's session. position may be nil.
func (s *Service) StartSession(ctx context.Context, viewerID string, position *geo.Position) (*SessionInfo, error) {
	viewer, err := s.profileRepo.GetByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	var provider geo.Provider
	if position != nil {
		provider = geo.Reported{Position: position}
	}
	coords := s.locator.Resolve(ctx, viewer, provider)

	queue, err := s.pool.BuildQueue(ctx, viewer)
	if err != nil {
		return nil, err
	}

	session := s.registry.Reset(viewer, queue)
	s.log.Info(ctx, "discovery session started", "viewer_id", viewerID, "queue_size", len(queue), "has_location", coords != nil)

	return &SessionInfo{
		QueueSize:   len(queue),
		Generation:  session.Generation(),
		Location:    coords,
		HasLocation: coords != nil,
	}, nil
}

// Current returns the card under the cursor. The first time a card is shown
// on a given day it is counted against the daily matches allowance, also
// across refreshes, and scoring starts in the background; later calls return
// the same card with any score that arrived.
func (s *Service) Current(ctx context.Context, viewerID, day string) (*Card, error) {
	session, ok := s.registry.Get(viewerID)
	if !ok {
		return nil, domain.ErrNoSession
	}

	session.opMu.Lock()
	defer session.opMu.Unlock()

	cur, gen, ok := session.Head()
	if !ok {
		return nil, domain.ErrQueueExhausted
	}

	if !session.IsCharged(day, cur.ID()) {
		err := s.gate.Consume(ctx, viewerID, day, domain.UsageMatches, func(ctx context.Context) error {
			session.MarkCharged(day, cur.ID())
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	session.MarkShown(gen, cur.ID())

	s.ensureScoring(ctx, session, cur)

	card, ok := session.Card()
	if !ok {
		return nil, domain.ErrQueueExhausted
	}
	return card, nil
}

// ensureScoring requests a score for candidate unless one was already requested.
func (s *Service) ensureScoring(ctx context.Context, session *Session, candidate *domain.DiscoverCandidate) {
	gen := session.Generation()
	if !session.MarkPending(gen, candidate.ID()) {
		return
	}

	viewer := session.Viewer()
	bg := context.WithoutCancel(ctx)
	s.scoring.Add(1)
	go func() {
		defer s.scoring.Done()

		annotation, err := s.scorer.Score(bg, viewer, candidate.Profile)
		if err != nil {
			if !session.MarkUnavailable(gen, candidate.ID()) {
				s.log.Debug(bg, "discarded stale scoring failure", "viewer_id", viewer.ID, "candidate_id", candidate.ID())
			}
			return
		}
		if !session.AttachAnnotation(gen, candidate.ID(), annotation) {
			s.log.Debug(bg, "discarded stale score", "viewer_id", viewer.ID, "candidate_id", candidate.ID())
		}
	}()
}

// Swipe records the viewer's decision on the current card and advances the
// cursor once the swipe is stored. A failed persist leaves the cursor in place.
func (s *Service) Swipe(ctx context.Context, viewerID, candidateID string, direction domain.Direction) (*swipe.Result, error) {
	session, ok := s.registry.Get(viewerID)
	if !ok {
		return nil, domain.ErrNoSession
	}

	session.opMu.Lock()
	defer session.opMu.Unlock()

	cur, gen, ok := session.Head()
	if !ok {
		return nil, domain.ErrQueueExhausted
	}
	if cur.ID() != candidateID {
		return nil, fmt.Errorf("%w: current card is %s", domain.ErrNotCurrentCandidate, cur.ID())
	}
	if !session.IsShown(gen, candidateID) {
		return nil, fmt.Errorf("%w: card has not been shown", domain.ErrNotCurrentCandidate)
	}

	result, err := s.swipes.RecordSwipe(ctx, viewerID, candidateID, direction)
	if err != nil {
		return nil, err
	}

	if !session.AdvancePast(gen, candidateID) {
		s.log.Debug(ctx, "queue refreshed during swipe, cursor left in place", "viewer_id", viewerID, "candidate_id", candidateID)
	}
	return result, nil
}

// WaitScoring blocks until background scoring requests finish. Used on shutdown.
func (s *Service) WaitScoring() {
	s.scoring.Wait()
}
