// Package discovery drives a viewer through their candidate queue: surfacing
// cards, attaching compatibility scores as they arrive, and recording swipes.
package discovery

import (
	"sync"
	"time"

	"github.com/gdugdh24/mpit2026-discovery/internal/domain"
)

// ScoreState tracks the compatibility request for one candidate.
type ScoreState string

const (
	ScoreNone        ScoreState = ""
	ScorePending     ScoreState = "pending"
	ScoreReady       ScoreState = "ready"
	ScoreUnavailable ScoreState = "unavailable"
)

// Card is a snapshot of the current candidate as returned to the client.
type Card struct {
	Candidate  *domain.DiscoverCandidate       `json:"candidate"`
	Annotation *domain.CompatibilityAnnotation `json:"annotation,omitempty"`
	ScoreState ScoreState                      `json:"score_state"`
	Position   int                             `json:"position"`
	QueueSize  int                             `json:"queue_size"`
	Generation uint64                          `json:"generation"`
}

// Session is one viewer's pass over a candidate queue. State transitions lock
// mu briefly; opMu serializes whole viewer operations (showing a card,
// swiping) so swipes persist in the order they were issued.
type Session struct {
	opMu sync.Mutex

	mu          sync.Mutex
	viewer      *domain.Profile
	queue       []*domain.DiscoverCandidate
	cursor      int
	generation  uint64
	annotations map[string]*domain.CompatibilityAnnotation
	scores      map[string]ScoreState
	shown       map[string]bool
	lastActive  time.Time

	// cards counted against the allowance on chargedDay; kept across resets
	chargedDay string
	charged    map[string]bool
}

func NewSession(viewer *domain.Profile, queue []*domain.DiscoverCandidate, now time.Time) *Session {
	s := &Session{}
	s.reset(viewer, queue, now)
	return s
}

// reset replaces the queue and starts a new generation. Results for the old
// generation are discarded when they arrive. Charged cards survive a reset.
func (s *Session) reset(viewer *domain.Profile, queue []*domain.DiscoverCandidate, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.viewer = viewer
	s.queue = queue
	s.cursor = 0
	s.generation++
	s.annotations = make(map[string]*domain.CompatibilityAnnotation)
	s.scores = make(map[string]ScoreState)
	s.shown = make(map[string]bool)
	s.lastActive = now
}

func (s *Session) Viewer() *domain.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewer
}

func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

func (s *Session) QueueSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Current returns the candidate under the cursor, false once the queue is exhausted.
func (s *Session) Current() (*domain.DiscoverCandidate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current()
}

func (s *Session) current() (*domain.DiscoverCandidate, bool) {
	if s.cursor >= len(s.queue) {
		return nil, false
	}
	return s.queue[s.cursor], true
}

// Head returns the current candidate together with the generation it belongs to.
func (s *Session) Head() (*domain.DiscoverCandidate, uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.current()
	return cur, s.generation, ok
}

// AdvancePast moves past candidateID only if it is still the current card of
// generation gen. A refresh in between leaves the new queue untouched.
func (s *Session) AdvancePast(gen uint64, candidateID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isCurrent(gen, candidateID) {
		return false
	}
	s.cursor++
	return true
}

// Advance moves past the current candidate and returns the next one, if any.
func (s *Session) Advance() (*domain.DiscoverCandidate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor < len(s.queue) {
		s.cursor++
	}
	return s.current()
}

// MarkPending records that scoring for candidateID is in flight. It returns
// false when the candidate was already requested in this generation, so each
// candidate is scored at most once per queue.
func (s *Session) MarkPending(gen uint64, candidateID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || s.scores[candidateID] != ScoreNone {
		return false
	}
	s.scores[candidateID] = ScorePending
	return true
}

// AttachAnnotation applies a score result if it still belongs to the current
// card of the same generation. Stale results are dropped and false is returned.
func (s *Session) AttachAnnotation(gen uint64, candidateID string, a *domain.CompatibilityAnnotation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isCurrent(gen, candidateID) {
		return false
	}
	s.annotations[candidateID] = a
	s.scores[candidateID] = ScoreReady
	return true
}

// MarkUnavailable records a failed score for the current card. The card is
// still shown, just without a score.
func (s *Session) MarkUnavailable(gen uint64, candidateID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isCurrent(gen, candidateID) {
		return false
	}
	s.scores[candidateID] = ScoreUnavailable
	return true
}

func (s *Session) isCurrent(gen uint64, candidateID string) bool {
	if gen != s.generation {
		return false
	}
	cur, ok := s.current()
	return ok && cur.ID() == candidateID
}

// IsCharged reports whether the card for candidateID was already counted on day.
func (s *Session) IsCharged(day, candidateID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chargedDay == day && s.charged[candidateID]
}

// MarkCharged records that the card was counted against day's allowance.
// Entries from an earlier day are dropped.
func (s *Session) MarkCharged(day, candidateID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chargedDay != day || s.charged == nil {
		s.chargedDay = day
		s.charged = make(map[string]bool)
	}
	s.charged[candidateID] = true
}

// MarkShown records that candidateID was shown in generation gen.
func (s *Session) MarkShown(gen uint64, candidateID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.generation {
		s.shown[candidateID] = true
	}
}

// IsShown reports whether candidateID was shown in generation gen.
func (s *Session) IsShown(gen uint64, candidateID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen == s.generation && s.shown[candidateID]
}

// Card snapshots the current candidate with whatever score is known.
func (s *Session) Card() (*Card, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.current()
	if !ok {
		return nil, false
	}
	return &Card{
		Candidate:  cur,
		Annotation: s.annotations[cur.ID()],
		ScoreState: s.scores[cur.ID()],
		Position:   s.cursor,
		QueueSize:  len(s.queue),
		Generation: s.generation,
	}, true
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = now
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}
