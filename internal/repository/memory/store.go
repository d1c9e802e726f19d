// Package memory is an in-process implementation of the repository interfaces,
// used for local development (STORAGE_TYPE=memory) and usecase tests.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/gdugdh24/mpit2026-discovery/internal/domain"
	"github.com/gdugdh24/mpit2026-discovery/internal/repository"
)

type swipeKey struct{ swiper, swiped string }

type usageKey struct{ profile, day string }

// Store holds every table behind one lock.
type Store struct {
	mu sync.RWMutex

	profiles      map[string]*domain.Profile
	profileOrder  []string
	photos        map[string][]*domain.Photo
	blocks        map[string]map[string]struct{}
	swipes        map[swipeKey]*domain.Swipe
	matches       map[string]*domain.Match
	matchByPair   map[swipeKey]string
	openers       []*domain.Opener
	usage         map[usageKey]*domain.DailyUsage
	subscriptions map[string]*domain.SubscriptionState

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		profiles:      make(map[string]*domain.Profile),
		photos:        make(map[string][]*domain.Photo),
		blocks:        make(map[string]map[string]struct{}),
		swipes:        make(map[swipeKey]*domain.Swipe),
		matches:       make(map[string]*domain.Match),
		matchByPair:   make(map[swipeKey]string),
		usage:         make(map[usageKey]*domain.DailyUsage),
		subscriptions: make(map[string]*domain.SubscriptionState),
		now:           time.Now,
	}
}

func (s *Store) Profiles() repository.ProfileRepository { return &profileRepository{s} }

func (s *Store) Photos() repository.PhotoRepository { return &photoRepository{s} }

func (s *Store) Blocks() repository.BlockRepository { return &blockRepository{s} }

func (s *Store) Swipes() repository.SwipeRepository { return &swipeRepository{s} }

func (s *Store) Matches() repository.MatchRepository { return &matchRepository{s} }

func (s *Store) Openers() repository.OpenerRepository { return &openerRepository{s} }

func (s *Store) Usage() repository.UsageRepository { return &usageRepository{s} }

func (s *Store) Subscriptions() repository.SubscriptionRepository { return &subscriptionRepository{s} }

// AddProfile inserts or replaces a profile. Search returns profiles newest-first,
// so later additions come out earlier.
func (s *Store) AddProfile(p *domain.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.profiles[p.ID]; !exists {
		s.profileOrder = append(s.profileOrder, p.ID)
	}
	cp := *p
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = s.now()
	}
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = cp.CreatedAt
	}
	s.profiles[p.ID] = &cp
}

func (s *Store) AddPhoto(photo *domain.Photo) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *photo
	list := append(s.photos[photo.ProfileID], &cp)
	sort.SliceStable(list, func(i, j int) bool { return list[i].OrderIndex < list[j].OrderIndex })
	s.photos[photo.ProfileID] = list
}

func (s *Store) Block(blockerID, blockedID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.blocks[blockerID] == nil {
		s.blocks[blockerID] = make(map[string]struct{})
	}
	s.blocks[blockerID][blockedID] = struct{}{}
}

func (s *Store) SetSubscription(state *domain.SubscriptionState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *state
	s.subscriptions[state.ProfileID] = &cp
}

// OpenersFor returns the openers recorded for a match, oldest first.
func (s *Store) OpenersFor(matchID string) []*domain.Opener {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Opener
	for _, o := range s.openers {
		if o.MatchID == matchID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out
}

func sortMatchesNewestFirst(matches []*domain.Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
}
