package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gdugdh24/mpit2026-discovery/internal/domain"
	"github.com/gdugdh24/mpit2026-discovery/internal/repository"
	"github.com/google/uuid"
)

type profileRepository struct{ s *Store }

func (r *profileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.profiles[id]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *profileRepository) Search(ctx context.Context, filter repository.ProfileFilter) ([]*domain.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*domain.Profile
	for i := len(r.s.profileOrder) - 1; i >= 0; i-- {
		p := r.s.profiles[r.s.profileOrder[i]]
		if !matchesFilter(p, filter) {
			continue
		}
		cp := *p
		out = append(out, &cp)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func matchesFilter(p *domain.Profile, f repository.ProfileFilter) bool {
	if f.ExcludeID != "" && p.ID == f.ExcludeID {
		return false
	}
	if len(f.Genders) > 0 {
		found := false
		for _, g := range f.Genders {
			if strings.EqualFold(g, p.Gender) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.MinAge > 0 && p.Age < f.MinAge {
		return false
	}
	if f.MaxAge > 0 && p.Age > f.MaxAge {
		return false
	}
	if f.City != "" && (p.City == nil || !strings.EqualFold(*p.City, f.City)) {
		return false
	}
	return true
}

func (r *profileRepository) UpdateLocation(ctx context.Context, id string, lat, lng float64, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.profiles[id]
	if !ok {
		return domain.ErrProfileNotFound
	}
	p.Latitude = &lat
	p.Longitude = &lng
	p.LocationUpdatedAt = &at
	p.UpdatedAt = r.s.now()
	return nil
}

type photoRepository struct{ s *Store }

func (r *photoRepository) ListByProfiles(ctx context.Context, profileIDs []string) (map[string][]*domain.Photo, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	grouped := make(map[string][]*domain.Photo, len(profileIDs))
	for _, id := range profileIDs {
		for _, p := range r.s.photos[id] {
			cp := *p
			grouped[id] = append(grouped[id], &cp)
		}
	}
	return grouped, nil
}

type blockRepository struct{ s *Store }

func (r *blockRepository) BlockedIDs(ctx context.Context, profileID string) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	seen := make(map[string]struct{})
	var ids []string
	add := func(id string) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	for blocked := range r.s.blocks[profileID] {
		add(blocked)
	}
	for blocker, set := range r.s.blocks {
		if _, ok := set[profileID]; ok {
			add(blocker)
		}
	}
	return ids, nil
}

type swipeRepository struct{ s *Store }

func (r *swipeRepository) CreateIfAbsent(ctx context.Context, swipe *domain.Swipe) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := swipeKey{swipe.SwiperID, swipe.SwipedID}
	if _, exists := r.s.swipes[key]; exists {
		return false, nil
	}
	if swipe.ID == "" {
		swipe.ID = uuid.NewString()
	}
	swipe.CreatedAt = r.s.now()
	cp := *swipe
	r.s.swipes[key] = &cp
	return true, nil
}

func (r *swipeRepository) GetByProfiles(ctx context.Context, swiperID, swipedID string) (*domain.Swipe, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	swipe, ok := r.s.swipes[swipeKey{swiperID, swipedID}]
	if !ok {
		return nil, nil
	}
	cp := *swipe
	return &cp, nil
}

func (r *swipeRepository) HasLike(ctx context.Context, swiperID, swipedID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	swipe, ok := r.s.swipes[swipeKey{swiperID, swipedID}]
	return ok && swipe.Direction == domain.DirectionLike, nil
}

func (r *swipeRepository) SwipedIDs(ctx context.Context, swiperID string) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var ids []string
	for key := range r.s.swipes {
		if key.swiper == swiperID {
			ids = append(ids, key.swiped)
		}
	}
	return ids, nil
}

type matchRepository struct{ s *Store }

func (r *matchRepository) CreateIfAbsent(ctx context.Context, match *domain.Match) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	match.ProfileAID, match.ProfileBID = domain.CanonicalPair(match.ProfileAID, match.ProfileBID)
	key := swipeKey{match.ProfileAID, match.ProfileBID}
	if id, exists := r.s.matchByPair[key]; exists {
		*match = *r.s.matches[id]
		return false, nil
	}
	if match.ID == "" {
		match.ID = uuid.NewString()
	}
	match.CreatedAt = r.s.now()
	cp := *match
	r.s.matches[match.ID] = &cp
	r.s.matchByPair[key] = match.ID
	return true, nil
}

func (r *matchRepository) GetByID(ctx context.Context, id string) (*domain.Match, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.matches[id]
	if !ok {
		return nil, domain.ErrMatchNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *matchRepository) GetByProfiles(ctx context.Context, profileAID, profileBID string) (*domain.Match, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, b := domain.CanonicalPair(profileAID, profileBID)
	id, ok := r.s.matchByPair[swipeKey{a, b}]
	if !ok {
		return nil, domain.ErrMatchNotFound
	}
	cp := *r.s.matches[id]
	return &cp, nil
}

func (r *matchRepository) ListByProfile(ctx context.Context, profileID string) ([]*domain.Match, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*domain.Match
	for _, m := range r.s.matches {
		if m.HasProfile(profileID) {
			cp := *m
			out = append(out, &cp)
		}
	}
	sortMatchesNewestFirst(out)
	return out, nil
}

type openerRepository struct{ s *Store }

func (r *openerRepository) Create(ctx context.Context, opener *domain.Opener) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.matches[opener.MatchID]; !ok {
		return domain.ErrMatchNotFound
	}
	if opener.ID == "" {
		opener.ID = uuid.NewString()
	}
	opener.CreatedAt = r.s.now()
	cp := *opener
	r.s.openers = append(r.s.openers, &cp)
	return nil
}

type usageRepository struct{ s *Store }

func (r *usageRepository) GetOrCreate(ctx context.Context, profileID, day string) (*domain.DailyUsage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cp := *r.row(profileID, day)
	return &cp, nil
}

func (r *usageRepository) Increment(ctx context.Context, profileID, day string, kind domain.UsageKind) (*domain.DailyUsage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u := r.row(profileID, day)
	switch kind {
	case domain.UsageMatches:
		u.MatchesShown++
	case domain.UsageAIPrompts:
		u.AIPromptsUsed++
	case domain.UsageOpeners:
		u.OpenersSent++
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidUsageKind, kind)
	}
	cp := *u
	return &cp, nil
}

// row must be called with the lock held.
func (r *usageRepository) row(profileID, day string) *domain.DailyUsage {
	key := usageKey{profileID, day}
	u, ok := r.s.usage[key]
	if !ok {
		u = &domain.DailyUsage{ProfileID: profileID, Date: day}
		r.s.usage[key] = u
	}
	return u
}

type subscriptionRepository struct{ s *Store }

func (r *subscriptionRepository) GetByProfileID(ctx context.Context, profileID string) (*domain.SubscriptionState, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	state, ok := r.s.subscriptions[profileID]
	if !ok {
		return domain.FreeSubscription(profileID), nil
	}
	cp := *state
	return &cp, nil
}
