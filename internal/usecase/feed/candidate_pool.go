// Package feed builds the ordered queue of candidates a viewer can swipe on.
package feed

import (
	"context"
	"fmt"

	"github.com/gdugdh24/mpit2026-discovery/internal/domain"
	"github.com/gdugdh24/mpit2026-discovery/internal/geo"
	"github.com/gdugdh24/mpit2026-discovery/internal/logging"
	"github.com/gdugdh24/mpit2026-discovery/internal/metrics"
	"github.com/gdugdh24/mpit2026-discovery/internal/repository"
	"golang.org/x/sync/errgroup"
)

// MaxQueueSize caps how many candidates one queue holds.
const MaxQueueSize = 50

type CandidatePool struct {
	profileRepo repository.ProfileRepository
	photoRepo   repository.PhotoRepository
	swipeRepo   repository.SwipeRepository
	blockRepo   repository.BlockRepository
	maxSize     int
	log         logging.Logger
}

func NewCandidatePool(
	profileRepo repository.ProfileRepository,
	photoRepo repository.PhotoRepository,
	swipeRepo repository.SwipeRepository,
	blockRepo repository.BlockRepository,
	maxSize int,
	log logging.Logger,
) *CandidatePool {
	if maxSize <= 0 || maxSize > MaxQueueSize {
		maxSize = MaxQueueSize
	}
	return &CandidatePool{
		profileRepo: profileRepo,
		photoRepo:   photoRepo,
		swipeRepo:   swipeRepo,
		blockRepo:   blockRepo,
		maxSize:     maxSize,
		log:         log,
	}
}

// BuildQueue returns the candidates the viewer has not swiped on, filtered by
// the viewer's preferences. The viewer's coordinates, when present, drive the
// distance annotation and the max-distance filter.
func (p *CandidatePool) BuildQueue(ctx context.Context, viewer *domain.Profile) ([]*domain.DiscoverCandidate, error) {
	var (
		profiles   []*domain.Profile
		swipedIDs  []string
		blockedIDs []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profiles, err = p.profileRepo.Search(gctx, repository.ProfileFilter{
			ExcludeID: viewer.ID,
			Genders:   viewer.GenderPreference,
			MinAge:    viewer.MinAge,
			MaxAge:    viewer.MaxAge,
		})
		return err
	})
	g.Go(func() error {
		var err error
		swipedIDs, err = p.swipeRepo.SwipedIDs(gctx, viewer.ID)
		return err
	})
	g.Go(func() error {
		var err error
		blockedIDs, err = p.blockRepo.BlockedIDs(gctx, viewer.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		p.log.Error(ctx, "candidate pool fetch failed", "viewer_id", viewer.ID, "error", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrPoolFetchFailed, err)
	}

	excluded := make(map[string]struct{}, len(swipedIDs)+len(blockedIDs)+1)
	excluded[viewer.ID] = struct{}{}
	for _, id := range swipedIDs {
		excluded[id] = struct{}{}
	}
	for _, id := range blockedIDs {
		excluded[id] = struct{}{}
	}

	queue := make([]*domain.DiscoverCandidate, 0, p.maxSize)
	ids := make([]string, 0, p.maxSize)
	for _, candidate := range profiles {
		if len(queue) == p.maxSize {
			break
		}
		if _, skip := excluded[candidate.ID]; skip {
			continue
		}
		if !viewer.AcceptsGender(candidate.Gender) || !viewer.AcceptsAge(candidate.Age) {
			continue
		}

		distance := geo.Between(viewer.Latitude, viewer.Longitude, candidate.Latitude, candidate.Longitude)
		if distance != nil && viewer.MaxDistance != nil && *distance > *viewer.MaxDistance {
			continue
		}

		// a profile appears at most once per queue
		excluded[candidate.ID] = struct{}{}
		queue = append(queue, &domain.DiscoverCandidate{Profile: candidate, DistanceMiles: distance})
		ids = append(ids, candidate.ID)
	}

	if len(ids) > 0 {
		photos, err := p.photoRepo.ListByProfiles(ctx, ids)
		if err != nil {
			p.log.Error(ctx, "candidate photo fetch failed", "viewer_id", viewer.ID, "error", err)
			return nil, fmt.Errorf("%w: %w", domain.ErrPoolFetchFailed, err)
		}
		for _, c := range queue {
			c.Photos = photos[c.ID()]
			if c.Photos == nil {
				c.Photos = []*domain.Photo{}
			}
		}
	}

	metrics.QueueSize.Observe(float64(len(queue)))
	p.log.Debug(ctx, "discovery queue built", "viewer_id", viewer.ID, "size", len(queue))
	return queue, nil
}
