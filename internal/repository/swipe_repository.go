package repository

import (
	"context"

	"github.com/gdugdh24/mpit2026-discovery/internal/domain"
)

type SwipeRepository interface {
	// CreateIfAbsent inserts the swipe unless one exists for the pair.
	// created is false when a swipe was already recorded.
	CreateIfAbsent(ctx context.Context, swipe *domain.Swipe) (created bool, err error)
	GetByProfiles(ctx context.Context, swiperID, swipedID string) (*domain.Swipe, error)
	HasLike(ctx context.Context, swiperID, swipedID string) (bool, error)
	// SwipedIDs returns every profile swiperID has swiped, in either direction.
	SwipedIDs(ctx context.Context, swiperID string) ([]string, error)
}
