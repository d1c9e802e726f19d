package repository

import (
	"context"
	"time"

	"github.com/gdugdh24/mpit2026-discovery/internal/domain"
)

// ProfileFilter narrows a profile scan. Zero values mean "no constraint".
type ProfileFilter struct {
	ExcludeID string
	Genders   []string
	MinAge    int
	MaxAge    int
	City      string
	Limit     int
}

type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	Search(ctx context.Context, filter ProfileFilter) ([]*domain.Profile, error)
	UpdateLocation(ctx context.Context, id string, lat, lng float64, at time.Time) error
}

type PhotoRepository interface {
	// ListByProfiles returns photos grouped by profile id, each group ordered by OrderIndex.
	ListByProfiles(ctx context.Context, profileIDs []string) (map[string][]*domain.Photo, error)
}

type BlockRepository interface {
	// BlockedIDs returns profiles blocked by or blocking profileID.
	BlockedIDs(ctx context.Context, profileID string) ([]string, error)
}
