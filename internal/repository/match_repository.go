package repository

import (
	"context"

	"github.com/gdugdh24/mpit2026-discovery/internal/domain"
)

type MatchRepository interface {
	// CreateIfAbsent stores the match under its canonical pair.
	// created is false when the pair already had a match; match is then filled from storage.
	CreateIfAbsent(ctx context.Context, match *domain.Match) (created bool, err error)
	GetByID(ctx context.Context, id string) (*domain.Match, error)
	GetByProfiles(ctx context.Context, profileAID, profileBID string) (*domain.Match, error)
	ListByProfile(ctx context.Context, profileID string) ([]*domain.Match, error)
}

type OpenerRepository interface {
	Create(ctx context.Context, opener *domain.Opener) error
}
