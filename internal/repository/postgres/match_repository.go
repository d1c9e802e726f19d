package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gdugdh24/mpit2026-discovery/internal/domain"
	"github.com/gdugdh24/mpit2026-discovery/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const matchColumns = `id, profile_a_id, profile_b_id, created_at`

type matchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) repository.MatchRepository {
	return &matchRepository{db: db}
}

func (r *matchRepository) CreateIfAbsent(ctx context.Context, match *domain.Match) (bool, error) {
	// profile_a_id < profile_b_id is enforced by a check constraint
	match.ProfileAID, match.ProfileBID = domain.CanonicalPair(match.ProfileAID, match.ProfileBID)
	if match.ID == "" {
		match.ID = uuid.NewString()
	}

	query := `
		INSERT INTO matches (id, profile_a_id, profile_b_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (profile_a_id, profile_b_id) DO NOTHING
		RETURNING created_at
	`
	err := r.db.QueryRowxContext(ctx, query, match.ID, match.ProfileAID, match.ProfileBID).Scan(&match.CreatedAt)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("insert match: %w", err)
	}

	existing, err := r.GetByProfiles(ctx, match.ProfileAID, match.ProfileBID)
	if err != nil {
		return false, err
	}
	*match = *existing
	return false, nil
}

func (r *matchRepository) GetByID(ctx context.Context, id string) (*domain.Match, error) {
	var match domain.Match
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	err := r.db.GetContext(ctx, &match, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMatchNotFound
		}
		return nil, fmt.Errorf("get match: %w", err)
	}
	return &match, nil
}

func (r *matchRepository) GetByProfiles(ctx context.Context, profileAID, profileBID string) (*domain.Match, error) {
	profileAID, profileBID = domain.CanonicalPair(profileAID, profileBID)

	var match domain.Match
	query := `SELECT ` + matchColumns + ` FROM matches WHERE profile_a_id = $1 AND profile_b_id = $2`
	err := r.db.GetContext(ctx, &match, query, profileAID, profileBID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMatchNotFound
		}
		return nil, fmt.Errorf("get match by profiles: %w", err)
	}
	return &match, nil
}

func (r *matchRepository) ListByProfile(ctx context.Context, profileID string) ([]*domain.Match, error) {
	var matches []*domain.Match
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE profile_a_id = $1 OR profile_b_id = $1
		ORDER BY created_at DESC
	`
	if err := r.db.SelectContext(ctx, &matches, query, profileID); err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	return matches, nil
}

type openerRepository struct {
	db *sqlx.DB
}

func NewOpenerRepository(db *sqlx.DB) repository.OpenerRepository {
	return &openerRepository{db: db}
}

func (r *openerRepository) Create(ctx context.Context, opener *domain.Opener) error {
	if opener.ID == "" {
		opener.ID = uuid.NewString()
	}
	query := `
		INSERT INTO openers (id, match_id, sender_id, body)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	if err := r.db.QueryRowxContext(ctx, query, opener.ID, opener.MatchID, opener.SenderID, opener.Body).
		Scan(&opener.CreatedAt); err != nil {
		return fmt.Errorf("insert opener: %w", err)
	}
	return nil
}
