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

type swipeRepository struct {
	db *sqlx.DB
}

func NewSwipeRepository(db *sqlx.DB) repository.SwipeRepository {
	return &swipeRepository{db: db}
}

func (r *swipeRepository) CreateIfAbsent(ctx context.Context, swipe *domain.Swipe) (bool, error) {
	if swipe.ID == "" {
		swipe.ID = uuid.NewString()
	}

	query := `
		INSERT INTO swipes (id, swiper_id, swiped_id, direction)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (swiper_id, swiped_id) DO NOTHING
		RETURNING created_at
	`
	err := r.db.QueryRowxContext(ctx, query, swipe.ID, swipe.SwiperID, swipe.SwipedID, swipe.Direction).
		Scan(&swipe.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("insert swipe: %w", err)
	}
	return true, nil
}

func (r *swipeRepository) GetByProfiles(ctx context.Context, swiperID, swipedID string) (*domain.Swipe, error) {
	var swipe domain.Swipe
	query := `
		SELECT id, swiper_id, swiped_id, direction, created_at
		FROM swipes WHERE swiper_id = $1 AND swiped_id = $2
	`
	err := r.db.GetContext(ctx, &swipe, query, swiperID, swipedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get swipe: %w", err)
	}
	return &swipe, nil
}

func (r *swipeRepository) HasLike(ctx context.Context, swiperID, swipedID string) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS(
			SELECT 1 FROM swipes
			WHERE swiper_id = $1 AND swiped_id = $2 AND direction = 'like'
		)
	`
	if err := r.db.GetContext(ctx, &exists, query, swiperID, swipedID); err != nil {
		return false, fmt.Errorf("check like: %w", err)
	}
	return exists, nil
}

func (r *swipeRepository) SwipedIDs(ctx context.Context, swiperID string) ([]string, error) {
	var ids []string
	query := `SELECT swiped_id FROM swipes WHERE swiper_id = $1`
	if err := r.db.SelectContext(ctx, &ids, query, swiperID); err != nil {
		return nil, fmt.Errorf("list swiped ids: %w", err)
	}
	return ids, nil
}
