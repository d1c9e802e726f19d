package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gdugdh24/mpit2026-discovery/internal/domain"
	"github.com/gdugdh24/mpit2026-discovery/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const profileColumns = `id, display_name, age, gender, bio, city, latitude, longitude,
		location_updated_at, interests, gender_preference, min_age, max_age, max_distance,
		created_at, updated_at`

type profileRow struct {
	ID                string         `db:"id"`
	DisplayName       string         `db:"display_name"`
	Age               int            `db:"age"`
	Gender            string         `db:"gender"`
	Bio               *string        `db:"bio"`
	City              *string        `db:"city"`
	Latitude          *float64       `db:"latitude"`
	Longitude         *float64       `db:"longitude"`
	LocationUpdatedAt *time.Time     `db:"location_updated_at"`
	Interests         pq.StringArray `db:"interests"`
	GenderPreference  pq.StringArray `db:"gender_preference"`
	MinAge            int            `db:"min_age"`
	MaxAge            int            `db:"max_age"`
	MaxDistance       *int           `db:"max_distance"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
}

func (r *profileRow) toDomain() *domain.Profile {
	return &domain.Profile{
		ID:                r.ID,
		DisplayName:       r.DisplayName,
		Age:               r.Age,
		Gender:            r.Gender,
		Bio:               r.Bio,
		City:              r.City,
		Latitude:          r.Latitude,
		Longitude:         r.Longitude,
		LocationUpdatedAt: r.LocationUpdatedAt,
		Interests:         []string(r.Interests),
		GenderPreference:  []string(r.GenderPreference),
		MinAge:            r.MinAge,
		MaxAge:            r.MaxAge,
		MaxDistance:       r.MaxDistance,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

type profileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) repository.ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	var row profileRow
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	err := r.db.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return row.toDomain(), nil
}

func (r *profileRepository) Search(ctx context.Context, filter repository.ProfileFilter) ([]*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE 1=1`
	args := []interface{}{}
	argCount := 1

	if filter.ExcludeID != "" {
		query += fmt.Sprintf(" AND id <> $%d", argCount)
		args = append(args, filter.ExcludeID)
		argCount++
	}

	if len(filter.Genders) > 0 {
		genders := make([]string, len(filter.Genders))
		for i, g := range filter.Genders {
			genders[i] = strings.ToLower(g)
		}
		query += fmt.Sprintf(" AND LOWER(gender) = ANY($%d)", argCount)
		args = append(args, pq.Array(genders))
		argCount++
	}

	if filter.MinAge > 0 {
		query += fmt.Sprintf(" AND age >= $%d", argCount)
		args = append(args, filter.MinAge)
		argCount++
	}

	if filter.MaxAge > 0 {
		query += fmt.Sprintf(" AND age <= $%d", argCount)
		args = append(args, filter.MaxAge)
		argCount++
	}

	if filter.City != "" {
		query += fmt.Sprintf(" AND LOWER(city) = LOWER($%d)", argCount)
		args = append(args, filter.City)
		argCount++
	}

	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argCount)
		args = append(args, filter.Limit)
	}

	var rows []profileRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("search profiles: %w", err)
	}

	profiles := make([]*domain.Profile, 0, len(rows))
	for i := range rows {
		profiles = append(profiles, rows[i].toDomain())
	}
	return profiles, nil
}

func (r *profileRepository) UpdateLocation(ctx context.Context, id string, lat, lng float64, at time.Time) error {
	query := `
		UPDATE profiles
		SET latitude = $1, longitude = $2, location_updated_at = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $4
	`
	result, err := r.db.ExecContext(ctx, query, lat, lng, at, id)
	if err != nil {
		return fmt.Errorf("update location: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

type photoRepository struct {
	db *sqlx.DB
}

func NewPhotoRepository(db *sqlx.DB) repository.PhotoRepository {
	return &photoRepository{db: db}
}

func (r *photoRepository) ListByProfiles(ctx context.Context, profileIDs []string) (map[string][]*domain.Photo, error) {
	grouped := make(map[string][]*domain.Photo, len(profileIDs))
	if len(profileIDs) == 0 {
		return grouped, nil
	}

	var photos []*domain.Photo
	query := `
		SELECT id, profile_id, url, is_primary, order_index
		FROM photos
		WHERE profile_id = ANY($1)
		ORDER BY profile_id, order_index
	`
	if err := r.db.SelectContext(ctx, &photos, query, pq.Array(profileIDs)); err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	for _, p := range photos {
		grouped[p.ProfileID] = append(grouped[p.ProfileID], p)
	}
	return grouped, nil
}

type blockRepository struct {
	db *sqlx.DB
}

func NewBlockRepository(db *sqlx.DB) repository.BlockRepository {
	return &blockRepository{db: db}
}

func (r *blockRepository) BlockedIDs(ctx context.Context, profileID string) ([]string, error) {
	var ids []string
	query := `
		SELECT blocked_id FROM blocks WHERE blocker_id = $1
		UNION
		SELECT blocker_id FROM blocks WHERE blocked_id = $1
	`
	if err := r.db.SelectContext(ctx, &ids, query, profileID); err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	return ids, nil
}
