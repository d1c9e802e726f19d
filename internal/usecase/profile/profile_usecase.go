package profile

import (
	"context"
	"fmt"
	"time"

	"github.com/gdugdh24/mpit2026-discovery/internal/domain"
	"github.com/gdugdh24/mpit2026-discovery/internal/geo"
	"github.com/gdugdh24/mpit2026-discovery/internal/repository"
)

// ProfileUseCase is the read side of profiles plus location updates. Editing
// other profile fields belongs to the profile service.
type ProfileUseCase struct {
	profileRepo repository.ProfileRepository
	photoRepo   repository.PhotoRepository
	now         func() time.Time
}

func NewProfileUseCase(profileRepo repository.ProfileRepository, photoRepo repository.PhotoRepository) *ProfileUseCase {
	return &ProfileUseCase{
		profileRepo: profileRepo,
		photoRepo:   photoRepo,
		now:         time.Now,
	}
}

// UpdateLocationRequest represents a location update
type UpdateLocationRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required,min=-90,max=90"`
	Longitude *float64 `json:"longitude" binding:"required,min=-180,max=180"`
}

// ProfileResponse represents profile response with additional info
type ProfileResponse struct {
	*domain.Profile
	Photos        []*domain.Photo `json:"photos"`
	DistanceMiles *int            `json:"distance_miles,omitempty"`
}

// GetMyProfile returns current user's profile
func (uc *ProfileUseCase) GetMyProfile(ctx context.Context, profileID string) (*ProfileResponse, error) {
	profile, err := uc.profileRepo.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return uc.withPhotos(ctx, profile)
}

// GetProfile returns another profile with the distance from the viewer when both locations are known
func (uc *ProfileUseCase) GetProfile(ctx context.Context, targetID, viewerID string) (*ProfileResponse, error) {
	profile, err := uc.profileRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	response, err := uc.withPhotos(ctx, profile)
	if err != nil {
		return nil, err
	}

	if viewerID != "" && viewerID != targetID {
		viewer, err := uc.profileRepo.GetByID(ctx, viewerID)
		if err == nil {
			response.DistanceMiles = geo.Between(viewer.Latitude, viewer.Longitude, profile.Latitude, profile.Longitude)
		}
	}

	return response, nil
}

// UpdateLocation stores coordinates the client resolved outside a discovery session
func (uc *ProfileUseCase) UpdateLocation(ctx context.Context, profileID string, req *UpdateLocationRequest) (*domain.Profile, error) {
	if req.Latitude == nil || req.Longitude == nil {
		return nil, fmt.Errorf("%w: latitude and longitude are required", domain.ErrGeolocationUnavailable)
	}
	if err := uc.profileRepo.UpdateLocation(ctx, profileID, *req.Latitude, *req.Longitude, uc.now()); err != nil {
		return nil, err
	}
	return uc.profileRepo.GetByID(ctx, profileID)
}

func (uc *ProfileUseCase) withPhotos(ctx context.Context, profile *domain.Profile) (*ProfileResponse, error) {
	photos, err := uc.photoRepo.ListByProfiles(ctx, []string{profile.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to load photos: %w", err)
	}
	list := photos[profile.ID]
	if list == nil {
		list = []*domain.Photo{}
	}
	return &ProfileResponse{Profile: profile, Photos: list}, nil
}
