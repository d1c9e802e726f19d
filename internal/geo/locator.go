package geo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gdugdh24/mpit2026-discovery/internal/domain"
	"github.com/gdugdh24/mpit2026-discovery/internal/logging"
)

const (
	DefaultTimeout = 10 * time.Second
	DefaultMaxAge  = 5 * time.Minute
)

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Position is a one-shot fix from the viewer's device. Error carries the
// device-side failure (permission_denied, unavailable, timeout) when there is no fix.
type Position struct {
	Latitude   float64   `json:"latitude" binding:"min=-90,max=90"`
	Longitude  float64   `json:"longitude" binding:"min=-180,max=180"`
	CapturedAt time.Time `json:"captured_at"`
	Error      string    `json:"error,omitempty"`
}

type Provider interface {
	CurrentPosition(ctx context.Context) (*Position, error)
}

// LocationStore persists fresh fixes on the viewer's profile.
type LocationStore interface {
	UpdateLocation(ctx context.Context, profileID string, lat, lng float64, at time.Time) error
}

// Reported adapts a client-sent position into a Provider.
type Reported struct {
	Position *Position
}

func (r Reported) CurrentPosition(ctx context.Context) (*Position, error) {
	if r.Position == nil {
		return nil, fmt.Errorf("%w: no position reported", domain.ErrGeolocationUnavailable)
	}
	if r.Position.Error != "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrGeolocationUnavailable, r.Position.Error)
	}
	return r.Position, nil
}

type Locator struct {
	store   LocationStore
	timeout time.Duration
	maxAge  time.Duration
	now     func() time.Time
	log     logging.Logger
}

func NewLocator(store LocationStore, timeout, maxAge time.Duration, log logging.Logger) *Locator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Locator{store: store, timeout: timeout, maxAge: maxAge, now: time.Now, log: log}
}

// Resolve returns the viewer's coordinates, or nil when nothing usable exists.
// It never fails: any provider problem degrades to the stored coordinates and
// then to "unknown".
func (l *Locator) Resolve(ctx context.Context, viewer *domain.Profile, provider Provider) *Coordinates {
	if provider != nil {
		pos, err := l.fetch(ctx, provider)
		if err == nil {
			if l.store != nil {
				if err := l.store.UpdateLocation(ctx, viewer.ID, pos.Latitude, pos.Longitude, pos.CapturedAt); err != nil {
					l.log.Warn(ctx, "failed to persist location", "profile_id", viewer.ID, "error", err)
				}
			}
			lat, lng, at := pos.Latitude, pos.Longitude, pos.CapturedAt
			viewer.Latitude, viewer.Longitude, viewer.LocationUpdatedAt = &lat, &lng, &at
			return &Coordinates{Latitude: pos.Latitude, Longitude: pos.Longitude}
		}
		l.log.Warn(ctx, "geolocation unavailable, falling back", "profile_id", viewer.ID, "error", err)
	}

	if viewer.HasCoordinates() {
		return &Coordinates{Latitude: *viewer.Latitude, Longitude: *viewer.Longitude}
	}
	return nil
}

func (l *Locator) fetch(ctx context.Context, provider Provider) (*Position, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	type result struct {
		pos *Position
		err error
	}
	ch := make(chan result, 1)
	go func() {
		pos, err := provider.CurrentPosition(ctx)
		ch <- result{pos, err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", domain.ErrGeolocationUnavailable, ctx.Err())
	case r := <-ch:
		if r.err != nil {
			if errors.Is(r.err, domain.ErrGeolocationUnavailable) {
				return nil, r.err
			}
			return nil, fmt.Errorf("%w: %w", domain.ErrGeolocationUnavailable, r.err)
		}
		if r.pos == nil {
			return nil, fmt.Errorf("%w: empty position", domain.ErrGeolocationUnavailable)
		}
		if l.now().Sub(r.pos.CapturedAt) > l.maxAge {
			return nil, fmt.Errorf("%w: position older than %s", domain.ErrGeolocationUnavailable, l.maxAge)
		}
		return r.pos, nil
	}
}
