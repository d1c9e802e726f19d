package domain

import "errors"

var (
	ErrProfileNotFound  = errors.New("profile not found")
	ErrMatchNotFound    = errors.New("match not found")
	ErrCannotSwipeSelf  = errors.New("cannot swipe yourself")
	ErrInvalidDirection = errors.New("invalid swipe direction")
	ErrInvalidUsageKind = errors.New("invalid usage kind")

	// discovery pipeline
	ErrPoolFetchFailed        = errors.New("candidate pool fetch failed")
	ErrScoringUnavailable     = errors.New("compatibility scoring unavailable")
	ErrSwipePersistFailed     = errors.New("swipe persist failed")
	ErrDuplicateSwipe         = errors.New("swipe already recorded")
	ErrEntitlementExceeded    = errors.New("daily limit reached")
	ErrGeolocationUnavailable = errors.New("geolocation unavailable")

	// session
	ErrNoSession           = errors.New("no discovery session")
	ErrNotCurrentCandidate = errors.New("candidate is not the current card")
	ErrQueueExhausted      = errors.New("no more candidates")

	ErrNotMatchParticipant = errors.New("profile is not part of this match")
	ErrEmptyQuery          = errors.New("empty query")
	ErrEmptyMessage        = errors.New("empty message")

	ErrInvalidToken = errors.New("invalid token")
)
