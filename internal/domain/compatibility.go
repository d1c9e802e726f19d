package domain

import "time"

// CompatibilityAnnotation is the AI-derived score for one candidate in one viewing session.
// It is never persisted.
type CompatibilityAnnotation struct {
	ProfileID       string    `json:"profile_id"`
	Score           int       `json:"score"`
	Icebreaker      string    `json:"icebreaker"`
	Summary         string    `json:"summary,omitempty"`
	SharedInterests []string  `json:"shared_interests,omitempty"`
	ComputedAt      time.Time `json:"computed_at"`
}

// DiscoverCandidate is a profile prepared for the discovery queue.
type DiscoverCandidate struct {
	Profile       *Profile `json:"profile"`
	Photos        []*Photo `json:"photos"`
	DistanceMiles *int     `json:"distance_miles,omitempty"`
}

func (c *DiscoverCandidate) ID() string {
	return c.Profile.ID
}
