package domain

import "time"

type PlanType string

const (
	PlanFree    PlanType = "free"
	PlanPremium PlanType = "premium"
)

// SubscriptionState is owned by billing and only read here.
type SubscriptionState struct {
	ProfileID  string     `json:"profile_id" db:"profile_id"`
	PlanType   PlanType   `json:"plan_type" db:"plan_type"`
	IsLifetime bool       `json:"is_lifetime" db:"is_lifetime"`
	ExpiresAt  *time.Time `json:"expires_at" db:"expires_at"`
}

// FreeSubscription is the state assumed for profiles without a billing record.
func FreeSubscription(profileID string) *SubscriptionState {
	return &SubscriptionState{ProfileID: profileID, PlanType: PlanFree}
}

// IsPremiumActive is true for lifetime plans and for plans expiring after now.
func (s *SubscriptionState) IsPremiumActive(now time.Time) bool {
	if s == nil {
		return false
	}
	if s.IsLifetime {
		return true
	}
	return s.ExpiresAt != nil && s.ExpiresAt.After(now)
}

// EffectivePlan collapses an expired premium record back to free.
func (s *SubscriptionState) EffectivePlan(now time.Time) PlanType {
	if s.IsPremiumActive(now) {
		return PlanPremium
	}
	return PlanFree
}
