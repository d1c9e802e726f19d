package domain

import "time"

type Match struct {
	ID         string    `json:"id" db:"id"`
	ProfileAID string    `json:"profile_a_id" db:"profile_a_id"`
	ProfileBID string    `json:"profile_b_id" db:"profile_b_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

func (m *Match) HasProfile(profileID string) bool {
	return m.ProfileAID == profileID || m.ProfileBID == profileID
}

func (m *Match) OtherProfileID(profileID string) (string, bool) {
	if m.ProfileAID == profileID {
		return m.ProfileBID, true
	}
	if m.ProfileBID == profileID {
		return m.ProfileAID, true
	}
	return "", false
}

// CanonicalPair orders two profile ids so that a pair has exactly one storage key.
func CanonicalPair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}

// Opener is a pre-written first message sent into a match.
type Opener struct {
	ID        string    `json:"id" db:"id"`
	MatchID   string    `json:"match_id" db:"match_id"`
	SenderID  string    `json:"sender_id" db:"sender_id"`
	Body      string    `json:"body" db:"body"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// MatchCreated is published once, when a mutual like first produces a match.
type MatchCreated struct {
	MatchID    string    `json:"match_id"`
	ProfileAID string    `json:"profile_a_id"`
	ProfileBID string    `json:"profile_b_id"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewMatchCreated(m *Match) *MatchCreated {
	return &MatchCreated{
		MatchID:    m.ID,
		ProfileAID: m.ProfileAID,
		ProfileBID: m.ProfileBID,
		CreatedAt:  m.CreatedAt,
	}
}
