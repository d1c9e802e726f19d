package domain

type UsageKind string

const (
	UsageMatches     UsageKind = "matches"
	UsageAIPrompts   UsageKind = "ai_prompts"
	UsageOpeners     UsageKind = "openers"
	UsageCommunities UsageKind = "communities"
)

// DailyKinds are the kinds metered per calendar day.
var DailyKinds = []UsageKind{UsageMatches, UsageAIPrompts, UsageOpeners}

func (k UsageKind) Valid() bool {
	switch k {
	case UsageMatches, UsageAIPrompts, UsageOpeners, UsageCommunities:
		return true
	}
	return false
}

// DailyUsage holds one profile's counters for one local calendar day.
// MatchesShown counts candidate cards surfaced, not mutual matches.
type DailyUsage struct {
	ProfileID     string `json:"profile_id" db:"profile_id"`
	Date          string `json:"date" db:"usage_date"`
	MatchesShown  int    `json:"matches_shown" db:"matches_shown"`
	AIPromptsUsed int    `json:"ai_prompts_used" db:"ai_prompts_used"`
	OpenersSent   int    `json:"openers_sent" db:"openers_sent"`
}

// Used returns the counter for kind. Communities is not a daily counter.
func (u *DailyUsage) Used(kind UsageKind) int {
	if u == nil {
		return 0
	}
	switch kind {
	case UsageMatches:
		return u.MatchesShown
	case UsageAIPrompts:
		return u.AIPromptsUsed
	case UsageOpeners:
		return u.OpenersSent
	}
	return 0
}
