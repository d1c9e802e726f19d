// Package usage tracks per-day consumption of gated actions.
package usage

import (
	"context"
	"fmt"
	"math"
	"time"
	_ "time/tzdata"

	"github.com/gdugdh24/mpit2026-discovery/internal/domain"
	"github.com/gdugdh24/mpit2026-discovery/internal/repository"
)

// Unlimited is reported as the remaining allowance for premium profiles.
const Unlimited = math.MaxInt

const dayLayout = "2006-01-02"

// Limits are the free-tier allowances. Communities is a standing cap, the rest reset daily.
var Limits = map[domain.UsageKind]int{
	domain.UsageMatches:     5,
	domain.UsageAIPrompts:   3,
	domain.UsageOpeners:     5,
	domain.UsageCommunities: 1,
}

type Ledger struct {
	repo repository.UsageRepository
}

func NewLedger(repo repository.UsageRepository) *Ledger {
	return &Ledger{repo: repo}
}

// GetOrCreate returns the counters for (profile, day), creating a zero row on first access.
func (l *Ledger) GetOrCreate(ctx context.Context, profileID, day string) (*domain.DailyUsage, error) {
	u, err := l.repo.GetOrCreate(ctx, profileID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to load usage: %w", err)
	}
	return u, nil
}

// Increment records one consumption of kind. Premium consumption is not counted.
func (l *Ledger) Increment(ctx context.Context, profileID, day string, kind domain.UsageKind, plan domain.PlanType) (*domain.DailyUsage, error) {
	if plan == domain.PlanPremium {
		return l.GetOrCreate(ctx, profileID, day)
	}
	u, err := l.repo.Increment(ctx, profileID, day, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to increment usage: %w", err)
	}
	return u, nil
}

// Remaining is the allowance left for kind on the given day's counters.
func Remaining(u *domain.DailyUsage, plan domain.PlanType, kind domain.UsageKind) int {
	return RemainingAfter(u.Used(kind), plan, kind)
}

// RemainingAfter is Remaining for a caller-supplied used count.
func RemainingAfter(used int, plan domain.PlanType, kind domain.UsageKind) int {
	if plan == domain.PlanPremium {
		return Unlimited
	}
	left := Limits[kind] - used
	if left < 0 {
		return 0
	}
	return left
}

// Day is the viewer's local calendar date used as the usage key.
func Day(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return now.In(loc).Format(dayLayout)
}

// LoadLocation resolves an IANA zone name, falling back to UTC.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
