package services

import (
	"context"
	"fmt"
	"time"

	"github.com/policy-auditor/policy-auditor/internal/db/models"
)

// ProfileReader loads profiles by identity id
type ProfileReader interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
}

// UsageCounter counts a user's usage records in a time window
type UsageCounter interface {
	CountUserRecords(ctx context.Context, userID string, from, to time.Time) (int, error)
}

// QuotaStatus is a user's standing against their daily limit
type QuotaStatus struct {
	UsageToday int  `json:"usage_today"`
	DailyLimit int  `json:"daily_limit"`
	Remaining  int  `json:"remaining"`
	IsAdmin    bool `json:"is_admin"`
}

// QuotaGate enforces account status and the per-user daily audit limit.
//
// The check is read-then-compare and the insert happens later, so concurrent
// requests from one user can exceed the limit by a small margin. It is a soft
// limit.
type QuotaGate struct {
	profiles ProfileReader
	usage    UsageCounter
	now      func() time.Time
}

// NewQuotaGate creates a new QuotaGate
func NewQuotaGate(profiles ProfileReader, usage UsageCounter) *QuotaGate {
	return &QuotaGate{profiles: profiles, usage: usage, now: time.Now}
}

// DayWindow returns the UTC calendar day containing t as [start, end).
func DayWindow(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// Account loads the caller's profile and rejects missing, locked or deleted
// accounts, in that order.
func (g *QuotaGate) Account(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := g.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if profile == nil {
		return nil, ErrAccountNotFound
	}
	if profile.IsLocked {
		return nil, ErrAccountLocked
	}
	if profile.IsDeleted {
		return nil, ErrAccountNotFound
	}
	return profile, nil
}

// Check runs the full gate: account status, then the daily limit unless the
// caller is an admin.
func (g *QuotaGate) Check(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := g.Account(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.IsAdmin() {
		return profile, nil
	}

	used, err := g.usedToday(ctx, userID)
	if err != nil {
		return nil, err
	}
	if used >= profile.DailyAuditLimit {
		return nil, &QuotaExceededError{Used: used, Limit: profile.DailyAuditLimit}
	}
	return profile, nil
}

// Status reports the caller's usage against their limit without enforcing it.
func (g *QuotaGate) Status(ctx context.Context, userID string) (*QuotaStatus, error) {
	profile, err := g.Account(ctx, userID)
	if err != nil {
		return nil, err
	}
	used, err := g.usedToday(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &QuotaStatus{
		UsageToday: used,
		DailyLimit: profile.DailyAuditLimit,
		Remaining:  max(profile.DailyAuditLimit-used, 0),
		IsAdmin:    profile.IsAdmin(),
	}, nil
}

func (g *QuotaGate) usedToday(ctx context.Context, userID string) (int, error) {
	from, to := DayWindow(g.now())
	used, err := g.usage.CountUserRecords(ctx, userID, from, to)
	if err != nil {
		return 0, fmt.Errorf("failed to count today's audits: %w", err)
	}
	return used, nil
}
