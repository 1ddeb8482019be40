package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/policy-auditor/policy-auditor/internal/db/models"
)

func newGate(profiles map[string]*models.Profile, used int) (*QuotaGate, *fakeUsage) {
	usage := &fakeUsage{count: used}
	g := NewQuotaGate(&fakeProfiles{profiles: profiles}, usage)
	g.now = func() time.Time { return time.Date(2026, 3, 14, 23, 30, 0, 0, time.FixedZone("IST", 5*3600+1800)) }
	return g, usage
}

// ---------------------------------------------------------------------------
// DayWindow
// ---------------------------------------------------------------------------

func TestDayWindow(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	from, to := DayWindow(time.Date(2026, 3, 15, 2, 0, 0, 0, ist))

	wantFrom := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	if !from.Equal(wantFrom) {
		t.Errorf("from = %v, want %v", from, wantFrom)
	}
	if !to.Equal(wantFrom.Add(24 * time.Hour)) {
		t.Errorf("to = %v, want %v", to, wantFrom.Add(24*time.Hour))
	}
}

// ---------------------------------------------------------------------------
// Check
// ---------------------------------------------------------------------------

func TestCheck_AccountStates(t *testing.T) {
	tests := []struct {
		name    string
		profile *models.Profile
		wantErr error
	}{
		{"missing", nil, ErrAccountNotFound},
		{"locked", &models.Profile{ID: "u", Role: models.RoleUser, IsLocked: true, DailyAuditLimit: 5}, ErrAccountLocked},
		{"deleted", &models.Profile{ID: "u", Role: models.RoleUser, IsDeleted: true, DailyAuditLimit: 5}, ErrAccountNotFound},
		// soft delete also locks; lock is reported first
		{"deleted and locked", &models.Profile{ID: "u", Role: models.RoleUser, IsLocked: true, IsDeleted: true}, ErrAccountLocked},
		{"active", userProfile("u", 5), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profiles := map[string]*models.Profile{}
			if tt.profile != nil {
				profiles["u"] = tt.profile
			}
			g, _ := newGate(profiles, 0)
			_, err := g.Check(context.Background(), "u")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Check() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCheck_QuotaBoundary(t *testing.T) {
	profiles := map[string]*models.Profile{"u": userProfile("u", 3)}

	g, _ := newGate(profiles, 2)
	if _, err := g.Check(context.Background(), "u"); err != nil {
		t.Fatalf("Check() with 2 of 3 used error = %v", err)
	}

	g, _ = newGate(profiles, 3)
	_, err := g.Check(context.Background(), "u")
	var qe *QuotaExceededError
	if !errors.As(err, &qe) {
		t.Fatalf("Check() error = %v, want *QuotaExceededError", err)
	}
	if qe.Used != 3 || qe.Limit != 3 {
		t.Errorf("QuotaExceededError = %+v, want 3 of 3", qe)
	}
}

func TestCheck_ZeroLimitBlocks(t *testing.T) {
	g, _ := newGate(map[string]*models.Profile{"u": userProfile("u", 0)}, 0)
	var qe *QuotaExceededError
	if _, err := g.Check(context.Background(), "u"); !errors.As(err, &qe) {
		t.Errorf("Check() error = %v, want quota exceeded", err)
	}
}

func TestCheck_AdminSkipsCount(t *testing.T) {
	admin := &models.Profile{ID: "a", Role: models.RoleAdmin, DailyAuditLimit: 1}
	g, usage := newGate(map[string]*models.Profile{"a": admin}, 100)
	usage.countErr = errBoom

	if _, err := g.Check(context.Background(), "a"); err != nil {
		t.Errorf("Check() for admin error = %v, want nil", err)
	}
}

func TestCheck_UsesUTCWindow(t *testing.T) {
	g, usage := newGate(map[string]*models.Profile{"u": userProfile("u", 5)}, 0)
	if _, err := g.Check(context.Background(), "u"); err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	// 23:30 IST on the 14th is 18:00 UTC on the 14th
	want := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	if !usage.from.Equal(want) {
		t.Errorf("window start = %v, want %v", usage.from, want)
	}
}

func TestCheck_StoreErrors(t *testing.T) {
	g := NewQuotaGate(&fakeProfiles{err: errBoom}, &fakeUsage{})
	if _, err := g.Check(context.Background(), "u"); !errors.Is(err, errBoom) {
		t.Errorf("Check() error = %v, want wrapped profile error", err)
	}

	g, usage := newGate(map[string]*models.Profile{"u": userProfile("u", 5)}, 0)
	usage.countErr = errBoom
	if _, err := g.Check(context.Background(), "u"); !errors.Is(err, errBoom) {
		t.Errorf("Check() error = %v, want wrapped count error", err)
	}
}

// ---------------------------------------------------------------------------
// Status
// ---------------------------------------------------------------------------

func TestStatus(t *testing.T) {
	g, _ := newGate(map[string]*models.Profile{"u": userProfile("u", 3)}, 1)
	st, err := g.Status(context.Background(), "u")
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if st.UsageToday != 1 || st.DailyLimit != 3 || st.Remaining != 2 || st.IsAdmin {
		t.Errorf("Status() = %+v, want 1/3 remaining 2", st)
	}
}

func TestStatus_RemainingNeverNegative(t *testing.T) {
	g, _ := newGate(map[string]*models.Profile{"u": userProfile("u", 1)}, 4)
	st, err := g.Status(context.Background(), "u")
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if st.Remaining != 0 {
		t.Errorf("Remaining = %d, want 0", st.Remaining)
	}
}

func TestStatus_LockedAccount(t *testing.T) {
	locked := userProfile("u", 1)
	locked.IsLocked = true
	g, _ := newGate(map[string]*models.Profile{"u": locked}, 0)
	if _, err := g.Status(context.Background(), "u"); !errors.Is(err, ErrAccountLocked) {
		t.Errorf("Status() error = %v, want ErrAccountLocked", err)
	}
}
