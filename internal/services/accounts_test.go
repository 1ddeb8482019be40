package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policy-auditor/policy-auditor/internal/auth"
	"github.com/policy-auditor/policy-auditor/internal/db/models"
)

type memProfiles struct {
	fakeProfiles
	upserted  []*models.Profile
	upsertErr error
	updated   map[string]bool
}

func newMemProfiles(ps ...*models.Profile) *memProfiles {
	m := &memProfiles{fakeProfiles: fakeProfiles{profiles: map[string]*models.Profile{}}, updated: map[string]bool{}}
	for _, p := range ps {
		m.profiles[p.ID] = p
	}
	return m
}

func (m *memProfiles) ListProfiles(context.Context) ([]models.Profile, error) {
	out := []models.Profile{}
	for _, p := range m.profiles {
		out = append(out, *p)
	}
	return out, nil
}

func (m *memProfiles) UpsertProfile(_ context.Context, p *models.Profile) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserted = append(m.upserted, p)
	m.profiles[p.ID] = p
	return nil
}

func (m *memProfiles) touch(id string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.profiles[id]
	m.updated[id] = ok
	return ok, nil
}

func (m *memProfiles) SetLocked(_ context.Context, id string, locked bool) (bool, error) {
	ok, err := m.touch(id)
	if ok {
		m.profiles[id].IsLocked = locked
	}
	return ok, err
}

func (m *memProfiles) SetDailyLimit(_ context.Context, id string, limit int) (bool, error) {
	ok, err := m.touch(id)
	if ok {
		m.profiles[id].DailyAuditLimit = limit
	}
	return ok, err
}

func (m *memProfiles) SoftDelete(_ context.Context, id string) (bool, error) {
	ok, err := m.touch(id)
	if ok {
		m.profiles[id].IsDeleted = true
		m.profiles[id].IsLocked = true
	}
	return ok, err
}

type fakeIdentity struct {
	createErr error
	created   []string
	passwords map[string]string
}

func (f *fakeIdentity) CreateUser(_ context.Context, email, _ string) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, email)
	return fmt.Sprintf("id-%d", len(f.created)), nil
}

func (f *fakeIdentity) UpdatePassword(_ context.Context, id, password string) error {
	if f.passwords == nil {
		f.passwords = map[string]string{}
	}
	f.passwords[id] = password
	return nil
}

// ---------------------------------------------------------------------------
// Provision
// ---------------------------------------------------------------------------

func TestProvision_Defaults(t *testing.T) {
	profiles := newMemProfiles()
	idp := &fakeIdentity{}
	acc := NewAccounts(profiles, idp, 1)

	p, err := acc.Provision(context.Background(), ProvisionRequest{Email: " HR@Example.com ", Password: "secret1", FullName: "Asha"})
	require.NoError(t, err)

	assert.Equal(t, "id-1", p.ID)
	assert.Equal(t, "hr@example.com", p.Email)
	assert.Equal(t, models.RoleUser, p.Role)
	assert.Equal(t, 1, p.DailyAuditLimit)
	assert.Equal(t, []string{"hr@example.com"}, idp.created)
	require.Len(t, profiles.upserted, 1)
}

func TestProvision_ExplicitRoleAndLimit(t *testing.T) {
	limit := 0
	acc := NewAccounts(newMemProfiles(), &fakeIdentity{}, 1)

	p, err := acc.Provision(context.Background(), ProvisionRequest{
		Email: "ops@example.com", Password: "secret1", Role: "admin", DailyAuditLimit: &limit,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, p.Role)
	assert.Equal(t, 0, p.DailyAuditLimit)
}

func TestProvision_Validation(t *testing.T) {
	neg := -1
	tests := []struct {
		name    string
		req     ProvisionRequest
		wantMsg string
	}{
		{"missing email", ProvisionRequest{Password: "secret1"}, "email is required"},
		{"bad email", ProvisionRequest{Email: "nope", Password: "secret1"}, "valid email"},
		{"short password", ProvisionRequest{Email: "a@b.co", Password: "12345"}, "password must be at least 6"},
		{"bad role", ProvisionRequest{Email: "a@b.co", Password: "secret1", Role: "root"}, "role must be one of: user, admin"},
		{"negative limit", ProvisionRequest{Email: "a@b.co", Password: "secret1", DailyAuditLimit: &neg}, "daily_audit_limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idp := &fakeIdentity{}
			acc := NewAccounts(newMemProfiles(), idp, 1)
			_, err := acc.Provision(context.Background(), tt.req)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Message, tt.wantMsg)
			assert.Empty(t, idp.created)
		})
	}
}

func TestProvision_AlreadyRegistered(t *testing.T) {
	idp := &fakeIdentity{createErr: fmt.Errorf("identity admin: %w", auth.ErrAlreadyRegistered)}
	acc := NewAccounts(newMemProfiles(), idp, 1)

	_, err := acc.Provision(context.Background(), ProvisionRequest{Email: "a@b.co", Password: "secret1"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestProvision_Disabled(t *testing.T) {
	acc := NewAccounts(newMemProfiles(), nil, 1)
	_, err := acc.Provision(context.Background(), ProvisionRequest{Email: "a@b.co", Password: "secret1"})
	assert.ErrorIs(t, err, ErrProvisioningDisabled)
}

func TestProvision_ProfileWriteFails(t *testing.T) {
	profiles := newMemProfiles()
	profiles.upsertErr = errBoom
	acc := NewAccounts(profiles, &fakeIdentity{}, 1)

	_, err := acc.Provision(context.Background(), ProvisionRequest{Email: "a@b.co", Password: "secret1"})
	assert.ErrorIs(t, err, errBoom)
}

// ---------------------------------------------------------------------------
// Password and profile administration
// ---------------------------------------------------------------------------

func TestSetPassword(t *testing.T) {
	idp := &fakeIdentity{}
	acc := NewAccounts(newMemProfiles(userProfile("u-1", 1)), idp, 1)

	require.NoError(t, acc.SetPassword(context.Background(), "u-1", PasswordRequest{NewPassword: "newpass"}))
	assert.Equal(t, "newpass", idp.passwords["u-1"])

	err := acc.SetPassword(context.Background(), "u-1", PasswordRequest{NewPassword: "abc"})
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)

	err = acc.SetPassword(context.Background(), "ghost", PasswordRequest{NewPassword: "newpass"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProfileAdministration(t *testing.T) {
	profiles := newMemProfiles(userProfile("u-1", 1))
	acc := NewAccounts(profiles, nil, 1)
	ctx := context.Background()

	require.NoError(t, acc.SetLocked(ctx, "u-1", true))
	assert.True(t, profiles.profiles["u-1"].IsLocked)

	require.NoError(t, acc.SetDailyLimit(ctx, "u-1", 10))
	assert.Equal(t, 10, profiles.profiles["u-1"].DailyAuditLimit)

	var ve *ValidationError
	assert.ErrorAs(t, acc.SetDailyLimit(ctx, "u-1", -2), &ve)

	require.NoError(t, acc.Delete(ctx, "u-1"))
	assert.True(t, profiles.profiles["u-1"].IsDeleted)
	assert.True(t, profiles.profiles["u-1"].IsLocked)

	assert.ErrorIs(t, acc.SetLocked(ctx, "ghost", false), ErrNotFound)
	assert.ErrorIs(t, acc.Delete(ctx, "ghost"), ErrNotFound)

	_, err := acc.Profile(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := acc.ListProfiles(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestProfileAdministration_StoreError(t *testing.T) {
	profiles := newMemProfiles()
	profiles.err = errBoom
	acc := NewAccounts(profiles, nil, 1)
	if err := acc.SetLocked(context.Background(), "u-1", true); !errors.Is(err, errBoom) {
		t.Errorf("SetLocked() error = %v, want errBoom", err)
	}
}
