package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/policy-auditor/policy-auditor/internal/auth"
	"github.com/policy-auditor/policy-auditor/internal/db/models"
)

// ProfileStore is the profile persistence used by account administration
type ProfileStore interface {
	ProfileReader
	ListProfiles(ctx context.Context) ([]models.Profile, error)
	UpsertProfile(ctx context.Context, p *models.Profile) error
	SetLocked(ctx context.Context, id string, locked bool) (bool, error)
	SetDailyLimit(ctx context.Context, id string, limit int) (bool, error)
	SoftDelete(ctx context.Context, id string) (bool, error)
}

// IdentityAdmin creates and updates users at the identity provider
type IdentityAdmin interface {
	CreateUser(ctx context.Context, email, password string) (string, error)
	UpdatePassword(ctx context.Context, userID, password string) error
}

// ProvisionRequest is the body of POST /admin/users
type ProvisionRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	Role            string `json:"role" validate:"omitempty,oneof=user admin"`
	DailyAuditLimit *int   `json:"daily_audit_limit" validate:"omitempty,gte=0"`
	FullName        string `json:"full_name" validate:"max=200"`
	CompanyName     string `json:"company_name" validate:"max=200"`
	CompanySize     string `json:"company_size" validate:"max=50"`
	Industry        string `json:"industry" validate:"max=100"`
}

// PasswordRequest is the body of PUT /admin/users/{id}/password
type PasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// Accounts provisions users and administers their profiles
type Accounts struct {
	profiles     ProfileStore
	identity     IdentityAdmin
	defaultLimit int
}

// NewAccounts creates a new Accounts service. A nil identity disables
// provisioning; profile administration still works.
func NewAccounts(profiles ProfileStore, identity IdentityAdmin, defaultLimit int) *Accounts {
	return &Accounts{profiles: profiles, identity: identity, defaultLimit: defaultLimit}
}

// Provision creates the identity (email pre-confirmed) and writes its profile.
func (a *Accounts) Provision(ctx context.Context, req ProvisionRequest) (*models.Profile, error) {
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if err := validateStruct(&req); err != nil {
		return nil, err
	}
	if a.identity == nil {
		return nil, ErrProvisioningDisabled
	}

	id, err := a.identity.CreateUser(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrAlreadyRegistered) {
			return nil, fmt.Errorf("user %s: %w", req.Email, ErrConflict)
		}
		return nil, fmt.Errorf("failed to create identity: %w", err)
	}

	profile := &models.Profile{
		ID:              id,
		Email:           req.Email,
		FullName:        req.FullName,
		CompanyName:     req.CompanyName,
		CompanySize:     req.CompanySize,
		Industry:        req.Industry,
		Role:            models.RoleUser,
		DailyAuditLimit: a.defaultLimit,
	}
	if req.Role != "" {
		profile.Role = req.Role
	}
	if req.DailyAuditLimit != nil {
		profile.DailyAuditLimit = *req.DailyAuditLimit
	}

	if err := a.profiles.UpsertProfile(ctx, profile); err != nil {
		// The identity exists without a profile; the provider trigger or a retry fixes it.
		slog.Error("identity created but profile write failed", "user_id", id, "email", req.Email, "error", err)
		return nil, err
	}
	slog.Info("user provisioned", "user_id", id, "role", profile.Role, "daily_audit_limit", profile.DailyAuditLimit)
	return profile, nil
}

// SetPassword replaces a user's password at the identity provider.
func (a *Accounts) SetPassword(ctx context.Context, userID string, req PasswordRequest) error {
	if err := validateStruct(&req); err != nil {
		return err
	}
	if a.identity == nil {
		return ErrProvisioningDisabled
	}
	profile, err := a.profiles.GetProfile(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}
	if profile == nil {
		return ErrNotFound
	}
	if err := a.identity.UpdatePassword(ctx, userID, req.NewPassword); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	slog.Info("user password updated", "user_id", userID)
	return nil
}

// Profile returns one profile, or ErrNotFound.
func (a *Accounts) Profile(ctx context.Context, id string) (*models.Profile, error) {
	p, err := a.profiles.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

// ListProfiles returns every profile, newest first.
func (a *Accounts) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	return a.profiles.ListProfiles(ctx)
}

// SetLocked locks or unlocks an account.
func (a *Accounts) SetLocked(ctx context.Context, id string, locked bool) error {
	return found(a.profiles.SetLocked(ctx, id, locked))
}

// SetDailyLimit changes an account's daily audit limit.
func (a *Accounts) SetDailyLimit(ctx context.Context, id string, limit int) error {
	if limit < 0 {
		return invalid("daily_audit_limit must be 0 or greater", nil)
	}
	return found(a.profiles.SetDailyLimit(ctx, id, limit))
}

// Delete soft-deletes an account. Profiles are never removed.
func (a *Accounts) Delete(ctx context.Context, id string) error {
	return found(a.profiles.SoftDelete(ctx, id))
}

func found(ok bool, err error) error {
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
