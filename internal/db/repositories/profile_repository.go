// profile_repository.go implements ProfileRepository, the SQL access layer for
// account profiles: lookup for the quota gate, provisioning upserts, and the
// admin lock / limit / soft-delete mutations.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/policy-auditor/policy-auditor/internal/db/models"
)

const profileColumns = `id, email, full_name, company_name, company_size, industry,
	role, is_locked, is_deleted, daily_audit_limit, created_at, updated_at`

// ProfileRepository handles profile database operations
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository creates a new ProfileRepository
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetProfile returns the profile for an identity id, or nil when none exists
func (r *ProfileRepository) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

// ListProfiles returns every profile, soft-deleted ones included, newest first
func (r *ProfileRepository) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	profiles := []models.Profile{}
	query := `SELECT ` + profileColumns + ` FROM profiles ORDER BY created_at DESC, id`
	if err := r.db.SelectContext(ctx, &profiles, query); err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return profiles, nil
}

// UpsertProfile inserts a profile or overwrites the provisioning fields of an
// existing one. Lock and delete flags are left untouched on conflict.
func (r *ProfileRepository) UpsertProfile(ctx context.Context, p *models.Profile) error {
	query := `
		INSERT INTO profiles (id, email, full_name, company_name, company_size, industry, role, daily_audit_limit)
		VALUES (:id, :email, :full_name, :company_name, :company_size, :industry, :role, :daily_audit_limit)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			full_name = EXCLUDED.full_name,
			company_name = EXCLUDED.company_name,
			company_size = EXCLUDED.company_size,
			industry = EXCLUDED.industry,
			role = EXCLUDED.role,
			daily_audit_limit = EXCLUDED.daily_audit_limit,
			updated_at = NOW()
	`
	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

// SetLocked sets is_locked. It reports false when no profile matched.
func (r *ProfileRepository) SetLocked(ctx context.Context, id string, locked bool) (bool, error) {
	return r.update(ctx, `UPDATE profiles SET is_locked = $2, updated_at = NOW() WHERE id = $1`, id, locked)
}

// SetDailyLimit sets daily_audit_limit. It reports false when no profile matched.
func (r *ProfileRepository) SetDailyLimit(ctx context.Context, id string, limit int) (bool, error) {
	return r.update(ctx, `UPDATE profiles SET daily_audit_limit = $2, updated_at = NOW() WHERE id = $1`, id, limit)
}

// SoftDelete flags the profile deleted and locked. It reports false when no profile matched.
func (r *ProfileRepository) SoftDelete(ctx context.Context, id string) (bool, error) {
	return r.update(ctx, `UPDATE profiles SET is_deleted = TRUE, is_locked = TRUE, updated_at = NOW() WHERE id = $1`, id)
}

func (r *ProfileRepository) update(ctx context.Context, query string, args ...interface{}) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update profile: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}
