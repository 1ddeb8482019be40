// access_request_repository.go implements AccessRequestRepository for the public
// waiting list. Email uniqueness is enforced by the database.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/policy-auditor/policy-auditor/internal/db/models"
)

// ErrDuplicateAccessRequest is returned when an access request for the email already exists
var ErrDuplicateAccessRequest = errors.New("access request already exists")

// pgUniqueViolation is the PostgreSQL SQLSTATE for unique_violation
const pgUniqueViolation = "23505"

// AccessRequestRepository handles access request database operations
type AccessRequestRepository struct {
	db *sqlx.DB
}

// NewAccessRequestRepository creates a new AccessRequestRepository
func NewAccessRequestRepository(db *sqlx.DB) *AccessRequestRepository {
	return &AccessRequestRepository{db: db}
}

// Create inserts a pending access request and fills in id, status and timestamps
func (r *AccessRequestRepository) Create(ctx context.Context, req *models.AccessRequest) error {
	query := `
		INSERT INTO access_requests (full_name, email, company_name, company_size, industry)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, status, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		req.FullName, req.Email, req.CompanyName, req.CompanySize, req.Industry,
	).Scan(&req.ID, &req.Status, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
			return ErrDuplicateAccessRequest
		}
		return fmt.Errorf("failed to create access request: %w", err)
	}
	return nil
}

// GetByEmail returns the access request for email, or nil when none exists
func (r *AccessRequestRepository) GetByEmail(ctx context.Context, email string) (*models.AccessRequest, error) {
	var req models.AccessRequest
	query := `SELECT id, full_name, email, company_name, company_size, industry, status, created_at, updated_at
		FROM access_requests WHERE lower(email) = lower($1)`
	if err := r.db.GetContext(ctx, &req, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get access request: %w", err)
	}
	return &req, nil
}

// List returns all access requests, newest first
func (r *AccessRequestRepository) List(ctx context.Context) ([]models.AccessRequest, error) {
	reqs := []models.AccessRequest{}
	query := `SELECT id, full_name, email, company_name, company_size, industry, status, created_at, updated_at
		FROM access_requests ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &reqs, query); err != nil {
		return nil, fmt.Errorf("failed to list access requests: %w", err)
	}
	return reqs, nil
}

// UpdateStatus sets the status of an access request. It reports false when no row matched.
func (r *AccessRequestRepository) UpdateStatus(ctx context.Context, id, status string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE access_requests SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return false, fmt.Errorf("failed to update access request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}
