// usage_repository.go implements UsageRepository, the insert-only store of
// per-audit usage records, plus the reads that back the quota gate, the /logs
// listing and the admin stats window.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/policy-auditor/policy-auditor/internal/db/models"
)

const usageColumns = `id, endpoint, prompt_tokens, completion_tokens, total_tokens, filename,
	risk_score, user_id, findings, model_id, provider, response_time_ms, created_at`

// UsageRepository handles usage record database operations
type UsageRepository struct {
	db *sql.DB
}

// NewUsageRepository creates a new UsageRepository
func NewUsageRepository(db *sql.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

// CreateUsageRecord inserts rec and fills in the store-assigned id and created_at
func (r *UsageRepository) CreateUsageRecord(ctx context.Context, rec *models.UsageRecord) error {
	query := `
		INSERT INTO usage_records (endpoint, prompt_tokens, completion_tokens, total_tokens, filename,
			risk_score, user_id, findings, model_id, provider, response_time_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		rec.Endpoint,
		rec.PromptTokens,
		rec.CompletionTokens,
		rec.TotalTokens,
		rec.Filename,
		rec.RiskScore,
		rec.UserID,
		rec.Findings,
		rec.ModelID,
		rec.Provider,
		rec.ResponseTimeMS,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create usage record: %w", err)
	}
	return nil
}

// CountUserRecords counts records owned by userID with created_at in [from, to)
func (r *UsageRepository) CountUserRecords(ctx context.Context, userID string, from, to time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM usage_records WHERE user_id = $1 AND created_at >= $2 AND created_at < $3`
	if err := r.db.QueryRowContext(ctx, query, userID, from, to).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count usage records: %w", err)
	}
	return count, nil
}

// ListUsageRecords returns records ordered by creation time ascending. A nil
// userID lists every record.
func (r *UsageRepository) ListUsageRecords(ctx context.Context, userID *string) ([]*models.UsageRecord, error) {
	query := `SELECT ` + usageColumns + ` FROM usage_records`
	args := []interface{}{}
	if userID != nil {
		query += ` WHERE user_id = $1`
		args = append(args, *userID)
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list usage records: %w", err)
	}
	defer rows.Close()

	records := []*models.UsageRecord{}
	for rows.Next() {
		rec := &models.UsageRecord{}
		var riskScore sql.NullInt64
		var owner sql.NullString
		if err := rows.Scan(
			&rec.ID,
			&rec.Endpoint,
			&rec.PromptTokens,
			&rec.CompletionTokens,
			&rec.TotalTokens,
			&rec.Filename,
			&riskScore,
			&owner,
			&rec.Findings,
			&rec.ModelID,
			&rec.Provider,
			&rec.ResponseTimeMS,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan usage record: %w", err)
		}
		if riskScore.Valid {
			v := int(riskScore.Int64)
			rec.RiskScore = &v
		}
		if owner.Valid {
			rec.UserID = &owner.String
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate usage records: %w", err)
	}
	return records, nil
}

// ModelUsageSince aggregates request counts and token sums per model for
// records created at or after since
func (r *UsageRepository) ModelUsageSince(ctx context.Context, since time.Time) ([]models.ModelUsage, error) {
	query := `
		SELECT model_id, COUNT(*) AS requests, COALESCE(SUM(total_tokens), 0) AS total_tokens
		FROM usage_records
		WHERE created_at >= $1
		GROUP BY model_id
	`
	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate model usage: %w", err)
	}
	defer rows.Close()

	var usage []models.ModelUsage
	for rows.Next() {
		var u models.ModelUsage
		if err := rows.Scan(&u.ModelID, &u.Requests, &u.TotalTokens); err != nil {
			return nil, fmt.Errorf("failed to scan model usage: %w", err)
		}
		usage = append(usage, u)
	}
	return usage, rows.Err()
}
