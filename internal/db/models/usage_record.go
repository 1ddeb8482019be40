// Package models - usage_record.go defines the UsageRecord written once per completed
// audit. Records are insert-only; the store assigns created_at.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// UsageRecord is the durable accounting row for one audit
type UsageRecord struct {
	ID               int64      `json:"id"`
	Endpoint         string     `json:"endpoint"`
	PromptTokens     int        `json:"prompt_tokens"`
	CompletionTokens int        `json:"completion_tokens"`
	TotalTokens      int        `json:"total_tokens"`
	Filename         string     `json:"filename"`
	RiskScore        *int       `json:"risk_score"` // compliance score, nil for non-audit endpoints
	UserID           *string    `json:"user_id"`
	Findings         StringList `json:"findings"`
	ModelID          string     `json:"model_id"`
	Provider         string     `json:"provider"`
	ResponseTimeMS   int        `json:"response_time_ms"`
	CreatedAt        time.Time  `json:"created_at"`
}

// ModelUsage is an aggregate of usage records for one model over a window
type ModelUsage struct {
	ModelID     string `db:"model_id"`
	Requests    int    `db:"requests"`
	TotalTokens int    `db:"total_tokens"`
}

// StringList is an ordered list of strings stored as a JSONB array
type StringList []string

// Value implements driver.Valuer
func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(s))
}

// Scan implements sql.Scanner
func (s *StringList) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*s = StringList{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for StringList: %T", src)
	}
	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("failed to decode string list: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*s = out
	return nil
}
