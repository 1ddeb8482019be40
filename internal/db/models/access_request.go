// Package models - access_request.go defines the AccessRequest model for the public
// waiting list that precedes account provisioning.
package models

import "time"

// Access request statuses
const (
	AccessRequestPending  = "pending"
	AccessRequestApproved = "approved"
	AccessRequestRejected = "rejected"
)

// AccessRequest represents one entry on the waiting list. Email is unique.
type AccessRequest struct {
	ID          string    `db:"id" json:"id"`
	FullName    string    `db:"full_name" json:"full_name"`
	Email       string    `db:"email" json:"email"`
	CompanyName string    `db:"company_name" json:"company_name"`
	CompanySize string    `db:"company_size" json:"company_size"`
	Industry    string    `db:"industry" json:"industry"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ValidAccessRequestStatus reports whether s is a known status
func ValidAccessRequestStatus(s string) bool {
	switch s {
	case AccessRequestPending, AccessRequestApproved, AccessRequestRejected:
		return true
	}
	return false
}
