// Package models - profile.go defines the Profile model: the local account state
// (role, lock and soft-delete flags, daily audit quota) attached to an identity
// issued by the external identity provider.
package models

import "time"

// Profile roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Profile is one row per identity-provider user id. Profiles are never hard-deleted.
type Profile struct {
	ID              string    `db:"id" json:"id"`
	Email           string    `db:"email" json:"email"`
	FullName        string    `db:"full_name" json:"full_name"`
	CompanyName     string    `db:"company_name" json:"company_name"`
	CompanySize     string    `db:"company_size" json:"company_size"`
	Industry        string    `db:"industry" json:"industry"`
	Role            string    `db:"role" json:"role"`
	IsLocked        bool      `db:"is_locked" json:"is_locked"`
	IsDeleted       bool      `db:"is_deleted" json:"is_deleted"`
	DailyAuditLimit int       `db:"daily_audit_limit" json:"daily_audit_limit"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// IsAdmin reports whether the profile carries the admin role
func (p *Profile) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}
