// users.go implements account provisioning and profile administration: creating
// users at the identity provider, resetting passwords, locking, limiting and
// soft-deleting profiles.
package admin

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/policy-auditor/policy-auditor/internal/api/respond"
	"github.com/policy-auditor/policy-auditor/internal/db/models"
	"github.com/policy-auditor/policy-auditor/internal/services"
)

// Accounts is the account administration used by UserHandlers
type Accounts interface {
	Provision(ctx context.Context, req services.ProvisionRequest) (*models.Profile, error)
	SetPassword(ctx context.Context, userID string, req services.PasswordRequest) error
	Profile(ctx context.Context, id string) (*models.Profile, error)
	ListProfiles(ctx context.Context) ([]models.Profile, error)
	SetLocked(ctx context.Context, id string, locked bool) error
	SetDailyLimit(ctx context.Context, id string, limit int) error
	Delete(ctx context.Context, id string) error
}

const msgProfileNotFound = "Profile not found"

// UserHandlers handles user and profile management endpoints
type UserHandlers struct {
	accounts Accounts
}

// NewUserHandlers creates a new UserHandlers instance
func NewUserHandlers(accounts Accounts) *UserHandlers {
	return &UserHandlers{accounts: accounts}
}

// @Summary      Create user
// @Description  Creates a pre-confirmed identity and its profile. Requires the admin role.
// @Tags         Users
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      services.ProvisionRequest  true  "New user"
// @Success      201   {object}  models.Profile
// @Failure      400   {object}  map[string]interface{}  "Invalid request"
// @Failure      409   {object}  map[string]interface{}  "Email already registered"
// @Failure      501   {object}  map[string]interface{}  "Provisioning not configured"
// @Router       /admin/users [post]
// CreateUserHandler provisions a user
// POST /admin/users
func (h *UserHandlers) CreateUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req services.ProvisionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": respond.MsgInvalidBody})
			return
		}

		profile, err := h.accounts.Provision(c.Request.Context(), req)
		if err != nil {
			respond.Error(c, err, respond.Messages{
				Conflict: "A user with this email already exists",
				Internal: "Failed to create user",
			})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"success": true, "user": profile})
	}
}

// UpdatePasswordHandler replaces a user's password
// PUT /admin/users/:id/password
func (h *UserHandlers) UpdatePasswordHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req services.PasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": respond.MsgInvalidBody})
			return
		}

		if err := h.accounts.SetPassword(c.Request.Context(), c.Param("id"), req); err != nil {
			respond.Error(c, err, respond.Messages{
				NotFound: "User not found",
				Internal: "Failed to update password",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password updated"})
	}
}

// ListProfilesHandler lists every profile, newest first
// GET /admin/profiles
func (h *UserHandlers) ListProfilesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		profiles, err := h.accounts.ListProfiles(c.Request.Context())
		if err != nil {
			respond.Error(c, err, respond.Messages{Internal: "Failed to list profiles"})
			return
		}
		if profiles == nil {
			profiles = []models.Profile{}
		}
		c.JSON(http.StatusOK, profiles)
	}
}

// GetProfileHandler returns one profile
// GET /admin/profiles/:id
func (h *UserHandlers) GetProfileHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, err := h.accounts.Profile(c.Request.Context(), c.Param("id"))
		if err != nil {
			respond.Error(c, err, respond.Messages{NotFound: msgProfileNotFound, Internal: "Failed to load profile"})
			return
		}
		c.JSON(http.StatusOK, profile)
	}
}

type lockRequest struct {
	IsLocked *bool `json:"is_locked" binding:"required"`
}

// SetLockedHandler locks or unlocks an account
// PUT /admin/profiles/:id/lock
func (h *UserHandlers) SetLockedHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req lockRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "is_locked is required"})
			return
		}

		if err := h.accounts.SetLocked(c.Request.Context(), c.Param("id"), *req.IsLocked); err != nil {
			respond.Error(c, err, respond.Messages{NotFound: msgProfileNotFound, Internal: "Failed to update profile"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "is_locked": *req.IsLocked})
	}
}

type limitRequest struct {
	DailyAuditLimit *int `json:"daily_audit_limit" binding:"required"`
}

// SetDailyLimitHandler changes an account's daily audit limit
// PUT /admin/profiles/:id/limit
func (h *UserHandlers) SetDailyLimitHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req limitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "daily_audit_limit is required"})
			return
		}

		if err := h.accounts.SetDailyLimit(c.Request.Context(), c.Param("id"), *req.DailyAuditLimit); err != nil {
			respond.Error(c, err, respond.Messages{NotFound: msgProfileNotFound, Internal: "Failed to update profile"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "daily_audit_limit": *req.DailyAuditLimit})
	}
}

// DeleteProfileHandler soft-deletes an account
// DELETE /admin/profiles/:id
func (h *UserHandlers) DeleteProfileHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.accounts.Delete(c.Request.Context(), c.Param("id")); err != nil {
			respond.Error(c, err, respond.Messages{NotFound: msgProfileNotFound, Internal: "Failed to delete profile"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
