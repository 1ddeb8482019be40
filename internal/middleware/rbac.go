package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/policy-auditor/policy-auditor/internal/db/models"
	"github.com/policy-auditor/policy-auditor/internal/services"
)

// ProfileKey is the gin context key holding the caller's *models.Profile
// once RequireRole has run.
const ProfileKey = "profile"

// AccountChecker loads a caller's profile and rejects unusable accounts.
// services.QuotaGate implements it.
type AccountChecker interface {
	Account(ctx context.Context, userID string) (*models.Profile, error)
}

// RequireRole is the single authorization check for role-gated routes. Roles
// are read from the profile on every request, so a demotion takes effect on
// the caller's next request without reissuing tokens.
func RequireRole(accounts AccountChecker, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, err := accounts.Account(c.Request.Context(), UserID(c))
		switch {
		case errors.Is(err, services.ErrAccountNotFound):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Account not found"})
			return
		case errors.Is(err, services.ErrAccountLocked):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Account is locked. Please contact support."})
			return
		case err != nil:
			slog.Error("failed to load profile for role check", "user_id", UserID(c), "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify permissions"})
			return
		}

		if profile.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "Insufficient permissions",
				"details": "Required role: " + role,
			})
			return
		}

		c.Set(ProfileKey, profile)
		c.Next()
	}
}

// Profile returns the profile stored by RequireRole, or nil
func Profile(c *gin.Context) *models.Profile {
	v, ok := c.Get(ProfileKey)
	if !ok {
		return nil
	}
	p, _ := v.(*models.Profile)
	return p
}
