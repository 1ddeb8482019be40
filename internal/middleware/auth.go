// Package middleware provides Gin HTTP middleware for authentication, role
// checks, rate limiting, security headers and request metrics.
//
// Ordering is fixed in router.go:
//
//	Security → Auth → RateLimit → RequireRole → Handler
//
// Rate limiting runs after auth so authenticated callers are keyed by user id
// rather than by the address of a shared proxy.
package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/policy-auditor/policy-auditor/internal/auth"
)

// Context keys set by AuthMiddleware
const (
	UserIDKey = "user_id"
	EmailKey  = "email"
)

// AuthMiddleware requires a bearer token accepted by verifier and stores the
// caller's identity in the gin context.
func AuthMiddleware(verifier auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, msg := bearerToken(c.GetHeader("Authorization"))
		if msg != "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		identity, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, auth.ErrInvalidToken) {
				slog.Warn("token verification failed", "error", err)
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(UserIDKey, identity.UserID)
		c.Set(EmailKey, identity.Email)
		c.Next()
	}
}

// bearerToken extracts the token from an Authorization header value. The
// second return is a client-facing message when the header is unusable.
func bearerToken(header string) (string, string) {
	if header == "" {
		return "", "Missing authorization header"
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return "", "Authorization header must start with 'Bearer '"
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return "", "Authorization token is empty"
	}
	return token, ""
}

// UserID returns the authenticated caller's id, or "" outside AuthMiddleware
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
