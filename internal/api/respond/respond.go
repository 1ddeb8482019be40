// Package respond maps service errors onto HTTP responses. It is the only
// place that turns a business error into a status code; handlers pass every
// service error through Error.
package respond

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/policy-auditor/policy-auditor/internal/middleware"
	"github.com/policy-auditor/policy-auditor/internal/services"
)

// Client-facing messages for account and upstream failures
const (
	MsgAccountNotFound = "Account not found. Please contact support."
	MsgAccountLocked   = "Account is locked. Please contact support."
	MsgRateLimited     = "The AI service is busy. Please try again in a minute."
	MsgProviderFailed  = "The AI service could not process the document. Please try again."
	MsgProvisioningOff = "User provisioning is not configured"
	MsgInvalidBody     = "Invalid request body"
	msgDefaultNotFound = "Not found"
	msgDefaultConflict = "Resource already exists"
	msgDefaultInternal = "Internal server error"
)

// QuotaMessage is the 403 body for a caller at their daily limit
func QuotaMessage(e *services.QuotaExceededError) string {
	return fmt.Sprintf("Daily audit limit reached (%d of %d used). Your limit resets at 00:00 UTC.", e.Used, e.Limit)
}

// Messages overrides the default bodies for a handler's 404, 409 and 500 cases
type Messages struct {
	NotFound string
	Conflict string
	Internal string
}

// Error writes the response for err. Detail from provider, storage and
// database errors is logged, never returned.
func Error(c *gin.Context, err error, msgs Messages) {
	var (
		inv   *services.ValidationError
		quota *services.QuotaExceededError
		rl    *services.RateLimitedError
		perr  *services.ProviderError
	)

	switch {
	case errors.As(err, &inv):
		c.JSON(http.StatusBadRequest, gin.H{"error": inv.Message})
	case errors.Is(err, services.ErrAccountNotFound):
		c.JSON(http.StatusForbidden, gin.H{"error": MsgAccountNotFound})
	case errors.Is(err, services.ErrAccountLocked):
		c.JSON(http.StatusForbidden, gin.H{"error": MsgAccountLocked})
	case errors.As(err, &quota):
		c.JSON(http.StatusForbidden, gin.H{
			"error":       QuotaMessage(quota),
			"usage_today": quota.Used,
			"daily_limit": quota.Limit,
		})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": orDefault(msgs.NotFound, msgDefaultNotFound)})
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": orDefault(msgs.Conflict, msgDefaultConflict)})
	case errors.Is(err, services.ErrProvisioningDisabled):
		c.JSON(http.StatusNotImplemented, gin.H{"error": MsgProvisioningOff})
	case errors.As(err, &rl):
		slog.Warn("upstream rate limit", "stage", rl.Stage, "error", rl.Err, "request_id", c.GetString(middleware.RequestIDKey))
		c.Header("Retry-After", strconv.Itoa(middleware.RetryAfterSeconds))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": MsgRateLimited, "retry_after": middleware.RetryAfterSeconds})
	case errors.As(err, &perr):
		slog.Error("upstream provider failed", "stage", perr.Stage, "error", perr.Err, "request_id", c.GetString(middleware.RequestIDKey))
		c.JSON(http.StatusInternalServerError, gin.H{"error": MsgProviderFailed})
	default:
		slog.Error("request failed", "path", c.FullPath(), "error", err, "request_id", c.GetString(middleware.RequestIDKey))
		c.JSON(http.StatusInternalServerError, gin.H{"error": orDefault(msgs.Internal, msgDefaultInternal)})
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
