// Package audit implements the caller-facing endpoints: policy audits, quota
// status, usage logs and the caller's own profile.
package audit

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/policy-auditor/policy-auditor/internal/api/respond"
	"github.com/policy-auditor/policy-auditor/internal/db/models"
	"github.com/policy-auditor/policy-auditor/internal/middleware"
	"github.com/policy-auditor/policy-auditor/internal/services"
	"github.com/policy-auditor/policy-auditor/internal/validation"
)

// multipartOverhead is allowed on top of the upload cap for form boundaries and fields
const multipartOverhead = 1 << 20

// Auditor runs one audit
type Auditor interface {
	Audit(ctx context.Context, in services.AuditInput) (*services.AuditResult, error)
}

// AccountGate reports account status and quota standing
type AccountGate interface {
	Account(ctx context.Context, userID string) (*models.Profile, error)
	Check(ctx context.Context, userID string) (*models.Profile, error)
	Status(ctx context.Context, userID string) (*services.QuotaStatus, error)
}

// UsageLister lists usage records; a nil userID lists all of them
type UsageLister interface {
	ListUsageRecords(ctx context.Context, userID *string) ([]*models.UsageRecord, error)
}

// Handlers serves the audit endpoints
type Handlers struct {
	auditor        Auditor
	gate           AccountGate
	usage          UsageLister
	maxUploadBytes int64
}

// NewHandlers creates a new Handlers instance
func NewHandlers(auditor Auditor, gate AccountGate, usage UsageLister, maxUploadBytes int64) *Handlers {
	return &Handlers{auditor: auditor, gate: gate, usage: usage, maxUploadBytes: maxUploadBytes}
}

// @Summary      Audit a policy
// @Description  Scores an uploaded PDF policy for statutory compliance. Counts against the caller's daily limit unless they are an admin.
// @Tags         Audit
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        file      formData  file    true   "Policy PDF"
// @Param        model_id  formData  string  false  "Model hint (ignored)"
// @Success      200  {object}  services.AuditResult
// @Failure      400  {object}  map[string]interface{}  "Invalid or unreadable file"
// @Failure      403  {object}  map[string]interface{}  "Account locked, not found, or daily limit reached"
// @Failure      429  {object}  map[string]interface{}  "AI provider rate limited"
// @Router       /audit [post]
// AuditHandler runs the audit pipeline on the uploaded file
// POST /audit
func (h *Handlers) AuditHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Account and quota errors take precedence over upload errors.
		if _, err := h.gate.Check(c.Request.Context(), middleware.UserID(c)); err != nil {
			respond.Error(c, err, respond.Messages{Internal: "Audit failed. Please try again."})
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)

		fileHeader, err := c.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "File exceeds the maximum upload size."})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded. Send the PDF in the 'file' form field."})
			return
		}

		f, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
			return
		}
		defer f.Close()

		// One byte past the cap is enough for validation to reject an oversized file
		data, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes+1))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
			return
		}

		result, err := h.auditor.Audit(c.Request.Context(), services.AuditInput{
			UserID:    middleware.UserID(c),
			Filename:  validation.SanitizeFilename(fileHeader.Filename),
			Data:      data,
			ModelHint: c.PostForm("model_id"),
		})
		if err != nil {
			respond.Error(c, err, respond.Messages{Internal: "Audit failed. Please try again."})
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// StatusHandler reports the caller's usage against their daily limit
// GET /audit/status
func (h *Handlers) StatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		status, err := h.gate.Status(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			respond.Error(c, err, respond.Messages{Internal: "Failed to load usage status"})
			return
		}
		c.JSON(http.StatusOK, status)
	}
}

// LogsHandler lists usage records oldest first. Admins see every record,
// everyone else only their own.
// GET /logs
func (h *Handlers) LogsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		profile, err := h.gate.Account(ctx, middleware.UserID(c))
		if err != nil {
			respond.Error(c, err, respond.Messages{Internal: "Failed to fetch logs"})
			return
		}

		var owner *string
		if !profile.IsAdmin() {
			owner = &profile.ID
		}
		records, err := h.usage.ListUsageRecords(ctx, owner)
		if err != nil {
			respond.Error(c, err, respond.Messages{Internal: "Failed to fetch logs"})
			return
		}
		if records == nil {
			records = []*models.UsageRecord{}
		}
		c.JSON(http.StatusOK, records)
	}
}

// ProfileHandler returns the caller's own profile
// GET /profile
func (h *Handlers) ProfileHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, err := h.gate.Account(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			respond.Error(c, err, respond.Messages{Internal: "Failed to load profile"})
			return
		}
		c.JSON(http.StatusOK, profile)
	}
}
