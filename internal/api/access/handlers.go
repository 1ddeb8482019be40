// Package access serves the public waiting list: anyone can ask for an
// account and later check whether it was approved.
package access

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/policy-auditor/policy-auditor/internal/api/respond"
	"github.com/policy-auditor/policy-auditor/internal/db/models"
	"github.com/policy-auditor/policy-auditor/internal/services"
)

// Requests submits and looks up access requests
type Requests interface {
	Submit(ctx context.Context, in services.AccessRequestInput) (*models.AccessRequest, error)
	Status(ctx context.Context, email string) (*services.AccessRequestStatus, error)
}

// Handlers serves the public access request endpoints
type Handlers struct {
	requests Requests
}

// NewHandlers creates a new Handlers instance
func NewHandlers(requests Requests) *Handlers {
	return &Handlers{requests: requests}
}

// @Summary      Request access
// @Description  Adds the applicant to the waiting list. One request per email.
// @Tags         Access
// @Accept       json
// @Produce      json
// @Param        body  body      services.AccessRequestInput  true  "Applicant"
// @Success      201   {object}  models.AccessRequest
// @Failure      400   {object}  map[string]interface{}  "Invalid request"
// @Failure      409   {object}  map[string]interface{}  "Already requested"
// @Router       /access-requests [post]
// SubmitHandler records a new access request
// POST /access-requests
func (h *Handlers) SubmitHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in services.AccessRequestInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": respond.MsgInvalidBody})
			return
		}

		req, err := h.requests.Submit(c.Request.Context(), in)
		if err != nil {
			respond.Error(c, err, respond.Messages{
				Conflict: "An access request for this email already exists",
				Internal: "Failed to submit access request",
			})
			return
		}
		c.JSON(http.StatusCreated, req)
	}
}

// StatusHandler reports the state of the request for an email
// GET /access-requests/status?email=
func (h *Handlers) StatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		status, err := h.requests.Status(c.Request.Context(), c.Query("email"))
		if err != nil {
			respond.Error(c, err, respond.Messages{
				NotFound: "No access request found for this email",
				Internal: "Failed to look up access request",
			})
			return
		}
		c.JSON(http.StatusOK, status)
	}
}
