// access_requests.go lets admins review the public waiting list.
package admin

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/policy-auditor/policy-auditor/internal/api/respond"
	"github.com/policy-auditor/policy-auditor/internal/db/models"
)

// AccessRequestAdmin lists and decides access requests
type AccessRequestAdmin interface {
	List(ctx context.Context) ([]models.AccessRequest, error)
	SetStatus(ctx context.Context, id, status string) error
}

// AccessRequestHandlers handles access request review endpoints
type AccessRequestHandlers struct {
	requests AccessRequestAdmin
}

// NewAccessRequestHandlers creates a new AccessRequestHandlers instance
func NewAccessRequestHandlers(requests AccessRequestAdmin) *AccessRequestHandlers {
	return &AccessRequestHandlers{requests: requests}
}

// ListHandler lists every access request, newest first
// GET /admin/access-requests
func (h *AccessRequestHandlers) ListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqs, err := h.requests.List(c.Request.Context())
		if err != nil {
			respond.Error(c, err, respond.Messages{Internal: "Failed to list access requests"})
			return
		}
		if reqs == nil {
			reqs = []models.AccessRequest{}
		}
		c.JSON(http.StatusOK, reqs)
	}
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetStatusHandler approves, rejects or reopens a request
// PUT /admin/access-requests/:id
func (h *AccessRequestHandlers) SetStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
			return
		}
		if err := h.requests.SetStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
			respond.Error(c, err, respond.Messages{
				NotFound: "Access request not found",
				Internal: "Failed to update access request",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "status": req.Status})
	}
}
