// stats.go serves per-model request and token rates for the admin dashboard.
package admin

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/policy-auditor/policy-auditor/internal/api/respond"
	"github.com/policy-auditor/policy-auditor/internal/services"
)

// StatsCollector produces the admin stats payload
type StatsCollector interface {
	Collect(ctx context.Context) (*services.Stats, error)
}

// StatsHandler handles stats-related API requests
type StatsHandler struct {
	stats StatsCollector
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(stats StatsCollector) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// @Summary      Model usage stats
// @Description  Requests and tokens per minute for the primary and fallback models, with their configured limits.
// @Tags         Stats
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  services.Stats
// @Failure      403  {object}  map[string]interface{}  "Admin role required"
// @Router       /admin/stats [get]
// GetStats returns current model usage
func (h *StatsHandler) GetStats(c *gin.Context) {
	stats, err := h.stats.Collect(c.Request.Context())
	if err != nil {
		respond.Error(c, err, respond.Messages{Internal: "Failed to retrieve stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
