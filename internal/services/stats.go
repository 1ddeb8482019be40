package services

import (
	"context"
	"fmt"
	"time"

	"github.com/policy-auditor/policy-auditor/internal/config"
	"github.com/policy-auditor/policy-auditor/internal/db/models"
)

// Provider status values reported by GET /admin/stats
const (
	StatusConfigured    = "configured"
	StatusNotConfigured = "not_configured"
)

// ModelUsageReader aggregates usage records per model since a point in time
type ModelUsageReader interface {
	ModelUsageSince(ctx context.Context, since time.Time) ([]models.ModelUsage, error)
}

// ModelStats is one tracked model's recent load
type ModelStats struct {
	ModelID  string `json:"model_id"`
	Provider string `json:"provider"`
	Status   string `json:"status"`
	RPM      int    `json:"rpm"`
	TPM      int    `json:"tpm"`
	RPMLimit int    `json:"rpm_limit"`
	TPMLimit int    `json:"tpm_limit"`
}

// Stats is the admin stats payload
type Stats struct {
	Models        []ModelStats `json:"models"`
	WindowSeconds int          `json:"window_seconds"`
}

// StatsAggregator reports per-model request and token rates over a trailing
// window. Usage records stand in for requests, so rates cover completed
// audits only.
type StatsAggregator struct {
	llm    *config.LLMConfig
	usage  ModelUsageReader
	window time.Duration
	now    func() time.Time
}

// NewStatsAggregator creates a new StatsAggregator. A non-positive window defaults to one minute.
func NewStatsAggregator(llmCfg *config.LLMConfig, usage ModelUsageReader, window time.Duration) *StatsAggregator {
	if window <= 0 {
		window = time.Minute
	}
	return &StatsAggregator{llm: llmCfg, usage: usage, window: window, now: time.Now}
}

// TrackedModels returns the primary and fallback models, without duplicates.
func (s *StatsAggregator) TrackedModels() []config.ModelConfig {
	tracked := []config.ModelConfig{s.llm.Primary}
	if s.llm.Fallback.Model != s.llm.Primary.Model {
		tracked = append(tracked, s.llm.Fallback)
	}
	return tracked
}

// Collect reads the window's usage and builds the stats payload.
func (s *StatsAggregator) Collect(ctx context.Context) (*Stats, error) {
	rows, err := s.usage.ModelUsageSince(ctx, s.now().Add(-s.window))
	if err != nil {
		return nil, fmt.Errorf("failed to read model usage: %w", err)
	}
	byModel := make(map[string]models.ModelUsage, len(rows))
	for _, r := range rows {
		byModel[r.ModelID] = r
	}

	perMinute := func(n int) int {
		return int(int64(n) * int64(time.Minute) / int64(s.window))
	}

	out := &Stats{Models: []ModelStats{}, WindowSeconds: int(s.window / time.Second)}
	for _, m := range s.TrackedModels() {
		status := StatusNotConfigured
		if s.llm.ProviderConfigured(m.Provider) {
			status = StatusConfigured
		}
		u := byModel[m.Model]
		out.Models = append(out.Models, ModelStats{
			ModelID:  m.Model,
			Provider: m.Provider,
			Status:   status,
			RPM:      perMinute(u.Requests),
			TPM:      perMinute(u.TotalTokens),
			RPMLimit: m.RPMLimit,
			TPMLimit: m.TPMLimit,
		})
	}
	return out, nil
}
