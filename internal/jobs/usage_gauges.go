// usage_gauges.go implements the UsageGaugeJob background job, which keeps the
// per-model rpm/tpm Prometheus gauges in step with the admin stats view.
package jobs

import (
	"context"
	"log"
	"log/slog"
	"sync"
	"time"

	"github.com/policy-auditor/policy-auditor/internal/services"
	"github.com/policy-auditor/policy-auditor/internal/telemetry"
)

// DefaultGaugeInterval is how often UsageGaugeJob refreshes the gauges
const DefaultGaugeInterval = 15 * time.Second

// StatsCollector produces the current per-model stats
type StatsCollector interface {
	Collect(ctx context.Context) (*services.Stats, error)
}

// UsageGaugeJob periodically publishes StatsCollector output as the
// auditor_model_requests_per_minute and auditor_model_tokens_per_minute gauges.
type UsageGaugeJob struct {
	stats    StatsCollector
	interval time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewUsageGaugeJob creates a new gauge job. A non-positive interval uses DefaultGaugeInterval.
func NewUsageGaugeJob(stats StatsCollector, interval time.Duration) *UsageGaugeJob {
	if interval <= 0 {
		interval = DefaultGaugeInterval
	}
	return &UsageGaugeJob{
		stats:    stats,
		interval: interval,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the job in a new goroutine until Stop is called or ctx ends.
func (j *UsageGaugeJob) Start(ctx context.Context) {
	go j.run(ctx)
}

func (j *UsageGaugeJob) run(ctx context.Context) {
	defer close(j.done)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	log.Printf("Usage gauge job started with interval: %v", j.interval)

	// Run immediately on start
	j.refresh(ctx)

	for {
		select {
		case <-ticker.C:
			j.refresh(ctx)
		case <-j.stopChan:
			log.Println("Usage gauge job stopped")
			return
		case <-ctx.Done():
			log.Println("Usage gauge job context cancelled")
			return
		}
	}
}

// Stop stops the job and waits for the current refresh to finish
func (j *UsageGaugeJob) Stop() {
	j.stopOnce.Do(func() { close(j.stopChan) })
	<-j.done
}

func (j *UsageGaugeJob) refresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, j.interval)
	defer cancel()

	stats, err := j.stats.Collect(ctx)
	if err != nil {
		slog.Warn("usage gauge refresh failed", "error", err)
		return
	}
	for _, m := range stats.Models {
		telemetry.ModelRequestsPerMinute.WithLabelValues(m.ModelID).Set(float64(m.RPM))
		telemetry.ModelTokensPerMinute.WithLabelValues(m.ModelID).Set(float64(m.TPM))
	}
}
