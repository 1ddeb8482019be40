// Package shipper forwards persisted usage records to external sinks so
// billing and reporting systems can consume them without reading the
// database. Sinks are configured under usage_shippers and run side by side.
package shipper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/policy-auditor/policy-auditor/internal/config"
	"github.com/policy-auditor/policy-auditor/internal/db/models"
)

// Shipper sends usage records to one destination
type Shipper interface {
	Ship(ctx context.Context, rec *models.UsageRecord) error
	Close() error
}

// MultiShipper fans a record out to every enabled shipper
type MultiShipper struct {
	shippers []Shipper
}

// New builds a MultiShipper from config. Disabled entries are skipped.
func New(configs []config.UsageShipperConfig) (*MultiShipper, error) {
	ms := &MultiShipper{}
	for _, cfg := range configs {
		if !cfg.Enabled {
			continue
		}

		var (
			s   Shipper
			err error
		)
		switch cfg.Type {
		case "webhook":
			s, err = NewWebhookShipper(WebhookConfig{
				URL:           cfg.URL,
				Headers:       cfg.Headers,
				Timeout:       time.Duration(cfg.TimeoutSecs) * time.Second,
				BatchSize:     cfg.BatchSize,
				FlushInterval: time.Duration(cfg.FlushIntervalSecs) * time.Second,
			})
		case "file":
			s, err = NewFileShipper(FileConfig{
				Path:       cfg.Path,
				MaxSizeMB:  cfg.MaxSizeMB,
				MaxBackups: cfg.MaxBackups,
			})
		default:
			err = fmt.Errorf("unknown shipper type: %s", cfg.Type)
		}
		if err != nil {
			_ = ms.Close()
			return nil, fmt.Errorf("failed to create %s shipper: %w", cfg.Type, err)
		}
		ms.shippers = append(ms.shippers, s)
	}
	return ms, nil
}

// Len returns the number of active shippers
func (ms *MultiShipper) Len() int {
	return len(ms.shippers)
}

// Ship sends rec to every shipper. A failing shipper does not stop the
// others; all errors are joined.
func (ms *MultiShipper) Ship(ctx context.Context, rec *models.UsageRecord) error {
	var errs []error
	for _, s := range ms.shippers {
		if err := s.Ship(ctx, rec); err != nil {
			slog.Warn("usage shipper error", "record_id", rec.ID, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every shipper
func (ms *MultiShipper) Close() error {
	var errs []error
	for _, s := range ms.shippers {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
