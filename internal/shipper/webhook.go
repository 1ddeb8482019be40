package shipper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/policy-auditor/policy-auditor/internal/db/models"
)

// WebhookConfig holds webhook shipper configuration
type WebhookConfig struct {
	URL     string
	Headers map[string]string
	// Timeout defaults to 10s
	Timeout time.Duration
	// BatchSize > 0 posts JSON arrays of up to BatchSize records
	BatchSize int
	// FlushInterval defaults to 5s when batching
	FlushInterval time.Duration
}

// WebhookShipper POSTs usage records as JSON. With batching enabled, records
// are queued and posted as arrays when the batch fills, on the flush
// interval, and on Close.
type WebhookShipper struct {
	cfg    WebhookConfig
	client *http.Client

	queue     chan *models.UsageRecord
	done      chan struct{}
	closeCh   chan struct{}
	closeOnce sync.Once
}

// NewWebhookShipper creates a new webhook shipper
func NewWebhookShipper(cfg WebhookConfig) (*WebhookShipper, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("webhook url is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.FlushInterval == 0 {
		cfg.FlushInterval = 5 * time.Second
	}

	ws := &WebhookShipper{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		queue:   make(chan *models.UsageRecord, 1000),
		done:    make(chan struct{}),
		closeCh: make(chan struct{}),
	}
	if cfg.BatchSize > 0 {
		go ws.processBatches()
	} else {
		close(ws.done)
	}
	return ws, nil
}

func (ws *WebhookShipper) processBatches() {
	defer close(ws.done)

	ticker := time.NewTicker(ws.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([]*models.UsageRecord, 0, ws.cfg.BatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := ws.post(context.Background(), batch); err != nil {
			slog.Warn("failed to ship usage batch", "records", len(batch), "error", err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case rec := <-ws.queue:
			batch = append(batch, rec)
			if len(batch) >= ws.cfg.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-ws.closeCh:
			for {
				select {
				case rec := <-ws.queue:
					batch = append(batch, rec)
				default:
					flush()
					return
				}
			}
		}
	}
}

// Ship queues rec when batching, or posts it directly. A full queue falls
// back to a direct post.
func (ws *WebhookShipper) Ship(ctx context.Context, rec *models.UsageRecord) error {
	if ws.cfg.BatchSize > 0 {
		select {
		case ws.queue <- rec:
			return nil
		default:
		}
	}
	return ws.post(ctx, rec)
}

func (ws *WebhookShipper) post(ctx context.Context, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal usage payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ws.cfg.URL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range ws.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := ws.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// Close flushes any queued records and stops the batch loop
func (ws *WebhookShipper) Close() error {
	ws.closeOnce.Do(func() { close(ws.closeCh) })
	<-ws.done
	return nil
}
