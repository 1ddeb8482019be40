package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/policy-auditor/policy-auditor/internal/compliance"
	"github.com/policy-auditor/policy-auditor/internal/config"
	"github.com/policy-auditor/policy-auditor/internal/db/models"
	"github.com/policy-auditor/policy-auditor/internal/extract"
	"github.com/policy-auditor/policy-auditor/internal/knowledge"
	"github.com/policy-auditor/policy-auditor/internal/llm"
	"github.com/policy-auditor/policy-auditor/internal/safego"
	"github.com/policy-auditor/policy-auditor/internal/storage"
	"github.com/policy-auditor/policy-auditor/internal/telemetry"
	"github.com/policy-auditor/policy-auditor/internal/validation"
	"github.com/policy-auditor/policy-auditor/pkg/checksum"
)

// AuditEndpoint is the endpoint name written to usage records
const AuditEndpoint = "/audit"

// ContextRetriever produces the legal-context block for a query embedding
type ContextRetriever interface {
	Context(ctx context.Context, embedding []float32) (string, []knowledge.Match)
}

// Generator runs a prompt through the routed models
type Generator interface {
	Generate(ctx context.Context, req llm.Request) (*llm.Result, error)
}

// UsageWriter persists usage records
type UsageWriter interface {
	CreateUsageRecord(ctx context.Context, rec *models.UsageRecord) error
}

// UsageShipper forwards persisted usage records to external sinks
type UsageShipper interface {
	Ship(ctx context.Context, rec *models.UsageRecord) error
}

// AuditInput is one uploaded policy
type AuditInput struct {
	UserID   string
	Filename string
	Data     []byte
	// ModelHint is accepted for compatibility and logged; routing is fixed.
	ModelHint string
}

// AuditResult is returned to the caller of POST /audit
type AuditResult struct {
	ComplianceScore int      `json:"compliance_score"`
	Findings        []string `json:"findings"`
	ModelID         string   `json:"model_id"`
	Provider        string   `json:"provider"`
	ResponseTimeMS  int      `json:"response_time_ms"`
}

// Auditor runs the audit pipeline for one uploaded policy
type Auditor struct {
	cfg       config.AuditConfig
	gate      *QuotaGate
	embedder  llm.Embedder
	retriever ContextRetriever
	generator Generator
	usage     UsageWriter
	shipper   UsageShipper
	archive   storage.Storage

	extractText func(data []byte, minChars int) (string, error)
	now         func() time.Time
}

// AuditorDeps collects the Auditor's collaborators. Shipper and Archive may be nil.
type AuditorDeps struct {
	Gate      *QuotaGate
	Embedder  llm.Embedder
	Retriever ContextRetriever
	Generator Generator
	Usage     UsageWriter
	Shipper   UsageShipper
	Archive   storage.Storage
}

// NewAuditor creates a new Auditor
func NewAuditor(cfg config.AuditConfig, deps AuditorDeps) *Auditor {
	return &Auditor{
		cfg:       cfg,
		gate:      deps.Gate,
		embedder:  deps.Embedder,
		retriever: deps.Retriever,
		generator: deps.Generator,
		usage:     deps.Usage,
		shipper:   deps.Shipper,
		archive:   deps.Archive,

		extractText: extract.PDF,
		now:         time.Now,
	}
}

// Audit runs quota, validation, extraction, embedding, retrieval, generation
// and parsing in that order, then records usage. The usage record is written
// only after a result exists; if that write fails the result is still
// returned and the loss is logged at error level.
func (a *Auditor) Audit(ctx context.Context, in AuditInput) (*AuditResult, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "audit")
	defer span.End()
	span.SetAttributes(attribute.String("audit.filename", in.Filename))

	start := a.now()
	result, err := a.run(ctx, in, start)
	outcome := auditOutcome(err)
	telemetry.AuditsTotal.WithLabelValues(outcome).Inc()
	if err != nil {
		span.SetStatus(codes.Error, outcome)
		span.RecordError(err)
		return nil, err
	}
	telemetry.AuditDuration.Observe(a.now().Sub(start).Seconds())
	return result, nil
}

func (a *Auditor) run(ctx context.Context, in AuditInput, start time.Time) (*AuditResult, error) {
	if _, err := a.gate.Check(ctx, in.UserID); err != nil {
		return nil, err
	}

	if err := validation.ValidatePDF(in.Filename, in.Data, a.cfg.MaxUploadBytes); err != nil {
		return nil, invalid(err.Error(), err)
	}

	text, err := a.extractText(in.Data, a.cfg.MinTextChars)
	if err != nil {
		var short *extract.InsufficientContentError
		if errors.As(err, &short) {
			return nil, invalid("Could not extract enough text from the PDF. Scanned or image-only documents are not supported.", err)
		}
		return nil, invalid("Could not read the PDF. The file may be corrupted or password-protected.", err)
	}

	embedding, err := a.embedder.Embed(ctx, compliance.Truncate(text, a.cfg.EmbedCharCap))
	if err != nil {
		err = &llm.EmbeddingError{Err: err}
		if llm.IsRateLimit(err) {
			return nil, &RateLimitedError{Stage: "embedding", Err: err}
		}
		return nil, &ProviderError{Stage: "embedding", Err: err}
	}

	legalContext, matches := a.retriever.Context(ctx, embedding)
	prompt := compliance.BuildPrompt(legalContext, text, a.cfg.PolicyCharCap)

	if in.ModelHint != "" {
		slog.DebugContext(ctx, "ignoring model hint, routing is fixed", "model_hint", in.ModelHint)
	}
	gen, err := a.generator.Generate(ctx, llm.Request{System: prompt.System, Prompt: prompt.User})
	if err != nil {
		var rl *llm.RateLimitError
		if errors.As(err, &rl) {
			return nil, &RateLimitedError{Stage: "generation", Err: err}
		}
		return nil, &ProviderError{Stage: "generation", Err: err}
	}

	assessment := compliance.Parse(gen.Text)
	if assessment.Degraded {
		telemetry.ParseDegradedTotal.Inc()
		slog.WarnContext(ctx, "model response could not be parsed, returning neutral score",
			"model", gen.ModelID, "provider", gen.Provider, "user_id", in.UserID)
	}

	elapsed := int(a.now().Sub(start).Milliseconds())
	result := &AuditResult{
		ComplianceScore: assessment.ComplianceScore,
		Findings:        assessment.Findings,
		ModelID:         gen.ModelID,
		Provider:        gen.Provider,
		ResponseTimeMS:  elapsed,
	}

	a.record(ctx, in, result, gen.Usage)
	a.archiveDocument(ctx, in)

	slog.InfoContext(ctx, "audit completed",
		"user_id", in.UserID, "model", gen.ModelID, "fell_back", gen.FellBack,
		"score", result.ComplianceScore, "context_chunks", len(matches), "response_time_ms", elapsed)
	return result, nil
}

// record writes the usage record and ships it. The caller may have gone
// away by now; the write is detached from its cancellation.
func (a *Auditor) record(ctx context.Context, in AuditInput, result *AuditResult, usage llm.Usage) {
	score := result.ComplianceScore
	userID := in.UserID
	rec := &models.UsageRecord{
		Endpoint:         AuditEndpoint,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
		Filename:         in.Filename,
		RiskScore:        &score,
		UserID:           &userID,
		Findings:         models.StringList(result.Findings),
		ModelID:          result.ModelID,
		Provider:         result.Provider,
		ResponseTimeMS:   result.ResponseTimeMS,
	}

	detached := context.WithoutCancel(ctx)
	if err := a.usage.CreateUsageRecord(detached, rec); err != nil {
		telemetry.UsageRecordsLostTotal.Inc()
		slog.ErrorContext(ctx, "usage record lost",
			"error", err, "user_id", in.UserID, "filename", in.Filename,
			"model", result.ModelID, "provider", result.Provider,
			"total_tokens", usage.TotalTokens, "score", score)
		return
	}

	if a.shipper == nil {
		return
	}
	safego.Go("ship_usage_record", func() {
		if err := a.shipper.Ship(detached, rec); err != nil {
			slog.Warn("failed to ship usage record", "id", rec.ID, "error", err)
		}
	})
}

func (a *Auditor) archiveDocument(ctx context.Context, in AuditInput) {
	if a.archive == nil {
		return
	}
	key := storage.AuditDocumentKey(in.UserID, checksum.SHA256Bytes(in.Data))
	detached := context.WithoutCancel(ctx)
	safego.Go("archive_document", func() {
		if _, err := a.archive.Upload(detached, key, bytes.NewReader(in.Data), int64(len(in.Data))); err != nil {
			slog.Warn("failed to archive audited document", "key", key, "error", err)
		}
	})
}

func auditOutcome(err error) string {
	var (
		quota *QuotaExceededError
		inv   *ValidationError
		rl    *RateLimitedError
		perr  *ProviderError
	)
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrAccountNotFound), errors.Is(err, ErrAccountLocked):
		return "account"
	case errors.As(err, &quota):
		return "quota"
	case errors.As(err, &inv):
		return "validation"
	case errors.As(err, &rl):
		return "rate_limited"
	case errors.As(err, &perr):
		return "provider_error"
	default:
		return "error"
	}
}
