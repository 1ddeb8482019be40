package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/policy-auditor/policy-auditor/internal/telemetry"
)

// Result is the routed generation outcome: the text plus which model served it.
type Result struct {
	Text     string
	ModelID  string
	Provider string
	Usage    Usage
	// FellBack is true when the fallback model produced the text
	FellBack bool
}

// Router invokes a primary model and, on a non-rate-limit failure, exactly one
// fallback model. A rate-limit failure on the primary is returned as
// *RateLimitError without touching the fallback.
type Router struct {
	primary  GenerationProvider
	fallback GenerationProvider
	timeout  time.Duration
}

// NewRouter creates a Router. A zero timeout leaves deadlines to ctx.
func NewRouter(primary, fallback GenerationProvider, timeout time.Duration) *Router {
	return &Router{primary: primary, fallback: fallback, timeout: timeout}
}

// Models returns the primary and fallback providers in order.
func (r *Router) Models() []GenerationProvider {
	return []GenerationProvider{r.primary, r.fallback}
}

// Generate runs req through the primary/fallback state machine.
func (r *Router) Generate(ctx context.Context, req Request) (*Result, error) {
	resp, err := r.call(ctx, r.primary, req)
	if err == nil {
		return newResult(r.primary, resp, false), nil
	}

	if IsRateLimit(err) {
		slog.Warn("primary model rate limited, not falling back",
			"provider", r.primary.Provider(), "model", r.primary.Model(), "error", err)
		return nil, &RateLimitError{Provider: r.primary.Provider(), Model: r.primary.Model(), Err: err}
	}

	slog.Warn("primary model failed, trying fallback",
		"provider", r.primary.Provider(), "model", r.primary.Model(),
		"fallback", r.fallback.Model(), "error", err)
	telemetry.ModelFallbacksTotal.Inc()

	resp, ferr := r.call(ctx, r.fallback, req)
	if ferr != nil {
		slog.Error("fallback model failed",
			"provider", r.fallback.Provider(), "model", r.fallback.Model(), "error", ferr)
		return nil, &CallError{Primary: err, Err: ferr}
	}
	return newResult(r.fallback, resp, true), nil
}

func (r *Router) call(ctx context.Context, p GenerationProvider, req Request) (*Response, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	resp, err := p.Generate(ctx, req)
	outcome := "success"
	switch {
	case err != nil && IsRateLimit(err):
		outcome = "rate_limited"
	case err != nil:
		outcome = "error"
	default:
		telemetry.ModelTokensTotal.WithLabelValues(p.Model(), "prompt").Add(float64(resp.Usage.PromptTokens))
		telemetry.ModelTokensTotal.WithLabelValues(p.Model(), "completion").Add(float64(resp.Usage.CompletionTokens))
	}
	telemetry.ModelCallsTotal.WithLabelValues(p.Model(), p.Provider(), outcome).Inc()
	return resp, err
}

func newResult(p GenerationProvider, resp *Response, fellBack bool) *Result {
	return &Result{
		Text:     resp.Text,
		ModelID:  p.Model(),
		Provider: p.Provider(),
		Usage:    resp.Usage,
		FellBack: fellBack,
	}
}
