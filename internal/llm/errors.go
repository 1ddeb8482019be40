package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// rateLimitMarkers are matched case-insensitively against error text for
// providers or proxies that do not surface a status code.
var rateLimitMarkers = []string{"resource_exhausted", "rate limit", "quota"}

// IsRateLimit reports whether err is a provider capacity signal (HTTP 429 or
// an equivalent quota message). Such errors must not trigger a fallback.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}

	var gErr genai.APIError
	if errors.As(err, &gErr) {
		if gErr.Code == http.StatusTooManyRequests || gErr.Status == "RESOURCE_EXHAUSTED" {
			return true
		}
	}

	var oErr *openai.APIError
	if errors.As(err, &oErr) && oErr.HTTPStatusCode == http.StatusTooManyRequests {
		return true
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, m := range rateLimitMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// RateLimitError is returned by the Router when the primary model reported a
// rate limit. The fallback is not attempted.
type RateLimitError struct {
	Provider string
	Model    string
	Err      error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s/%s rate limited: %v", e.Provider, e.Model, e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// CallError is returned by the Router when both hops failed. Err is the
// fallback's error; Primary is kept for logging.
type CallError struct {
	Primary error
	Err     error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("generation failed: primary: %v; fallback: %v", e.Primary, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// EmbeddingError wraps a failed embedding call.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding failed: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }
