// Package llm wraps the generation and embedding providers behind two small
// interfaces and routes each audit to a primary model with a single fallback.
package llm

import (
	"context"
	"errors"
)

// Fixed decoding parameters. Compliance scores must be stable across repeated
// submissions of the same document, so these are not configurable.
const (
	Temperature float32 = 0
	TopP        float32 = 1
	TopK        float32 = 1
	Seed        int32   = 42
)

// Provider names
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// ErrNotConfigured is returned by providers that have no credentials.
var ErrNotConfigured = errors.New("provider not configured")

// ErrEmptyResponse is returned when a provider answers without any text.
var ErrEmptyResponse = errors.New("provider returned an empty response")

// Request is one generation call
type Request struct {
	System string
	Prompt string
}

// Usage holds the token counts a provider reported. Zero when omitted.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the text and usage of one generation call
type Response struct {
	Text  string
	Usage Usage
}

// GenerationProvider maps a prompt to text. Implementations must apply the
// fixed decoding parameters.
type GenerationProvider interface {
	Provider() string
	Model() string
	Generate(ctx context.Context, req Request) (*Response, error)
}

// Embedder maps text to a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// unconfigured stands in for a provider without credentials so the router
// still has two hops and reports a useful error.
type unconfigured struct {
	provider, model string
}

func (u unconfigured) Provider() string { return u.provider }
func (u unconfigured) Model() string    { return u.model }

func (u unconfigured) Generate(context.Context, Request) (*Response, error) {
	return nil, ErrNotConfigured
}

type unconfiguredEmbedder struct{ dims int }

func (u unconfiguredEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, ErrNotConfigured
}

func (u unconfiguredEmbedder) Dimensions() int { return u.dims }
