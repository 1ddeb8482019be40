package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"

	"github.com/policy-auditor/policy-auditor/internal/config"
)

// Clients holds one SDK client per configured provider. Providers without
// credentials have a nil client.
type Clients struct {
	cfg    *config.LLMConfig
	gemini *genai.Client
	openai *openai.Client
}

// NewClients creates SDK clients for every provider that has credentials.
func NewClients(ctx context.Context, cfg *config.LLMConfig) (*Clients, error) {
	c := &Clients{cfg: cfg}
	if cfg.ProviderConfigured(ProviderGemini) {
		gc, err := NewGeminiClient(ctx, cfg.Gemini.APIKey)
		if err != nil {
			return nil, err
		}
		c.gemini = gc
	}
	if cfg.ProviderConfigured(ProviderOpenAI) {
		c.openai = NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL)
	}
	return c, nil
}

// Generator returns the provider for m. An unconfigured provider yields a
// stand-in whose calls fail with ErrNotConfigured.
func (c *Clients) Generator(m config.ModelConfig) (GenerationProvider, error) {
	switch m.Provider {
	case ProviderGemini:
		if c.gemini == nil {
			slog.Warn("generation provider has no credentials", "provider", m.Provider, "model", m.Model)
			return unconfigured{provider: m.Provider, model: m.Model}, nil
		}
		return NewGeminiProvider(c.gemini, m.Model), nil
	case ProviderOpenAI:
		if c.openai == nil {
			slog.Warn("generation provider has no credentials", "provider", m.Provider, "model", m.Model)
			return unconfigured{provider: m.Provider, model: m.Model}, nil
		}
		return NewOpenAIProvider(c.openai, m.Model), nil
	default:
		return nil, fmt.Errorf("unknown generation provider: %s", m.Provider)
	}
}

// Embedder returns the configured embedding provider.
func (c *Clients) Embedder() (Embedder, error) {
	e := c.cfg.Embedding
	switch e.Provider {
	case ProviderGemini:
		if c.gemini == nil {
			return unconfiguredEmbedder{dims: e.Dimensions}, nil
		}
		return NewGeminiEmbedder(c.gemini, e.Model, e.Dimensions), nil
	case ProviderOpenAI:
		if c.openai == nil {
			return unconfiguredEmbedder{dims: e.Dimensions}, nil
		}
		return NewOpenAIEmbedder(c.openai, e.Model, e.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", e.Provider)
	}
}

// Router builds the primary/fallback router from configuration.
func (c *Clients) Router() (*Router, error) {
	primary, err := c.Generator(c.cfg.Primary)
	if err != nil {
		return nil, err
	}
	fallback, err := c.Generator(c.cfg.Fallback)
	if err != nil {
		return nil, err
	}
	return NewRouter(primary, fallback, c.cfg.RequestTimeout), nil
}
