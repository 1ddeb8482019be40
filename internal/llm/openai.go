package llm

import (
	"context"
	"math"

	"github.com/sashabaranov/go-openai"
)

// NewOpenAIClient creates a client for the OpenAI API or a compatible endpoint.
func NewOpenAIClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

// OpenAIProvider generates text with an OpenAI chat model
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider creates an OpenAIProvider for model
func NewOpenAIProvider(client *openai.Client, model string) *OpenAIProvider {
	return &OpenAIProvider{client: client, model: model}
}

func (p *OpenAIProvider) Provider() string { return ProviderOpenAI }
func (p *OpenAIProvider) Model() string    { return p.model }

// Generate implements GenerationProvider. The chat API has no top-k; top-p
// and a fixed seed are sent instead.
func (p *OpenAIProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	seed := int(Seed)
	chatReq := openai.ChatCompletionRequest{
		Model: p.model,
		// Temperature is omitempty in the client; the smallest positive
		// float keeps it on the wire and is greedy in practice.
		Temperature: math.SmallestNonzeroFloat32,
		TopP:        TopP,
		Seed:        &seed,
	}
	if req.System != "" {
		chatReq.Messages = append(chatReq.Messages, openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleSystem, Content: req.System,
		})
	}
	chatReq.Messages = append(chatReq.Messages, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser, Content: req.Prompt,
	})

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, ErrEmptyResponse
	}

	return &Response{
		Text: resp.Choices[0].Message.Content,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// OpenAIEmbedder embeds text with an OpenAI embedding model
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
	dims   int
}

// NewOpenAIEmbedder creates an OpenAIEmbedder producing dims-length vectors
func NewOpenAIEmbedder(client *openai.Client, model string, dims int) *OpenAIEmbedder {
	return &OpenAIEmbedder{client: client, model: model, dims: dims}
}

func (e *OpenAIEmbedder) Dimensions() int { return e.dims }

// Embed implements Embedder
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input:      []string{text},
		Model:      openai.EmbeddingModel(e.model),
		Dimensions: e.dims,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, ErrEmptyResponse
	}
	return resp.Data[0].Embedding, nil
}
