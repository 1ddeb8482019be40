package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/policy-auditor/policy-auditor/internal/chunker"
	"github.com/policy-auditor/policy-auditor/internal/config"
	"github.com/policy-auditor/policy-auditor/internal/extract"
	"github.com/policy-auditor/policy-auditor/internal/knowledge"
	"github.com/policy-auditor/policy-auditor/internal/llm"
	"github.com/policy-auditor/policy-auditor/internal/telemetry"
	"github.com/policy-auditor/policy-auditor/internal/validation"
)

// Source kinds used as the ingestion metric label
const (
	SourceMarkdown = "markdown"
	SourcePDF      = "pdf"
)

// ChunkInserter appends embedded chunks to the knowledge corpus
type ChunkInserter interface {
	Insert(ctx context.Context, chunks []knowledge.Chunk) error
}

// IngestResult is returned by POST /admin/ingest-md and the ingest CLI
type IngestResult struct {
	Success        bool   `json:"success"`
	Filename       string `json:"filename"`
	ChunksIngested int    `json:"chunks_ingested"`
	TotalChunks    int    `json:"total_chunks"`
	Message        string `json:"message"`
}

// Ingester embeds source documents into the knowledge store. Embedding calls
// run with bounded concurrency; a chunk whose embedding fails is skipped and
// the rest are still stored. A rate-limit signal stops the whole run.
type Ingester struct {
	cfg      config.IngestConfig
	embedder llm.Embedder
	store    ChunkInserter
}

// NewIngester creates a new Ingester
func NewIngester(cfg config.IngestConfig, embedder llm.Embedder, store ChunkInserter) *Ingester {
	return &Ingester{cfg: cfg, embedder: embedder, store: store}
}

// ChunkMarkdown validates a Markdown upload and splits its text with the
// overlapping character chunker.
func (i *Ingester) ChunkMarkdown(filename string, data []byte) ([]string, error) {
	if err := validation.ValidateMarkdown(filename, data, i.cfg.MaxMarkdownBytes); err != nil {
		return nil, invalid(err.Error(), err)
	}
	text := extract.Markdown(data)
	return chunker.Collect(chunker.Chars(text, i.cfg.ChunkSize, i.cfg.ChunkOverlap)), nil
}

// ChunkPDF extracts a statute PDF and splits it with the word chunker.
func (i *Ingester) ChunkPDF(data []byte) ([]string, error) {
	text, err := extract.PDF(data, 1)
	if err != nil {
		return nil, invalid("Could not extract text from the PDF.", err)
	}
	return chunker.Collect(chunker.Words(text, i.cfg.WordChunkChars)), nil
}

// IngestMarkdown chunks and ingests one Markdown document.
func (i *Ingester) IngestMarkdown(ctx context.Context, filename string, data []byte) (*IngestResult, error) {
	chunks, err := i.ChunkMarkdown(filename, data)
	if err != nil {
		return nil, err
	}
	return i.Ingest(ctx, SourceMarkdown, filename, chunks)
}

// IngestPDF chunks and ingests one PDF document.
func (i *Ingester) IngestPDF(ctx context.Context, filename string, data []byte) (*IngestResult, error) {
	chunks, err := i.ChunkPDF(data)
	if err != nil {
		return nil, err
	}
	return i.Ingest(ctx, SourcePDF, filename, chunks)
}

// Ingest embeds chunks and inserts every successfully embedded one in
// source order.
func (i *Ingester) Ingest(ctx context.Context, kind, filename string, chunks []string) (*IngestResult, error) {
	if len(chunks) == 0 {
		return nil, invalid("Document contains no text to ingest.", nil)
	}

	embedded := make([]*knowledge.Chunk, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(i.cfg.Concurrency, 1))
	for idx, content := range chunks {
		g.Go(func() error {
			vec, err := i.embedder.Embed(gctx, content)
			if err != nil {
				if llm.IsRateLimit(err) {
					return &RateLimitedError{Stage: "embedding", Err: &llm.EmbeddingError{Err: err}}
				}
				if errors.Is(err, context.Canceled) {
					return err
				}
				slog.Warn("skipping chunk, embedding failed",
					"filename", filename, "chunk", idx+1, "total", len(chunks), "error", err)
				return nil
			}
			embedded[idx] = &knowledge.Chunk{Content: content, Source: filename, Embedding: vec}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	batch := make([]knowledge.Chunk, 0, len(chunks))
	for _, c := range embedded {
		if c != nil {
			batch = append(batch, *c)
		}
	}
	if len(batch) == 0 {
		return nil, &ProviderError{Stage: "embedding", Err: fmt.Errorf("no chunk of %s could be embedded", filename)}
	}

	if err := i.store.Insert(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to store knowledge chunks: %w", err)
	}
	telemetry.KnowledgeChunksIngestedTotal.WithLabelValues(kind).Add(float64(len(batch)))

	slog.Info("knowledge document ingested",
		"filename", filename, "kind", kind, "chunks_ingested", len(batch), "total_chunks", len(chunks))
	return &IngestResult{
		Success:        true,
		Filename:       filename,
		ChunksIngested: len(batch),
		TotalChunks:    len(chunks),
		Message:        fmt.Sprintf("Ingested %d of %d chunks from %s", len(batch), len(chunks), filename),
	}, nil
}
