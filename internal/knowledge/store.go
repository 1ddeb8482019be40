// Package knowledge holds the statutory corpus the audit pipeline retrieves
// from: a Store abstraction over pgvector or Weaviate, and the Retriever that
// turns nearest-neighbour matches into a bounded legal-context string.
package knowledge

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/policy-auditor/policy-auditor/internal/config"
)

// Match is one nearest-neighbour hit
type Match struct {
	ID         string
	Content    string
	Source     string
	Similarity float64
}

// Chunk is a knowledge chunk ready for insertion
type Chunk struct {
	Content   string
	Source    string
	Embedding []float32
}

// Store is an append-only corpus of embedded chunks
type Store interface {
	// Match returns up to count chunks whose similarity to embedding exceeds threshold
	Match(ctx context.Context, embedding []float32, threshold float64, count int) ([]Match, error)
	// Insert appends chunks to the corpus
	Insert(ctx context.Context, chunks []Chunk) error
	// Count returns the number of stored chunks
	Count(ctx context.Context) (int, error)
	// Ping checks that the store is reachable and queryable
	Ping(ctx context.Context) error
}

// NewStore creates the configured Store. The pgvector store shares db.
func NewStore(cfg *config.KnowledgeConfig, db *sqlx.DB) (Store, error) {
	switch cfg.Backend {
	case "pgvector":
		return NewPGVectorStore(db), nil
	case "weaviate":
		return NewWeaviateStore(cfg.Weaviate)
	default:
		return nil, fmt.Errorf("unknown knowledge backend: %s", cfg.Backend)
	}
}
