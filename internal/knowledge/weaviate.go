package knowledge

import (
	"context"
	"fmt"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/policy-auditor/policy-auditor/internal/config"
)

// chunkNamespace seeds deterministic object ids so re-ingesting the same
// chunk overwrites rather than duplicates it.
var chunkNamespace = uuid.MustParse("8f1f2c4e-3f0a-4b5e-9a57-6d2b1c0e7a11")

const weaviateBatchSize = 100

// WeaviateStore keeps chunks as objects of one Weaviate class with
// client-supplied vectors.
type WeaviateStore struct {
	client    *weaviate.Client
	className string
}

// NewWeaviateStore creates a new WeaviateStore
func NewWeaviateStore(cfg config.WeaviateConfig) (*WeaviateStore, error) {
	client, err := weaviate.NewClient(weaviate.Config{
		Host:   cfg.Host,
		Scheme: cfg.Scheme,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %w", err)
	}
	return &WeaviateStore{client: client, className: cfg.ClassName}, nil
}

// ClassSchema returns the Weaviate class definition for knowledge chunks.
func ClassSchema(className string) *models.Class {
	return &models.Class{
		Class:       className,
		Description: "Statutory text chunks used as legal context for policy audits",
		Vectorizer:  "none",
		VectorIndexConfig: map[string]interface{}{
			"distance": "cosine",
		},
		Properties: []*models.Property{
			{Name: "content", DataType: []string{"text"}, Description: "Chunk text"},
			{Name: "source", DataType: []string{"text"}, Description: "Source document", Tokenization: "field"},
		},
	}
}

// EnsureSchema creates the class if it does not exist yet.
func (s *WeaviateStore) EnsureSchema(ctx context.Context) error {
	exists, err := s.client.Schema().ClassExistenceChecker().WithClassName(s.className).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to check weaviate class: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.Schema().ClassCreator().WithClass(ClassSchema(s.className)).Do(ctx); err != nil {
		return fmt.Errorf("failed to create weaviate class: %w", err)
	}
	return nil
}

// Match implements Store. Similarity is reported as 1 - cosine distance so it
// is comparable with the pgvector store.
func (s *WeaviateStore) Match(ctx context.Context, embedding []float32, threshold float64, count int) ([]Match, error) {
	nearVector := s.client.GraphQL().NearVectorArgBuilder().
		WithVector(embedding).
		WithDistance(float32(1 - threshold))

	result, err := s.client.GraphQL().Get().
		WithClassName(s.className).
		WithFields(
			graphql.Field{Name: "content"},
			graphql.Field{Name: "source"},
			graphql.Field{Name: "_additional { id distance }"},
		).
		WithNearVector(nearVector).
		WithLimit(count).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query weaviate: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("weaviate query error: %s", result.Errors[0].Message)
	}

	return parseMatches(result.Data, s.className), nil
}

// parseMatches reads Get.<class>[] out of a GraphQL response body.
func parseMatches(data map[string]models.JSONObject, className string) []Match {
	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return nil
	}
	items, ok := get[className].([]interface{})
	if !ok {
		return nil
	}

	matches := make([]Match, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		m := Match{}
		m.Content, _ = obj["content"].(string)
		m.Source, _ = obj["source"].(string)
		if add, ok := obj["_additional"].(map[string]interface{}); ok {
			m.ID, _ = add["id"].(string)
			if d, ok := add["distance"].(float64); ok {
				m.Similarity = 1 - d
			}
		}
		matches = append(matches, m)
	}
	return matches
}

// Insert implements Store
func (s *WeaviateStore) Insert(ctx context.Context, chunks []Chunk) error {
	for start := 0; start < len(chunks); start += weaviateBatchSize {
		batch := chunks[start:min(start+weaviateBatchSize, len(chunks))]
		objects := make([]*models.Object, len(batch))
		for i, c := range batch {
			objects[i] = &models.Object{
				Class:  s.className,
				ID:     ChunkID(c),
				Vector: c.Embedding,
				Properties: map[string]interface{}{
					"content": c.Content,
					"source":  c.Source,
				},
			}
		}

		resp, err := s.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert weaviate batch: %w", err)
		}
		for _, r := range resp {
			if r.Result != nil && r.Result.Errors != nil && len(r.Result.Errors.Error) > 0 {
				return fmt.Errorf("weaviate rejected object %s: %s", r.ID, r.Result.Errors.Error[0].Message)
			}
		}
	}
	return nil
}

// ChunkID derives the deterministic object id of a chunk.
func ChunkID(c Chunk) strfmt.UUID {
	return strfmt.UUID(uuid.NewSHA1(chunkNamespace, []byte(c.Source+"\x00"+c.Content)).String())
}

// Count implements Store
func (s *WeaviateStore) Count(ctx context.Context) (int, error) {
	result, err := s.client.GraphQL().Aggregate().
		WithClassName(s.className).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}).
		Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count weaviate objects: %w", err)
	}
	agg, _ := result.Data["Aggregate"].(map[string]interface{})
	items, _ := agg[s.className].([]interface{})
	if len(items) == 0 {
		return 0, nil
	}
	first, _ := items[0].(map[string]interface{})
	meta, _ := first["meta"].(map[string]interface{})
	n, _ := meta["count"].(float64)
	return int(n), nil
}

// Ping implements Store
func (s *WeaviateStore) Ping(ctx context.Context) error {
	ready, err := s.client.Misc().ReadyChecker().Do(ctx)
	if err != nil {
		return fmt.Errorf("weaviate unreachable: %w", err)
	}
	if !ready {
		return fmt.Errorf("weaviate not ready")
	}
	return nil
}
