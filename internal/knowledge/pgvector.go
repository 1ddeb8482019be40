package knowledge

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"
)

// PGVectorStore keeps chunks in the knowledge_chunks table and queries them
// through the match_knowledge_chunks SQL function.
type PGVectorStore struct {
	db *sqlx.DB
}

// NewPGVectorStore creates a new PGVectorStore
func NewPGVectorStore(db *sqlx.DB) *PGVectorStore {
	return &PGVectorStore{db: db}
}

// MatchColumns are the columns Match reads from match_knowledge_chunks.
var MatchColumns = []string{"id", "content", "source", "similarity"}

var matchQuery = "SELECT " + strings.Join(MatchColumns, ", ") + " FROM match_knowledge_chunks($1, $2, $3)"

type matchRow struct {
	ID         int64   `db:"id"`
	Content    string  `db:"content"`
	Source     string  `db:"source"`
	Similarity float64 `db:"similarity"`
}

// Match implements Store
func (s *PGVectorStore) Match(ctx context.Context, embedding []float32, threshold float64, count int) ([]Match, error) {
	var rows []matchRow
	if err := s.db.SelectContext(ctx, &rows, matchQuery, pgvector.NewVector(embedding), threshold, count); err != nil {
		return nil, fmt.Errorf("failed to match knowledge chunks: %w", err)
	}

	matches := make([]Match, len(rows))
	for i, r := range rows {
		matches[i] = Match{
			ID:         strconv.FormatInt(r.ID, 10),
			Content:    r.Content,
			Source:     r.Source,
			Similarity: r.Similarity,
		}
	}
	return matches, nil
}

// Insert implements Store. All chunks are written in one transaction.
func (s *PGVectorStore) Insert(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PreparexContext(ctx, `INSERT INTO knowledge_chunks (content, source, embedding) VALUES ($1, $2, $3)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx, c.Content, c.Source, pgvector.NewVector(c.Embedding)); err != nil {
			return fmt.Errorf("failed to insert knowledge chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit knowledge chunks: %w", err)
	}
	return nil
}

// Count implements Store
func (s *PGVectorStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM knowledge_chunks`); err != nil {
		return 0, fmt.Errorf("failed to count knowledge chunks: %w", err)
	}
	return n, nil
}

// Ping implements Store. It fails when the match function is missing, which
// is the usual state of a database that was never migrated.
func (s *PGVectorStore) Ping(ctx context.Context) error {
	var ok bool
	if err := s.db.GetContext(ctx, &ok, `SELECT to_regproc('match_knowledge_chunks') IS NOT NULL`); err != nil {
		return fmt.Errorf("knowledge store unreachable: %w", err)
	}
	if !ok {
		return fmt.Errorf("match_knowledge_chunks function is not installed")
	}
	return nil
}
