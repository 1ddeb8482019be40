package knowledge

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/policy-auditor/policy-auditor/internal/compliance"
	"github.com/policy-auditor/policy-auditor/internal/telemetry"
)

// ContextSeparator joins retrieved chunks in the prompt.
const ContextSeparator = "\n\n---\n\n"

// NoContext replaces the legal context when retrieval finds nothing.
const NoContext = "No relevant legal context found in the knowledge base. Apply general domain expertise in Indian labour law to review the policy."

// Retriever turns a query embedding into the legal-context block of a prompt.
type Retriever struct {
	store     Store
	threshold float64
	count     int
	chunkCap  int
}

// NewRetriever creates a Retriever. chunkCap bounds each chunk in characters;
// zero disables the cap.
func NewRetriever(store Store, threshold float64, count, chunkCap int) *Retriever {
	return &Retriever{store: store, threshold: threshold, count: count, chunkCap: chunkCap}
}

// Retrieve returns matches ordered by similarity descending, then id
// ascending. A store failure is logged and yields no matches: the audit
// continues without legal context.
func (r *Retriever) Retrieve(ctx context.Context, embedding []float32) []Match {
	matches, err := r.store.Match(ctx, embedding, r.threshold, r.count)
	if err != nil {
		slog.WarnContext(ctx, "knowledge retrieval failed, continuing without legal context", "error", err)
		telemetry.RetrievalDegradedTotal.Inc()
		return nil
	}

	slices.SortStableFunc(matches, func(a, b Match) int {
		if c := cmp.Compare(b.Similarity, a.Similarity); c != 0 {
			return c
		}
		return compareIDs(a.ID, b.ID)
	})
	if len(matches) > r.count {
		matches = matches[:r.count]
	}
	return matches
}

// BuildContext concatenates the capped chunk contents, or returns NoContext
// when there are none.
func (r *Retriever) BuildContext(matches []Match) string {
	if len(matches) == 0 {
		return NoContext
	}
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		parts = append(parts, compliance.Truncate(m.Content, r.chunkCap))
	}
	return strings.Join(parts, ContextSeparator)
}

// Context is Retrieve followed by BuildContext.
func (r *Retriever) Context(ctx context.Context, embedding []float32) (string, []Match) {
	matches := r.Retrieve(ctx, embedding)
	return r.BuildContext(matches), matches
}

// compareIDs orders numeric ids numerically and equal-length ids (uuids)
// lexically.
func compareIDs(a, b string) int {
	if c := cmp.Compare(len(a), len(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}
