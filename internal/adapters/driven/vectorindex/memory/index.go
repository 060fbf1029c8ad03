// Package memory provides an in-memory vector index using brute-force
// cosine similarity. Used for tests and as a fallback when no external
// index is configured; contents are lost on exit.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/lecta-labs/lecta-cli/internal/core/domain"
	"github.com/lecta-labs/lecta-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// entry is a stored vector with its insertion position, which breaks
// score ties so result order is stable.
type entry struct {
	driven.VectorEntry
	position int
}

// Index is a namespaced in-memory vector store.
type Index struct {
	mu         sync.RWMutex
	namespaces map[string][]entry
	nextPos    int
}

// NewIndex creates an empty in-memory index.
func NewIndex() *Index {
	return &Index{
		namespaces: make(map[string][]entry),
	}
}

// Upsert inserts or replaces vectors. A replaced chunk keeps its
// original insertion position.
func (x *Index) Upsert(_ context.Context, namespace string, entries []driven.VectorEntry) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	stored := x.namespaces[namespace]
	for _, e := range entries {
		replaced := false
		for i := range stored {
			if stored[i].ChunkID == e.ChunkID {
				stored[i].VectorEntry = e
				replaced = true
				break
			}
		}
		if !replaced {
			stored = append(stored, entry{VectorEntry: e, position: x.nextPos})
			x.nextPos++
		}
	}
	x.namespaces[namespace] = stored
	return nil
}

// DeleteByDocument removes every chunk belonging to the document.
func (x *Index) DeleteByDocument(_ context.Context, namespace, documentID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	stored := x.namespaces[namespace]
	kept := stored[:0]
	for _, e := range stored {
		if e.Metadata.DocumentID != documentID {
			kept = append(kept, e)
		}
	}
	x.namespaces[namespace] = kept
	return nil
}

// Query returns at most topK entries by descending cosine similarity.
// Ties break by insertion order.
func (x *Index) Query(_ context.Context, namespace string, vector []float32, topK int) ([]driven.VectorHit, error) {
	if topK <= 0 {
		return nil, nil
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	stored := x.namespaces[namespace]
	if len(stored) == 0 {
		return nil, nil
	}

	type scored struct {
		entry
		score float64
	}
	candidates := make([]scored, 0, len(stored))
	for _, e := range stored {
		if len(e.Vector) != len(vector) {
			return nil, domain.ErrDimensionMismatch
		}
		candidates = append(candidates, scored{entry: e, score: cosine(vector, e.Vector)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].position < candidates[j].position
	})

	if topK > len(candidates) {
		topK = len(candidates)
	}
	hits := make([]driven.VectorHit, 0, topK)
	for _, c := range candidates[:topK] {
		hits = append(hits, driven.VectorHit{
			ChunkID:  c.ChunkID,
			Score:    c.score,
			Metadata: c.Metadata,
		})
	}
	return hits, nil
}

// Close releases resources.
func (x *Index) Close() error {
	return nil
}

// cosine computes cosine similarity without assuming normalized input.
func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
