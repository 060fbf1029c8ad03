package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lecta-labs/lecta-cli/internal/core/domain"
	"github.com/lecta-labs/lecta-cli/internal/core/ports/driven"
)

func hit(chunkID, docID string, score float64) driven.VectorHit {
	return driven.VectorHit{
		ChunkID: chunkID,
		Score:   score,
		Metadata: driven.ChunkMetadata{
			DocumentID: docID,
			Text:       "text of " + chunkID,
			SourceURL:  "https://example.com/" + docID,
			Title:      "Article " + docID,
		},
	}
}

func registryWith(docIDs ...string) *mockRegistry {
	reg := newMockRegistry()
	for _, id := range docIDs {
		reg.docs[id] = &domain.Document{ID: id, Stage: domain.StageIndexed}
	}
	return reg
}

func TestRetrieveRankedResults(t *testing.T) {
	index := newMockVectorIndex()
	index.hits = []driven.VectorHit{
		hit("c1", "d1", 0.9),
		hit("c2", "d2", 0.8),
		hit("c3", "d3", 0.7),
	}

	r, err := NewRetriever(newMockEmbedding(4), index, registryWith("d1", "d2", "d3"), DefaultRetrieverConfig())
	require.NoError(t, err)

	results, err := r.Retrieve(context.Background(), "question", "default", 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "c1", results[0].ChunkID)
	assert.Equal(t, 0.9, results[0].Score)
	assert.Equal(t, "https://example.com/d1", results[0].Citation.SourceURL)
	assert.Equal(t, "Article d1", results[0].Citation.Title)
	assert.Equal(t, "text of c2", results[1].Text)
}

func TestRetrieveEmptyIndex(t *testing.T) {
	r, err := NewRetriever(newMockEmbedding(4), newMockVectorIndex(), newMockRegistry(), DefaultRetrieverConfig())
	require.NoError(t, err)

	results, err := r.Retrieve(context.Background(), "question", "default", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrieveMinScoreFilter(t *testing.T) {
	index := newMockVectorIndex()
	index.hits = []driven.VectorHit{
		hit("c1", "d1", 0.9),
		hit("c2", "d2", 0.4),
		hit("c3", "d3", 0.1),
	}

	cfg := DefaultRetrieverConfig()
	cfg.MinScore = 0.5
	r, err := NewRetriever(newMockEmbedding(4), index, registryWith("d1", "d2", "d3"), cfg)
	require.NoError(t, err)

	results, err := r.Retrieve(context.Background(), "question", "default", 3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c1", results[0].ChunkID)
}

func TestRetrieveSkipsStaleEntries(t *testing.T) {
	index := newMockVectorIndex()
	index.hits = []driven.VectorHit{
		hit("c1", "gone", 0.9),
		hit("c2", "d2", 0.8),
	}

	r, err := NewRetriever(newMockEmbedding(4), index, registryWith("d2"), DefaultRetrieverConfig())
	require.NoError(t, err)

	results, err := r.Retrieve(context.Background(), "question", "default", 2)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c2", results[0].ChunkID)
}

func TestRetrieveDiversifyPrefersDistinctDocuments(t *testing.T) {
	index := newMockVectorIndex()
	index.hits = []driven.VectorHit{
		hit("c1", "d1", 0.9),
		hit("c2", "d1", 0.85),
		hit("c3", "d2", 0.8),
		hit("c4", "d3", 0.7),
	}

	r, err := NewRetriever(newMockEmbedding(4), index, registryWith("d1", "d2", "d3"), DefaultRetrieverConfig())
	require.NoError(t, err)

	results, err := r.Retrieve(context.Background(), "question", "default", 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	// c2 is outranked by the per-document rule despite its score.
	assert.Equal(t, "c1", results[0].ChunkID)
	assert.Equal(t, "c3", results[1].ChunkID)
	assert.Equal(t, "c4", results[2].ChunkID)
}

func TestRetrieveDiversifyBackfillsFromSameDocument(t *testing.T) {
	index := newMockVectorIndex()
	index.hits = []driven.VectorHit{
		hit("c1", "d1", 0.9),
		hit("c2", "d1", 0.85),
		hit("c3", "d2", 0.8),
	}

	r, err := NewRetriever(newMockEmbedding(4), index, registryWith("d1", "d2"), DefaultRetrieverConfig())
	require.NoError(t, err)

	// Only two documents exist, so the third slot backfills with the
	// next-best chunk even though its document is already represented.
	results, err := r.Retrieve(context.Background(), "question", "default", 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "c1", results[0].ChunkID)
	assert.Equal(t, "c3", results[1].ChunkID)
	assert.Equal(t, "c2", results[2].ChunkID)
}

func TestRetrieveDefaultTopK(t *testing.T) {
	index := newMockVectorIndex()
	for i := 0; i < 10; i++ {
		id := string(rune('a' + i))
		index.hits = append(index.hits, hit("c"+id, "d"+id, 0.9-float64(i)*0.01))
	}
	reg := newMockRegistry()
	for _, h := range index.hits {
		reg.docs[h.Metadata.DocumentID] = &domain.Document{ID: h.Metadata.DocumentID}
	}

	r, err := NewRetriever(newMockEmbedding(4), index, reg, DefaultRetrieverConfig())
	require.NoError(t, err)

	results, err := r.Retrieve(context.Background(), "question", "default", 0)
	require.NoError(t, err)
	assert.Len(t, results, DefaultRetrieverConfig().TopK)
}

func TestRetrieveEmbeddingFailure(t *testing.T) {
	emb := newMockEmbedding(4)
	emb.embedErr = &domain.EmbeddingError{Transient: false, Err: assert.AnError}

	r, err := NewRetriever(emb, newMockVectorIndex(), newMockRegistry(), DefaultRetrieverConfig())
	require.NoError(t, err)

	_, err = r.Retrieve(context.Background(), "question", "default", 5)
	require.Error(t, err)
	var embErr *domain.EmbeddingError
	assert.ErrorAs(t, err, &embErr)
}

func TestRetrieverConfigValidation(t *testing.T) {
	cfg := DefaultRetrieverConfig()
	cfg.TopK = 0
	_, err := NewRetriever(newMockEmbedding(4), newMockVectorIndex(), newMockRegistry(), cfg)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	cfg = DefaultRetrieverConfig()
	cfg.MinScore = 1.5
	_, err = NewRetriever(newMockEmbedding(4), newMockVectorIndex(), newMockRegistry(), cfg)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
