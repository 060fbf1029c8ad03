package driven

import "context"

// VectorIndex provides namespaced similarity search over chunk vectors.
// A namespace isolates one library's vectors from another; queries never
// cross namespaces. Querying an empty or unknown namespace returns an
// empty result set, not an error.
type VectorIndex interface {
	// Upsert inserts or replaces vectors. Re-upserting a chunk ID
	// replaces its prior vector and metadata.
	Upsert(ctx context.Context, namespace string, entries []VectorEntry) error

	// DeleteByDocument removes every chunk belonging to the document.
	// No-op if the document has no chunks in the namespace.
	DeleteByDocument(ctx context.Context, namespace, documentID string) error

	// Query returns at most topK results ordered by descending
	// similarity score. Ties are broken by insertion order (stable).
	Query(ctx context.Context, namespace string, vector []float32, topK int) ([]VectorHit, error)

	// Close releases resources.
	Close() error
}

// VectorEntry is a chunk vector with its provenance metadata.
type VectorEntry struct {
	// ChunkID identifies the chunk.
	ChunkID string

	// Vector is the embedding.
	Vector []float32

	// Metadata is stored alongside the vector and returned on query.
	Metadata ChunkMetadata
}

// ChunkMetadata is the provenance stored in the index per chunk.
type ChunkMetadata struct {
	// DocumentID is the owning document.
	DocumentID string

	// ChunkIndex is the ordinal within the document.
	ChunkIndex int

	// Text is the chunk content.
	Text string

	// SourceURL is the article URL.
	SourceURL string

	// Title is the article title.
	Title string
}

// VectorHit is a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Score is the cosine similarity in [-1, 1].
	Score float64

	// Metadata is the stored provenance.
	Metadata ChunkMetadata
}
