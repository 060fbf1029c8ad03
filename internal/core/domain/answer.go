package domain

// RetrievalResult is a single ranked passage returned for a query.
// Results are transient and never persisted.
type RetrievalResult struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// DocumentID is the owning document.
	DocumentID string

	// Score is the cosine similarity in [-1, 1].
	Score float64

	// Text is the passage content.
	Text string

	// Citation carries the provenance of the passage.
	Citation Citation
}

// Citation points back to the document and chunk a claim came from.
type Citation struct {
	// SourceURL is the URL of the source article.
	SourceURL string

	// Title is the article title.
	Title string

	// ChunkIndex is the ordinal of the cited chunk within the article.
	ChunkIndex int
}

// Answer is a generated response to a question, with provenance.
type Answer struct {
	// Text is the answer body.
	Text string

	// Citations lists the passages supporting the answer, in order of
	// first reference.
	Citations []Citation

	// Grounded reports whether every claim is traceable to a retrieved
	// passage. An answer with text but no parsed citation markers is
	// not grounded; an empty "nothing found" answer is trivially grounded.
	Grounded bool
}
