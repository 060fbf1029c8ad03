package domain

import "time"

// Document represents a web article stored in the library.
// It is the canonical registry record created on successful ingestion.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// SourceURL is the URL the article was fetched from, as given by the user.
	SourceURL string

	// NormalizedURL is the canonical form of SourceURL used for duplicate
	// detection (lowercased host, no fragment, no trailing slash).
	NormalizedURL string

	// Title is the human-readable article title.
	Title string

	// Author is the article author, when the page declares one.
	Author string

	// Summary is a short LLM-generated summary produced at ingest time.
	Summary string

	// Tags are frequency-based keywords extracted from the article text.
	Tags []string

	// WordCount is the number of words in the cleaned article text.
	WordCount int

	// FetchedAt is when the article was fetched.
	FetchedAt time.Time

	// ContentHash is the SHA-256 hex digest of the cleaned article text.
	// Together with NormalizedURL it guards against duplicate ingestion.
	ContentHash string

	// Stage is the current position in the ingestion state machine.
	Stage IngestStage

	// FailureReason records why ingestion failed, for diagnostics.
	// Empty unless Stage is StageFailed.
	FailureReason string

	// ChunkCount is the number of chunks indexed for this document.
	ChunkCount int
}

// Chunk is a contiguous slice of a document's text, the unit of
// embedding and retrieval. A chunk belongs to exactly one document.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// Index is the ordinal position within the document.
	Index int

	// Text is the chunk content.
	Text string

	// StartOffset is the byte offset of the chunk start in the cleaned text.
	StartOffset int

	// EndOffset is the byte offset one past the chunk end.
	// Invariant: StartOffset < EndOffset.
	EndOffset int

	// Embedding is the vector representation. Populated during ingestion,
	// not persisted in the registry.
	Embedding []float32
}

// IngestStage is a position in the per-document ingestion state machine.
// Documents move Pending -> Chunked -> Embedded -> Indexed, or end in
// StageFailed with the failing stage recorded in FailureReason.
type IngestStage int

const (
	// StagePending means the article was fetched but not yet processed.
	StagePending IngestStage = iota

	// StageChunked means the text has been split into chunks.
	StageChunked

	// StageEmbedded means all chunks have embedding vectors.
	StageEmbedded

	// StageIndexed means chunks are upserted and the document is queryable.
	// Terminal success state.
	StageIndexed

	// StageFailed is the terminal failure state.
	StageFailed
)

// String returns the stage name for logs and CLI output.
func (s IngestStage) String() string {
	switch s {
	case StagePending:
		return "pending"
	case StageChunked:
		return "chunked"
	case StageEmbedded:
		return "embedded"
	case StageIndexed:
		return "indexed"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Article is the cleaned output of the content source, before it
// becomes a Document.
type Article struct {
	// SourceURL is the URL the article was fetched from.
	SourceURL string

	// Title is the extracted article title.
	Title string

	// Author is the extracted author, if any.
	Author string

	// Text is the cleaned article text.
	Text string
}
