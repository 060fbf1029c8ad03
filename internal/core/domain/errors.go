package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate indicates the article is already in the library.
	ErrDuplicate = errors.New("article already in library")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrIngestInProgress indicates the same URL is already being ingested.
	ErrIngestInProgress = errors.New("ingestion already in progress")

	// ErrLLMUnavailable indicates the generative model is not configured.
	// Question answering and summarisation are disabled without it.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not configured.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrDimensionMismatch indicates a vector does not match the index
	// dimension. This is a configuration error, not a per-call condition.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// FetchError indicates the content source could not retrieve the page.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ExtractionError indicates a page was fetched but contained no readable
// article content.
type ExtractionError struct {
	URL    string
	Reason string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %s", e.URL, e.Reason)
}

// EmbeddingError wraps a failure from the embedding provider.
// Transient failures (rate limit, timeout, 5xx) are eligible for retry;
// permanent failures (auth, malformed input) are not.
type EmbeddingError struct {
	Transient bool
	Err       error
}

func (e *EmbeddingError) Error() string {
	if e.Transient {
		return fmt.Sprintf("embedding (transient): %v", e.Err)
	}
	return fmt.Sprintf("embedding: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// IndexError wraps a vector index backend failure.
// An unknown namespace is not an IndexError; queries against it return
// empty results.
type IndexError struct {
	Op  string
	Err error
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("vector index %s: %v", e.Op, e.Err)
}

func (e *IndexError) Unwrap() error { return e.Err }

// GenerationFailure classifies generative model failures.
type GenerationFailure int

const (
	// GenerationTransient covers rate limits, timeouts and 5xx responses.
	GenerationTransient GenerationFailure = iota

	// GenerationPermanent covers auth and malformed-request failures.
	GenerationPermanent

	// GenerationPolicyRejected means the provider refused the content.
	GenerationPolicyRejected
)

// GenerationError wraps a failure from the generative model provider.
// The composer does not retry these; callers may degrade to a
// retrieval-only response.
type GenerationError struct {
	Kind GenerationFailure
	Err  error
}

func (e *GenerationError) Error() string {
	switch e.Kind {
	case GenerationPolicyRejected:
		return fmt.Sprintf("generation rejected by content policy: %v", e.Err)
	case GenerationPermanent:
		return fmt.Sprintf("generation: %v", e.Err)
	default:
		return fmt.Sprintf("generation (transient): %v", e.Err)
	}
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ConsistencyError reports detected divergence between the document
// registry and the vector index.
type ConsistencyError struct {
	DocumentID string
	Detail     string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("registry/index divergence for document %s: %s", e.DocumentID, e.Detail)
}
