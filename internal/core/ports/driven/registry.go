package driven

import (
	"context"

	"github.com/lecta-labs/lecta-cli/internal/core/domain"
)

// DocumentRegistry persists document metadata and chunk text.
// Backed by SQLite. Vectors live in the VectorIndex; the Library
// orchestrator keeps the two consistent.
type DocumentRegistry interface {
	// Save stores or updates a document record.
	Save(ctx context.Context, doc *domain.Document) error

	// SaveChunks stores the chunk text and offsets for a document,
	// replacing any previous set.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// Get retrieves a document by ID.
	// Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// GetByURL retrieves a document by normalized URL.
	// Returns domain.ErrNotFound if absent.
	GetByURL(ctx context.Context, normalizedURL string) (*domain.Document, error)

	// GetChunks returns a document's chunks ordered by index.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// List returns all documents in the library.
	List(ctx context.Context) ([]domain.Document, error)

	// SetStage updates a document's ingestion stage. failureReason is
	// recorded when stage is domain.StageFailed and ignored otherwise.
	SetStage(ctx context.Context, id string, stage domain.IngestStage, failureReason string) error

	// Delete removes a document and its chunks.
	// No-op if the document does not exist.
	Delete(ctx context.Context, id string) error

	// Close releases resources.
	Close() error
}
