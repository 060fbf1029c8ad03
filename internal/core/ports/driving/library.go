package driving

import (
	"context"

	"github.com/lecta-labs/lecta-cli/internal/core/domain"
)

// LibraryService manages the article library: ingestion, listing and
// removal. Ingestion drives a document through the chunk -> embed ->
// index pipeline; any stage failure leaves no partial index entries.
type LibraryService interface {
	// AddDocument fetches, chunks, embeds and indexes the article at url.
	// Returns domain.ErrDuplicate if the article is already in the
	// library and domain.ErrIngestInProgress if a concurrent ingestion
	// of the same URL is running.
	AddDocument(ctx context.Context, url string) (*domain.Document, error)

	// GetDocument returns a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// ListDocuments returns all documents in the library.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// RemoveDocument deletes the registry entry and all index entries.
	// It succeeds completely or leaves both stores unchanged.
	RemoveDocument(ctx context.Context, id string) error
}
