package driven

import (
	"context"

	"github.com/lecta-labs/lecta-cli/internal/core/domain"
)

// ContentSource fetches a web page and extracts its readable article text.
// Failures are reported as *domain.FetchError (network, HTTP status) or
// *domain.ExtractionError (no usable content); both abort ingestion at
// the pending stage.
type ContentSource interface {
	// Fetch retrieves the page at url and returns the cleaned article.
	Fetch(ctx context.Context, url string) (*domain.Article, error)
}
