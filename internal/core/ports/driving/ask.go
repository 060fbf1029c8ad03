package driving

import (
	"context"

	"github.com/lecta-labs/lecta-cli/internal/core/domain"
)

// AskService answers questions against the library with citations.
type AskService interface {
	// Ask retrieves relevant passages and composes a grounded answer.
	// The retrieval results are returned alongside the answer so callers
	// can degrade to a retrieval-only response when generation fails.
	Ask(ctx context.Context, question string, opts AskOptions) (*domain.Answer, []domain.RetrievalResult, error)

	// Summarize produces a summary of the single article at url,
	// ingesting it first if it is not in the library.
	Summarize(ctx context.Context, url string) (string, error)

	// Synthesize produces a cross-article synthesis of a topic.
	Synthesize(ctx context.Context, topic string) (string, error)

	// Related finds articles similar to the given document.
	Related(ctx context.Context, documentID string, topK int) ([]domain.RetrievalResult, error)
}

// AskOptions configures a single question.
type AskOptions struct {
	// TopK overrides the configured number of passages when > 0.
	TopK int
}
