package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lecta-labs/lecta-cli/internal/core/domain"
	"github.com/lecta-labs/lecta-cli/internal/core/ports/driven"
	"github.com/lecta-labs/lecta-cli/internal/core/ports/driving"
	"github.com/lecta-labs/lecta-cli/internal/logger"
)

// Ensure Assistant implements the interface.
var _ driving.AskService = (*Assistant)(nil)

// synthesisTopK is how many passages feed a topic synthesis. Wider than
// a normal question so several articles get represented.
const synthesisTopK = 10

// Assistant answers questions, summarises articles and synthesises
// topics on top of the retriever and composer.
type Assistant struct {
	retriever *Retriever
	composer  *Composer
	library   *Library
	registry  driven.DocumentRegistry
}

// NewAssistant creates the question-answering service.
func NewAssistant(retriever *Retriever, composer *Composer, library *Library, registry driven.DocumentRegistry) *Assistant {
	return &Assistant{
		retriever: retriever,
		composer:  composer,
		library:   library,
		registry:  registry,
	}
}

// Ask retrieves passages for the question and composes a cited answer.
// The retrieval results are always returned when retrieval succeeded,
// even if generation then fails, so callers can show the passages as a
// degraded response.
func (a *Assistant) Ask(ctx context.Context, question string, opts driving.AskOptions) (*domain.Answer, []domain.RetrievalResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}

	results, err := a.retriever.Retrieve(ctx, question, a.library.Namespace(), opts.TopK)
	if err != nil {
		return nil, nil, err
	}

	answer, err := a.composer.Compose(ctx, question, results)
	if err != nil {
		return nil, results, err
	}
	return answer, results, nil
}

// Summarize returns a summary of the article at url. Articles already
// in the library reuse their stored summary; unknown URLs are ingested
// first so the summary lands in the library too.
func (a *Assistant) Summarize(ctx context.Context, url string) (string, error) {
	normalized, err := normalizeURL(url)
	if err != nil {
		return "", err
	}

	doc, err := a.registry.GetByURL(ctx, normalized)
	if errors.Is(err, domain.ErrNotFound) {
		logger.Info("Article not in library, ingesting first")
		added, err := a.library.AddDocument(ctx, url)
		if err != nil {
			return "", err
		}
		return added.Summary, nil
	}
	if err != nil {
		return "", err
	}

	if doc.Summary != "" {
		return doc.Summary, nil
	}

	// Older record without a summary; rebuild the text from stored
	// chunks and summarise it now.
	chunks, err := a.registry.GetChunks(ctx, doc.ID)
	if err != nil {
		return "", fmt.Errorf("load chunks: %w", err)
	}
	text := reconstructText(chunks)
	if text == "" {
		return "", &domain.ConsistencyError{DocumentID: doc.ID, Detail: "no chunk text stored"}
	}

	summary, err := a.composer.Summarise(ctx, text)
	if err != nil {
		return "", err
	}

	doc.Summary = summary
	if err := a.registry.Save(ctx, doc); err != nil {
		logger.Warn("Could not store summary for %s: %v", doc.ID, err)
	}
	return summary, nil
}

// Synthesize retrieves passages about topic across the whole library
// and asks the model for a cross-article synthesis.
func (a *Assistant) Synthesize(ctx context.Context, topic string) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", fmt.Errorf("%w: empty topic", domain.ErrInvalidInput)
	}

	results, err := a.retriever.Retrieve(ctx, topic, a.library.Namespace(), synthesisTopK)
	if err != nil {
		return "", err
	}
	return a.composer.Synthesize(ctx, topic, results)
}

// Related finds articles similar to the given document by querying the
// index with the document's title and summary. The document itself is
// excluded and at most one passage per article is returned.
func (a *Assistant) Related(ctx context.Context, documentID string, topK int) ([]domain.RetrievalResult, error) {
	if topK <= 0 {
		topK = DefaultRetrieverConfig().TopK
	}

	doc, err := a.registry.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	query := doc.Title
	if doc.Summary != "" {
		query += ". " + doc.Summary
	}

	// Oversample so filtering out the document's own chunks and
	// per-article deduplication still leave topK articles.
	results, err := a.retriever.Retrieve(ctx, query, a.library.Namespace(), topK*2)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	related := make([]domain.RetrievalResult, 0, topK)
	for _, r := range results {
		if r.DocumentID == documentID || seen[r.DocumentID] {
			continue
		}
		seen[r.DocumentID] = true
		related = append(related, r)
		if len(related) == topK {
			break
		}
	}
	return related, nil
}

// reconstructText stitches a document's text back together from its
// chunks, skipping the overlapping prefixes using the stored offsets.
func reconstructText(chunks []domain.Chunk) string {
	var sb strings.Builder
	end := 0
	for _, c := range chunks {
		if c.EndOffset <= end {
			continue
		}
		skip := end - c.StartOffset
		if skip < 0 {
			skip = 0
		}
		if skip > len(c.Text) {
			continue
		}
		sb.WriteString(c.Text[skip:])
		end = c.EndOffset
	}
	return sb.String()
}
