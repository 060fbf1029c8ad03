package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/lecta-labs/lecta-cli/internal/core/domain"
	"github.com/lecta-labs/lecta-cli/internal/core/ports/driven"
	"github.com/lecta-labs/lecta-cli/internal/logger"
)

// RetrieverConfig configures ranked retrieval.
type RetrieverConfig struct {
	// TopK is the number of passages to return.
	TopK int

	// Oversample multiplies TopK for the index query, leaving headroom
	// for threshold filtering, stale-entry filtering and diversification.
	Oversample int

	// MinScore drops candidates scoring below it even when TopK is not
	// filled. Cosine scores range over [-1, 1].
	MinScore float64

	// Diversify keeps only the best-scoring chunk per document until
	// TopK slots are filled, so one long article cannot crowd out the rest.
	Diversify bool
}

// DefaultRetrieverConfig returns the documented defaults.
func DefaultRetrieverConfig() RetrieverConfig {
	return RetrieverConfig{
		TopK:       5,
		Oversample: 3,
		MinScore:   0.0,
		Diversify:  true,
	}
}

// Validate rejects out-of-range settings.
func (c RetrieverConfig) Validate() error {
	if c.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive", domain.ErrInvalidInput)
	}
	if c.Oversample < 1 {
		return fmt.Errorf("%w: oversample must be at least 1", domain.ErrInvalidInput)
	}
	if c.MinScore < -1 || c.MinScore > 1 {
		return fmt.Errorf("%w: min_score must be within [-1, 1]", domain.ErrInvalidInput)
	}
	return nil
}

// Retriever turns a question into a ranked, deduplicated set of
// passages with provenance.
type Retriever struct {
	embedding driven.EmbeddingService
	index     driven.VectorIndex
	registry  driven.DocumentRegistry
	cfg       RetrieverConfig
}

// NewRetriever creates a retriever.
func NewRetriever(
	embedding driven.EmbeddingService,
	index driven.VectorIndex,
	registry driven.DocumentRegistry,
	cfg RetrieverConfig,
) (*Retriever, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Retriever{
		embedding: embedding,
		index:     index,
		registry:  registry,
		cfg:       cfg,
	}, nil
}

// Retrieve embeds the query, searches the namespace and filters the
// candidates down to at most topK passages. An empty result set means
// "no relevant content" and is not an error. topK <= 0 uses the
// configured default.
func (r *Retriever) Retrieve(ctx context.Context, query, namespace string, topK int) ([]domain.RetrievalResult, error) {
	logger.Section("Retrieval")
	if r.embedding == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if r.index == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}
	if topK <= 0 {
		topK = r.cfg.TopK
	}

	vector, err := r.embedding.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	logger.Debug("Query embedding: %d dimensions", len(vector))

	hits, err := r.index.Query(ctx, namespace, vector, topK*r.cfg.Oversample)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	logger.Debug("Index returned %d candidates for top_k=%d", len(hits), topK)

	// Drop below-threshold and stale candidates first. Hits arrive in
	// descending score order, so the threshold cuts a suffix.
	eligible := make([]driven.VectorHit, 0, len(hits))
	for _, hit := range hits {
		if hit.Score < r.cfg.MinScore {
			logger.Debug("Dropping candidates below min score %.2f", r.cfg.MinScore)
			break
		}
		stale, err := r.isStale(ctx, hit.Metadata.DocumentID)
		if err != nil {
			return nil, err
		}
		if stale {
			logger.Warn("Skipping stale index entry %s (document %s gone)", hit.ChunkID, hit.Metadata.DocumentID)
			continue
		}
		eligible = append(eligible, hit)
	}

	chosen := make([]driven.VectorHit, 0, topK)
	if r.cfg.Diversify {
		// First pass keeps the best chunk per document; if that leaves
		// slots open, backfill with the remaining candidates by rank.
		perDocument := make(map[string]bool)
		taken := make(map[string]bool)
		for _, hit := range eligible {
			if len(chosen) == topK {
				break
			}
			if perDocument[hit.Metadata.DocumentID] {
				continue
			}
			perDocument[hit.Metadata.DocumentID] = true
			taken[hit.ChunkID] = true
			chosen = append(chosen, hit)
		}
		for _, hit := range eligible {
			if len(chosen) == topK {
				break
			}
			if !taken[hit.ChunkID] {
				taken[hit.ChunkID] = true
				chosen = append(chosen, hit)
			}
		}
	} else {
		for _, hit := range eligible {
			if len(chosen) == topK {
				break
			}
			chosen = append(chosen, hit)
		}
	}

	results := make([]domain.RetrievalResult, 0, len(chosen))
	for _, hit := range chosen {
		results = append(results, domain.RetrievalResult{
			ChunkID:    hit.ChunkID,
			DocumentID: hit.Metadata.DocumentID,
			Score:      hit.Score,
			Text:       hit.Metadata.Text,
			Citation: domain.Citation{
				SourceURL:  hit.Metadata.SourceURL,
				Title:      hit.Metadata.Title,
				ChunkIndex: hit.Metadata.ChunkIndex,
			},
		})
	}

	logger.Info("Retrieved %d passages", len(results))
	return results, nil
}

// isStale reports whether an index entry references a document that no
// longer exists in the registry. Such entries are filtered out rather
// than surfaced; they can linger briefly after a failed removal.
func (r *Retriever) isStale(ctx context.Context, documentID string) (bool, error) {
	if r.registry == nil {
		return false, nil
	}
	_, err := r.registry.Get(ctx, documentID)
	if errors.Is(err, domain.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("check document %s: %w", documentID, err)
	}
	return false, nil
}
