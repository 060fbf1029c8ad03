// Package memory provides an in-memory document registry. Useful for
// tests and throwaway sessions; contents are lost on exit.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/lecta-labs/lecta-cli/internal/core/domain"
	"github.com/lecta-labs/lecta-cli/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.DocumentRegistry = (*Registry)(nil)

// Registry is an in-memory document registry.
type Registry struct {
	mu     sync.RWMutex
	docs   map[string]*domain.Document
	chunks map[string][]domain.Chunk
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		docs:   make(map[string]*domain.Document),
		chunks: make(map[string][]domain.Chunk),
	}
}

// Save stores or updates a document record.
func (r *Registry) Save(_ context.Context, doc *domain.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *doc
	r.docs[doc.ID] = &copied
	return nil
}

// SaveChunks replaces a document's chunk set.
func (r *Registry) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chunks[chunks[0].DocumentID] = append([]domain.Chunk(nil), chunks...)
	return nil
}

// Get retrieves a document by ID.
func (r *Registry) Get(_ context.Context, id string) (*domain.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *doc
	return &copied, nil
}

// GetByURL retrieves a document by normalized URL.
func (r *Registry) GetByURL(_ context.Context, normalizedURL string) (*domain.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, doc := range r.docs {
		if doc.NormalizedURL == normalizedURL {
			copied := *doc
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

// GetChunks returns a document's chunks ordered by index.
func (r *Registry) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	chunks := append([]domain.Chunk(nil), r.chunks[documentID]...)
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Index < chunks[j].Index })
	return chunks, nil
}

// List returns all documents, newest first.
func (r *Registry) List(_ context.Context) ([]domain.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	docs := make([]domain.Document, 0, len(r.docs))
	for _, doc := range r.docs {
		docs = append(docs, *doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].FetchedAt.After(docs[j].FetchedAt) })
	return docs, nil
}

// SetStage updates a document's ingestion stage.
func (r *Registry) SetStage(_ context.Context, id string, stage domain.IngestStage, failureReason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.Stage = stage
	if stage == domain.StageFailed {
		doc.FailureReason = failureReason
	} else {
		doc.FailureReason = ""
	}
	return nil
}

// Delete removes a document and its chunks. No-op if absent.
func (r *Registry) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.docs, id)
	delete(r.chunks, id)
	return nil
}

// Close releases resources.
func (r *Registry) Close() error {
	return nil
}
