package services

import (
	"context"
	"sync"

	"github.com/lecta-labs/lecta-cli/internal/core/domain"
	"github.com/lecta-labs/lecta-cli/internal/core/ports/driven"
)

// --- Mock implementations shared by the service tests ---

// mockEmbedding implements driven.EmbeddingService for testing. It
// returns a fixed-size vector per input and can fail after a number of
// successful batch calls.
type mockEmbedding struct {
	mu         sync.Mutex
	dims       int
	embedErr   error
	failAfter  int // fail batch calls once this many succeeded; 0 = never
	batchCalls int
	batchSizes []int
}

func newMockEmbedding(dims int) *mockEmbedding {
	return &mockEmbedding{dims: dims}
}

func (m *mockEmbedding) vector() []float32 {
	v := make([]float32, m.dims)
	for i := range v {
		v[i] = 0.1
	}
	return v
}

func (m *mockEmbedding) Embed(_ context.Context, _ string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vector(), nil
}

func (m *mockEmbedding) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if m.failAfter > 0 && m.batchCalls >= m.failAfter {
		return nil, &domain.EmbeddingError{Transient: true, Err: context.DeadlineExceeded}
	}
	m.batchCalls++
	m.batchSizes = append(m.batchSizes, len(texts))
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = m.vector()
	}
	return out, nil
}

func (m *mockEmbedding) Dimensions() int    { return m.dims }
func (m *mockEmbedding) ModelName() string  { return "mock-embed" }
func (m *mockEmbedding) Ping(_ context.Context) error { return nil }
func (m *mockEmbedding) Close() error       { return nil }

// mockVectorIndex implements driven.VectorIndex for testing, recording
// upserts and deletes.
type mockVectorIndex struct {
	mu          sync.Mutex
	hits        []driven.VectorHit
	entries     map[string][]driven.VectorEntry // namespace -> entries
	deleted     []string                        // document IDs
	queryErr    error
	upsertErr   error
	deleteErr   error
	upsertCalls int
	onUpsert    func(call int) // invoked after each successful upsert
}

func newMockVectorIndex() *mockVectorIndex {
	return &mockVectorIndex{entries: make(map[string][]driven.VectorEntry)}
}

func (m *mockVectorIndex) Upsert(_ context.Context, namespace string, entries []driven.VectorEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.entries[namespace] = append(m.entries[namespace], entries...)
	m.upsertCalls++
	if m.onUpsert != nil {
		m.onUpsert(m.upsertCalls)
	}
	return nil
}

func (m *mockVectorIndex) DeleteByDocument(_ context.Context, _ string, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, documentID)
	return nil
}

func (m *mockVectorIndex) Query(_ context.Context, _ string, _ []float32, topK int) ([]driven.VectorHit, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	if topK > len(m.hits) {
		return m.hits, nil
	}
	return m.hits[:topK], nil
}

func (m *mockVectorIndex) Close() error { return nil }

// mockRegistry implements driven.DocumentRegistry in memory.
type mockRegistry struct {
	mu         sync.Mutex
	docs       map[string]*domain.Document
	chunks     map[string][]domain.Chunk
	saveErr    error
	chunksErr  error
	deleteErr  error
	stageCalls []domain.IngestStage
}

func newMockRegistry() *mockRegistry {
	return &mockRegistry{
		docs:   make(map[string]*domain.Document),
		chunks: make(map[string][]domain.Chunk),
	}
}

func (m *mockRegistry) Save(_ context.Context, doc *domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	copied := *doc
	m.docs[doc.ID] = &copied
	return nil
}

func (m *mockRegistry) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.chunksErr != nil {
		return m.chunksErr
	}
	if len(chunks) > 0 {
		m.chunks[chunks[0].DocumentID] = append([]domain.Chunk(nil), chunks...)
	}
	return nil
}

func (m *mockRegistry) Get(_ context.Context, id string) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *doc
	return &copied, nil
}

func (m *mockRegistry) GetByURL(_ context.Context, normalizedURL string) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, doc := range m.docs {
		if doc.NormalizedURL == normalizedURL {
			copied := *doc
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockRegistry) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Chunk(nil), m.chunks[documentID]...), nil
}

func (m *mockRegistry) List(_ context.Context) ([]domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Document, 0, len(m.docs))
	for _, doc := range m.docs {
		out = append(out, *doc)
	}
	return out, nil
}

func (m *mockRegistry) SetStage(_ context.Context, id string, stage domain.IngestStage, failureReason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.Stage = stage
	doc.FailureReason = failureReason
	m.stageCalls = append(m.stageCalls, stage)
	return nil
}

func (m *mockRegistry) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.docs, id)
	delete(m.chunks, id)
	return nil
}

func (m *mockRegistry) Close() error { return nil }

// mockLLM implements driven.LLMService for testing.
type mockLLM struct {
	mu       sync.Mutex
	response string
	err      error
	prompts  []string
	calls    int
}

func (m *mockLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockLLM) ModelName() string              { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error   { return nil }
func (m *mockLLM) Close() error                   { return nil }

// mockContentSource implements driven.ContentSource for testing.
type mockContentSource struct {
	article *domain.Article
	err     error
}

func (m *mockContentSource) Fetch(_ context.Context, url string) (*domain.Article, error) {
	if m.err != nil {
		return nil, m.err
	}
	a := *m.article
	if a.SourceURL == "" {
		a.SourceURL = url
	}
	return &a, nil
}
