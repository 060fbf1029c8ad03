package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lecta-labs/lecta-cli/internal/chunker"
	"github.com/lecta-labs/lecta-cli/internal/core/domain"
	"github.com/lecta-labs/lecta-cli/internal/core/ports/driven"
	"github.com/lecta-labs/lecta-cli/internal/core/ports/driving"
	"github.com/lecta-labs/lecta-cli/internal/logger"
)

// Ensure Library implements the interface.
var _ driving.LibraryService = (*Library)(nil)

// keywordCount is how many tags are extracted per article.
const keywordCount = 5

// LibraryConfig configures the ingestion pipeline.
type LibraryConfig struct {
	// Namespace isolates this library's vectors in the index.
	Namespace string

	// EmbedBatchSize is the number of chunk texts per embedding call.
	EmbedBatchSize int

	// MaxInFlight bounds concurrent embedding calls for one document.
	MaxInFlight int
}

// DefaultLibraryConfig returns the documented defaults.
func DefaultLibraryConfig() LibraryConfig {
	return LibraryConfig{
		Namespace:      "default",
		EmbedBatchSize: 32,
		MaxInFlight:    4,
	}
}

// Library orchestrates ingestion and removal. It owns the document
// registry and keeps it consistent with the vector index: the two are
// written as one logical transaction with compensating deletes on
// partial failure.
type Library struct {
	source    driven.ContentSource
	chunks    *chunker.Chunker
	embedding driven.EmbeddingService
	index     driven.VectorIndex
	registry  driven.DocumentRegistry
	composer  *Composer
	cfg       LibraryConfig

	// ingesting guards against concurrent ingestion of the same URL.
	// Keyed by normalized URL; held for the whole pipeline run.
	mu        sync.Mutex
	ingesting map[string]bool
}

// NewLibrary creates the orchestrator. The composer is optional; without
// it documents are stored with a leading-sentences summary.
func NewLibrary(
	source driven.ContentSource,
	chunks *chunker.Chunker,
	embedding driven.EmbeddingService,
	index driven.VectorIndex,
	registry driven.DocumentRegistry,
	composer *Composer,
	cfg LibraryConfig,
) *Library {
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultLibraryConfig().Namespace
	}
	if cfg.EmbedBatchSize <= 0 {
		cfg.EmbedBatchSize = DefaultLibraryConfig().EmbedBatchSize
	}
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = DefaultLibraryConfig().MaxInFlight
	}

	return &Library{
		source:    source,
		chunks:    chunks,
		embedding: embedding,
		index:     index,
		registry:  registry,
		composer:  composer,
		cfg:       cfg,
		ingesting: make(map[string]bool),
	}
}

// Namespace returns the vector index namespace this library writes to.
func (l *Library) Namespace() string {
	return l.cfg.Namespace
}

// AddDocument runs the full ingestion pipeline for the article at rawURL:
// fetch -> chunk -> embed -> index. Each stage transition is recorded in
// the registry; a failing stage marks the document failed and removes any
// index entries written before the failure.
func (l *Library) AddDocument(ctx context.Context, rawURL string) (*domain.Document, error) {
	logger.Section("Ingestion")

	normalized, err := normalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	if err := l.acquireURL(normalized); err != nil {
		return nil, err
	}
	defer l.releaseURL(normalized)

	if err := l.rejectDuplicate(ctx, normalized); err != nil {
		return nil, err
	}

	logger.Info("Fetching %s", rawURL)
	article, err := l.source.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	text := cleanText(article.Text)
	if text == "" {
		return nil, &domain.ExtractionError{URL: rawURL, Reason: "no text after cleaning"}
	}

	hash := sha256.Sum256([]byte(text))
	doc := &domain.Document{
		ID:            uuid.New().String(),
		SourceURL:     article.SourceURL,
		NormalizedURL: normalized,
		Title:         article.Title,
		Author:        article.Author,
		Summary:       l.summarize(ctx, text),
		Tags:          extractKeywords(text, keywordCount),
		WordCount:     len(strings.Fields(text)),
		FetchedAt:     time.Now().UTC(),
		ContentHash:   hex.EncodeToString(hash[:]),
		Stage:         domain.StagePending,
	}
	if err := l.registry.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}

	// Chunk.
	chunks := l.chunks.Chunk(doc.ID, text)
	if len(chunks) == 0 {
		return nil, l.fail(ctx, doc, domain.StagePending, errors.New("article produced no chunks"))
	}
	if err := l.registry.SaveChunks(ctx, chunks); err != nil {
		return nil, l.fail(ctx, doc, domain.StagePending, err)
	}
	if err := l.setStage(ctx, doc, domain.StageChunked); err != nil {
		return nil, err
	}
	logger.Info("Chunked into %d pieces", len(chunks))

	// Embed.
	if err := l.embedChunks(ctx, chunks); err != nil {
		return nil, l.fail(ctx, doc, domain.StageChunked, err)
	}
	if err := l.setStage(ctx, doc, domain.StageEmbedded); err != nil {
		return nil, err
	}
	logger.Info("Embedded %d chunks (%d dimensions)", len(chunks), l.embedding.Dimensions())

	// Index. Cancellation or failure after partial upserts triggers the
	// compensating delete so no partial entries remain queryable.
	if err := l.upsertChunks(ctx, doc, chunks); err != nil {
		l.compensate(ctx, doc)
		return nil, l.fail(ctx, doc, domain.StageEmbedded, err)
	}

	doc.ChunkCount = len(chunks)
	doc.Stage = domain.StageIndexed
	if err := l.registry.Save(ctx, doc); err != nil {
		l.compensate(ctx, doc)
		return nil, l.fail(ctx, doc, domain.StageEmbedded, err)
	}

	logger.Info("Indexed %q (%d chunks)", doc.Title, doc.ChunkCount)
	return doc, nil
}

// GetDocument returns a document by ID.
func (l *Library) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	return l.registry.Get(ctx, id)
}

// ListDocuments returns all documents in the library.
func (l *Library) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	return l.registry.List(ctx)
}

// RemoveDocument deletes the registry entry and the index entries.
// The registry entry is removed first; if the index delete then fails,
// the registry entry is restored so the removal is all-or-nothing.
func (l *Library) RemoveDocument(ctx context.Context, id string) error {
	doc, err := l.registry.Get(ctx, id)
	if err != nil {
		return err
	}
	chunks, err := l.registry.GetChunks(ctx, id)
	if err != nil {
		return fmt.Errorf("load chunks: %w", err)
	}

	if err := l.registry.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	if err := l.index.DeleteByDocument(ctx, l.cfg.Namespace, id); err != nil {
		// Roll the registry back; queries filter stale entries in the
		// meantime, but the library must not half-forget a document.
		if rerr := l.registry.Save(ctx, doc); rerr != nil {
			return &domain.ConsistencyError{
				DocumentID: id,
				Detail:     fmt.Sprintf("index delete failed (%v) and registry restore failed (%v)", err, rerr),
			}
		}
		if len(chunks) > 0 {
			if rerr := l.registry.SaveChunks(ctx, chunks); rerr != nil {
				return &domain.ConsistencyError{
					DocumentID: id,
					Detail:     fmt.Sprintf("index delete failed (%v) and chunk restore failed (%v)", err, rerr),
				}
			}
		}
		return err
	}

	logger.Info("Removed %q", doc.Title)
	return nil
}

// acquireURL takes the per-URL ingestion token.
func (l *Library) acquireURL(normalized string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ingesting[normalized] {
		return domain.ErrIngestInProgress
	}
	l.ingesting[normalized] = true
	return nil
}

func (l *Library) releaseURL(normalized string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.ingesting, normalized)
}

// rejectDuplicate refuses URLs already in the library. A document left
// in the failed state is cleared out so ingestion can be retried.
func (l *Library) rejectDuplicate(ctx context.Context, normalized string) error {
	existing, err := l.registry.GetByURL(ctx, normalized)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("duplicate check: %w", err)
	}
	if existing.Stage != domain.StageFailed {
		return fmt.Errorf("%w: %s", domain.ErrDuplicate, existing.SourceURL)
	}
	logger.Info("Replacing previously failed ingestion of %s", existing.SourceURL)
	return l.registry.Delete(ctx, existing.ID)
}

// embedChunks fills in chunk embeddings, issuing batches concurrently
// with bounded parallelism. Either every chunk gets a vector or the
// whole operation fails; order is preserved by writing each batch back
// to its own chunk range.
func (l *Library) embedChunks(parent context.Context, chunks []domain.Chunk) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	type batch struct {
		start int
		texts []string
	}
	var batches []batch
	for start := 0; start < len(chunks); start += l.cfg.EmbedBatchSize {
		end := start + l.cfg.EmbedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Text)
		}
		batches = append(batches, batch{start: start, texts: texts})
	}
	logger.Debug("Embedding %d chunks in %d batches (max %d in flight)",
		len(chunks), len(batches), l.cfg.MaxInFlight)

	var (
		wg       sync.WaitGroup
		errMu    sync.Mutex
		firstErr error
	)
	sem := make(chan struct{}, l.cfg.MaxInFlight)

	for _, b := range batches {
		wg.Add(1)
		go func(b batch) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			vectors, err := l.embedding.EmbedBatch(ctx, b.texts)
			if err == nil && len(vectors) != len(b.texts) {
				err = &domain.EmbeddingError{
					Err: fmt.Errorf("provider returned %d vectors for %d inputs", len(vectors), len(b.texts)),
				}
			}
			if err != nil {
				errMu.Lock()
				if firstErr == nil {
					firstErr = err
					cancel()
				}
				errMu.Unlock()
				return
			}
			for i, v := range vectors {
				chunks[b.start+i].Embedding = v
			}
		}(b)
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	if err := parent.Err(); err != nil {
		return err
	}

	want := l.embedding.Dimensions()
	for i := range chunks {
		if want > 0 && len(chunks[i].Embedding) != want {
			return fmt.Errorf("%w: chunk %d has %d dimensions, index expects %d",
				domain.ErrDimensionMismatch, i, len(chunks[i].Embedding), want)
		}
	}
	return nil
}

// upsertChunks writes chunk vectors to the index in batches, honouring
// cancellation between batches.
func (l *Library) upsertChunks(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	for start := 0; start < len(chunks); start += l.cfg.EmbedBatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := start + l.cfg.EmbedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		entries := make([]driven.VectorEntry, 0, end-start)
		for _, c := range chunks[start:end] {
			entries = append(entries, driven.VectorEntry{
				ChunkID: c.ID,
				Vector:  c.Embedding,
				Metadata: driven.ChunkMetadata{
					DocumentID: doc.ID,
					ChunkIndex: c.Index,
					Text:       c.Text,
					SourceURL:  doc.SourceURL,
					Title:      doc.Title,
				},
			})
		}
		if err := l.index.Upsert(ctx, l.cfg.Namespace, entries); err != nil {
			return err
		}
	}
	return nil
}

// compensate removes any index entries written for doc. Best effort:
// a failure here is a detected divergence, logged and left for the
// stale-entry filter on the query path.
func (l *Library) compensate(ctx context.Context, doc *domain.Document) {
	// The parent context may already be cancelled; the cleanup gets its
	// own deadline.
	cleanup, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err := l.index.DeleteByDocument(cleanup, l.cfg.Namespace, doc.ID); err != nil {
		logger.Warn("Compensating delete failed for %s: %v", doc.ID, err)
	}
}

// setStage advances the state machine, persisting the transition.
func (l *Library) setStage(ctx context.Context, doc *domain.Document, stage domain.IngestStage) error {
	doc.Stage = stage
	if err := l.registry.SetStage(ctx, doc.ID, stage, ""); err != nil {
		return fmt.Errorf("record stage %s: %w", stage, err)
	}
	logger.Debug("Document %s -> %s", doc.ID, stage)
	return nil
}

// fail marks the document failed at the given stage and returns the
// original error for the caller.
func (l *Library) fail(ctx context.Context, doc *domain.Document, at domain.IngestStage, cause error) error {
	doc.Stage = domain.StageFailed
	reason := fmt.Sprintf("%s: %v", at, cause)
	doc.FailureReason = reason
	if err := l.registry.SetStage(ctx, doc.ID, domain.StageFailed, reason); err != nil {
		logger.Warn("Could not record failure for %s: %v", doc.ID, err)
	}
	logger.Warn("Ingestion failed at %s: %v", at, cause)
	return cause
}

// summarize asks the LLM for a short summary, falling back to the
// leading sentences when generation is unavailable or fails.
func (l *Library) summarize(ctx context.Context, text string) string {
	if l.composer != nil {
		if s, err := l.composer.Summarise(ctx, text); err == nil {
			return s
		} else {
			logger.Warn("Summary generation failed, using leading sentences: %v", err)
		}
	}
	return firstSentences(text, 3)
}

// whitespacePattern collapses runs of whitespace.
var whitespacePattern = regexp.MustCompile(`\s+`)

// cleanText normalizes whitespace and strips control characters.
// Boilerplate removal is the content source's concern, not ours.
func cleanText(text string) string {
	text = whitespacePattern.ReplaceAllString(text, " ")
	text = strings.Map(func(r rune) rune {
		if r < 32 && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, text)
	return strings.TrimSpace(text)
}

// firstSentences returns the first n sentences of text.
func firstSentences(text string, n int) string {
	parts := strings.SplitAfterN(text, ". ", n+1)
	if len(parts) > n {
		parts = parts[:n]
	}
	return strings.TrimSpace(strings.Join(parts, ""))
}

// normalizeURL canonicalises a URL for duplicate detection: scheme and
// host are lowercased, the fragment dropped and any trailing slash
// trimmed. Only http and https URLs are accepted.
func normalizeURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("%w: unsupported URL scheme %q", domain.ErrInvalidInput, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: URL has no host", domain.ErrInvalidInput)
	}
	u.Scheme = scheme
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String(), nil
}
