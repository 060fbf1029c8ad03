// Package pinecone provides a vector index adapter using the Pinecone
// REST API.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lecta-labs/lecta-cli/internal/core/domain"
	"github.com/lecta-labs/lecta-cli/internal/core/ports/driven"
	"github.com/lecta-labs/lecta-cli/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Default configuration values.
const (
	DefaultTimeout = 60 * time.Second

	// maxUpsertBatch is the Pinecone per-request vector limit.
	maxUpsertBatch = 100
)

// Config holds configuration for the Pinecone index.
type Config struct {
	// APIKey is the Pinecone API key (required).
	APIKey string

	// IndexHost is the index endpoint URL, e.g.
	// https://my-index-abc1234.svc.us-east-1-aws.pinecone.io (required).
	IndexHost string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration
}

// Index stores chunk vectors in a Pinecone index.
type Index struct {
	client    *http.Client
	apiKey    string
	indexHost string
}

// upsertRequest is the /vectors/upsert request format.
type upsertRequest struct {
	Vectors   []vector `json:"vectors"`
	Namespace string   `json:"namespace,omitempty"`
}

// vector is the Pinecone vector record format.
type vector struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata vectorMetadata `json:"metadata"`
}

// vectorMetadata mirrors driven.ChunkMetadata in Pinecone's flat
// metadata format.
type vectorMetadata struct {
	DocumentID string `json:"document_id"`
	ChunkIndex int    `json:"chunk_index"`
	Text       string `json:"text"`
	SourceURL  string `json:"source_url"`
	Title      string `json:"title"`
}

// queryRequest is the /query request format.
type queryRequest struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	Namespace       string    `json:"namespace,omitempty"`
	IncludeMetadata bool      `json:"includeMetadata"`
}

// queryResponse is the /query response format.
type queryResponse struct {
	Matches []struct {
		ID       string         `json:"id"`
		Score    float64        `json:"score"`
		Metadata vectorMetadata `json:"metadata"`
	} `json:"matches"`
}

// deleteRequest is the /vectors/delete request format.
type deleteRequest struct {
	Filter    map[string]any `json:"filter,omitempty"`
	Namespace string         `json:"namespace,omitempty"`
}

// errorResponse is the Pinecone error payload.
type errorResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// NewIndex creates a Pinecone index client.
func NewIndex(cfg Config) (*Index, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("pinecone: API key is required")
	}
	if cfg.IndexHost == "" {
		return nil, fmt.Errorf("pinecone: index host is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Index{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		apiKey:    cfg.APIKey,
		indexHost: cfg.IndexHost,
	}, nil
}

// Upsert inserts or replaces vectors, batching at the API limit.
func (x *Index) Upsert(ctx context.Context, namespace string, entries []driven.VectorEntry) error {
	for start := 0; start < len(entries); start += maxUpsertBatch {
		end := start + maxUpsertBatch
		if end > len(entries) {
			end = len(entries)
		}

		vectors := make([]vector, 0, end-start)
		for _, e := range entries[start:end] {
			vectors = append(vectors, vector{
				ID:     e.ChunkID,
				Values: e.Vector,
				Metadata: vectorMetadata{
					DocumentID: e.Metadata.DocumentID,
					ChunkIndex: e.Metadata.ChunkIndex,
					Text:       e.Metadata.Text,
					SourceURL:  e.Metadata.SourceURL,
					Title:      e.Metadata.Title,
				},
			})
		}

		req := upsertRequest{Vectors: vectors, Namespace: namespace}
		if err := x.post(ctx, "/vectors/upsert", req, nil); err != nil {
			return &domain.IndexError{Op: "upsert", Err: err}
		}
	}
	logger.Debug("Upserted %d vectors into namespace %s", len(entries), namespace)
	return nil
}

// DeleteByDocument removes every chunk belonging to the document using
// a metadata filter.
func (x *Index) DeleteByDocument(ctx context.Context, namespace, documentID string) error {
	req := deleteRequest{
		Filter:    map[string]any{"document_id": map[string]any{"$eq": documentID}},
		Namespace: namespace,
	}
	if err := x.post(ctx, "/vectors/delete", req, nil); err != nil {
		return &domain.IndexError{Op: "delete", Err: err}
	}
	return nil
}

// Query returns at most topK matches by descending similarity.
func (x *Index) Query(ctx context.Context, namespace string, vec []float32, topK int) ([]driven.VectorHit, error) {
	if topK <= 0 {
		return nil, nil
	}

	req := queryRequest{
		Vector:          vec,
		TopK:            topK,
		Namespace:       namespace,
		IncludeMetadata: true,
	}
	var resp queryResponse
	if err := x.post(ctx, "/query", req, &resp); err != nil {
		return nil, &domain.IndexError{Op: "query", Err: err}
	}

	hits := make([]driven.VectorHit, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		hits = append(hits, driven.VectorHit{
			ChunkID: m.ID,
			Score:   m.Score,
			Metadata: driven.ChunkMetadata{
				DocumentID: m.Metadata.DocumentID,
				ChunkIndex: m.Metadata.ChunkIndex,
				Text:       m.Metadata.Text,
				SourceURL:  m.Metadata.SourceURL,
				Title:      m.Metadata.Title,
			},
		})
	}
	return hits, nil
}

// post sends a JSON request to the index host and decodes the response
// into out when non-nil.
func (x *Index) post(ctx context.Context, path string, payload any, out any) error {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		x.indexHost+path,
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", x.apiKey)

	resp, err := x.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("pinecone error (status %d): %s", resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("pinecone error (status %d): %s", resp.StatusCode, string(body))
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// Close releases resources.
func (x *Index) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
