// Package pgvector provides a vector index adapter backed by PostgreSQL
// with the pgvector extension.
package pgvector

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	pgv "github.com/pgvector/pgvector-go"

	"github.com/lecta-labs/lecta-cli/internal/core/domain"
	"github.com/lecta-labs/lecta-cli/internal/core/ports/driven"
	"github.com/lecta-labs/lecta-cli/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Config holds configuration for the pgvector index.
type Config struct {
	// ConnString is the PostgreSQL connection string (required).
	ConnString string

	// Dimensions is the embedding vector size (required). Must match
	// the embedding service.
	Dimensions int
}

// Index stores chunk vectors in a PostgreSQL table with a pgvector
// column. Namespacing is a plain column; one database serves several
// libraries.
type Index struct {
	pool       *pgxpool.Pool
	dimensions int
}

// NewIndex connects to PostgreSQL and ensures the schema exists.
func NewIndex(ctx context.Context, cfg Config) (*Index, error) {
	if cfg.ConnString == "" {
		return nil, fmt.Errorf("pgvector: connection string is required")
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("pgvector: dimensions must be positive")
	}

	pool, err := pgxpool.New(ctx, cfg.ConnString)
	if err != nil {
		return nil, fmt.Errorf("pgvector: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgvector: ping: %w", err)
	}

	x := &Index{pool: pool, dimensions: cfg.Dimensions}
	if err := x.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return x, nil
}

// migrate creates the extension and the chunk table.
func (x *Index) migrate(ctx context.Context) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS chunk_vectors (
			namespace   TEXT NOT NULL,
			chunk_id    TEXT NOT NULL,
			document_id TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			content     TEXT NOT NULL,
			source_url  TEXT NOT NULL,
			title       TEXT NOT NULL,
			embedding   vector(%d) NOT NULL,
			inserted    BIGSERIAL,
			PRIMARY KEY (namespace, chunk_id)
		)`, x.dimensions),
		`CREATE INDEX IF NOT EXISTS chunk_vectors_document_idx
			ON chunk_vectors (namespace, document_id)`,
	}
	for _, stmt := range statements {
		if _, err := x.pool.Exec(ctx, stmt); err != nil {
			return &domain.IndexError{Op: "migrate", Err: err}
		}
	}
	return nil
}

// Upsert inserts or replaces vectors in one transaction.
func (x *Index) Upsert(ctx context.Context, namespace string, entries []driven.VectorEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := x.pool.Begin(ctx)
	if err != nil {
		return &domain.IndexError{Op: "upsert", Err: err}
	}
	defer tx.Rollback(ctx)

	const query = `INSERT INTO chunk_vectors
		(namespace, chunk_id, document_id, chunk_index, content, source_url, title, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (namespace, chunk_id) DO UPDATE SET
			document_id = EXCLUDED.document_id,
			chunk_index = EXCLUDED.chunk_index,
			content     = EXCLUDED.content,
			source_url  = EXCLUDED.source_url,
			title       = EXCLUDED.title,
			embedding   = EXCLUDED.embedding`

	for _, e := range entries {
		if len(e.Vector) != x.dimensions {
			return fmt.Errorf("%w: vector has %d dimensions, index expects %d",
				domain.ErrDimensionMismatch, len(e.Vector), x.dimensions)
		}
		_, err := tx.Exec(ctx, query,
			namespace, e.ChunkID, e.Metadata.DocumentID, e.Metadata.ChunkIndex,
			e.Metadata.Text, e.Metadata.SourceURL, e.Metadata.Title,
			pgv.NewVector(e.Vector),
		)
		if err != nil {
			return &domain.IndexError{Op: "upsert", Err: err}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return &domain.IndexError{Op: "upsert", Err: err}
	}
	logger.Debug("Upserted %d vectors into namespace %s", len(entries), namespace)
	return nil
}

// DeleteByDocument removes every chunk belonging to the document.
func (x *Index) DeleteByDocument(ctx context.Context, namespace, documentID string) error {
	_, err := x.pool.Exec(ctx,
		`DELETE FROM chunk_vectors WHERE namespace = $1 AND document_id = $2`,
		namespace, documentID)
	if err != nil {
		return &domain.IndexError{Op: "delete", Err: err}
	}
	return nil
}

// Query returns at most topK entries by descending cosine similarity.
// pgvector's <=> operator is cosine distance; similarity is 1 - distance.
// Distance ties break by insertion order.
func (x *Index) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]driven.VectorHit, error) {
	if topK <= 0 {
		return nil, nil
	}
	if len(vector) != x.dimensions {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, index expects %d",
			domain.ErrDimensionMismatch, len(vector), x.dimensions)
	}

	rows, err := x.pool.Query(ctx,
		`SELECT chunk_id, document_id, chunk_index, content, source_url, title,
			1 - (embedding <=> $1) AS score
		FROM chunk_vectors
		WHERE namespace = $2
		ORDER BY embedding <=> $1, inserted
		LIMIT $3`,
		pgv.NewVector(vector), namespace, topK)
	if err != nil {
		return nil, &domain.IndexError{Op: "query", Err: err}
	}
	defer rows.Close()

	var hits []driven.VectorHit
	for rows.Next() {
		var hit driven.VectorHit
		if err := rows.Scan(
			&hit.ChunkID,
			&hit.Metadata.DocumentID,
			&hit.Metadata.ChunkIndex,
			&hit.Metadata.Text,
			&hit.Metadata.SourceURL,
			&hit.Metadata.Title,
			&hit.Score,
		); err != nil {
			return nil, &domain.IndexError{Op: "query", Err: err}
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.IndexError{Op: "query", Err: err}
	}
	return hits, nil
}

// Close releases the connection pool.
func (x *Index) Close() error {
	x.pool.Close()
	return nil
}
