package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lecta-labs/lecta-cli/internal/core/domain"
)

func TestSaveGetDelete(t *testing.T) {
	reg := NewRegistry()
	ctx := context.Background()

	doc := &domain.Document{ID: "d1", NormalizedURL: "https://example.com/a", Stage: domain.StagePending}
	require.NoError(t, reg.Save(ctx, doc))

	got, err := reg.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "d1", got.ID)

	// Returned document is a copy; mutating it does not affect the store.
	got.Title = "mutated"
	again, err := reg.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Empty(t, again.Title)

	byURL, err := reg.GetByURL(ctx, "https://example.com/a")
	require.NoError(t, err)
	assert.Equal(t, "d1", byURL.ID)

	require.NoError(t, reg.Delete(ctx, "d1"))
	_, err = reg.Get(ctx, "d1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChunksSortedByIndex(t *testing.T) {
	reg := NewRegistry()
	ctx := context.Background()

	require.NoError(t, reg.SaveChunks(ctx, []domain.Chunk{
		{ID: "d1:1", DocumentID: "d1", Index: 1, Text: "second"},
		{ID: "d1:0", DocumentID: "d1", Index: 0, Text: "first"},
	}))

	chunks, err := reg.GetChunks(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "first", chunks[0].Text)
}

func TestListNewestFirst(t *testing.T) {
	reg := NewRegistry()
	ctx := context.Background()

	require.NoError(t, reg.Save(ctx, &domain.Document{ID: "older", FetchedAt: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)}))
	require.NoError(t, reg.Save(ctx, &domain.Document{ID: "newer", FetchedAt: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)}))

	docs, err := reg.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "newer", docs[0].ID)
}

func TestSetStage(t *testing.T) {
	reg := NewRegistry()
	ctx := context.Background()

	require.NoError(t, reg.Save(ctx, &domain.Document{ID: "d1"}))
	require.NoError(t, reg.SetStage(ctx, "d1", domain.StageFailed, "fetch: timeout"))

	got, err := reg.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, domain.StageFailed, got.Stage)
	assert.Equal(t, "fetch: timeout", got.FailureReason)

	assert.ErrorIs(t, reg.SetStage(ctx, "missing", domain.StageIndexed, ""), domain.ErrNotFound)
}
