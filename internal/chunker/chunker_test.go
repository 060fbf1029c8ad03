package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{"zero size", []Option{WithMaxChunkSize(0)}},
		{"negative overlap", []Option{WithOverlap(-1)}},
		{"overlap equals size", []Option{WithMaxChunkSize(100), WithOverlap(100), WithSnapWindow(0)}},
		{"overlap plus window too large", []Option{WithMaxChunkSize(100), WithOverlap(60), WithSnapWindow(40)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts...)
			assert.Error(t, err)
		})
	}
}

func TestChunkEmptyText(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	assert.Empty(t, c.Chunk("doc-1", ""))
}

func TestChunkShortText(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	chunks := c.Chunk("doc-1", "A short article.")
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].StartOffset)
	assert.Equal(t, 16, chunks[0].EndOffset)
	assert.Equal(t, "A short article.", chunks[0].Text)
	assert.Equal(t, "doc-1:0", chunks[0].ID)
}

func TestChunkExactOffsetsWithoutBoundaries(t *testing.T) {
	// Text with no sentence boundaries forces hard cuts at exact offsets.
	c, err := New(WithMaxChunkSize(1000), WithOverlap(100))
	require.NoError(t, err)

	text := strings.Repeat("a", 3000)
	chunks := c.Chunk("doc-1", text)
	require.Len(t, chunks, 4)

	wantOffsets := [][2]int{{0, 1000}, {900, 1900}, {1800, 2800}, {2700, 3000}}
	for i, want := range wantOffsets {
		assert.Equal(t, want[0], chunks[i].StartOffset, "chunk %d start", i)
		assert.Equal(t, want[1], chunks[i].EndOffset, "chunk %d end", i)
		assert.Equal(t, i, chunks[i].Index)
	}
}

func TestChunkFullCoverageAndOverlap(t *testing.T) {
	c, err := New(WithMaxChunkSize(200), WithOverlap(40), WithSnapWindow(20))
	require.NoError(t, err)

	var b strings.Builder
	for i := 0; i < 60; i++ {
		b.WriteString("The quick brown fox jumps over the lazy dog. ")
	}
	text := strings.TrimRight(b.String(), " ")

	chunks := c.Chunk("doc-1", text)
	require.NotEmpty(t, chunks)

	// No gaps: each chunk starts at or before the previous end.
	assert.Equal(t, 0, chunks[0].StartOffset)
	for i := 1; i < len(chunks); i++ {
		assert.LessOrEqual(t, chunks[i].StartOffset, chunks[i-1].EndOffset, "gap before chunk %d", i)
		assert.Equal(t, chunks[i].EndOffset-chunks[i].StartOffset, len(chunks[i].Text))
	}
	assert.Equal(t, len(text), chunks[len(chunks)-1].EndOffset)

	// Interior overlaps are exactly the configured amount: the next
	// chunk starts overlap bytes before the snapped end.
	for i := 1; i < len(chunks); i++ {
		assert.Equal(t, 40, chunks[i-1].EndOffset-chunks[i].StartOffset, "overlap before chunk %d", i)
	}
}

func TestChunkSnapsToSentenceBoundary(t *testing.T) {
	c, err := New(WithMaxChunkSize(100), WithOverlap(20), WithSnapWindow(30))
	require.NoError(t, err)

	// Sentence ends at offset 90; a hard cut would land at 100.
	text := strings.Repeat("x", 85) + " end. " + strings.Repeat("y", 120)
	chunks := c.Chunk("doc-1", text)
	require.GreaterOrEqual(t, len(chunks), 2)
	assert.Equal(t, 90, chunks[0].EndOffset)
	assert.True(t, strings.HasSuffix(chunks[0].Text, "end."))
}

func TestChunkHardCutKeepsRunesIntact(t *testing.T) {
	// Multi-byte text with no sentence boundaries; hard cuts that land
	// mid-rune must move back to the rune start.
	c, err := New(WithMaxChunkSize(100), WithOverlap(10), WithSnapWindow(20))
	require.NoError(t, err)

	// Three-byte runes; a 100-byte cut always lands mid-rune.
	text := strings.Repeat("日本語のテキスト", 40)
	chunks := c.Chunk("doc-1", text)
	require.Greater(t, len(chunks), 1)

	for i, ch := range chunks {
		assert.True(t, utf8.ValidString(ch.Text), "chunk %d splits a rune: %q", i, ch.Text)
		assert.Equal(t, text[ch.StartOffset:ch.EndOffset], ch.Text, "chunk %d offsets", i)
	}

	// Coverage is preserved: chunks still tile the text with overlap.
	assert.Equal(t, 0, chunks[0].StartOffset)
	assert.Equal(t, len(text), chunks[len(chunks)-1].EndOffset)
	for i := 1; i < len(chunks); i++ {
		assert.LessOrEqual(t, chunks[i].StartOffset, chunks[i-1].EndOffset, "gap before chunk %d", i)
	}
}

func TestChunkDeterministic(t *testing.T) {
	c, err := New(WithMaxChunkSize(150), WithOverlap(30), WithSnapWindow(20))
	require.NoError(t, err)

	text := strings.Repeat("Some sentences repeat here. Others do not! Right? ", 30)
	first := c.Chunk("doc-1", text)
	second := c.Chunk("doc-1", text)
	assert.Equal(t, first, second)
}
