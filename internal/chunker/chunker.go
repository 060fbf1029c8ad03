// Package chunker splits cleaned article text into overlapping chunks
// with stable byte offsets.
package chunker

import (
	"fmt"
	"unicode/utf8"

	"github.com/lecta-labs/lecta-cli/internal/core/domain"
)

// DefaultMaxChunkSize is the default chunk size in characters.
const DefaultMaxChunkSize = 1000

// DefaultOverlap is the default overlap between adjacent chunks.
const DefaultOverlap = 100

// DefaultSnapWindow is how far a chunk end may move backwards to land
// on a sentence boundary.
const DefaultSnapWindow = 50

// Chunker splits text into overlapping chunks, preferring sentence
// boundaries and falling back to hard cuts. Output is deterministic for
// identical input and configuration, which makes re-ingestion idempotent.
type Chunker struct {
	maxChunkSize int
	overlap      int
	snapWindow   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithMaxChunkSize sets the chunk size in characters.
func WithMaxChunkSize(size int) Option {
	return func(c *Chunker) { c.maxChunkSize = size }
}

// WithOverlap sets the overlap between adjacent chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) { c.overlap = overlap }
}

// WithSnapWindow sets the sentence-snapping window in characters.
func WithSnapWindow(window int) Option {
	return func(c *Chunker) { c.snapWindow = window }
}

// New creates a chunker, rejecting configurations that cannot make
// progress: overlap and snap window must leave room inside each chunk.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		maxChunkSize: DefaultMaxChunkSize,
		overlap:      DefaultOverlap,
		snapWindow:   DefaultSnapWindow,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.maxChunkSize <= 0 {
		return nil, fmt.Errorf("%w: max chunk size must be positive", domain.ErrInvalidInput)
	}
	if c.overlap < 0 || c.snapWindow < 0 {
		return nil, fmt.Errorf("%w: overlap and snap window must not be negative", domain.ErrInvalidInput)
	}
	if c.overlap+c.snapWindow >= c.maxChunkSize {
		return nil, fmt.Errorf("%w: overlap (%d) plus snap window (%d) must be smaller than max chunk size (%d)",
			domain.ErrInvalidInput, c.overlap, c.snapWindow, c.maxChunkSize)
	}

	return c, nil
}

// Chunk splits text into chunks owned by documentID.
// Every byte of input is covered by at least one chunk; adjacent chunks
// overlap by the configured amount, adjusted when an end snaps to a
// sentence boundary. Empty text produces no chunks.
func (c *Chunker) Chunk(documentID, text string) []domain.Chunk {
	n := len(text)
	if n == 0 {
		return nil
	}

	chunks := make([]domain.Chunk, 0, n/(c.maxChunkSize-c.overlap)+1)
	start := 0
	for {
		end := start + c.maxChunkSize
		if end >= n {
			end = n
		} else if snapped := c.snapToSentence(text, start, end); snapped > 0 {
			end = snapped
		} else {
			// A hard cut must not split a multi-byte rune.
			for end > start+c.overlap+1 && !utf8.RuneStart(text[end]) {
				end--
			}
		}

		index := len(chunks)
		chunks = append(chunks, domain.Chunk{
			ID:          fmt.Sprintf("%s:%d", documentID, index),
			DocumentID:  documentID,
			Index:       index,
			Text:        text[start:end],
			StartOffset: start,
			EndOffset:   end,
		})

		if end >= n {
			return chunks
		}
		start = end - c.overlap
		// The overlap may land inside a rune; widen it to the rune start
		// so every chunk begins on a boundary.
		for start > 0 && !utf8.RuneStart(text[start]) {
			start--
		}
	}
}

// snapToSentence finds a sentence boundary at or before end, no more
// than snapWindow bytes back and strictly inside the current chunk.
// Returns 0 if there is no boundary to snap to.
func (c *Chunker) snapToSentence(text string, start, end int) int {
	limit := end - c.snapWindow
	if min := start + c.overlap + 1; limit < min {
		limit = min
	}
	for i := end - 1; i >= limit; i-- {
		switch text[i] {
		case '\n':
			return i + 1
		case '.', '!', '?':
			// Boundary only when followed by whitespace, so decimals
			// and abbreviations mid-token are not split points.
			if i+1 < len(text) && (text[i+1] == ' ' || text[i+1] == '\n' || text[i+1] == '\t') {
				return i + 1
			}
		}
	}
	return 0
}
