package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lecta-labs/lecta-cli/internal/core/domain"
)

func sampleResults() []domain.RetrievalResult {
	return []domain.RetrievalResult{
		{
			ChunkID:    "c1",
			DocumentID: "d1",
			Score:      0.9,
			Text:       "Go was designed at Google.",
			Citation:   domain.Citation{SourceURL: "https://example.com/go", Title: "Go history", ChunkIndex: 0},
		},
		{
			ChunkID:    "c2",
			DocumentID: "d2",
			Score:      0.8,
			Text:       "Go compiles quickly.",
			Citation:   domain.Citation{SourceURL: "https://example.com/speed", Title: "Go speed", ChunkIndex: 2},
		},
	}
}

func TestComposeNoPassagesSkipsModel(t *testing.T) {
	llm := &mockLLM{response: "should not be called"}
	c := NewComposer(llm, DefaultComposerConfig())

	answer, err := c.Compose(context.Background(), "what is go?", nil)
	require.NoError(t, err)
	assert.Equal(t, noAnswerText, answer.Text)
	assert.True(t, answer.Grounded)
	assert.Empty(t, answer.Citations)
	assert.Zero(t, llm.calls)
}

func TestComposeGroundedAnswer(t *testing.T) {
	llm := &mockLLM{response: "Go was designed at Google [1]. It compiles quickly [2]."}
	c := NewComposer(llm, DefaultComposerConfig())

	answer, err := c.Compose(context.Background(), "what is go?", sampleResults())
	require.NoError(t, err)

	assert.True(t, answer.Grounded)
	require.Len(t, answer.Citations, 2)
	assert.Equal(t, "Go history", answer.Citations[0].Title)
	assert.Equal(t, "Go speed", answer.Citations[1].Title)

	// The prompt numbers passages in rank order.
	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "[1] (Go history)")
	assert.Contains(t, llm.prompts[0], "[2] (Go speed)")
	assert.Contains(t, llm.prompts[0], "what is go?")
}

func TestComposeUngroundedWithoutMarkers(t *testing.T) {
	llm := &mockLLM{response: "Go is a programming language."}
	c := NewComposer(llm, DefaultComposerConfig())

	answer, err := c.Compose(context.Background(), "what is go?", sampleResults())
	require.NoError(t, err)
	assert.False(t, answer.Grounded)
	assert.Empty(t, answer.Citations)
}

func TestComposeIgnoresOutOfRangeMarkers(t *testing.T) {
	llm := &mockLLM{response: "Claim [1]. Bogus [7]."}
	c := NewComposer(llm, DefaultComposerConfig())

	answer, err := c.Compose(context.Background(), "what is go?", sampleResults())
	require.NoError(t, err)
	assert.True(t, answer.Grounded)
	require.Len(t, answer.Citations, 1)
	assert.Equal(t, "Go history", answer.Citations[0].Title)
}

func TestComposeGenerationFailure(t *testing.T) {
	llm := &mockLLM{err: &domain.GenerationError{Kind: domain.GenerationTransient, Err: assert.AnError}}
	c := NewComposer(llm, DefaultComposerConfig())

	_, err := c.Compose(context.Background(), "what is go?", sampleResults())
	require.Error(t, err)
	var genErr *domain.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, domain.GenerationTransient, genErr.Kind)
}

func TestComposeWithoutModel(t *testing.T) {
	c := NewComposer(nil, DefaultComposerConfig())
	_, err := c.Compose(context.Background(), "what is go?", sampleResults())
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestComposeContextBudget(t *testing.T) {
	llm := &mockLLM{response: "Answer [1]."}
	cfg := DefaultComposerConfig()
	cfg.MaxContextTokens = 5
	c := NewComposer(llm, cfg)

	results := sampleResults()
	answer, err := c.Compose(context.Background(), "what is go?", results)
	require.NoError(t, err)
	assert.True(t, answer.Grounded)

	// Only the top passage fits the budget; the second is dropped.
	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "Go was designed at Google.")
	assert.NotContains(t, llm.prompts[0], "Go compiles quickly.")
}

func TestSummarise(t *testing.T) {
	llm := &mockLLM{response: "  A short summary.  "}
	c := NewComposer(llm, DefaultComposerConfig())

	summary, err := c.Summarise(context.Background(), "Some long article text.")
	require.NoError(t, err)
	assert.Equal(t, "A short summary.", summary)
}

func TestSynthesizeEmptyLibrary(t *testing.T) {
	llm := &mockLLM{response: "should not be called"}
	c := NewComposer(llm, DefaultComposerConfig())

	out, err := c.Synthesize(context.Background(), "go compilers", nil)
	require.NoError(t, err)
	assert.Equal(t, "No articles found on this topic.", out)
	assert.Zero(t, llm.calls)
}

func TestSynthesizeGroupsByArticle(t *testing.T) {
	llm := &mockLLM{response: "A synthesis."}
	c := NewComposer(llm, DefaultComposerConfig())

	results := append(sampleResults(), domain.RetrievalResult{
		ChunkID:    "c3",
		DocumentID: "d1",
		Score:      0.7,
		Text:       "It launched in 2009.",
		Citation:   domain.Citation{SourceURL: "https://example.com/go", Title: "Go history", ChunkIndex: 4},
	})

	out, err := c.Synthesize(context.Background(), "go", results)
	require.NoError(t, err)
	assert.Equal(t, "A synthesis.", out)

	require.Len(t, llm.prompts, 1)
	// Both chunks of d1 land under a single article heading.
	assert.Contains(t, llm.prompts[0], "From: Go history\nGo was designed at Google. It launched in 2009.")
	assert.Contains(t, llm.prompts[0], "From: Go speed\nGo compiles quickly.")
}
