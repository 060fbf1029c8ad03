package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/lecta-labs/lecta-cli/internal/core/domain"
	"github.com/lecta-labs/lecta-cli/internal/core/ports/driven"
	"github.com/lecta-labs/lecta-cli/internal/logger"
)

// noAnswerText is returned when retrieval produced nothing relevant.
// This path never calls the generative model.
const noAnswerText = "I couldn't find any relevant information in your saved articles to answer this question. Try adding more articles on this topic."

// contextEncoding is the tokenizer used for context budgeting.
const contextEncoding = "cl100k_base"

// ComposerConfig configures answer generation.
type ComposerConfig struct {
	// MaxAnswerTokens bounds the generated answer length.
	MaxAnswerTokens int

	// MaxContextTokens bounds the total size of passages placed in the
	// prompt. Passages beyond the budget are dropped, lowest score first.
	MaxContextTokens int

	// Temperature for generation.
	Temperature float64
}

// DefaultComposerConfig returns the documented defaults.
func DefaultComposerConfig() ComposerConfig {
	return ComposerConfig{
		MaxAnswerTokens:  1000,
		MaxContextTokens: 6000,
	}
}

// Composer builds grounded prompts from retrieved passages, invokes the
// generative model and parses citation markers out of the response.
type Composer struct {
	llm     driven.LLMService
	prompts driven.PromptStore
	cfg     ComposerConfig
	enc     *tiktoken.Tiktoken
}

// NewComposer creates a composer. The LLM service may be nil, in which
// case Compose degrades to the no-answer path for every question.
func NewComposer(llm driven.LLMService, cfg ComposerConfig) *Composer {
	if cfg.MaxAnswerTokens <= 0 {
		cfg.MaxAnswerTokens = DefaultComposerConfig().MaxAnswerTokens
	}
	if cfg.MaxContextTokens <= 0 {
		cfg.MaxContextTokens = DefaultComposerConfig().MaxContextTokens
	}

	enc, err := tiktoken.GetEncoding(contextEncoding)
	if err != nil {
		// Token counting falls back to a bytes/4 estimate.
		logger.Warn("tokenizer %s unavailable: %v", contextEncoding, err)
		enc = nil
	}

	return &Composer{llm: llm, cfg: cfg, enc: enc}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
// If not set, the composer uses built-in defaults.
func (c *Composer) SetPromptStore(store driven.PromptStore) {
	c.prompts = store
}

// Compose answers question from the given passages.
//
// With no passages it returns the canned no-answer response without
// calling the model: no claim is made, so the answer is trivially
// grounded. Otherwise the model is called once; its failures propagate
// as *domain.GenerationError and the caller decides whether to degrade
// to a retrieval-only response.
func (c *Composer) Compose(ctx context.Context, question string, results []domain.RetrievalResult) (*domain.Answer, error) {
	if len(results) == 0 {
		logger.Debug("No passages retrieved, skipping generation")
		return &domain.Answer{Text: noAnswerText, Grounded: true}, nil
	}
	if c.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	included := c.fitToBudget(results)
	logger.Debug("Composing answer from %d of %d passages", len(included), len(results))

	var sb strings.Builder
	for i, r := range included {
		fmt.Fprintf(&sb, "[%d] (%s)\n%s\n\n", i+1, r.Citation.Title, r.Text)
	}

	prompt := fmt.Sprintf(c.prompt(driven.PromptAnswer), sb.String(), question)

	text, err := c.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   c.cfg.MaxAnswerTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)

	markers := parseCitationMarkers(text, len(included))
	citations := make([]domain.Citation, 0, len(markers))
	for _, n := range markers {
		citations = append(citations, included[n-1].Citation)
	}

	if len(markers) == 0 {
		logger.Warn("Answer contains no citation markers, flagging as ungrounded")
	}

	return &domain.Answer{
		Text:      text,
		Citations: citations,
		Grounded:  len(markers) > 0,
	}, nil
}

// Summarise produces a short summary of a single article's text.
func (c *Composer) Summarise(ctx context.Context, text string) (string, error) {
	if c.llm == nil {
		return "", domain.ErrLLMUnavailable
	}

	prompt := fmt.Sprintf(c.prompt(driven.PromptSummarise), c.truncateToBudget(text))
	summary, err := c.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   300,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(summary), nil
}

// Synthesize produces a cross-article synthesis from passages grouped
// per source article.
func (c *Composer) Synthesize(ctx context.Context, topic string, results []domain.RetrievalResult) (string, error) {
	if len(results) == 0 {
		return "No articles found on this topic.", nil
	}
	if c.llm == nil {
		return "", domain.ErrLLMUnavailable
	}

	// Group chunk texts by document, preserving retrieval order.
	type articleGroup struct {
		title string
		texts []string
	}
	var order []string
	groups := make(map[string]*articleGroup)
	for _, r := range c.fitToBudget(results) {
		g, ok := groups[r.DocumentID]
		if !ok {
			g = &articleGroup{title: r.Citation.Title}
			groups[r.DocumentID] = g
			order = append(order, r.DocumentID)
		}
		g.texts = append(g.texts, r.Text)
	}

	var sb strings.Builder
	for _, id := range order {
		g := groups[id]
		fmt.Fprintf(&sb, "From: %s\n%s\n\n", g.title, strings.Join(g.texts, " "))
	}

	prompt := fmt.Sprintf(c.prompt(driven.PromptSynthesis), topic, sb.String())
	synthesis, err := c.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   1500,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(synthesis), nil
}

// prompt loads a template from the store, falling back to the built-in
// default when the store is absent or fails.
func (c *Composer) prompt(name string) string {
	if c.prompts != nil {
		if p, err := c.prompts.Load(name); err == nil && p != "" {
			return p
		}
	}
	return driven.DefaultPrompts[name]
}

// fitToBudget keeps the highest-ranked passages that fit the context
// token budget. At least one passage is always kept.
func (c *Composer) fitToBudget(results []domain.RetrievalResult) []domain.RetrievalResult {
	used := 0
	out := make([]domain.RetrievalResult, 0, len(results))
	for _, r := range results {
		n := c.countTokens(r.Text)
		if len(out) > 0 && used+n > c.cfg.MaxContextTokens {
			break
		}
		out = append(out, r)
		used += n
	}
	return out
}

// truncateToBudget cuts text to roughly the context token budget.
func (c *Composer) truncateToBudget(text string) string {
	if c.countTokens(text) <= c.cfg.MaxContextTokens {
		return text
	}
	// Approximate: four bytes per token on average English text.
	limit := c.cfg.MaxContextTokens * 4
	if limit < len(text) {
		return text[:limit] + "..."
	}
	return text
}

// countTokens counts tokens with the configured encoding, estimating
// when the tokenizer could not be loaded.
func (c *Composer) countTokens(text string) int {
	if c.enc == nil {
		return len(text) / 4
	}
	return len(c.enc.Encode(text, nil, nil))
}
