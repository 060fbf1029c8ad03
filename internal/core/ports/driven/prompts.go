package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the
// binary, or fetch them from elsewhere.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next
	// access. Useful when prompts have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptAnswer builds the grounded question-answering prompt.
	// Expects %s (numbered passages) and %s (question) placeholders.
	PromptAnswer = "answer"

	// PromptSummarise creates a 3-4 sentence article summary.
	// Expects a %s placeholder for the article text.
	PromptSummarise = "summarise"

	// PromptSynthesis builds the multi-article topic synthesis prompt.
	// Expects %s (topic) and %s (per-article context) placeholders.
	PromptSynthesis = "synthesis"
)

// DefaultPrompts are the built-in templates, keyed by prompt name.
// They are the fallback when no store is configured and the seed
// content for file-backed stores.
var DefaultPrompts = map[string]string{
	PromptAnswer: `You are a research assistant answering from the user's saved articles.
Answer using ONLY the numbered passages below. After each claim, cite the
passages that support it in square brackets, like [1] or [1,3].
If multiple passages disagree, mention both views. If the passages do not
contain the answer, say that plainly.

Passages:
%s
Question: %s
Answer:`,

	PromptSummarise: `Provide a concise summary of the following article in 3-4 sentences.
Focus on the main points and key takeaways.

Article:
%s

Summary:`,

	PromptSynthesis: `Based on the following articles from the user's research library, provide
a comprehensive synthesis about: %s

- Identify common themes and key points across articles
- Note any disagreements or different perspectives
- Cite which articles support each point by title

Articles:
%s
Synthesis:`,
}
