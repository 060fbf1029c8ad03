package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lecta-labs/lecta-cli/internal/core/domain"
	"github.com/lecta-labs/lecta-cli/internal/core/ports/driving"
)

var askTopK int

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question against your saved articles",
	Long: `Retrieves the most relevant passages from the library and composes
an answer grounded in them. Citations like [1] refer to the numbered
sources printed below the answer.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of passages to retrieve (0 = configured default)")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if askService == nil {
		return errors.New("ask service not configured")
	}

	question := args[0]
	answer, results, err := askService.Ask(cmd.Context(), question, driving.AskOptions{TopK: askTopK})

	// Generation failed but retrieval succeeded. Show the passages so
	// the question is not a total loss.
	if err != nil && len(results) > 0 {
		cmd.Printf("Could not generate an answer (%v). Showing the retrieved passages instead:\n\n", err)
		printResults(cmd, results)
		return nil
	}
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	cmd.Println(answer.Text)

	if len(answer.Citations) > 0 {
		cmd.Println("\nSources:")
		for i, c := range answer.Citations {
			cmd.Printf("  [%d] %s\n      %s\n", i+1, c.Title, c.SourceURL)
		}
	} else if !answer.Grounded {
		cmd.Println("\n(Warning: this answer contains no citations and may not be grounded in your articles.)")
	}
	return nil
}

func printResults(cmd *cobra.Command, results []domain.RetrievalResult) {
	for i, r := range results {
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, r.Citation.Title, r.Score)
		cmd.Printf("      %s\n", r.Citation.SourceURL)
		cmd.Printf("      %s\n\n", snippet(r.Text, 200))
	}
}

// snippet truncates text for single-line display.
func snippet(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}
