package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize [url]",
	Short: "Summarize an article",
	Long: `Prints a short summary of the article at the given URL. Articles not
yet in the library are fetched and indexed first.`,
	Args: cobra.ExactArgs(1),
	RunE: runSummarize,
}

func init() {
	rootCmd.AddCommand(summarizeCmd)
}

func runSummarize(cmd *cobra.Command, args []string) error {
	if askService == nil {
		return errors.New("ask service not configured")
	}

	summary, err := askService.Summarize(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to summarize: %w", err)
	}

	cmd.Println(summary)
	return nil
}
