package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lecta-labs/lecta-cli/internal/core/domain"
)

var addCmd = &cobra.Command{
	Use:   "add [url]",
	Short: "Add a web article to the library",
	Long: `Fetches the article at the given URL, extracts its text, and indexes
it for retrieval. Articles already in the library are rejected unless
their previous ingestion failed, in which case they are retried.`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	if libraryService == nil {
		return errors.New("library service not configured")
	}

	url := args[0]
	cmd.Printf("Adding %s...\n", url)

	doc, err := libraryService.AddDocument(cmd.Context(), url)
	if errors.Is(err, domain.ErrDuplicate) {
		cmd.Println("Already in the library. Use 'lecta document list' to find it.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to add article: %w", err)
	}

	cmd.Printf("\nAdded: %s\n", doc.Title)
	cmd.Printf("  ID:      %s\n", doc.ID)
	if doc.Author != "" {
		cmd.Printf("  Author:  %s\n", doc.Author)
	}
	cmd.Printf("  Words:   %d\n", doc.WordCount)
	cmd.Printf("  Chunks:  %d\n", doc.ChunkCount)
	if len(doc.Tags) > 0 {
		cmd.Printf("  Tags:    %s\n", strings.Join(doc.Tags, ", "))
	}
	if doc.Summary != "" {
		cmd.Printf("\n%s\n", doc.Summary)
	}
	return nil
}
