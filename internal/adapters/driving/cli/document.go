package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lecta-labs/lecta-cli/internal/core/domain"
)

var documentCmd = &cobra.Command{
	Use:     "document",
	Aliases: []string{"doc"},
	Short:   "Manage library documents",
	Long:    `List, inspect, relate, or remove documents in the library.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentShowCmd = &cobra.Command{
	Use:   "show [doc-id]",
	Short: "Show document metadata",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentShow,
}

var documentRelatedCmd = &cobra.Command{
	Use:   "related [doc-id]",
	Short: "Find articles similar to a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentRelated,
}

var documentRemoveCmd = &cobra.Command{
	Use:   "remove [doc-id]",
	Short: "Remove a document and its index entries",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentRemove,
}

// Flags for the list and related commands.
var (
	relatedTopK int
	listJSON    bool
)

func init() {
	documentListCmd.Flags().BoolVar(&listJSON, "json", false, "output documents as JSON")
	documentRelatedCmd.Flags().IntVarP(&relatedTopK, "top-k", "k", 5, "maximum number of related articles")

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentShowCmd)
	documentCmd.AddCommand(documentRelatedCmd)
	documentCmd.AddCommand(documentRemoveCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if libraryService == nil {
		return errors.New("library service not configured")
	}

	docs, err := libraryService.ListDocuments(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if listJSON {
		data, err := json.MarshalIndent(docs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal documents: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(docs) == 0 {
		cmd.Println("The library is empty. Add an article with 'lecta add <url>'.")
		return nil
	}

	for i := range docs {
		cmd.Printf("  %s\n", docs[i].ID)
		cmd.Printf("    Title:   %s\n", docs[i].Title)
		cmd.Printf("    URL:     %s\n", docs[i].SourceURL)
		cmd.Printf("    Stage:   %s\n", docs[i].Stage)
		if docs[i].Stage == domain.StageFailed && docs[i].FailureReason != "" {
			cmd.Printf("    Failure: %s\n", docs[i].FailureReason)
		}
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentShow(cmd *cobra.Command, args []string) error {
	if libraryService == nil {
		return errors.New("library service not configured")
	}

	doc, err := libraryService.GetDocument(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Title:    %s\n", doc.Title)
	if doc.Author != "" {
		cmd.Printf("  Author:   %s\n", doc.Author)
	}
	cmd.Printf("  URL:      %s\n", doc.SourceURL)
	cmd.Printf("  Fetched:  %s\n", doc.FetchedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Words:    %d\n", doc.WordCount)
	cmd.Printf("  Chunks:   %d\n", doc.ChunkCount)
	cmd.Printf("  Stage:    %s\n", doc.Stage)
	if doc.FailureReason != "" {
		cmd.Printf("  Failure:  %s\n", doc.FailureReason)
	}
	if len(doc.Tags) > 0 {
		cmd.Printf("  Tags:     %s\n", strings.Join(doc.Tags, ", "))
	}
	if doc.Summary != "" {
		cmd.Printf("\n%s\n", doc.Summary)
	}
	return nil
}

func runDocumentRelated(cmd *cobra.Command, args []string) error {
	if askService == nil {
		return errors.New("ask service not configured")
	}

	results, err := askService.Related(cmd.Context(), args[0], relatedTopK)
	if err != nil {
		return fmt.Errorf("failed to find related articles: %w", err)
	}

	if len(results) == 0 {
		cmd.Println("No related articles found.")
		return nil
	}

	cmd.Println("Related articles:")
	cmd.Println()
	printResults(cmd, results)
	return nil
}

func runDocumentRemove(cmd *cobra.Command, args []string) error {
	if libraryService == nil {
		return errors.New("library service not configured")
	}

	docID := args[0]
	if err := libraryService.RemoveDocument(cmd.Context(), docID); err != nil {
		return fmt.Errorf("failed to remove document: %w", err)
	}

	cmd.Printf("Document %s removed from the library.\n", docID)
	return nil
}
