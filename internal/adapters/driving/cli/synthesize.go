package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var synthesizeCmd = &cobra.Command{
	Use:   "synthesize [topic]",
	Short: "Synthesize what your articles say about a topic",
	Long: `Gathers passages about the topic from across the library and produces
a synthesis: common themes, disagreements, and which articles support
each point.`,
	Args: cobra.ExactArgs(1),
	RunE: runSynthesize,
}

func init() {
	rootCmd.AddCommand(synthesizeCmd)
}

func runSynthesize(cmd *cobra.Command, args []string) error {
	if askService == nil {
		return errors.New("ask service not configured")
	}

	synthesis, err := askService.Synthesize(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to synthesize: %w", err)
	}

	cmd.Println(synthesis)
	return nil
}
