// Package cli implements the lecta command-line interface.
// Commands are thin wrappers around the driving ports; all pipeline
// logic lives in the core services.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/lecta-labs/lecta-cli/internal/core/ports/driving"
	"github.com/lecta-labs/lecta-cli/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Services injected by main before Execute.
var (
	libraryService driving.LibraryService
	askService     driving.AskService
)

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:   "lecta",
	Short: "A personal research library with grounded Q&A",
	Long: `Lecta saves web articles into a searchable library and answers
questions from them. Every claim in an answer cites the passage it
came from, so you can always trace a statement back to its source.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "print pipeline progress to stderr")
}

// Services bundles the driving ports the CLI depends on.
type Services struct {
	Library driving.LibraryService
	Ask     driving.AskService
}

// SetServices injects the application services. Must be called before
// Execute.
func SetServices(s Services) {
	libraryService = s.Library
	askService = s.Ask
}

// SetVersion overrides the reported version string.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
