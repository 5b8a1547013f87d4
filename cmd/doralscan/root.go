package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for doralscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doralscan",
		Short: "Collect business phone numbers from the City of Doral directory",
		Long: `doralscan crawls the City of Doral local-discounts directory, follows the
website of every listed business and extracts the US phone numbers found there.

Each number is normalized to ten digits and deduplicated per business.
Results are printed as a report, optionally streamed as JSON lines, and
stored in a local history database so consecutive runs can be compared.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
