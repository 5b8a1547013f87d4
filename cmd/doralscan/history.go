package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/doralscan/internal/config"
	"github.com/nao1215/doralscan/internal/database"
	"github.com/nao1215/doralscan/internal/model"
	"github.com/nao1215/doralscan/internal/report"
	"github.com/spf13/cobra"
)

// errNotEnoughRuns is returned when a diff is asked for a seed with fewer
// than two stored runs.
var errNotEnoughRuns = errors.New("at least 2 runs are required for comparison")

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [directory-url]",
		Short: "Show stored runs and what changed between them",
		Long: `History reads the runs stored by 'doralscan crawl' and shows what changed
between the latest two runs of a directory:
- Businesses that appeared or disappeared
- Businesses whose phone numbers, offer or website changed

Without a URL the default City of Doral directory is used.

Examples:
  # Compare the latest two runs of the default directory
  doralscan history

  # List stored runs of a directory
  doralscan history --list https://example.com/directory

  # List every directory with stored runs
  doralscan history --list-seeds

  # Output the comparison as Markdown
  doralscan history --markdown

  # Delete a stored run
  doralscan history --delete 1b4e28ba-2fa1-11d2-883f-0016d3cca427`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list", "l", false,
		"List stored runs of the directory")
	cmd.Flags().BoolP("list-seeds", "L", false,
		"List every directory with stored runs")
	cmd.Flags().String("delete", "",
		"Delete the stored run with this ID")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	listSeeds, err := flags.GetBool("list-seeds")
	if err != nil {
		return err
	}
	list, err := flags.GetBool("list")
	if err != nil {
		return err
	}
	deleteID, err := flags.GetString("delete")
	if err != nil {
		return err
	}
	jsonOutput, err := flags.GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := flags.GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOutput && markdownOutput {
		return config.ErrConflictingReportFormats
	}

	// Flags are checked before the database is opened so a bad invocation
	// never touches it.
	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		cfg := config.NewConfig()
		if err := cfg.ApplyEnv(); err != nil {
			return err
		}
		dbDir = cfg.DBDir
	}

	db, err := database.Open(dbDir, database.Options{EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch {
	case listSeeds:
		return listStoredSeeds(ctx, db, out)
	case deleteID != "":
		if err := db.DeleteRun(ctx, deleteID); err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted run %s\n", deleteID)
		return nil
	}

	seed := config.DefaultSeedURL
	if len(args) > 0 {
		seed = args[0]
	}
	if list {
		return listRuns(ctx, db, seed, out)
	}

	var w report.DiffWriter
	switch {
	case jsonOutput:
		w = report.NewJSONWriter(out, report.WithPrettyPrint())
	case markdownOutput:
		w = report.NewMarkdownWriter(out)
	default:
		w = report.NewSimpleWriter(out)
	}
	return writeLatestDiff(ctx, db, seed, w)
}

// listStoredSeeds prints every seed with at least one stored run.
func listStoredSeeds(ctx context.Context, db *database.CrawlDB, out io.Writer) error {
	seeds, err := db.ListSeeds(ctx)
	if err != nil {
		return err
	}
	if len(seeds) == 0 {
		fmt.Fprintln(out, "No runs found in the database.")
		fmt.Fprintln(out, "\nUse 'doralscan crawl' to crawl a directory.")
		return nil
	}

	fmt.Fprintf(out, "Directories with stored runs (%d):\n\n", len(seeds))
	for _, seed := range seeds {
		fmt.Fprintf(out, "  • %s\n", seed)
	}
	return nil
}

// listRuns prints the stored runs of seed, newest first.
func listRuns(ctx context.Context, db *database.CrawlDB, seed string, out io.Writer) error {
	runs, err := db.GetRunHistory(ctx, seed)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintf(out, "No runs found for %s\n", seed)
		return nil
	}

	fmt.Fprintf(out, "Runs of %s (%d):\n\n", seed, len(runs))
	fmt.Fprintf(out, "  %-36s  %-19s  %10s  %6s  %s\n", "ID", "Started", "Businesses", "Phones", "Status")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 90))
	for _, run := range runs {
		fmt.Fprintf(out, "  %-36s  %-19s  %10d  %6d  %s\n",
			run.RunID,
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Stats.Discovered,
			run.Stats.PhonesFound,
			runStatus(run),
		)
	}
	fmt.Fprintln(out, "\nUse 'doralscan history <url>' to compare the latest two runs.")
	return nil
}

// runStatus summarizes how a stored run ended.
func runStatus(run database.RunMetadata) string {
	switch {
	case run.TimedOut:
		return "interrupted"
	case run.Error != "":
		return "error: " + run.Error
	default:
		return "ok"
	}
}

// writeLatestDiff compares the latest two complete runs of seed.
func writeLatestDiff(ctx context.Context, db *database.CrawlDB, seed string, w report.DiffWriter) error {
	current, previous, err := db.LatestTwoRuns(ctx, seed)
	if err != nil {
		return err
	}
	if current == nil {
		return fmt.Errorf("no complete runs found for %s", seed)
	}
	if previous == nil {
		return fmt.Errorf("%w (found 1 for %s)", errNotEnoughRuns, seed)
	}

	diff := model.DiffRecords(previous.Records, current.Records)
	_, err = w.WriteDiff(previous, current, diff)
	return err
}
