package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/doralscan/internal/model"
)

// SimpleWriter outputs human-readable text reports for the terminal.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors because it works in all terminals and pipes cleanly to
// files or other tools.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether businesses without phones are listed.
	showEmpty bool

	// verbose adds the offer and failure detail of each business.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty lists businesses that have no phone numbers.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the run in human-readable format.
func (w *SimpleWriter) Write(report *model.CrawlReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writeBusinesses(&sb, report)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

func rule(sb *strings.Builder, ch string) {
	sb.WriteString(strings.Repeat(ch, 70))
	sb.WriteString("\n")
}

func section(sb *strings.Builder, title string) {
	rule(sb, "-")
	sb.WriteString(title)
	sb.WriteString("\n")
	rule(sb, "-")
	sb.WriteString("\n")
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString("\n")
	rule(sb, "=")
	sb.WriteString("                         DORALSCAN REPORT\n")
	rule(sb, "=")
	sb.WriteString("\n")

	fmt.Fprintf(sb, "Directory:      %s\n", report.SeedURL)
	fmt.Fprintf(sb, "Run ID:         %s\n", report.RunID)
	fmt.Fprintf(sb, "Crawl Date:     %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Duration:       %s\n", report.Duration().Round(time.Millisecond))
	fmt.Fprintf(sb, "Status:         %s\n", statusText(report))
	sb.WriteString("\n")
}

// writeSummary writes the crawl counters.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.CrawlReport) {
	section(sb, "SUMMARY")

	s := report.Stats
	fmt.Fprintf(sb, "  Businesses:        %d\n", s.Discovered)
	fmt.Fprintf(sb, "  Without website:   %d\n", s.NoWebsite)
	fmt.Fprintf(sb, "  Websites visited:  %d\n", s.FollowUps)
	fmt.Fprintf(sb, "  Failed websites:   %d\n", s.FollowUpFailures)
	fmt.Fprintf(sb, "  With phones:       %d\n", report.RecordsWithPhones())
	fmt.Fprintf(sb, "  Phone numbers:     %d\n", s.PhonesFound)
	sb.WriteString("\n")
}

// writeBusinesses lists each business and its phones.
func (w *SimpleWriter) writeBusinesses(sb *strings.Builder, report *model.CrawlReport) {
	records := report.SortedRecords()
	section(sb, "BUSINESSES")

	listed := 0
	for _, rec := range records {
		if rec.Phones.Len() == 0 && !w.showEmpty {
			continue
		}
		listed++
		fmt.Fprintf(sb, "  * %s\n", orDash(rec.NameOrEmpty()))
		if rec.Industry != nil {
			fmt.Fprintf(sb, "    Industry: %s\n", *rec.Industry)
		}
		if rec.Website != nil {
			fmt.Fprintf(sb, "    Website:  %s\n", *rec.Website)
		}
		fmt.Fprintf(sb, "    Phones:   %s\n", phonesText(rec))
		if w.verbose {
			if rec.Offer != nil {
				fmt.Fprintf(sb, "    Offer:    %s\n", *rec.Offer)
			}
			if rec.FollowUpError != "" {
				fmt.Fprintf(sb, "    Error:    %s\n", rec.FollowUpError)
			}
		}
	}
	if listed == 0 {
		sb.WriteString("  No phone numbers found\n")
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	rule(sb, "=")
	sb.WriteString("Report generated by doralscan\n")
	sb.WriteString("https://github.com/nao1215/doralscan\n")
	rule(sb, "=")
}

// WriteDiff outputs what changed between two runs.
func (w *SimpleWriter) WriteDiff(previous, current *model.CrawlReport, diff model.RunDiff) (int, error) {
	var sb strings.Builder

	sb.WriteString("\n")
	rule(&sb, "=")
	sb.WriteString("                         DORALSCAN CHANGES\n")
	rule(&sb, "=")
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Directory:      %s\n", current.SeedURL)
	fmt.Fprintf(&sb, "Previous run:   %s (%s)\n", previous.RunID, previous.StartedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&sb, "Current run:    %s (%s)\n", current.RunID, current.StartedAt.Format("2006-01-02 15:04"))
	sb.WriteString("\n")

	if diff.Empty() {
		sb.WriteString("No changes.\n")
		return io.WriteString(w.output, sb.String())
	}

	if len(diff.Added) > 0 {
		section(&sb, fmt.Sprintf("ADDED (%d)", len(diff.Added)))
		for _, rec := range diff.Added {
			fmt.Fprintf(&sb, "  + %s  %s\n", orDash(rec.NameOrEmpty()), phonesText(rec))
		}
		sb.WriteString("\n")
	}
	if len(diff.Removed) > 0 {
		section(&sb, fmt.Sprintf("REMOVED (%d)", len(diff.Removed)))
		for _, rec := range diff.Removed {
			fmt.Fprintf(&sb, "  - %s  %s\n", orDash(rec.NameOrEmpty()), phonesText(rec))
		}
		sb.WriteString("\n")
	}
	if len(diff.Changed) > 0 {
		section(&sb, fmt.Sprintf("CHANGED (%d)", len(diff.Changed)))
		for _, c := range diff.Changed {
			fmt.Fprintf(&sb, "  ~ %s\n", orDash(c.Current.NameOrEmpty()))
			if c.PhonesChanged() {
				fmt.Fprintf(&sb, "    Phones: %s -> %s\n", phonesText(c.Previous), phonesText(c.Current))
			}
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "Unchanged: %d\n", diff.Unchanged)
	return io.WriteString(w.output, sb.String())
}
