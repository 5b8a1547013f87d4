package report

import (
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/nao1215/doralscan/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// uncategorized is the heading for businesses without an industry label.
const uncategorized = "Uncategorized"

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
	title cases.Caser
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		title:      cases.Title(language.English),
	}
}

// Write outputs the run in Markdown format.
func (w *MarkdownWriter) Write(report *model.CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeBusinesses(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CrawlReport) {
	md.H1("Doralscan Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Directory", "`" + report.SeedURL + "`"},
			{"Run ID", "`" + report.RunID + "`"},
			{"Crawl Date", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Status", w.statusText(report)},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) statusText(report *model.CrawlReport) string {
	if report.TimedOut {
		return "⚠️ Timed Out (partial results)"
	}
	if report.ErrorMessage != "" {
		return "❌ Error - " + report.ErrorMessage
	}
	return "✅ Complete"
}

// writeSummary writes the crawl counters, the outcome chart and an alert.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.CrawlReport) {
	s := report.Stats
	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Businesses", strconv.Itoa(s.Discovered)},
			{"Without website", strconv.Itoa(s.NoWebsite)},
			{"Websites visited", strconv.Itoa(s.FollowUps)},
			{"Failed websites", strconv.Itoa(s.FollowUpFailures)},
			{"With phones", strconv.Itoa(report.RecordsWithPhones())},
			{"**Phone numbers**", "**" + strconv.Itoa(s.PhonesFound) + "**"},
		},
	})
	md.PlainText("")

	if s.Discovered > 0 {
		w.writePieChart(md, report)
	}

	switch {
	case report.ErrorMessage != "":
		md.Cautionf("The crawl did not complete: %s", report.ErrorMessage)
	case s.FollowUpFailures > 0:
		md.Warningf("%d business website(s) could not be fetched; they are listed without phones.", s.FollowUpFailures)
	case s.PhonesFound == 0:
		md.Note("No phone numbers were found.")
	default:
		md.Tip("All business websites were fetched.")
	}
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of follow-up outcomes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.CrawlReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Website Follow-up Outcome"),
		piechart.WithShowData(true),
	)

	withPhones := report.RecordsWithPhones()
	s := report.Stats
	fetchedNoPhones := s.FollowUps - s.FollowUpFailures - withPhones
	for _, slice := range []struct {
		label string
		value int
	}{
		{"With phones", withPhones},
		{"No phones on site", fetchedNoPhones},
		{"Fetch failed", s.FollowUpFailures},
		{"No website", s.NoWebsite},
	} {
		if slice.value > 0 {
			chart.LabelAndIntValue(slice.label, uint64(slice.value))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeBusinesses writes one table per industry.
func (w *MarkdownWriter) writeBusinesses(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Businesses")
	md.PlainText("")

	records := report.SortedRecords()
	if len(records) == 0 {
		md.PlainText("No businesses found.")
		md.PlainText("")
		return
	}

	groups := make(map[string][]model.BusinessRecord)
	for _, rec := range records {
		industry := strings.TrimSpace(rec.IndustryOrEmpty())
		if industry == "" {
			industry = uncategorized
		} else {
			industry = w.title.String(industry)
		}
		groups[industry] = append(groups[industry], rec)
	}

	industries := make([]string, 0, len(groups))
	for k := range groups {
		if k != uncategorized {
			industries = append(industries, k)
		}
	}
	slices.Sort(industries)
	if _, ok := groups[uncategorized]; ok {
		industries = append(industries, uncategorized)
	}

	for _, industry := range industries {
		md.H3(industry)
		md.PlainText("")
		w.writeBusinessTable(md, groups[industry])
	}
}

func (w *MarkdownWriter) writeBusinessTable(md *markdown.Markdown, records []model.BusinessRecord) {
	rows := make([][]string, len(records))
	for i, rec := range records {
		website := "-"
		if rec.Website != nil {
			website = "`" + truncateString(*rec.Website, 60) + "`"
		}
		rows[i] = []string{
			orDash(rec.NameOrEmpty()),
			truncateString(orDash(rec.OfferOrEmpty()), 50),
			website,
			phonesText(rec),
			orDash(string(rec.Status)),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Name", "Offer", "Website", "Phones", "Status"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, rec := range records {
		if rec.FollowUpError != "" {
			md.Details(rec.NameOrEmpty(), rec.FollowUpError)
		}
	}
}

// WriteDiff outputs what changed between two runs in Markdown format.
func (w *MarkdownWriter) WriteDiff(previous, current *model.CrawlReport, diff model.RunDiff) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Doralscan Changes")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Directory", "`" + current.SeedURL + "`"},
			{"Previous run", previous.StartedAt.Format("2006-01-02 15:04 MST")},
			{"Current run", current.StartedAt.Format("2006-01-02 15:04 MST")},
			{"Unchanged", strconv.Itoa(diff.Unchanged)},
		},
	})
	md.PlainText("")

	if diff.Empty() {
		md.Tip("No changes between the two runs.")
		return len(md.String()), md.Build()
	}

	recordList := func(title string, records []model.BusinessRecord) {
		if len(records) == 0 {
			return
		}
		md.H2(title)
		md.PlainText("")
		items := make([]string, len(records))
		for i, rec := range records {
			items[i] = orDash(rec.NameOrEmpty()) + ": " + phonesText(rec)
		}
		md.BulletList(items...)
		md.PlainText("")
	}
	recordList("Added", diff.Added)
	recordList("Removed", diff.Removed)

	if len(diff.Changed) > 0 {
		md.H2("Changed")
		md.PlainText("")
		rows := make([][]string, len(diff.Changed))
		for i, c := range diff.Changed {
			rows[i] = []string{orDash(c.Current.NameOrEmpty()), phonesText(c.Previous), phonesText(c.Current)}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Name", "Previous phones", "Current phones"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	return len(md.String()), md.Build()
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [doralscan](https://github.com/nao1215/doralscan)*")
}

// truncateString truncates a string to maxLen bytes with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
