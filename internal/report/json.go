package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/doralscan/internal/model"
)

// JSONWriter outputs reports in JSON format.
// This format is designed for tool integration and programmatic processing.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the run in JSON format with records sorted by name.
func (w *JSONWriter) Write(report *model.CrawlReport) (int, error) {
	return w.writeJSON(newJSONReport(report, ""))
}

// WriteDiff outputs a run comparison in JSON format.
func (w *JSONWriter) WriteDiff(previous, current *model.CrawlReport, diff model.RunDiff) (int, error) {
	return w.writeJSON(struct {
		PreviousRunID string        `json:"previous_run_id"`
		CurrentRunID  string        `json:"current_run_id"`
		Diff          model.RunDiff `json:"diff"`
	}{previous.RunID, current.RunID, diff})
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')
	return w.output.Write(data)
}

// JSONReport is the serialized form of one run.
//
// Design decision: We wrap the report rather than marshaling CrawlReport
// directly so the records are emitted in a stable order and output-only
// fields stay out of the model.
type JSONReport struct {
	// Version is the doralscan version that generated this report.
	Version string `json:"version,omitempty"`

	RunID      string                 `json:"run_id"`
	SeedURL    string                 `json:"seed_url"`
	StartedAt  string                 `json:"started_at"`
	FinishedAt string                 `json:"finished_at,omitempty"`
	Duration   string                 `json:"duration"`
	TimedOut   bool                   `json:"timed_out,omitempty"`
	Error      string                 `json:"error,omitempty"`
	Stats      model.CrawlStats       `json:"stats"`
	Records    []model.BusinessRecord `json:"records"`
}

func newJSONReport(report *model.CrawlReport, version string) *JSONReport {
	out := &JSONReport{
		Version:   version,
		RunID:     report.RunID,
		SeedURL:   report.SeedURL,
		StartedAt: report.StartedAt.UTC().Format(timeLayout),
		Duration:  report.Duration().String(),
		TimedOut:  report.TimedOut,
		Error:     report.ErrorMessage,
		Stats:     report.Stats,
		Records:   report.SortedRecords(),
	}
	if !report.FinishedAt.IsZero() {
		out.FinishedAt = report.FinishedAt.UTC().Format(timeLayout)
	}
	return out
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

// FullJSONWriter outputs reports that carry the tool version.
type FullJSONWriter struct {
	*JSONWriter

	// version is the doralscan version string.
	version string
}

// NewFullJSONWriter creates a writer for reports with version metadata.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write outputs the run wrapped with the version.
func (w *FullJSONWriter) Write(report *model.CrawlReport) (int, error) {
	return w.writeJSON(newJSONReport(report, w.version))
}
