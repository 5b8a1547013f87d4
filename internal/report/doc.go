// Package report renders crawl runs for people and tools.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Human-readable text output for terminal display
//   - JSONWriter: Structured JSON output for tool integration
//   - MarkdownWriter: Markdown for sharing, grouped by industry
//   - JSONLinesSink: one JSON object per finalized record, as it arrives
//
// Design decision: We separate report writing from report data structures
// (which are in the model package). This allows adding new output formats
// without modifying the core data structures.
package report
