package crawler

import (
	"context"

	"github.com/nao1215/doralscan/internal/model"
)

// Sink receives finalized business records.
// The orchestrator never calls Emit concurrently.
type Sink interface {
	Emit(ctx context.Context, record model.BusinessRecord) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, record model.BusinessRecord) error

// Emit calls f(ctx, record).
func (f SinkFunc) Emit(ctx context.Context, record model.BusinessRecord) error {
	return f(ctx, record)
}

// MultiSink emits to each sink in order and stops at the first error.
type MultiSink []Sink

// Emit implements Sink.
func (m MultiSink) Emit(ctx context.Context, record model.BusinessRecord) error {
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Emit(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

// ReportSink collects records into report.
func ReportSink(report *model.CrawlReport) Sink {
	return SinkFunc(func(_ context.Context, record model.BusinessRecord) error {
		report.AddRecord(record)
		return nil
	})
}
