package crawler

import (
	"context"
	"errors"
	"testing"

	"github.com/nao1215/doralscan/internal/model"
)

func TestMultiSink(t *testing.T) {
	t.Parallel()

	var first, second int
	s := MultiSink{
		SinkFunc(func(context.Context, model.BusinessRecord) error { first++; return nil }),
		nil,
		SinkFunc(func(context.Context, model.BusinessRecord) error { second++; return nil }),
	}
	if err := s.Emit(context.Background(), model.BusinessRecord{}); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	if first != 1 || second != 1 {
		t.Errorf("calls = (%d, %d), want (1, 1)", first, second)
	}

	boom := errors.New("boom")
	s = MultiSink{
		SinkFunc(func(context.Context, model.BusinessRecord) error { return boom }),
		SinkFunc(func(context.Context, model.BusinessRecord) error { second++; return nil }),
	}
	if err := s.Emit(context.Background(), model.BusinessRecord{}); !errors.Is(err, boom) {
		t.Errorf("Emit() error = %v, want %v", err, boom)
	}
	if second != 1 {
		t.Errorf("sink after failure was called")
	}
}

func TestReportSink(t *testing.T) {
	t.Parallel()

	report := model.NewCrawlReport(seedURL)
	sink := ReportSink(report)
	rec := model.BusinessRecord{Name: model.StringPtr("A")}.Finalize(model.StatusNoWebsite, nil, "")
	if err := sink.Emit(context.Background(), rec); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	if len(report.Records) != 1 || report.Records[0].NameOrEmpty() != "A" {
		t.Errorf("report records = %+v", report.Records)
	}
}
