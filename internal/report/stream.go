package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/nao1215/doralscan/internal/model"
)

// JSONLinesSink writes each finalized record as one line of JSON.
// It satisfies crawler.Sink, so records are written while the crawl runs.
type JSONLinesSink struct {
	out     *lockedEncoder
	seedURL string
}

type lockedEncoder struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONLinesSink creates a sink writing to output.
func NewJSONLinesSink(output io.Writer) *JSONLinesSink {
	return &JSONLinesSink{out: &lockedEncoder{enc: json.NewEncoder(output)}}
}

// ForSeed returns a sink sharing the same output, whose lines carry seedURL.
// Seeds crawled in parallel can then share one stream.
func (s *JSONLinesSink) ForSeed(seedURL string) *JSONLinesSink {
	return &JSONLinesSink{out: s.out, seedURL: seedURL}
}

type streamLine struct {
	SeedURL string `json:"seed_url,omitempty"`
	model.BusinessRecord
}

// Emit writes record as one JSON line.
func (s *JSONLinesSink) Emit(_ context.Context, record model.BusinessRecord) error {
	s.out.mu.Lock()
	defer s.out.mu.Unlock()
	if err := s.out.enc.Encode(streamLine{SeedURL: s.seedURL, BusinessRecord: record}); err != nil {
		return fmt.Errorf("write record stream: %w", err)
	}
	return nil
}
