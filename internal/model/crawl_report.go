package model

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// CrawlStats summarizes one crawl of a directory seed.
type CrawlStats struct {
	// Discovered is the number of business blocks parsed from the directory.
	Discovered int `json:"discovered"`

	// NoWebsite is the number of businesses finalized without a follow-up.
	NoWebsite int `json:"no_website"`

	// FollowUps is the number of follow-up fetches scheduled.
	FollowUps int `json:"follow_ups"`

	// FollowUpFailures is the number of follow-ups that failed.
	FollowUpFailures int `json:"follow_up_failures"`

	// Emitted is the number of finalized records handed to the sink.
	Emitted int `json:"emitted"`

	// PhonesFound is the total number of distinct numbers across all records.
	PhonesFound int `json:"phones_found"`
}

// CrawlReport is the result of crawling a single directory seed.
//
// Design decision: The report collects records behind a mutex because
// follow-up fetches finish concurrently and each one appends its record.
type CrawlReport struct {
	// RunID uniquely identifies this crawl run.
	RunID string `json:"run_id"`

	// SeedURL is the directory page that was crawled.
	SeedURL string `json:"seed_url"`

	// StartedAt is when the crawl began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the crawl finished.
	FinishedAt time.Time `json:"finished_at"`

	// Records holds every finalized business record in emission order.
	Records []BusinessRecord `json:"records"`

	// Stats summarizes the crawl.
	Stats CrawlStats `json:"stats"`

	// TimedOut is true if the crawl was cancelled before completion.
	TimedOut bool `json:"timed_out"`

	// Error is the error that stopped the crawl, if any.
	// Not serialized directly; see ErrorMessage.
	Error error `json:"-"`

	// ErrorMessage is the string form of Error for JSON output.
	ErrorMessage string `json:"error,omitempty"`

	// PerformedSteps lists the pipeline steps that ran.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	mu sync.Mutex
}

// NewCrawlReport creates a report for the given seed with a fresh run ID.
func NewCrawlReport(seedURL string) *CrawlReport {
	return &CrawlReport{
		RunID:     uuid.NewString(),
		SeedURL:   seedURL,
		StartedAt: time.Now(),
		Records:   make([]BusinessRecord, 0),
	}
}

// AddRecord appends a finalized record. Safe for concurrent use.
func (r *CrawlReport) AddRecord(record BusinessRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Records = append(r.Records, record)
}

// SetError records a crawl-level error.
func (r *CrawlReport) SetError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Error = err
	if err != nil {
		r.ErrorMessage = err.Error()
	}
}

// SortedRecords returns the records ordered by name, then website.
// Emission order depends on which follow-up finishes first, so output
// uses this view to stay stable between runs.
func (r *CrawlReport) SortedRecords() []BusinessRecord {
	r.mu.Lock()
	out := slices.Clone(r.Records)
	r.mu.Unlock()

	slices.SortStableFunc(out, func(a, b BusinessRecord) int {
		if c := strings.Compare(strings.ToLower(a.NameOrEmpty()), strings.ToLower(b.NameOrEmpty())); c != 0 {
			return c
		}
		return strings.Compare(a.WebsiteOrEmpty(), b.WebsiteOrEmpty())
	})
	return out
}

// Duration returns how long the crawl took.
func (r *CrawlReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// RecordsWithPhones returns the number of records that have at least one phone.
func (r *CrawlReport) RecordsWithPhones() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, rec := range r.Records {
		if rec.Phones.Len() > 0 {
			count++
		}
	}
	return count
}
