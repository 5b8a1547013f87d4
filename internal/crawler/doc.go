// Package crawler runs the two-stage crawl of a business directory.
//
// # Architecture
//
// The Orchestrator fetches the directory page, parses it into business
// records and, for every record that lists a website, schedules a follow-up
// fetch of that website. The follow-up turns the site's text into a set of
// phone numbers and finalizes the record. Every record is finalized exactly
// once and handed to a Sink.
//
// Per business the state machine is:
//
//	Discovered -> NoWebsite       -> Finalized (no fetch issued)
//	Discovered -> FollowUpPending -> Finalized (fetched or failed)
//
// Design decision: The in-progress record travels in an explicit followUp
// task value rather than in request metadata because:
//  1. The continuation gets a typed record, not a lookup by key
//  2. Each task owns its record, so no locking is needed until emission
//  3. Concurrency is plain goroutines bounded by errgroup.SetLimit
//
// # Resources
//
// Pages are fetched through a fetcher.Fetcher. Every resource a fetch
// returns is released by withResource on all exit paths. The directory page
// is parsed and its resource released before any follow-up is scheduled, so
// a fetcher with a single resource cannot deadlock the crawl.
//
// # Failure handling
//
// A follow-up that fails (network error, timeout, wait condition, robots
// disallow, malformed website) is logged at error level and its record is
// emitted with status failed and no phones. It never affects sibling
// follow-ups. Failing to fetch the directory page fails the crawl with
// ErrSeedFetch. A sink error aborts the crawl.
//
// # Usage
//
//	o := crawler.NewOrchestrator(f, crawler.WithConcurrency(4), crawler.WithLogger(logger))
//	stats, err := o.Crawl(ctx, seedURL, crawler.SinkFunc(func(ctx context.Context, r model.BusinessRecord) error {
//		fmt.Println(r.NameOrEmpty(), r.Phones.Sorted())
//		return nil
//	}))
package crawler
