// Package pipeline runs a crawl of one directory seed as a sequence of
// steps, and crawls batches of seeds concurrently.
//
// The standard pipeline is CrawlStep (directory, websites, phones) followed
// by SaveStep (run history). Each step receives the run's report and can
// modify it.
//
// Design decision: We use a pipeline pattern instead of direct function calls
// because it provides consistent error handling and logging across steps
// and lets the CLI drop the save step with --no-save.
package pipeline
