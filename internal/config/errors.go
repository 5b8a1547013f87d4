package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoSeed is returned when no directory URL is configured.
	ErrNoSeed = errors.New("no seed specified: provide a directory URL")

	// ErrInvalidSeedURL is returned when a seed is not an absolute http(s) URL.
	ErrInvalidSeedURL = errors.New("invalid seed URL: must be an absolute http or https URL")

	// ErrInvalidTimeout is returned when the page timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBatchSize is returned when the number of seeds crawled in
	// parallel is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidConcurrency is returned when the follow-up concurrency is
	// not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidMaxOpenPages is returned when the resource cap is not positive.
	ErrInvalidMaxOpenPages = errors.New("invalid max open pages: must be positive")

	// ErrInvalidRenderer is returned for an unknown renderer name.
	ErrInvalidRenderer = errors.New("invalid renderer: must be \"browser\" or \"http\"")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrConflictingProxy is returned when both --tor and --proxy are set.
	ErrConflictingProxy = errors.New("conflicting proxy settings: --tor and --proxy cannot be used together")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	// Use 0 for no delay between follow-up dispatches.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidRegion is returned when the phone region is not a two-letter
	// region code.
	ErrInvalidRegion = errors.New("invalid region: must be a two-letter region code such as US")

	// ErrInvalidEnv is returned when a DORALSCAN_* variable cannot be parsed.
	ErrInvalidEnv = errors.New("invalid environment variable")
)
