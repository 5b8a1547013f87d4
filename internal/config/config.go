package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Renderer names.
const (
	// RendererBrowser renders pages in headless Chrome.
	RendererBrowser = "browser"

	// RendererHTTP fetches raw HTML with a plain GET.
	RendererHTTP = "http"
)

// Default configuration values.
const (
	// DefaultSeedURL is the City of Doral local-discounts directory.
	DefaultSeedURL = "https://www.cityofdoral.com/businesses/local-discounts/"

	// DefaultRenderer renders pages in a browser because the directory is
	// populated by scripts.
	DefaultRenderer = RendererBrowser

	// DefaultTimeout bounds one page load, wait condition included.
	DefaultTimeout = 30 * time.Second

	// DefaultConcurrency is the number of follow-ups in flight.
	DefaultConcurrency = 4

	// DefaultMaxOpenPages caps open browser tabs or HTTP requests.
	DefaultMaxOpenPages = 4

	// DefaultBatchSize is the number of seeds crawled in parallel.
	DefaultBatchSize = 1

	// DefaultCrawlDelay is the minimum spacing between follow-up dispatches.
	DefaultCrawlDelay = 0 * time.Second

	// DefaultRegion is the region phone numbers are validated against.
	DefaultRegion = "US"

	// AppName is the application name used for XDG directory paths.
	AppName = "doralscan"

	// DefaultUserAgent identifies doralscan in HTTP requests.
	DefaultUserAgent = "doralscan/1.0 (+https://github.com/nao1215/doralscan)"

	// DefaultMaxBodySize limits how much of a response body is read.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultTorStartupTimeout is the maximum time to wait for the embedded
	// Tor daemon to bootstrap.
	DefaultTorStartupTimeout = 3 * time.Minute
)

// Config holds all configuration options for doralscan.
// This struct is populated from the config file, the environment and CLI
// flags, and passed through the application via dependency injection.
//
// Design decision: We use a single flat struct instead of nested structs
// for simplicity. The number of options is manageable, and nesting would
// add complexity without significant benefit.
type Config struct {
	// Seeds are the directory pages to crawl.
	Seeds []string

	// Renderer selects the fetcher: RendererBrowser or RendererHTTP.
	Renderer string

	// Timeout bounds one page load.
	Timeout time.Duration

	// Concurrency is the number of follow-ups in flight per seed.
	Concurrency int

	// MaxOpenPages caps the resources (tabs or requests) held at once.
	MaxOpenPages int

	// BatchSize is the number of seeds crawled in parallel.
	BatchSize int

	// CrawlDelay is the minimum spacing between follow-up dispatches.
	// Zero disables the limiter.
	CrawlDelay time.Duration

	// ProxyAddress routes traffic through a SOCKS5 proxy when set.
	ProxyAddress string

	// UseTor starts an embedded Tor daemon and routes traffic through it.
	UseTor bool

	// TorStartupTimeout is the maximum time to wait for Tor to bootstrap.
	TorStartupTimeout time.Duration

	// RespectRobots skips business websites disallowed by robots.txt.
	RespectRobots bool

	// ValidatePhones drops numbers that are not valid in Region.
	ValidatePhones bool

	// Region is the two-letter region used for phone validation.
	Region string

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// ChromePath is the Chrome binary. Empty means auto-detect.
	ChromePath string

	// Verbose enables debug output on the console.
	Verbose bool

	// LogFile receives a debug-level log of the run when set.
	LogFile string

	// ConfigFilePath is the path to the configuration file.
	// If empty, .doralscan is searched in the current and home directories.
	ConfigFilePath string

	// SiteConfigs holds per-seed settings loaded from the config file.
	SiteConfigs *File

	// JSONReport writes the run report as JSON.
	JSONReport bool

	// MarkdownReport writes the run report as Markdown.
	MarkdownReport bool

	// ReportFile is the output file for the report. Empty means stdout.
	ReportFile string

	// Stream writes each finalized record as a JSON line to stdout while
	// the crawl runs.
	Stream bool

	// DBDir is the directory of the SQLite history database.
	DBDir string

	// SaveToDB stores crawl results in the history database.
	SaveToDB bool

	// SavePartial also stores runs that failed or were interrupted, marked
	// with their error. History diffs skip such runs.
	SavePartial bool
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero. This also serves as
// documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Renderer:          DefaultRenderer,
		Timeout:           DefaultTimeout,
		Concurrency:       DefaultConcurrency,
		MaxOpenPages:      DefaultMaxOpenPages,
		BatchSize:         DefaultBatchSize,
		CrawlDelay:        DefaultCrawlDelay,
		TorStartupTimeout: DefaultTorStartupTimeout,
		Region:            DefaultRegion,
		UserAgent:         DefaultUserAgent,
		MaxBodySize:       DefaultMaxBodySize,
		DBDir:             XDGDataDir(),
		SaveToDB:          true,
	}
}

// XDGDataDir returns the XDG data directory for doralscan.
// On Linux: ~/.local/share/doralscan
// On macOS: ~/Library/Application Support/doralscan
// On Windows: %LOCALAPPDATA%\doralscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for doralscan.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found.
func (c *Config) Validate() error {
	if len(c.Seeds) == 0 {
		return ErrNoSeed
	}
	for _, seed := range c.Seeds {
		u, err := url.Parse(seed)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: %q", ErrInvalidSeedURL, seed)
		}
	}

	if c.Renderer != RendererBrowser && c.Renderer != RendererHTTP {
		return ErrInvalidRenderer
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.MaxOpenPages <= 0 {
		return ErrInvalidMaxOpenPages
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.UseTor && c.ProxyAddress != "" {
		return ErrConflictingProxy
	}
	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if !isRegionCode(c.Region) {
		return ErrInvalidRegion
	}
	return nil
}

func isRegionCode(s string) bool {
	if len(s) != 2 {
		return false
	}
	for i := range 2 {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}
