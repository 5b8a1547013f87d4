package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/nao1215/doralscan/internal/config"
	"github.com/nao1215/doralscan/internal/crawler"
	"github.com/nao1215/doralscan/internal/database"
	"github.com/nao1215/doralscan/internal/directory"
	"github.com/nao1215/doralscan/internal/fetcher"
	dlog "github.com/nao1215/doralscan/internal/log"
	"github.com/nao1215/doralscan/internal/model"
	"github.com/nao1215/doralscan/internal/phone"
	"github.com/nao1215/doralscan/internal/pipeline"
	"github.com/nao1215/doralscan/internal/proxy"
	"github.com/nao1215/doralscan/internal/report"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

// errSeedsFailed is returned when at least one seed could not be crawled.
// The reports of the other seeds are still written.
var errSeedsFailed = errors.New("one or more seeds failed")

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [directory-url...]",
		Short: "Crawl the business directory and extract phone numbers",
		Long: `Crawl fetches a business directory page, parses every business listed on it
and visits each business website to collect its phone numbers.

Phone numbers are normalized to ten digits, so "(305) 555-1234",
"305-555-1234", "305.555.1234" and "305 555 1234" are one number.
Without arguments the City of Doral local-discounts directory is crawled,
unless seeds are listed in the configuration file or DORALSCAN_SEEDS.

Examples:
  # Crawl the default directory with a headless browser
  doralscan crawl

  # Crawl without a browser, for directories rendered on the server
  doralscan crawl --renderer http https://example.com/directory

  # Stream records as JSON lines while the crawl runs
  doralscan crawl --stream

  # Write a Markdown report and be gentle with business websites
  doralscan crawl --markdown -o report.md --delay 500ms --robots

  # Route all traffic through an embedded Tor daemon
  doralscan crawl --tor

Configuration file (.doralscan) example:
  seeds:
    - https://www.cityofdoral.com/businesses/local-discounts/
  sites:
    www.cityofdoral.com:
      directoryWait: "div.row.bus_row"
      cookie: "session=abc123"`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	// Fetching
	cmd.Flags().StringP("renderer", "r", config.DefaultRenderer,
		"Page renderer: browser (headless Chrome) or http (plain GET)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each page load, wait condition included")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Number of business websites fetched at once per directory")
	cmd.Flags().IntP("max-open-pages", "p", config.DefaultMaxOpenPages,
		"Maximum number of browser tabs or HTTP requests open at once")
	cmd.Flags().DurationP("delay", "d", config.DefaultCrawlDelay,
		"Minimum delay between business website fetches (0 disables)")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of directories crawled at once")
	cmd.Flags().Bool("robots", false,
		"Skip business websites disallowed by robots.txt")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with requests")
	cmd.Flags().String("chrome-path", "",
		"Path to the Chrome binary (default: auto-detect)")

	// Proxy
	cmd.Flags().StringP("proxy", "x", "",
		"Route traffic through a SOCKS5 proxy (e.g., 127.0.0.1:9050)")
	cmd.Flags().Bool("tor", false,
		"Start an embedded Tor daemon and route traffic through it")
	cmd.Flags().DurationP("tor-timeout", "T", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")

	// Phone numbers
	cmd.Flags().Bool("validate-phones", false,
		"Drop numbers that are not valid in --region")
	cmd.Flags().String("region", config.DefaultRegion,
		"Region used by --validate-phones")

	// Configuration
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .doralscan in current or home directory)")
	cmd.Flags().String("env-file", "",
		"dotenv file with DORALSCAN_* variables (default: .env)")
	cmd.Flags().Bool("no-save", false,
		"Do not store the run in the history database")
	cmd.Flags().Bool("save-partial", false,
		"Also store runs that failed or were interrupted")
	cmd.Flags().String("log-file", "",
		"Write a debug log of the run as JSON to this file")

	// Report
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().BoolP("stream", "s", false,
		"Print each record as a JSON line on stdout as soon as it is final")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger, closer, err := dlog.NewRunLogger(dlog.Options{
		Console: cmd.ErrOrStderr(),
		Verbose: cfg.Verbose,
		LogFile: cfg.LogFile,
	})
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCrawl(ctx, cfg, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) (value, changed bool) {
	if f := cmd.Flags().Lookup("verbose"); f != nil {
		v, err := cmd.Flags().GetBool("verbose")
		return err == nil && v, f.Changed
	}
	if f := cmd.Root().PersistentFlags().Lookup("verbose"); f != nil {
		v, err := cmd.Root().PersistentFlags().GetBool("verbose")
		return err == nil && v, f.Changed
	}
	return false, false
}

// buildConfig assembles the configuration of a crawl. Later sources
// override earlier ones: defaults, the dotenv file and DORALSCAN_*
// variables, the configuration file, flags set on the command line, and
// finally seed URLs given as arguments.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	flags := cmd.Flags()

	envFile, err := flags.GetString("env-file")
	if err != nil {
		return nil, err
	}
	if err := config.LoadEnv(envFile); err != nil {
		return nil, err
	}

	cfg := config.NewConfig()
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}
	if err := loadSiteConfigs(cfg); err != nil {
		return nil, err
	}

	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}

	if len(args) > 0 {
		cfg.Seeds = args
	}
	if len(cfg.Seeds) == 0 {
		cfg.Seeds = []string{config.DefaultSeedURL}
	}
	return cfg, nil
}

// loadSiteConfigs reads the configuration file into cfg.SiteConfigs.
// An explicitly named file must exist; otherwise a missing file means an
// empty configuration. Seeds of the file apply when no other source set any.
func loadSiteConfigs(cfg *config.Config) error {
	explicit := cfg.ConfigFilePath != ""
	path := config.FindConfigFile(cfg.ConfigFilePath)

	switch {
	case path != "":
		file, err := config.LoadConfigFile(path)
		if err != nil {
			return fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		cfg.SiteConfigs = file
	case explicit:
		return fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	default:
		cfg.SiteConfigs = &config.File{Sites: make(map[string]config.SiteConfig)}
	}

	if len(cfg.Seeds) == 0 {
		cfg.Seeds = append([]string(nil), cfg.SiteConfigs.Seeds...)
	}
	return nil
}

// applyFlags copies the flags set on the command line into cfg.
// Unset flags keep the values from the environment and the defaults.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	strs := []struct {
		name string
		dst  *string
	}{
		{"renderer", &cfg.Renderer},
		{"user-agent", &cfg.UserAgent},
		{"chrome-path", &cfg.ChromePath},
		{"proxy", &cfg.ProxyAddress},
		{"region", &cfg.Region},
		{"log-file", &cfg.LogFile},
		{"output", &cfg.ReportFile},
	}
	for _, f := range strs {
		if !flags.Changed(f.name) {
			continue
		}
		v, err := flags.GetString(f.name)
		if err != nil {
			return err
		}
		*f.dst = v
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"concurrency", &cfg.Concurrency},
		{"max-open-pages", &cfg.MaxOpenPages},
		{"batch", &cfg.BatchSize},
	}
	for _, f := range ints {
		if !flags.Changed(f.name) {
			continue
		}
		v, err := flags.GetInt(f.name)
		if err != nil {
			return err
		}
		*f.dst = v
	}

	durations := []struct {
		name string
		dst  *time.Duration
	}{
		{"timeout", &cfg.Timeout},
		{"delay", &cfg.CrawlDelay},
		{"tor-timeout", &cfg.TorStartupTimeout},
	}
	for _, f := range durations {
		if !flags.Changed(f.name) {
			continue
		}
		v, err := flags.GetDuration(f.name)
		if err != nil {
			return err
		}
		*f.dst = v
	}

	bools := []struct {
		name string
		dst  *bool
	}{
		{"tor", &cfg.UseTor},
		{"robots", &cfg.RespectRobots},
		{"validate-phones", &cfg.ValidatePhones},
		{"json", &cfg.JSONReport},
		{"markdown", &cfg.MarkdownReport},
		{"stream", &cfg.Stream},
		{"save-partial", &cfg.SavePartial},
	}
	for _, f := range bools {
		if !flags.Changed(f.name) {
			continue
		}
		v, err := flags.GetBool(f.name)
		if err != nil {
			return err
		}
		*f.dst = v
	}

	noSave, err := flags.GetBool("no-save")
	if err != nil {
		return err
	}
	if noSave {
		cfg.SaveToDB = false
	}

	if v, changed := getVerboseFlag(cmd); changed {
		cfg.Verbose = v
	}
	return nil
}

// closableFetcher is a fetcher that owns a resource pool.
type closableFetcher interface {
	fetcher.Fetcher
	Close() error
}

// runCrawl crawls every seed of cfg and writes the reports.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer) error {
	logger.Info("starting crawl",
		"seeds", cfg.Seeds,
		"renderer", cfg.Renderer,
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	// A nil interface, not a nil *CrawlDB, disables the save step.
	var store pipeline.RunStore
	if cfg.SaveToDB {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		store = db
		logger.Info("database opened", "path", db.Path())
	}

	client, stopProxy, err := setupProxy(ctx, cfg, logger, stderr)
	if err != nil {
		return err
	}
	defer stopProxy()

	base, err := newFetcher(ctx, cfg, client)
	if err != nil {
		return err
	}
	defer func() {
		if err := base.Close(); err != nil {
			logger.Error("fetcher shutdown", "error", err)
		}
	}()

	var f fetcher.Fetcher = base
	if cfg.RespectRobots {
		// robots.txt goes through the same proxy as the pages.
		f = fetcher.NewRobotsFetcher(base, httpClient(cfg, client), cfg.UserAgent)
	}

	var stream *report.JSONLinesSink
	if cfg.Stream {
		stream = report.NewJSONLinesSink(stdout)
	}

	bp := pipeline.NewBatchProcessor(
		newPipelineFactory(cfg, f, store, stream, logger),
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	startTime := time.Now()
	reports, batchErr := bp.ProcessBatch(ctx, cfg.Seeds)
	logger.Info("crawl finished", "elapsed", time.Since(startTime).Round(time.Millisecond))

	if err := outputReports(cfg, reports, stdout); err != nil {
		return err
	}
	if batchErr != nil {
		return batchErr
	}
	for _, r := range reports {
		if r == nil || r.Error != nil {
			return errSeedsFailed
		}
	}
	return nil
}

// newPipelineFactory returns a factory building the pipeline of one seed.
// Each seed gets its own orchestrator so per-site selectors, wait
// selectors and directory headers apply; the fetcher is shared.
func newPipelineFactory(cfg *config.Config, f fetcher.Fetcher, store pipeline.RunStore, stream *report.JSONLinesSink, logger *slog.Logger) func(string) *pipeline.Pipeline {
	return func(seed string) *pipeline.Pipeline {
		var site config.SiteConfig
		if cfg.SiteConfigs != nil {
			site = cfg.SiteConfigs.GetSiteConfig(seed)
		}

		var crawlOpts []pipeline.CrawlStepOption
		if stream != nil {
			crawlOpts = append(crawlOpts, pipeline.WithCrawlSinks(stream.ForSeed(seed)))
		}

		return pipeline.DefaultPipeline(
			newOrchestrator(cfg, site, f, logger),
			store,
			[]pipeline.Option{
				pipeline.WithLogger(logger),
				pipeline.WithPartialRuns(cfg.SavePartial),
			},
			crawlOpts...,
		)
	}
}

// newOrchestrator creates the orchestrator of one seed.
func newOrchestrator(cfg *config.Config, site config.SiteConfig, f fetcher.Fetcher, logger *slog.Logger) *crawler.Orchestrator {
	opts := []crawler.Option{
		crawler.WithLogger(logger),
		crawler.WithConcurrency(cfg.Concurrency),
		crawler.WithSelectors(site.Selectors.Merge(directory.DefaultSelectors())),
	}
	if headers := site.RequestHeaders(); headers != nil {
		opts = append(opts, crawler.WithDirectoryHeaders(headers))
	}
	if site.DirectoryWait != "" {
		opts = append(opts, crawler.WithDirectoryWait(site.DirectoryWait))
	}
	if site.SiteWait != "" {
		opts = append(opts, crawler.WithSiteWait(site.SiteWait))
	}
	if cfg.CrawlDelay > 0 {
		opts = append(opts, crawler.WithRateLimit(rate.Every(cfg.CrawlDelay), 1))
	}
	if cfg.ValidatePhones {
		opts = append(opts, crawler.WithExtractor(
			phone.NewExtractor(phone.WithValidator(phone.NewNANPValidator(cfg.Region))),
		))
	}
	return crawler.NewOrchestrator(f, opts...)
}

// setupProxy returns the SOCKS5 client traffic should go through, or nil
// for direct connections. The returned function stops an embedded Tor
// daemon and is always safe to call.
func setupProxy(ctx context.Context, cfg *config.Config, logger *slog.Logger, stderr io.Writer) (*proxy.Client, func(), error) {
	switch {
	case cfg.UseTor:
		return startEmbeddedTor(ctx, cfg, logger, stderr)
	case cfg.ProxyAddress != "":
		client, err := proxy.NewClient(cfg.ProxyAddress, cfg.Timeout)
		if err != nil {
			return nil, func() {}, fmt.Errorf("failed to create proxy client: %w", err)
		}
		if err := client.CheckConnection(ctx).Err(); err != nil {
			return nil, func() {}, fmt.Errorf("proxy check failed for %s: %w", client.Address(), err)
		}
		logger.Info("proxy connection verified", "address", client.Address())
		return client, func() {}, nil
	default:
		return nil, func() {}, nil
	}
}

// startEmbeddedTor starts an embedded Tor daemon using tornago and returns
// a client for its SOCKS proxy.
func startEmbeddedTor(ctx context.Context, cfg *config.Config, logger *slog.Logger, stderr io.Writer) (*proxy.Client, func(), error) {
	fmt.Fprintln(stderr, "Starting embedded Tor daemon...")
	fmt.Fprintln(stderr, "This may take 1-3 minutes while Tor bootstraps and connects to the network.")

	tor := proxy.NewEmbeddedTor(proxy.WithStartupTimeout(cfg.TorStartupTimeout))
	if err := tor.Start(ctx); err != nil {
		return nil, func() {}, fmt.Errorf("failed to start embedded Tor: %w", err)
	}
	stop := func() {
		logger.Info("stopping embedded Tor daemon")
		if err := tor.Stop(); err != nil {
			logger.Error("failed to stop embedded Tor", "error", err)
		}
	}

	logger.Info("embedded Tor daemon started",
		"socksAddr", tor.SocksAddr(),
		"controlAddr", tor.ControlAddr(),
	)

	client, err := tor.NewClient(cfg.Timeout)
	if err != nil {
		stop()
		return nil, func() {}, fmt.Errorf("failed to create Tor client: %w", err)
	}
	if err := client.CheckConnection(ctx).Err(); err != nil {
		stop()
		return nil, func() {}, fmt.Errorf("embedded Tor proxy check failed: %w", err)
	}
	return client, stop, nil
}

// newFetcher creates the fetcher selected by cfg.Renderer.
func newFetcher(ctx context.Context, cfg *config.Config, client *proxy.Client) (closableFetcher, error) {
	if cfg.Renderer == config.RendererHTTP {
		return fetcher.NewHTTPFetcher(
			fetcher.WithHTTPClient(httpClient(cfg, client)),
			fetcher.WithHTTPMaxOpenPages(cfg.MaxOpenPages),
			fetcher.WithHTTPUserAgent(cfg.UserAgent),
			fetcher.WithHTTPMaxBodySize(cfg.MaxBodySize),
		), nil
	}

	opts := []fetcher.BrowserOption{
		fetcher.WithBrowserMaxOpenPages(cfg.MaxOpenPages),
		fetcher.WithPageTimeout(cfg.Timeout),
		fetcher.WithBrowserUserAgent(cfg.UserAgent),
	}
	if cfg.ChromePath != "" {
		opts = append(opts, fetcher.WithExecPath(cfg.ChromePath))
	}
	if client != nil {
		opts = append(opts, fetcher.WithProxyServer(client.URL()))
	}
	b, err := fetcher.NewBrowserFetcher(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to start browser (use --renderer http to crawl without one): %w", err)
	}
	return b, nil
}

// httpClient returns a client dialing through client when it is non-nil.
func httpClient(cfg *config.Config, client *proxy.Client) *http.Client {
	if client != nil {
		return client.NewHTTPClient()
	}
	return &http.Client{Timeout: cfg.Timeout}
}

// outputReports writes the report of every finished seed in the requested
// format. With --output the file gets that format and the console a plain
// summary; with --stream the console is left to the JSON lines.
func outputReports(cfg *config.Config, reports []*model.CrawlReport, stdout io.Writer) error {
	if cfg.Stream && cfg.ReportFile == "" {
		return nil
	}

	var w report.Writer
	if cfg.ReportFile != "" {
		f, err := createReportFile(cfg.ReportFile)
		if err != nil {
			return err
		}
		defer f.Close()

		w = formatWriter(cfg, f)
		if !cfg.Stream {
			w = report.NewMultiWriter(w, report.NewSimpleWriter(stdout))
		}
	} else {
		w = formatWriter(cfg, stdout)
	}

	for _, r := range reports {
		if r == nil {
			continue
		}
		if _, err := w.Write(r); err != nil {
			return fmt.Errorf("failed to write report for %s: %w", r.SeedURL, err)
		}
	}
	return nil
}

// formatWriter returns the writer for the report format chosen in cfg.
func formatWriter(cfg *config.Config, out io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewFullJSONWriter(out, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(out)
	default:
		return report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose))
	}
}

// createReportFile creates or truncates path, creating parent directories.
// Reports are written with owner-only permissions.
func createReportFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // user-provided output path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}
