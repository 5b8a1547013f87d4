package fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// BrowserFetcher renders pages in headless Chrome.
//
// Design decision: Each resource is a browser tab because:
//  1. A tab is the unit that must be closed after use, so the pool cap is
//     the number of open tabs
//  2. Tabs share one browser process, so startup cost is paid once
//  3. Cancelling a tab context closes the tab, which makes release cheap
type BrowserFetcher struct {
	pool        *Pool
	pageTimeout time.Duration
	headers     network.Headers

	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// BrowserOption configures a BrowserFetcher.
type BrowserOption func(*browserConfig)

type browserConfig struct {
	maxOpenPages int
	pageTimeout  time.Duration
	execPath     string
	proxyServer  string
	userAgent    string
	headers      map[string]string
	headless     bool
}

// WithBrowserMaxOpenPages sets the number of tabs open at once.
func WithBrowserMaxOpenPages(n int) BrowserOption {
	return func(c *browserConfig) {
		c.maxOpenPages = n
	}
}

// WithPageTimeout bounds navigation plus the wait condition of one fetch.
func WithPageTimeout(d time.Duration) BrowserOption {
	return func(c *browserConfig) {
		if d > 0 {
			c.pageTimeout = d
		}
	}
}

// WithExecPath sets the Chrome binary. Empty means auto-detect.
func WithExecPath(path string) BrowserOption {
	return func(c *browserConfig) {
		c.execPath = path
	}
}

// WithProxyServer routes browser traffic through a proxy such as
// "socks5://127.0.0.1:9050".
func WithProxyServer(addr string) BrowserOption {
	return func(c *browserConfig) {
		c.proxyServer = addr
	}
}

// WithBrowserUserAgent sets the browser's User-Agent.
func WithBrowserUserAgent(ua string) BrowserOption {
	return func(c *browserConfig) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithBrowserHeaders sends extra headers (Cookie included) with every
// request of every tab.
func WithBrowserHeaders(headers map[string]string) BrowserOption {
	return func(c *browserConfig) {
		c.headers = headers
	}
}

// WithHeadless toggles headless mode.
func WithHeadless(headless bool) BrowserOption {
	return func(c *browserConfig) {
		c.headless = headless
	}
}

// NewBrowserFetcher starts a browser and returns a fetcher backed by it.
// The browser lives until Close is called or ctx is cancelled.
func NewBrowserFetcher(ctx context.Context, opts ...BrowserOption) (*BrowserFetcher, error) {
	cfg := browserConfig{
		maxOpenPages: DefaultMaxOpenPages,
		pageTimeout:  30 * time.Second,
		userAgent:    DefaultUserAgent,
		headless:     true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(cfg.userAgent),
	)
	if cfg.execPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(cfg.execPath))
	}
	if cfg.proxyServer != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(cfg.proxyServer))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// An empty Run starts the browser.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	var headers network.Headers
	if len(cfg.headers) > 0 {
		headers = make(network.Headers, len(cfg.headers))
		for k, v := range cfg.headers {
			headers[k] = v
		}
	}

	return &BrowserFetcher{
		pool:          NewPool(cfg.maxOpenPages),
		pageTimeout:   cfg.pageTimeout,
		headers:       headers,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

// Fetch implements Fetcher. The resource is the tab the page was loaded in.
func (b *BrowserFetcher) Fetch(ctx context.Context, req Request) (*Page, *Resource, error) {
	tabCtx, closeTab := chromedp.NewContext(b.browserCtx)
	res, err := b.pool.Acquire(ctx, func() error {
		closeTab()
		return nil
	})
	if err != nil {
		closeTab()
		return nil, nil, newFetchError(req.URL, err)
	}

	// Open the tab before applying the timeout so the deadline does not
	// become the tab's lifetime.
	if err := chromedp.Run(tabCtx); err != nil {
		return nil, res, newFetchError(req.URL, fmt.Errorf("open tab: %w", err))
	}
	if headers := b.requestHeaders(req); headers != nil {
		if err := chromedp.Run(tabCtx, network.Enable(), network.SetExtraHTTPHeaders(headers)); err != nil {
			return nil, res, newFetchError(req.URL, fmt.Errorf("set headers: %w", err))
		}
	}

	runCtx, cancel := context.WithTimeout(tabCtx, b.pageTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	page, err := b.load(runCtx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = errors.Join(ctxErr, err)
		}
		return nil, res, newFetchError(req.URL, err)
	}
	return page, res, nil
}

// requestHeaders merges the request's headers over the fetcher's.
func (b *BrowserFetcher) requestHeaders(req Request) network.Headers {
	if len(req.Headers) == 0 {
		return b.headers
	}
	headers := make(network.Headers, len(b.headers)+len(req.Headers))
	for k, v := range b.headers {
		headers[k] = v
	}
	for k, v := range req.Headers {
		headers[k] = v
	}
	return headers
}

func (b *BrowserFetcher) load(ctx context.Context, req Request) (*Page, error) {
	resp, err := chromedp.RunResponse(ctx, chromedp.Navigate(req.URL))
	if err != nil {
		return nil, fmt.Errorf("navigate: %w", err)
	}

	status := 0
	if resp != nil {
		status = int(resp.Status)
		if status < 200 || status >= 300 {
			return nil, fmt.Errorf("%w: %d", ErrStatus, status)
		}
	}

	if req.WaitSelector != "" {
		if err := chromedp.Run(ctx, chromedp.WaitReady(req.WaitSelector, chromedp.ByQuery)); err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrWaitCondition, req.WaitSelector, err)
		}
	}

	var html, location string
	if err := chromedp.Run(ctx,
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.Location(&location),
	); err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	return &Page{
		URL:        req.URL,
		FinalURL:   location,
		StatusCode: status,
		HTML:       html,
	}, nil
}

// Release implements Fetcher by closing the tab.
func (b *BrowserFetcher) Release(res *Resource) error {
	return b.pool.Release(res)
}

// InUse returns the number of open tabs.
func (b *BrowserFetcher) InUse() int {
	return b.pool.InUse()
}

// Close reports leaked tabs and shuts the browser down.
func (b *BrowserFetcher) Close() error {
	err := b.pool.Close()
	b.browserCancel()
	b.allocCancel()
	return err
}
