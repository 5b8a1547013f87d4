package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// HTTPFetcher retrieves pages with a plain HTTP GET.
//
// The page is not rendered: the wait selector is checked once against the
// returned markup, and a miss is reported as ErrWaitCondition.
type HTTPFetcher struct {
	client      *http.Client
	pool        *Pool
	userAgent   string
	headers     map[string]string
	cookie      string
	maxBodySize int64
}

// HTTPOption configures an HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithHTTPClient sets the client used for requests, for example one that
// dials through a SOCKS5 proxy.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(f *HTTPFetcher) {
		f.client = c
	}
}

// WithHTTPMaxOpenPages sets the number of concurrent requests.
func WithHTTPMaxOpenPages(n int) HTTPOption {
	return func(f *HTTPFetcher) {
		f.pool = NewPool(n)
	}
}

// WithHTTPUserAgent sets the User-Agent header.
func WithHTTPUserAgent(ua string) HTTPOption {
	return func(f *HTTPFetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithHTTPHeaders adds headers to every request.
func WithHTTPHeaders(headers map[string]string) HTTPOption {
	return func(f *HTTPFetcher) {
		f.headers = headers
	}
}

// WithHTTPCookie sets the Cookie header of every request.
func WithHTTPCookie(cookie string) HTTPOption {
	return func(f *HTTPFetcher) {
		f.cookie = cookie
	}
}

// WithHTTPMaxBodySize limits how much of a response body is read.
func WithHTTPMaxBodySize(size int64) HTTPOption {
	return func(f *HTTPFetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// NewHTTPFetcher creates an HTTPFetcher.
func NewHTTPFetcher(opts ...HTTPOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client:      &http.Client{Timeout: 30 * time.Second},
		pool:        NewPool(DefaultMaxOpenPages),
		userAgent:   DefaultUserAgent,
		maxBodySize: 10 * 1024 * 1024, // 10MB
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, req Request) (*Page, *Resource, error) {
	res, err := f.pool.Acquire(ctx, nil)
	if err != nil {
		return nil, nil, newFetchError(req.URL, err)
	}

	page, err := f.get(ctx, req)
	if err != nil {
		return nil, res, newFetchError(req.URL, err)
	}
	return page, res, nil
}

// Release implements Fetcher.
func (f *HTTPFetcher) Release(res *Resource) error {
	return f.pool.Release(res)
}

// Close shuts the fetcher down and reports leaked resources.
func (f *HTTPFetcher) Close() error {
	f.client.CloseIdleConnections()
	return f.pool.Close()
}

// InUse returns the number of resources currently held.
func (f *HTTPFetcher) InUse() int {
	return f.pool.InUse()
}

func (f *HTTPFetcher) get(ctx context.Context, req Request) (*Page, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, http.NoBody)
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("User-Agent", f.userAgent)
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	httpReq.Header.Set("Accept-Language", "en-US,en;q=0.5")
	for k, v := range f.headers {
		httpReq.Header.Set(k, v)
	}
	if f.cookie != "" {
		httpReq.Header.Set("Cookie", f.cookie)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if req.WaitSelector != "" {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("parse page: %w", err)
		}
		if doc.Find(req.WaitSelector).Length() == 0 {
			return nil, fmt.Errorf("%w: %q", ErrWaitCondition, req.WaitSelector)
		}
	}

	return &Page{
		URL:        req.URL,
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		HTML:       string(body),
	}, nil
}
