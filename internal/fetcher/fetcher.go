package fetcher

import (
	"context"
)

// DefaultUserAgent is sent by fetchers unless overridden.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"

// DefaultMaxOpenPages is the default resource cap of a fetcher.
const DefaultMaxOpenPages = 4

// Request describes one page to retrieve.
type Request struct {
	// URL is the absolute http(s) URL to fetch.
	URL string

	// WaitSelector is a CSS selector that must match before the page is
	// considered ready. Empty means no wait condition.
	WaitSelector string

	// Headers are sent with this request on top of the fetcher's own
	// headers, and win on conflict.
	Headers map[string]string
}

// Page is a retrieved page.
type Page struct {
	// URL is the requested URL.
	URL string

	// FinalURL is the URL after redirects.
	FinalURL string

	// StatusCode is the HTTP status of the main document, 0 if unknown.
	StatusCode int

	// HTML is the document markup.
	HTML string
}

// Fetcher retrieves pages.
//
// Fetch returns the page and the resource that was used to load it. When a
// resource was acquired, it is returned even if err is non-nil, and the
// caller must pass it to Release. Release accepts nil and is idempotent.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (*Page, *Resource, error)
	Release(res *Resource) error
}
