// Package fetcher retrieves pages for the crawler and owns the resources
// (browser tabs, connection slots) used to do so.
//
// # Architecture
//
// The crawler depends only on the Fetcher interface. A Fetch call returns the
// page together with a Resource that the caller must hand back through
// Release. Every implementation draws its resources from a Pool, which caps
// how many pages can be open at once and reports leaked resources on Close.
//
// # Implementations
//
//   - HTTPFetcher: plain net/http GET, optionally through a SOCKS5 proxy.
//     The wait selector is checked against the retrieved document.
//   - BrowserFetcher: headless Chrome through chromedp. One tab per resource,
//     the wait selector is awaited in the rendered page.
//   - RobotsFetcher: decorator that refuses URLs disallowed by the host's
//     robots.txt before delegating to the wrapped Fetcher.
//
// # Release semantics
//
// Releasing a Resource more than once is a no-op. A Fetch that fails after a
// resource was acquired still returns the resource, so that the caller's
// deferred release covers every exit path.
package fetcher
