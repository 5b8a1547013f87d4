package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/sync/singleflight"
)

const (
	// maxRobotsBodySize limits the size of robots.txt responses.
	maxRobotsBodySize = 512 * 1024 // 512KB

	// robotsTimeout bounds a robots.txt download. The download outlives
	// the caller that started it, since its result is shared and cached.
	robotsTimeout = 30 * time.Second
)

// RobotsFetcher refuses URLs disallowed by robots.txt and delegates the
// rest to the wrapped Fetcher.
//
// robots.txt is fetched once per scheme and host for the fetcher's
// lifetime. Concurrent follow-ups to the same host share a single
// robots.txt request, which is not tied to any caller's context: a caller
// that gives up gets its context error, and the rules still land in the
// cache. A missing, unreachable or unparseable robots.txt allows
// everything.
type RobotsFetcher struct {
	next      Fetcher
	client    *http.Client
	userAgent string

	group singleflight.Group
	mu    sync.RWMutex
	cache map[string]*robotstxt.RobotsData // nil entry means allow all
}

// NewRobotsFetcher wraps next. client is used for robots.txt requests.
func NewRobotsFetcher(next Fetcher, client *http.Client, userAgent string) *RobotsFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &RobotsFetcher{
		next:      next,
		client:    client,
		userAgent: userAgent,
		cache:     make(map[string]*robotstxt.RobotsData),
	}
}

// Fetch implements Fetcher.
func (r *RobotsFetcher) Fetch(ctx context.Context, req Request) (*Page, *Resource, error) {
	allowed, err := r.Allowed(ctx, req.URL)
	if err != nil {
		return nil, nil, newFetchError(req.URL, err)
	}
	if !allowed {
		return nil, nil, newFetchError(req.URL, ErrDisallowed)
	}
	return r.next.Fetch(ctx, req)
}

// Release implements Fetcher.
func (r *RobotsFetcher) Release(res *Resource) error {
	return r.next.Release(res)
}

// Allowed reports whether robots.txt of the URL's host permits fetching it.
func (r *RobotsFetcher) Allowed(ctx context.Context, rawURL string) (bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Errorf("robots: parse url: %w", err)
	}
	if u.Host == "" {
		return false, fmt.Errorf("robots: empty host in url %q", rawURL)
	}

	key := strings.ToLower(u.Scheme + "://" + u.Host)
	data, err := r.rules(ctx, key)
	if err != nil {
		return false, err
	}
	if data == nil {
		return true, nil
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return data.TestAgent(path, r.userAgent), nil
}

func (r *RobotsFetcher) rules(ctx context.Context, key string) (*robotstxt.RobotsData, error) {
	r.mu.RLock()
	data, ok := r.cache[key]
	r.mu.RUnlock()
	if ok {
		return data, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ch := r.group.DoChan(key, func() (any, error) {
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), robotsTimeout)
		defer cancel()

		data := r.download(dctx, key)
		r.mu.Lock()
		r.cache[key] = data
		r.mu.Unlock()
		return data, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*robotstxt.RobotsData), nil
	}
}

// download returns the parsed robots.txt of origin, or nil for allow all.
func (r *RobotsFetcher) download(ctx context.Context, origin string) *robotstxt.RobotsData {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", http.NoBody)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBodySize))
	if err != nil {
		return nil
	}
	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return nil
	}
	return data
}
