package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"strings"
	"testing"
	"time"
)

func findChrome(t *testing.T) string {
	t.Helper()

	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	t.Skip("no Chrome binary found")
	return ""
}

func TestBrowserFetcher(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	chrome := findChrome(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><script>
			setTimeout(function () {
				var d = document.createElement("div");
				d.className = "row bus_row";
				d.textContent = "Call 305-555-1234";
				document.body.appendChild(d);
			}, 100);
		</script></body></html>`))
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	b, err := NewBrowserFetcher(ctx, WithExecPath(chrome), WithBrowserMaxOpenPages(1), WithPageTimeout(10*time.Second))
	if err != nil {
		t.Fatalf("NewBrowserFetcher() error = %v", err)
	}

	page, res, err := b.Fetch(ctx, Request{URL: server.URL, WaitSelector: "div.row.bus_row"})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !strings.Contains(page.HTML, "305-555-1234") {
		t.Errorf("rendered HTML does not contain script output: %q", page.HTML)
	}
	if err := b.Release(res); err != nil {
		t.Errorf("Release() error = %v", err)
	}

	_, res, err = b.Fetch(ctx, Request{URL: server.URL, WaitSelector: "table.never"})
	_ = b.Release(res)
	if !errors.Is(err, ErrWaitCondition) {
		t.Errorf("Fetch() error = %v, want ErrWaitCondition", err)
	}

	if err := b.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
