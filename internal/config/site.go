package config

import (
	"maps"
	"net/url"
	"strings"

	"github.com/nao1215/doralscan/internal/directory"
)

// SiteConfig holds the settings for one directory seed.
type SiteConfig struct {
	// Cookie is an HTTP cookie sent with every request of the crawl.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers sent with every request of the crawl.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Selectors override the business block and field selectors.
	// Empty fields keep the defaults.
	Selectors directory.Selectors `yaml:"selectors,omitempty"`

	// DirectoryWait is the selector awaited on the directory page.
	DirectoryWait string `yaml:"directoryWait,omitempty"`

	// SiteWait is the selector awaited on each business website.
	SiteWait string `yaml:"siteWait,omitempty"`
}

// File represents the structure of the .doralscan configuration file.
type File struct {
	// Seeds are extra directory URLs crawled when none are given on the
	// command line.
	Seeds []string `yaml:"seeds,omitempty"`

	// Sites maps a seed URL, or its host, to its configuration.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults apply to every seed unless overridden in Sites.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for seedURL, merging the site
// entry over the defaults. A site entry keyed by the exact URL wins over
// one keyed by host.
func (cf *File) GetSiteConfig(seedURL string) SiteConfig {
	result := cf.Defaults
	if cf.Defaults.Headers != nil {
		result.Headers = maps.Clone(cf.Defaults.Headers)
	}

	site, ok := cf.Sites[seedURL]
	if !ok {
		if u, err := url.Parse(seedURL); err == nil {
			site, ok = cf.Sites[strings.ToLower(u.Host)]
		}
	}
	if !ok {
		return result
	}

	if site.Cookie != "" {
		result.Cookie = site.Cookie
	}
	if len(site.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		maps.Copy(result.Headers, site.Headers)
	}
	result.Selectors = site.Selectors.Merge(result.Selectors)
	if site.DirectoryWait != "" {
		result.DirectoryWait = site.DirectoryWait
	}
	if site.SiteWait != "" {
		result.SiteWait = site.SiteWait
	}
	return result
}

// RequestHeaders returns the headers of the site config with the cookie
// folded in as a Cookie header.
func (sc SiteConfig) RequestHeaders() map[string]string {
	if len(sc.Headers) == 0 && sc.Cookie == "" {
		return nil
	}
	headers := maps.Clone(sc.Headers)
	if headers == nil {
		headers = make(map[string]string)
	}
	if sc.Cookie != "" {
		headers["Cookie"] = sc.Cookie
	}
	return headers
}
