package directory

import (
	"errors"
	"net/url"
	"strings"
)

// ErrInvalidWebsite is returned when a website value cannot be turned into
// a fetchable http(s) URL.
var ErrInvalidWebsite = errors.New("invalid website URL")

// ResolveWebsite turns a raw website value from the directory into an
// absolute http(s) URL.
//
// Relative references resolve against the directory URL. A scheme-less
// value that looks like a host name ("www.example.com/menu") is treated as
// an http URL, which is how such links behave in a browser address bar.
// Other schemes such as mailto:, tel: or javascript: are rejected.
func (p *Parser) ResolveWebsite(website string) (string, error) {
	raw := strings.TrimSpace(website)
	if raw == "" {
		return "", ErrInvalidWebsite
	}

	if looksLikeHost(raw) {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", errors.Join(ErrInvalidWebsite, err)
	}
	if p.baseURL != nil {
		u = p.baseURL.ResolveReference(u)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return "", ErrInvalidWebsite
	}
	if u.Host == "" {
		return "", ErrInvalidWebsite
	}
	u.Fragment = ""
	return u.String(), nil
}

// looksLikeHost reports whether raw has no scheme and starts with something
// shaped like a domain name.
func looksLikeHost(raw string) bool {
	if strings.Contains(raw, "://") || strings.HasPrefix(raw, "/") ||
		strings.HasPrefix(raw, ".") || strings.HasPrefix(raw, "#") || strings.HasPrefix(raw, "?") {
		return false
	}
	// "mailto:x", "tel:305", "javascript:void(0)"
	if i := strings.IndexByte(raw, ':'); i >= 0 {
		if j := strings.IndexAny(raw, "/?#"); j < 0 || i < j {
			if !isPort(raw[i+1:]) {
				return false
			}
		}
	}

	host := raw
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	if !strings.Contains(host, ".") {
		return false
	}
	for _, r := range host {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
		default:
			return false
		}
	}
	return true
}

// isPort reports whether s starts with a decimal port number followed by the
// end of the string or a path, query or fragment.
func isPort(s string) bool {
	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	if n == 0 {
		return false
	}
	return n == len(s) || strings.ContainsRune("/?#", rune(s[n]))
}
