// Package proxy routes crawler traffic through a SOCKS5 proxy.
//
// A Client wraps a SOCKS5 dialer (golang.org/x/net/proxy) and builds HTTP
// clients whose connections go through it. The proxy can be any SOCKS5
// server, including a local Tor daemon. EmbeddedTor starts a private Tor
// daemon with tornago for runs that should not reveal the crawler's address
// to the crawled sites.
//
// The package is used through dependency injection: create a Client and pass
// its HTTP client to the fetcher rather than relying on global state.
package proxy
