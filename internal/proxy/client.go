package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// checkTimeout bounds the SOCKS5 handshake performed by CheckConnection.
const checkTimeout = 2 * time.Second

// SOCKS5 protocol constants.
const (
	socks5Version      = 0x05
	socks5AuthNone     = 0x00
	socks5AuthPassword = 0x02
	socks5AuthNoAccept = 0xFF
)

// Client routes connections through a SOCKS5 proxy.
type Client struct {
	// address is the proxy in "host:port" form.
	address string

	// auth holds optional username/password credentials.
	auth *proxy.Auth

	// dialer is the SOCKS5 dialer, created once.
	dialer proxy.Dialer

	// timeout is the default timeout of HTTP clients built by this client.
	timeout time.Duration
}

// NewClient creates a Client for the proxy at address.
// address is "host:port" or a socks5:// / socks5h:// URL that may carry
// credentials. The proxy is not contacted; call CheckConnection for that.
func NewClient(address string, timeout time.Duration) (*Client, error) {
	hostPort, auth, err := ParseAddress(address)
	if err != nil {
		return nil, err
	}

	dialer, err := proxy.SOCKS5("tcp", hostPort, auth, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}

	return &Client{
		address: hostPort,
		auth:    auth,
		dialer:  dialer,
		timeout: timeout,
	}, nil
}

// ParseAddress splits a proxy address into "host:port" and credentials.
func ParseAddress(address string) (string, *proxy.Auth, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", nil, ErrInvalidProxyAddress
	}

	var auth *proxy.Auth
	if strings.Contains(address, "://") {
		u, err := url.Parse(address)
		if err != nil {
			return "", nil, errors.Join(ErrInvalidProxyAddress, err)
		}
		switch u.Scheme {
		case "socks5", "socks5h":
		default:
			return "", nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidProxyAddress, u.Scheme)
		}
		if u.User != nil {
			pass, _ := u.User.Password()
			auth = &proxy.Auth{User: u.User.Username(), Password: pass}
		}
		address = u.Host
	}

	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return "", nil, ErrInvalidProxyAddress
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return "", nil, ErrInvalidProxyAddress
	}
	return net.JoinHostPort(host, port), auth, nil
}

// Address returns the proxy "host:port".
func (c *Client) Address() string {
	return c.address
}

// URL returns the proxy as a socks5:// URL without credentials, the form
// accepted by Chrome's --proxy-server flag.
func (c *Client) URL() string {
	return "socks5://" + c.address
}

// CheckConnection verifies that the proxy speaks SOCKS5 and accepts the
// configured authentication method.
func (c *Client) CheckConnection(ctx context.Context) Status {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.address)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return StatusTimeout
		}
		return StatusCannotConnect
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(checkTimeout)); err != nil {
		return StatusCannotConnect
	}

	method := byte(socks5AuthNone)
	if c.auth != nil {
		method = socks5AuthPassword
	}
	if _, err := conn.Write([]byte{socks5Version, 0x01, method}); err != nil {
		return StatusCannotConnect
	}

	resp := make([]byte, 2)
	if _, err := io.ReadFull(conn, resp); err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return StatusTimeout
		}
		return StatusWrongType
	}
	if resp[0] != socks5Version || resp[1] == socks5AuthNoAccept || resp[1] != method {
		return StatusWrongType
	}
	return StatusOK
}

// NewHTTPClient creates an HTTP client whose connections go through the
// proxy. Redirects are limited to 10.
func (c *Client) NewHTTPClient() *http.Client {
	transport := &http.Transport{
		DialContext:         c.DialContext,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
	}

	jar, _ := cookiejar.New(nil) //nolint:errcheck // cookiejar.New only fails with invalid options

	return &http.Client{
		Transport: transport,
		Timeout:   c.timeout,
		Jar:       jar,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
}

// DialContext connects to address through the proxy.
func (c *Client) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	if cd, ok := c.dialer.(proxy.ContextDialer); ok {
		return cd.DialContext(ctx, network, address)
	}

	type dialResult struct {
		conn net.Conn
		err  error
	}
	resultCh := make(chan dialResult, 1)
	go func() {
		conn, err := c.dialer.Dial(network, address)
		resultCh <- dialResult{conn, err}
	}()

	select {
	case result := <-resultCh:
		return result.conn, result.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
