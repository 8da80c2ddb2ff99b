package remote

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// DefaultMaxListingSize caps how many decoded bytes of a single listing page
// are read into memory.
const DefaultMaxListingSize int64 = 10 * 1024 * 1024

// maxRedirects matches the redirect limit of the net/http default policy.
const maxRedirects = 10

// ErrListingTooLarge is returned when a listing body exceeds the configured cap.
var ErrListingTooLarge = errors.New("remote: listing exceeds maximum size")

// ErrTooManyRedirects is returned when a request is redirected more than maxRedirects times.
var ErrTooManyRedirects = errors.New("remote: too many redirects")

// Credentials is the HTTP Basic authentication pair attached to every request.
type Credentials struct {
	Username string
	Password string
}

// String never reveals the password so Credentials can be logged safely.
func (c Credentials) String() string {
	return c.Username + ":***"
}

// Client is the authenticated session shared by the crawl and download phases.
type Client struct {
	httpClient     *http.Client
	maxListingSize int64
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	timeout        time.Duration
	userAgent      string
	maxListingSize int64
	socksProxy     string
	transport      http.RoundTripper
}

// WithTimeout sets the overall per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		o.timeout = d
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(o *clientOptions) {
		o.userAgent = ua
	}
}

// WithMaxListingSize caps the decoded size of a listing page.
// Values <= 0 keep DefaultMaxListingSize.
func WithMaxListingSize(n int64) Option {
	return func(o *clientOptions) {
		if n > 0 {
			o.maxListingSize = n
		}
	}
}

// WithSOCKS5Proxy routes every connection through a SOCKS5 proxy at host:port.
func WithSOCKS5Proxy(address string) Option {
	return func(o *clientOptions) {
		o.socksProxy = address
	}
}

// WithTransport replaces the base round tripper. Authentication is still
// layered on top of it.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *clientOptions) {
		o.transport = rt
	}
}

// NewClient builds the session. The credentials are attached to every request
// the client sends.
func NewClient(creds Credentials, opts ...Option) (*Client, error) {
	o := &clientOptions{
		maxListingSize: DefaultMaxListingSize,
	}
	for _, opt := range opts {
		opt(o)
	}

	base := o.transport
	if base == nil {
		t, err := newBaseTransport(o.socksProxy)
		if err != nil {
			return nil, err
		}
		base = t
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("remote: create cookie jar: %w", err)
	}

	httpClient := &http.Client{
		Transport: &basicAuthTransport{
			base:      base,
			creds:     creds,
			userAgent: o.userAgent,
		},
		Timeout: o.timeout,
		Jar:     jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return ErrTooManyRedirects
			}
			return nil
		},
	}

	return &Client{
		httpClient:     httpClient,
		maxListingSize: o.maxListingSize,
	}, nil
}

func newBaseTransport(socksProxy string) (*http.Transport, error) {
	t := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		// Listing decoding is handled explicitly so file bodies stay byte-exact.
		DisableCompression: true,
	}

	if socksProxy == "" {
		return t, nil
	}

	if _, port, err := net.SplitHostPort(socksProxy); err != nil || port == "" {
		return nil, ErrInvalidProxyAddress
	}
	dialer, err := proxy.SOCKS5("tcp", socksProxy, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("remote: create SOCKS5 dialer: %w", err)
	}
	contextDialer, ok := dialer.(proxy.ContextDialer)
	if !ok {
		return nil, errors.New("remote: SOCKS5 dialer does not support contexts")
	}
	t.Proxy = nil
	t.DialContext = contextDialer.DialContext
	return t, nil
}

// FetchListing retrieves the directory listing page at url and returns its
// decoded body.
func (c *Client) FetchListing(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("remote: create request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", acceptListingEncoding)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote: fetch listing: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	body, release, err := decodeBody(resp.Body, resp.Header.Get("Content-Encoding"))
	if err != nil {
		return nil, err
	}
	defer release()

	// Read one extra byte to tell "exactly at the cap" from "over the cap".
	data, err := io.ReadAll(io.LimitReader(body, c.maxListingSize+1))
	if err != nil {
		return nil, fmt.Errorf("remote: read listing: %w", err)
	}
	if int64(len(data)) > c.maxListingSize {
		return nil, fmt.Errorf("%w: %s (limit %d bytes)", ErrListingTooLarge, url, c.maxListingSize)
	}
	return data, nil
}

// FileStream is an open file body. The caller must Close it.
type FileStream struct {
	io.ReadCloser

	// ContentLength is the declared body size, or -1 when unknown.
	ContentLength int64
}

// FetchFileStream opens the file at url for streaming. The body is left
// unread; on a non-success status it is closed and an *HTTPError returned.
func (c *Client) FetchFileStream(ctx context.Context, url string) (*FileStream, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("remote: create request: %w", err)
	}
	req.Header.Set("Accept-Encoding", "identity")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote: fetch file: %w", err)
	}
	if err := checkStatus(resp); err != nil {
		_ = resp.Body.Close()
		return nil, err
	}

	return &FileStream{
		ReadCloser:    resp.Body,
		ContentLength: contentLength(resp),
	}, nil
}

func contentLength(resp *http.Response) int64 {
	if resp.ContentLength >= 0 {
		return resp.ContentLength
	}
	if v := resp.Header.Get("Content-Length"); v != "" {
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return n
		}
	}
	return -1
}

// basicAuthTransport adds the session credentials and User-Agent to each
// request. A redirect that leaves the host of the original request is sent
// without credentials.
type basicAuthTransport struct {
	base      http.RoundTripper
	creds     Credentials
	userAgent string
}

// RoundTrip implements http.RoundTripper.
func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrippers must not modify the caller's request.
	clone := req.Clone(req.Context())
	if sameHostAsOrigin(req) {
		clone.SetBasicAuth(t.creds.Username, t.creds.Password)
	} else {
		clone.Header.Del("Authorization")
	}
	if t.userAgent != "" {
		clone.Header.Set("User-Agent", t.userAgent)
	}
	return t.base.RoundTrip(clone)
}

// sameHostAsOrigin reports whether req targets the host:port of the request
// that started its redirect chain. http.Client sets Response on every
// redirected request, so the chain can be walked back to its origin.
func sameHostAsOrigin(req *http.Request) bool {
	origin := req
	for origin.Response != nil && origin.Response.Request != nil {
		origin = origin.Response.Request
	}
	return strings.EqualFold(origin.URL.Host, req.URL.Host)
}
