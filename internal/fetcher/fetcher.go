package fetcher

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/net/proxy"
	"golang.org/x/text/transform"

	"github.com/nao1215/depthcrawl/internal/model"
)

// Default fetch settings.
const (
	// DefaultUserAgent is sent with every request unless overridden.
	DefaultUserAgent = "Mozilla/5.0"

	// DefaultTimeout bounds each fetch, including reading the body.
	DefaultTimeout = 10 * time.Second
)

// Options controls HTTP fetching behaviour.
type Options struct {
	// UserAgent is the User-Agent header. Defaults to DefaultUserAgent.
	UserAgent string

	// Timeout is the per-fetch timeout. Defaults to DefaultTimeout.
	Timeout time.Duration

	// ProxyAddress routes fetches through a SOCKS5 proxy ("host:port").
	// Empty means direct connections.
	ProxyAddress string

	// Client replaces the HTTP client built from the other options.
	// Timeout and ProxyAddress are ignored when it is set.
	Client *http.Client
}

// HTTPFetcher implements the crawler's Fetcher with net/http.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFetcher constructs an HTTP fetcher using the provided options.
func NewHTTPFetcher(opts Options) (*HTTPFetcher, error) {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	client := opts.Client
	if client == nil {
		transport, err := newTransport(opts.ProxyAddress)
		if err != nil {
			return nil, err
		}
		client = &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		}
	}

	return &HTTPFetcher{
		client:    client,
		userAgent: opts.UserAgent,
	}, nil
}

// newTransport builds the HTTP transport, optionally dialing through SOCKS5.
func newTransport(proxyAddress string) (*http.Transport, error) {
	transport, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		transport = &http.Transport{}
	}
	transport = transport.Clone()

	if proxyAddress == "" {
		return transport, nil
	}

	if _, _, err := net.SplitHostPort(proxyAddress); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidProxyAddress, proxyAddress)
	}

	// Tor's SOCKS port does not require authentication.
	dialer, err := proxy.SOCKS5("tcp", proxyAddress, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}

	transport.Proxy = nil
	if cd, ok := dialer.(proxy.ContextDialer); ok {
		transport.DialContext = cd.DialContext
	} else {
		transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	}

	return transport, nil
}

// Fetch downloads a single URL with a GET request.
// Every failure is returned as a *FetchError.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (*model.Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusBadRequest {
		return nil, &FetchError{URL: pageURL, StatusCode: resp.StatusCode, Err: ErrUnexpectedStatus}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: pageURL, StatusCode: resp.StatusCode, Err: err}
	}

	contentType := resp.Header.Get("Content-Type")

	return &model.Page{
		URL:         pageURL,
		StatusCode:  resp.StatusCode,
		Proto:       resp.Proto,
		ProtoMajor:  resp.ProtoMajor,
		ProtoMinor:  resp.ProtoMinor,
		Headers:     resp.Header,
		ContentType: contentType,
		Body:        decodeBody(raw, contentType),
	}, nil
}

// decodeBody converts the raw body to UTF-8 text.
// The encoding comes from the Content-Type charset, a BOM or a <meta> tag.
// Unless it came from the header or a BOM, a body that is valid UTF-8
// throughout is kept as-is; otherwise the guessed encoding (windows-1252
// when nothing is declared) is applied. Undecodable input is kept as-is.
func decodeBody(raw []byte, contentType string) string {
	enc, _, certain := charset.DetermineEncoding(raw, contentType)
	if !certain && utf8.Valid(raw) {
		return string(raw)
	}
	decoded, _, err := transform.Bytes(enc.NewDecoder(), raw)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}
