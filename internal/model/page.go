package model

import (
	"net/http"
	"strconv"
)

// Page represents a successfully fetched web page.
// It is the fetcher's output and the input from which a CrawlRecord is built.
type Page struct {
	// URL is the URL that was requested. Redirects do not change it:
	// records are keyed by the URL the crawler asked for.
	URL string `json:"url"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// Proto is the raw protocol string reported by the transport (e.g. "HTTP/1.1").
	Proto string `json:"proto"`

	// ProtoMajor and ProtoMinor are the numeric protocol version.
	ProtoMajor int `json:"proto_major"`
	ProtoMinor int `json:"proto_minor"`

	// Headers contains all HTTP response headers in canonical form.
	Headers http.Header `json:"headers"`

	// ContentType is the Content-Type header value, kept for convenience.
	ContentType string `json:"content_type"`

	// Body is the response body decoded to text.
	Body string `json:"-"`
}

// Protocol labels stored in the http_protocol column.
const (
	ProtocolHTTP10 = "HTTP/1.0"
	ProtocolHTTP11 = "HTTP/1.1"
	ProtocolHTTP20 = "HTTP/2.0"
)

// ProtocolLabel maps a wire protocol version to the label persisted with a record.
// Known versions map to "HTTP/1.0", "HTTP/1.1" and "HTTP/2.0". Any other
// version passes through unchanged: the raw protocol string when the transport
// supplied one, otherwise the two-digit version number (major*10+minor).
func ProtocolLabel(major, minor int, raw string) string {
	switch major*10 + minor {
	case 10:
		return ProtocolHTTP10
	case 11:
		return ProtocolHTTP11
	case 20:
		return ProtocolHTTP20
	}
	if raw != "" {
		return raw
	}
	return strconv.Itoa(major*10 + minor)
}
