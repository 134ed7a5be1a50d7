package fetcher

import (
	"errors"
	"fmt"
	"net"
)

var (
	// ErrUnexpectedStatus is wrapped by a FetchError when the server answered
	// with a status outside 200-399.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrInvalidProxyAddress is returned when the proxy address is not "host:port".
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")
)

// FetchError describes a failed fetch: a network failure, a timeout or a
// non-success status. A FetchError ends the traversal branch of its URL only.
type FetchError struct {
	// URL is the URL that was requested.
	URL string

	// StatusCode is the HTTP status when a response was received, otherwise 0.
	StatusCode int

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: %v: %d", e.URL, e.Err, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying cause.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the fetch failed because the timeout elapsed.
func (e *FetchError) Timeout() bool {
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// Kind returns a short label for the failure: "status", "timeout" or "network".
func (e *FetchError) Kind() string {
	switch {
	case errors.Is(e.Err, ErrUnexpectedStatus):
		return "status"
	case e.Timeout():
		return "timeout"
	default:
		return "network"
	}
}
