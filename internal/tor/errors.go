package tor

import "errors"

// Proxy check errors.
var (
	// ErrProxyNotSOCKS5 is returned when the proxy accepted a connection
	// but did not answer the SOCKS5 handshake.
	ErrProxyNotSOCKS5 = errors.New("proxy does not speak SOCKS5 without authentication")

	// ErrProxyCannotConnect is returned when no TCP connection to the proxy
	// could be established.
	ErrProxyCannotConnect = errors.New("cannot connect to SOCKS5 proxy")

	// ErrProxyTimeout is returned when the proxy did not answer in time.
	ErrProxyTimeout = errors.New("timeout connecting to SOCKS5 proxy")

	// ErrNotRunning is returned when the embedded daemon is used before Start.
	ErrNotRunning = errors.New("embedded Tor daemon is not running")
)

// ProxyStatus is the result of CheckProxy.
type ProxyStatus int

const (
	// ProxyStatusOK means the proxy completed a SOCKS5 CONNECT exchange.
	ProxyStatusOK ProxyStatus = iota

	// ProxyStatusWrongType means something answered, but not as SOCKS5.
	ProxyStatusWrongType

	// ProxyStatusCannotConnect means the TCP connection failed.
	ProxyStatusCannotConnect

	// ProxyStatusTimeout means the proxy did not respond in time.
	ProxyStatusTimeout
)

// String returns a human-readable description of the proxy status.
func (s ProxyStatus) String() string {
	switch s {
	case ProxyStatusOK:
		return "OK"
	case ProxyStatusWrongType:
		return "wrong type (not SOCKS5)"
	case ProxyStatusCannotConnect:
		return "cannot connect"
	case ProxyStatusTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Err returns the error for this status, or nil if OK.
func (s ProxyStatus) Err() error {
	switch s {
	case ProxyStatusOK:
		return nil
	case ProxyStatusWrongType:
		return ErrProxyNotSOCKS5
	case ProxyStatusCannotConnect:
		return ErrProxyCannotConnect
	case ProxyStatusTimeout:
		return ErrProxyTimeout
	default:
		return errors.New("unknown proxy status")
	}
}
