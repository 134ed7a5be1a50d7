package tor

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"time"
)

// DefaultCheckTimeout bounds a single CheckProxy call.
const DefaultCheckTimeout = 2 * time.Second

const (
	socks5Version      = 0x05
	socks5AuthNone     = 0x00
	socks5CmdConnect   = 0x01
	socks5AddrTypeName = 0x03

	// probeHost is a reserved name. Any SOCKS5 reply to it, success or
	// failure, proves the proxy works.
	probeHost = "example.invalid"
	probePort = 80
)

// CheckProxy dials the SOCKS5 proxy at address and performs the greeting and
// a CONNECT request. The reply code of the CONNECT is ignored; only a
// well-formed SOCKS5 reply is required.
func CheckProxy(ctx context.Context, address string, timeout time.Duration) ProxyStatus {
	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ProxyStatusTimeout
		}
		return ProxyStatusCannotConnect
	}
	defer conn.Close()

	deadline, _ := ctx.Deadline()
	if err := conn.SetDeadline(deadline); err != nil {
		return ProxyStatusCannotConnect
	}

	if _, err := conn.Write([]byte{socks5Version, 0x01, socks5AuthNone}); err != nil {
		return ProxyStatusCannotConnect
	}

	greeting := make([]byte, 2)
	if _, err := io.ReadFull(conn, greeting); err != nil {
		return readFailure(err)
	}
	if greeting[0] != socks5Version || greeting[1] != socks5AuthNone {
		return ProxyStatusWrongType
	}

	req := []byte{socks5Version, socks5CmdConnect, 0x00, socks5AddrTypeName, byte(len(probeHost))}
	req = append(req, probeHost...)
	req = append(req, byte(probePort>>8), byte(probePort&0xff))
	if _, err := conn.Write(req); err != nil {
		return ProxyStatusCannotConnect
	}

	reply := make([]byte, 4)
	if _, err := io.ReadFull(conn, reply); err != nil {
		return readFailure(err)
	}
	if reply[0] != socks5Version {
		return ProxyStatusWrongType
	}
	return ProxyStatusOK
}

func readFailure(err error) ProxyStatus {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return ProxyStatusTimeout
	}
	return ProxyStatusWrongType
}
