// Package tor supplies the optional SOCKS5 routes for crawling.
//
// EmbeddedTor launches a private Tor daemon through tornago so that
// `depthcrawl crawl --tor` works without a system Tor installation.
// CheckProxy performs a SOCKS5 handshake against a proxy before a crawl
// starts, so a misconfigured --proxy fails fast instead of turning every
// fetch into a network failure.
package tor
