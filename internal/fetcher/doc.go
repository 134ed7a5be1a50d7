// Package fetcher retrieves pages for the crawler.
//
// HTTPFetcher issues a GET per URL with a fixed User-Agent and a per-fetch
// timeout. A response whose status is outside 200-399 is a FetchError, as is
// any transport failure. Successful bodies are decoded to text using the
// charset declared by the response (header, BOM or meta tag).
//
// Fetches can be routed through a SOCKS5 proxy, which is how crawling over
// Tor works: point ProxyAddress at a Tor SOCKS port or at the embedded
// daemon started by the tor package.
package fetcher
