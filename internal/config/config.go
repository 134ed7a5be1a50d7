package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultCrawlDepth is the number of link hops followed from each seed.
	// Seeds are depth 0, so the default fetches seeds, their links, and the
	// links of those pages.
	DefaultCrawlDepth = 2

	// DefaultTimeout is the per-fetch network timeout.
	// There is no crawl-level timeout.
	DefaultTimeout = 10 * time.Second

	// DefaultUserAgent is the User-Agent header sent with every request.
	DefaultUserAgent = "Mozilla/5.0"

	// DefaultConcurrency of 1 keeps the crawl single-threaded and sequential.
	DefaultConcurrency = 1

	// DefaultTorStartupTimeout is the maximum time to wait for the embedded
	// Tor daemon to bootstrap when crawling with --tor.
	DefaultTorStartupTimeout = 3 * time.Minute

	// AppName is the application name used for XDG directory paths.
	AppName = "depthcrawl"

	// DefaultConfigFile is the seed file name searched for when no path is given.
	DefaultConfigFile = "config.yaml"

	// DefaultDBFile is the SQLite database file name.
	DefaultDBFile = "scraper_data.db"
)

// Config holds all configuration options for a crawl run.
// It is populated from the seed file's crawl block and CLI flags, and
// passed through the application rather than kept in global state.
type Config struct {
	// ConfigFilePath is the path of the seed file the run was loaded from.
	ConfigFilePath string

	// Seeds is the ordered list of seed URLs. An empty list is valid and
	// results in a run that fetches nothing.
	Seeds []string

	// CrawlDepth is the maximum depth. Seeds are depth 0; pages reached at
	// exactly CrawlDepth are fetched but their links are not followed.
	CrawlDepth int

	// Timeout is the per-fetch network timeout.
	Timeout time.Duration

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// DBPath is the SQLite database file path.
	DBPath string

	// Concurrency is the number of seeds traversed in parallel.
	// 1 (the default) is fully sequential.
	Concurrency int

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" form.
	ProxyAddress string

	// UseTor starts an embedded Tor daemon and routes fetches through it.
	UseTor bool

	// TorStartupTimeout bounds the embedded Tor bootstrap.
	TorStartupTimeout time.Duration

	// MetricsAddr enables a Prometheus /metrics endpoint during the crawl.
	// Empty disables it.
	MetricsAddr string

	// Verbose enables debug logging.
	Verbose bool

	// JSONLog switches log output from text to JSON lines.
	JSONLog bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		CrawlDepth:        DefaultCrawlDepth,
		Timeout:           DefaultTimeout,
		UserAgent:         DefaultUserAgent,
		DBPath:            DefaultDBPath(),
		Concurrency:       DefaultConcurrency,
		TorStartupTimeout: DefaultTorStartupTimeout,
	}
}

// ApplySettings copies every value set in the seed file's crawl block
// into the config. Unset values leave the current config untouched.
func (c *Config) ApplySettings(s CrawlSettings) {
	if s.Depth != nil {
		c.CrawlDepth = *s.Depth
	}
	if s.Timeout > 0 {
		c.Timeout = s.Timeout
	}
	if s.UserAgent != "" {
		c.UserAgent = s.UserAgent
	}
	if s.Database != "" {
		c.DBPath = s.Database
	}
	if s.Concurrency > 0 {
		c.Concurrency = s.Concurrency
	}
	if s.Proxy != "" {
		c.ProxyAddress = s.Proxy
	}
}

// XDGDataDir returns the XDG data directory for depthcrawl.
// On Linux: ~/.local/share/depthcrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for depthcrawl.
// On Linux: ~/.config/depthcrawl
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DefaultDBPath returns the default database path inside the XDG data directory.
func DefaultDBPath() string {
	return filepath.Join(XDGDataDir(), DefaultDBFile)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as a sentinel error.
func (c *Config) Validate() error {
	if c.CrawlDepth < 0 {
		return ErrInvalidDepth
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.UseTor && c.ProxyAddress != "" {
		return ErrConflictingTransports
	}

	if c.DBPath == "" {
		return ErrNoDatabase
	}

	return nil
}
