package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// SeedFile is the structure of the YAML seed file.
//
//	urls:
//	  - https://example.com/
//	crawl:
//	  depth: 2
type SeedFile struct {
	// URLs is the ordered list of seed URLs. Required.
	URLs []string `yaml:"urls"`

	// Crawl holds optional crawl settings. CLI flags take precedence.
	Crawl CrawlSettings `yaml:"crawl,omitempty"`
}

// CrawlSettings are the optional crawl settings of a seed file.
type CrawlSettings struct {
	// Depth overrides the default crawl depth. A pointer, because 0 is a valid depth.
	Depth *int `yaml:"depth,omitempty"`

	// Timeout is the per-fetch timeout, e.g. "10s".
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// UserAgent overrides the User-Agent header.
	UserAgent string `yaml:"user_agent,omitempty"`

	// Database is the SQLite database file path.
	Database string `yaml:"database,omitempty"`

	// Concurrency is the number of seeds traversed in parallel.
	Concurrency int `yaml:"concurrency,omitempty"`

	// Proxy is a SOCKS5 proxy address in "host:port" form.
	Proxy string `yaml:"proxy,omitempty"`
}

// LoadSeedFile loads and validates a YAML seed file.
// Every failure is returned as a *ConfigError. A missing or null urls field
// is an error; an explicit empty list is not.
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &ConfigError{Path: path, Err: ErrConfigNotFound}
		}
		return nil, &ConfigError{Path: path, Err: err}
	}

	var sf SeedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("%w: %v", ErrMalformedConfig, err)}
	}

	if sf.URLs == nil {
		return nil, &ConfigError{Path: path, Err: ErrMissingURLs}
	}

	seeds := make([]string, 0, len(sf.URLs))
	for _, u := range sf.URLs {
		if u = strings.TrimSpace(u); u != "" {
			seeds = append(seeds, u)
		}
	}
	sf.URLs = seeds

	return &sf, nil
}

// LoadSeeds returns the seed URLs of the file at path, in file order.
func LoadSeeds(path string) ([]string, error) {
	sf, err := LoadSeedFile(path)
	if err != nil {
		return nil, err
	}
	return sf.URLs, nil
}

// FindConfigFile searches for the seed file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for config.yaml in the current directory
// 3. Look for config.yaml in the XDG config directory
//
// Returns the path to the file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	xdgConfig := filepath.Join(XDGConfigDir(), DefaultConfigFile)
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig
	}

	return ""
}
