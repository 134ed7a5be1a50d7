package config

import (
	"errors"
	"fmt"
)

// Configuration validation errors.
// Config.Validate returns one of these; match them with errors.Is.
var (
	// ErrInvalidDepth is returned when the crawl depth is negative.
	// Depth 0 is valid and means only the seed pages are fetched.
	ErrInvalidDepth = errors.New("invalid crawl depth: must be non-negative")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when the seed concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrConflictingTransports is returned when both --proxy and --tor are specified.
	ErrConflictingTransports = errors.New("conflicting transports: --proxy and --tor cannot be used together")

	// ErrNoDatabase is returned when no database path is configured.
	ErrNoDatabase = errors.New("no database path configured")
)

// Seed file errors. They are wrapped in a *ConfigError.
var (
	// ErrConfigNotFound is returned when the seed file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrMalformedConfig is returned when the seed file is not valid YAML
	// or does not have the expected shape.
	ErrMalformedConfig = errors.New("malformed configuration file")

	// ErrMissingURLs is returned when the seed file has no urls field.
	ErrMissingURLs = errors.New("configuration file has no urls field")
)

// ConfigError reports a seed source that is missing, malformed or lacks
// the urls field. It is fatal: no crawling starts after a ConfigError.
type ConfigError struct {
	// Path is the configuration file that failed to load.
	Path string

	// Err is the underlying cause. It wraps one of the seed file sentinels.
	Err error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("load config %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ConfigError) Unwrap() error {
	return e.Err
}
