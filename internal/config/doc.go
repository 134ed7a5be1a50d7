// Package config provides configuration structures and utilities for depthcrawl.
// It defines the crawl settings, the YAML seed file format and the lookup
// rules for configuration and data files.
package config
