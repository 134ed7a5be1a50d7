// Package metrics exposes crawl counters to Prometheus.
//
// Metrics are registered on a caller-supplied registerer so that tests and
// multiple crawls in one process never collide on the default registry.
package metrics
