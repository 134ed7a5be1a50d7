// Package main provides the entry point for the depthcrawl CLI.
//
// depthcrawl reads seed URLs from a YAML file, crawls each seed depth-first
// up to a fixed link depth, and stores every fetched page once in a local
// SQLite database.
//
// Usage:
//
//	depthcrawl crawl
//	depthcrawl crawl -c seeds.yaml -d 3
//	depthcrawl report --format markdown
//
// See --help for all available options.
package main

func main() {
	Execute()
}
