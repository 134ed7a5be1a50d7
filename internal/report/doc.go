// Package report renders what a crawl store contains.
//
// Build gathers aggregates from a Source (the SQLite CrawlDB) into a
// StoreReport, and a Writer renders it as plain text, Markdown or JSON.
// The Markdown writer uses github.com/nao1215/markdown and draws the
// protocol distribution as a mermaid pie chart.
package report
