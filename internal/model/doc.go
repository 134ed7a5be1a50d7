// Package model defines the data structures shared by the fetcher, the
// crawler and the record store.
//
// This package contains the following main types:
//   - Page: A fetched HTTP response with its body decoded to text
//   - CrawlRecord: One persisted row of the scraped_data table
package model
