// Package crawler implements the depth-limited, depth-first traversal that
// fetches pages, persists them and follows their links.
//
// # Traversal
//
// Every seed starts at depth 0. A work item (url, depth) is popped from an
// explicit stack and handled as follows:
//
//   - depth greater than the maximum: skipped
//   - url already visited: skipped
//   - fetch fails: logged, the branch ends
//   - otherwise the page is saved if absent, the url is marked visited and
//     every <a href> link, resolved against the page url, is pushed at
//     depth+1
//
// Children are pushed in reverse document order, so the visit order is the
// pre-order of a recursive walk. A url is marked visited after the save
// attempt even when the save failed, and such a page is never retried within
// the same crawl.
//
// # Components
//
//   - Crawler: runs the traversal and reports a Summary
//   - Parser: extracts links from HTML with golang.org/x/net/html
//   - VisitedSet: the per-crawl set of visited urls
//
// # Usage
//
//	c := crawler.NewCrawler(fetcher, db, crawler.WithMaxDepth(2))
//	summary := c.Crawl(ctx, seeds)
package crawler
