// Package database provides the SQLite record store for depthcrawl.
//
// The store holds one logical table, scraped_data, with one row per unique
// URL ever fetched. Inserts are save-if-absent: writing a URL that already
// exists is a silent no-op and never overwrites the stored row.
//
// The driver is modernc.org/sqlite, a pure Go port, so no cgo is involved.
package database
