package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/depthcrawl/internal/model"
)

// ErrStorageWrite wraps every insert failure other than a duplicate URL.
// Callers use errors.Is to tell storage failures from other errors.
var ErrStorageWrite = errors.New("storage write failed")

// CrawlDB provides SQLite-based storage for crawl records.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file and its directory if missing.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB at dbPath and ensures the schema exists.
// If CreateIfNotExists is false and the file doesn't exist, an error is returned.
func Open(dbPath string, opts Options) (*CrawlDB, error) {
	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a new file; mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer. A single connection also serializes
	// writes from concurrent seed traversals.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.EnsureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// Path returns the database file path.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

// EnsureSchema creates the scraped_data table if it does not exist.
// It is idempotent and safe to call on every run, including against a
// database created by an earlier run.
func (cdb *CrawlDB) EnsureSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS scraped_data (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT UNIQUE,
		response_body TEXT,
		response_headers TEXT,
		status_code INTEGER,
		http_protocol TEXT,
		checksum TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_scraped_data_checksum ON scraped_data(checksum);
	`

	_, err := cdb.db.ExecContext(ctx, schema)
	return err
}

// SaveIfAbsent inserts the record unless a row with the same URL exists.
// It reports whether a row was inserted. A duplicate URL is not an error:
// it returns (false, nil) and leaves the stored row untouched. Any other
// failure wraps ErrStorageWrite.
func (cdb *CrawlDB) SaveIfAbsent(ctx context.Context, record *model.CrawlRecord) (bool, error) {
	query := `
	INSERT INTO scraped_data (url, response_body, response_headers, status_code, http_protocol, checksum)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(url) DO NOTHING
	`

	result, err := cdb.db.ExecContext(ctx, query,
		record.URL,
		record.ResponseBody,
		record.ResponseHeaders,
		record.StatusCode,
		record.HTTPProtocol,
		record.Checksum,
	)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %w", ErrStorageWrite, record.URL, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: %s: %w", ErrStorageWrite, record.URL, err)
	}

	return affected > 0, nil
}

// GetRecord retrieves the record stored for url.
// Returns nil, nil if no record exists.
func (cdb *CrawlDB) GetRecord(ctx context.Context, url string) (*model.CrawlRecord, error) {
	query := `
	SELECT id, url, response_body, response_headers, status_code, http_protocol, checksum
	FROM scraped_data
	WHERE url = ?
	`

	var record model.CrawlRecord
	var body, headers, protocol, checksum sql.NullString
	var status sql.NullInt64

	err := cdb.db.QueryRowContext(ctx, query, url).Scan(
		&record.ID,
		&record.URL,
		&body,
		&headers,
		&status,
		&protocol,
		&checksum,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	record.ResponseBody = body.String
	record.ResponseHeaders = headers.String
	record.StatusCode = int(status.Int64)
	record.HTTPProtocol = protocol.String
	record.Checksum = checksum.String

	return &record, nil
}

// CountRecords returns the number of stored records.
func (cdb *CrawlDB) CountRecords(ctx context.Context) (int, error) {
	var count int
	if err := cdb.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM scraped_data").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// ListRecords returns stored records ordered by id, without their bodies.
// A limit of zero or less returns every record.
func (cdb *CrawlDB) ListRecords(ctx context.Context, limit int) ([]model.CrawlRecord, error) {
	query := `
	SELECT id, url, response_headers, status_code, http_protocol, checksum
	FROM scraped_data
	ORDER BY id
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var records []model.CrawlRecord
	for rows.Next() {
		var record model.CrawlRecord
		var headers, protocol, checksum sql.NullString
		var status sql.NullInt64

		if err := rows.Scan(&record.ID, &record.URL, &headers, &status, &protocol, &checksum); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		record.ResponseHeaders = headers.String
		record.StatusCode = int(status.Int64)
		record.HTTPProtocol = protocol.String
		record.Checksum = checksum.String
		records = append(records, record)
	}

	return records, rows.Err()
}

// Count is the number of records sharing one column value.
type Count struct {
	// Value is the column value, rendered as text.
	Value string `json:"value"`

	// Count is the number of records with that value.
	Count int `json:"count"`
}

// ProtocolCounts returns the number of records per http_protocol label,
// most frequent first.
func (cdb *CrawlDB) ProtocolCounts(ctx context.Context) ([]Count, error) {
	return cdb.countBy(ctx, "http_protocol")
}

// StatusCounts returns the number of records per status code, most frequent first.
func (cdb *CrawlDB) StatusCounts(ctx context.Context) ([]Count, error) {
	return cdb.countBy(ctx, "status_code")
}

// countBy groups records by a fixed column name. column is never user input.
func (cdb *CrawlDB) countBy(ctx context.Context, column string) ([]Count, error) {
	query := `SELECT ` + column + `, COUNT(*) AS n FROM scraped_data GROUP BY ` + column + ` ORDER BY n DESC, ` + column

	rows, err := cdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count by %s: %w", column, err)
	}
	defer rows.Close()

	var counts []Count
	for rows.Next() {
		var value sql.NullString
		var c Count
		if err := rows.Scan(&value, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		c.Value = value.String
		counts = append(counts, c)
	}

	return counts, rows.Err()
}

// ChecksumGroup is a set of URLs whose bodies share one checksum.
type ChecksumGroup struct {
	// Checksum is the shared body digest.
	Checksum string `json:"checksum"`

	// URLs are the records with that digest, ordered by id.
	URLs []string `json:"urls"`
}

// DuplicateChecksums returns every checksum shared by more than one URL.
// Different URLs serving byte-identical content show up here.
func (cdb *CrawlDB) DuplicateChecksums(ctx context.Context) ([]ChecksumGroup, error) {
	query := `
	SELECT checksum, group_concat(url, char(10))
	FROM (SELECT checksum, url FROM scraped_data ORDER BY id)
	GROUP BY checksum
	HAVING COUNT(*) > 1
	ORDER BY COUNT(*) DESC, checksum
	`

	rows, err := cdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query duplicate checksums: %w", err)
	}
	defer rows.Close()

	var groups []ChecksumGroup
	for rows.Next() {
		var checksum, urls sql.NullString
		if err := rows.Scan(&checksum, &urls); err != nil {
			return nil, fmt.Errorf("failed to scan checksum group: %w", err)
		}
		groups = append(groups, ChecksumGroup{
			Checksum: checksum.String,
			URLs:     strings.Split(urls.String, "\n"),
		})
	}

	return groups, rows.Err()
}
