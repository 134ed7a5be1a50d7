package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/depthcrawl/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *CrawlDB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "test.db"), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// newRecord builds a record for url with the given body.
func newRecord(url, body string) *model.CrawlRecord {
	return &model.CrawlRecord{
		URL:             url,
		ResponseBody:    body,
		ResponseHeaders: `{"Content-Type":["text/html"]}`,
		StatusCode:      200,
		HTTPProtocol:    model.ProtocolHTTP11,
		Checksum:        model.Checksum(body),
	}
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbPath := filepath.Join(t.TempDir(), "newdir", "subdir", "crawl.db")
		db, err := Open(dbPath, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if db.Path() != dbPath {
			t.Errorf("Path() = %q, want %q", db.Path(), dbPath)
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "nonexistent-db")
		_, err := Open(filepath.Join(dbDir, "crawl.db"), Options{CreateIfNotExists: false})
		if err == nil {
			t.Fatal("expected error when CreateIfNotExists=false and database does not exist")
		}
		if !strings.Contains(err.Error(), "database not found") {
			t.Errorf("expected error to contain %q, got %q", "database not found", err.Error())
		}
		if _, statErr := os.Stat(dbDir); !os.IsNotExist(statErr) {
			t.Error("database directory should not have been created when CreateIfNotExists=false")
		}
	})

	t.Run("reopening keeps existing records", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		dbPath := filepath.Join(t.TempDir(), "crawl.db")

		db1, err := Open(dbPath, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		if _, err := db1.SaveIfAbsent(ctx, newRecord("https://x.test/", "body")); err != nil {
			t.Fatalf("failed to insert record: %v", err)
		}
		db1.Close()

		db2, err := Open(dbPath, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		defer db2.Close()

		got, err := db2.GetRecord(ctx, "https://x.test/")
		if err != nil {
			t.Fatalf("GetRecord failed: %v", err)
		}
		if got == nil || got.ResponseBody != "body" {
			t.Errorf("expected the record to persist, got %+v", got)
		}
	})
}

// TestEnsureSchema tests that schema creation is idempotent.
func TestEnsureSchema(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.SaveIfAbsent(ctx, newRecord("https://x.test/", "body")); err != nil {
		t.Fatalf("SaveIfAbsent failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := db.EnsureSchema(ctx); err != nil {
			t.Fatalf("EnsureSchema call %d failed: %v", i, err)
		}
	}

	count, err := db.CountRecords(ctx)
	if err != nil {
		t.Fatalf("CountRecords failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected existing record to survive EnsureSchema, count = %d", count)
	}
}

// TestSaveIfAbsent tests idempotent persistence.
func TestSaveIfAbsent(t *testing.T) {
	t.Parallel()

	t.Run("first insert stores the record", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()
		record := newRecord("https://x.test/a", "<p>a</p>")

		inserted, err := db.SaveIfAbsent(ctx, record)
		if err != nil {
			t.Fatalf("SaveIfAbsent failed: %v", err)
		}
		if !inserted {
			t.Error("expected first insert to report inserted=true")
		}

		got, err := db.GetRecord(ctx, record.URL)
		if err != nil {
			t.Fatalf("GetRecord failed: %v", err)
		}
		if got == nil {
			t.Fatal("expected record, got nil")
		}
		if got.ID == 0 {
			t.Error("expected a non-zero id")
		}
		if got.ResponseBody != record.ResponseBody {
			t.Errorf("ResponseBody = %q", got.ResponseBody)
		}
		if got.ResponseHeaders != record.ResponseHeaders {
			t.Errorf("ResponseHeaders = %q", got.ResponseHeaders)
		}
		if got.StatusCode != 200 {
			t.Errorf("StatusCode = %d", got.StatusCode)
		}
		if got.HTTPProtocol != model.ProtocolHTTP11 {
			t.Errorf("HTTPProtocol = %q", got.HTTPProtocol)
		}
		if got.Checksum != record.Checksum {
			t.Errorf("Checksum = %q", got.Checksum)
		}
	})

	t.Run("duplicate URL is a silent no-op", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		if _, err := db.SaveIfAbsent(ctx, newRecord("https://x.test/a", "first")); err != nil {
			t.Fatalf("first SaveIfAbsent failed: %v", err)
		}

		inserted, err := db.SaveIfAbsent(ctx, newRecord("https://x.test/a", "second"))
		if err != nil {
			t.Fatalf("duplicate insert must not fail: %v", err)
		}
		if inserted {
			t.Error("expected duplicate insert to report inserted=false")
		}

		count, err := db.CountRecords(ctx)
		if err != nil {
			t.Fatalf("CountRecords failed: %v", err)
		}
		if count != 1 {
			t.Errorf("expected exactly one row, got %d", count)
		}

		got, err := db.GetRecord(ctx, "https://x.test/a")
		if err != nil {
			t.Fatalf("GetRecord failed: %v", err)
		}
		if got.ResponseBody != "first" {
			t.Errorf("existing record was overwritten: body = %q", got.ResponseBody)
		}
	})

	t.Run("failure wraps ErrStorageWrite", func(t *testing.T) {
		t.Parallel()

		db, err := Open(filepath.Join(t.TempDir(), "closed.db"), DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		_ = db.Close()

		_, err = db.SaveIfAbsent(context.Background(), newRecord("https://x.test/", "body"))
		if !errors.Is(err, ErrStorageWrite) {
			t.Errorf("expected ErrStorageWrite, got %v", err)
		}
	})
}

// TestGetRecordMissing tests that a missing record returns nil, nil.
func TestGetRecordMissing(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)

	got, err := db.GetRecord(context.Background(), "https://missing.test/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

// TestListRecords tests listing and limits.
func TestListRecords(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	urls := []string{"https://x.test/1", "https://x.test/2", "https://x.test/3"}
	for _, u := range urls {
		if _, err := db.SaveIfAbsent(ctx, newRecord(u, u)); err != nil {
			t.Fatalf("SaveIfAbsent failed: %v", err)
		}
	}

	t.Run("all records in insertion order without bodies", func(t *testing.T) {
		t.Parallel()

		records, err := db.ListRecords(ctx, 0)
		if err != nil {
			t.Fatalf("ListRecords failed: %v", err)
		}
		if len(records) != len(urls) {
			t.Fatalf("expected %d records, got %d", len(urls), len(records))
		}
		for i, r := range records {
			if r.URL != urls[i] {
				t.Errorf("record %d URL = %q, want %q", i, r.URL, urls[i])
			}
			if r.ResponseBody != "" {
				t.Errorf("expected body to be omitted, got %q", r.ResponseBody)
			}
			if r.Checksum != model.Checksum(urls[i]) {
				t.Errorf("record %d checksum mismatch", i)
			}
		}
	})

	t.Run("limit", func(t *testing.T) {
		t.Parallel()

		records, err := db.ListRecords(ctx, 2)
		if err != nil {
			t.Fatalf("ListRecords failed: %v", err)
		}
		if len(records) != 2 {
			t.Errorf("expected 2 records, got %d", len(records))
		}
	})
}

// TestCounts tests the aggregate queries.
func TestCounts(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	records := []*model.CrawlRecord{
		newRecord("https://x.test/1", "same"),
		newRecord("https://x.test/2", "same"),
		newRecord("https://x.test/3", "other"),
	}
	records[2].HTTPProtocol = model.ProtocolHTTP20
	records[2].StatusCode = 203

	for _, r := range records {
		if _, err := db.SaveIfAbsent(ctx, r); err != nil {
			t.Fatalf("SaveIfAbsent failed: %v", err)
		}
	}

	t.Run("protocol counts", func(t *testing.T) {
		t.Parallel()

		counts, err := db.ProtocolCounts(ctx)
		if err != nil {
			t.Fatalf("ProtocolCounts failed: %v", err)
		}
		if len(counts) != 2 {
			t.Fatalf("expected 2 protocol groups, got %v", counts)
		}
		if counts[0].Value != model.ProtocolHTTP11 || counts[0].Count != 2 {
			t.Errorf("unexpected first group: %+v", counts[0])
		}
		if counts[1].Value != model.ProtocolHTTP20 || counts[1].Count != 1 {
			t.Errorf("unexpected second group: %+v", counts[1])
		}
	})

	t.Run("status counts", func(t *testing.T) {
		t.Parallel()

		counts, err := db.StatusCounts(ctx)
		if err != nil {
			t.Fatalf("StatusCounts failed: %v", err)
		}
		if len(counts) != 2 {
			t.Fatalf("expected 2 status groups, got %v", counts)
		}
		if counts[0].Value != "200" || counts[0].Count != 2 {
			t.Errorf("unexpected first group: %+v", counts[0])
		}
	})

	t.Run("duplicate checksums", func(t *testing.T) {
		t.Parallel()

		groups, err := db.DuplicateChecksums(ctx)
		if err != nil {
			t.Fatalf("DuplicateChecksums failed: %v", err)
		}
		if len(groups) != 1 {
			t.Fatalf("expected 1 duplicate group, got %v", groups)
		}
		if groups[0].Checksum != model.Checksum("same") {
			t.Errorf("unexpected checksum %q", groups[0].Checksum)
		}
		if len(groups[0].URLs) != 2 || groups[0].URLs[0] != "https://x.test/1" {
			t.Errorf("unexpected URLs %v", groups[0].URLs)
		}
	})
}

// TestDefaultOptions tests default option values.
func TestDefaultOptions(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	if !opts.CreateIfNotExists {
		t.Error("expected CreateIfNotExists to be true by default")
	}
	if !opts.EnableWAL {
		t.Error("expected EnableWAL to be true by default")
	}
}
