package report

import (
	"context"
	"fmt"
	"time"

	"github.com/nao1215/depthcrawl/internal/database"
	"github.com/nao1215/depthcrawl/internal/model"
)

// Source is the read side of the crawl store.
type Source interface {
	CountRecords(ctx context.Context) (int, error)
	ListRecords(ctx context.Context, limit int) ([]model.CrawlRecord, error)
	ProtocolCounts(ctx context.Context) ([]database.Count, error)
	StatusCounts(ctx context.Context) ([]database.Count, error)
	DuplicateChecksums(ctx context.Context) ([]database.ChecksumGroup, error)
}

// StoreReport is a snapshot of the crawl store.
type StoreReport struct {
	// Database is the path of the store.
	Database string `json:"database"`

	GeneratedAt time.Time `json:"generated_at"`

	TotalRecords int `json:"total_records"`

	Protocols []database.Count `json:"protocols"`
	Statuses  []database.Count `json:"statuses"`

	// Duplicates are groups of urls whose bodies share one checksum.
	Duplicates []database.ChecksumGroup `json:"duplicates"`

	// Records are the first stored records, without bodies.
	Records []model.CrawlRecord `json:"records"`
}

// Build collects a StoreReport from src. limit caps the number of listed
// records; zero or less lists all of them.
func Build(ctx context.Context, src Source, dbPath string, limit int) (*StoreReport, error) {
	total, err := src.CountRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build report: %w", err)
	}
	protocols, err := src.ProtocolCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build report: %w", err)
	}
	statuses, err := src.StatusCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build report: %w", err)
	}
	duplicates, err := src.DuplicateChecksums(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build report: %w", err)
	}
	records, err := src.ListRecords(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to build report: %w", err)
	}

	return &StoreReport{
		Database:     dbPath,
		GeneratedAt:  time.Now().UTC(),
		TotalRecords: total,
		Protocols:    nonNil(protocols),
		Statuses:     nonNil(statuses),
		Duplicates:   nonNil(duplicates),
		Records:      nonNil(records),
	}, nil
}

// DuplicateURLs returns the number of urls that share their body with
// at least one other url.
func (r *StoreReport) DuplicateURLs() int {
	n := 0
	for _, g := range r.Duplicates {
		n += len(g.URLs)
	}
	return n
}

// nonNil keeps JSON output as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
