package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/nao1215/depthcrawl/internal/config"
	"github.com/nao1215/depthcrawl/internal/database"
	"github.com/nao1215/depthcrawl/internal/report"
)

// defaultReportLimit caps the record listing of a report.
const defaultReportLimit = 50

// NewReportCmd creates the report command.
func NewReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize the archived pages",
		Long: heredoc.Doc(`
			Report reads the crawl database and prints the number of stored pages,
			their protocol versions and status codes, the urls that serve
			byte-identical bodies, and a listing of stored records.

			Report never creates a missing database.
		`),
		Example: heredoc.Doc(`
			# Print a text report of the default database
			depthcrawl report

			# Write a Markdown report with mermaid charts
			depthcrawl report --format markdown -o report.md

			# JSON report of a specific database, listing every record
			depthcrawl report --db pages.db --format json --limit 0
		`),
		Args: cobra.NoArgs,
		RunE: runReportCmd,
	}

	cmd.Flags().String("db", "",
		"SQLite database path (default: XDG data directory)")
	cmd.Flags().StringP("format", "F", report.FormatText,
		"Output format: "+strings.Join(report.Formats(), ", "))
	cmd.Flags().IntP("limit", "l", defaultReportLimit,
		"Maximum number of records listed (0 lists all)")
	cmd.Flags().StringP("output", "o", "",
		"Write the report to a file instead of stdout")

	return cmd
}

// runReportCmd executes the report command.
func runReportCmd(cmd *cobra.Command, _ []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	if !report.IsFormat(format) {
		return fmt.Errorf("%w: %q (want one of %s)", report.ErrUnknownFormat, format, strings.Join(report.Formats(), ", "))
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	db, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	storeReport, err := report.Build(cmd.Context(), db, db.Path(), limit)
	if err != nil {
		return err
	}

	if outputPath == "" {
		return writeReport(cmd.OutOrStdout(), format, storeReport)
	}

	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(outputPath) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	if err := writeReport(file, format, storeReport); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Report written to: %s\n", outputPath)
	return nil
}

func writeReport(w io.Writer, format string, storeReport *report.StoreReport) error {
	writer, err := report.NewWriter(format, w)
	if err != nil {
		return err
	}
	if _, err := writer.Write(storeReport); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// openStore opens the existing database named by --db, or the default
// database. A missing database is an error.
func openStore(cmd *cobra.Command) (*database.CrawlDB, error) {
	dbPath, err := cmd.Flags().GetString("db")
	if err != nil {
		return nil, err
	}
	if dbPath == "" {
		dbPath = config.DefaultDBPath()
	}

	db, err := database.Open(dbPath, database.Options{CreateIfNotExists: false})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}
