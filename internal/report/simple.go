package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/depthcrawl/internal/database"
)

const ruleWidth = 70

// SimpleWriter renders a plain-text report for the terminal.
type SimpleWriter struct {
	output io.Writer
}

// NewSimpleWriter creates a SimpleWriter writing to output.
func NewSimpleWriter(output io.Writer) *SimpleWriter {
	return &SimpleWriter{output: output}
}

// Write renders report as text.
func (w *SimpleWriter) Write(report *StoreReport) (int, error) {
	var sb strings.Builder

	sb.WriteString(strings.Repeat("=", ruleWidth) + "\n")
	sb.WriteString("DEPTHCRAWL STORE REPORT\n")
	sb.WriteString(strings.Repeat("=", ruleWidth) + "\n\n")
	fmt.Fprintf(&sb, "Database:  %s\n", report.Database)
	fmt.Fprintf(&sb, "Generated: %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&sb, "Records:   %d\n\n", report.TotalRecords)

	writeSection(&sb, "PROTOCOLS")
	writeCounts(&sb, report.Protocols)

	writeSection(&sb, "STATUS CODES")
	writeCounts(&sb, report.Statuses)

	writeSection(&sb, "DUPLICATE CONTENT")
	if len(report.Duplicates) == 0 {
		sb.WriteString("  No urls share a body\n\n")
	} else {
		for _, g := range report.Duplicates {
			fmt.Fprintf(&sb, "  %s (%d urls)\n", g.Checksum, len(g.URLs))
			for _, u := range g.URLs {
				fmt.Fprintf(&sb, "    %s\n", u)
			}
		}
		sb.WriteString("\n")
	}

	writeSection(&sb, fmt.Sprintf("RECORDS (%d of %d)", len(report.Records), report.TotalRecords))
	if len(report.Records) == 0 {
		sb.WriteString("  No records\n")
	}
	for _, r := range report.Records {
		fmt.Fprintf(&sb, "  %5d  %3d  %-8s  %s  %s\n", r.ID, r.StatusCode, orDash(r.HTTPProtocol), r.Checksum, r.URL)
	}
	sb.WriteString(strings.Repeat("=", ruleWidth) + "\n")

	return io.WriteString(w.output, sb.String())
}

func writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", ruleWidth) + "\n")
	sb.WriteString(title + "\n")
	sb.WriteString(strings.Repeat("-", ruleWidth) + "\n")
}

func writeCounts(sb *strings.Builder, counts []database.Count) {
	if len(counts) == 0 {
		sb.WriteString("  none\n\n")
		return
	}
	for _, c := range counts {
		fmt.Fprintf(sb, "  %-10s %d\n", orDash(c.Value)+":", c.Count)
	}
	sb.WriteString("\n")
}
