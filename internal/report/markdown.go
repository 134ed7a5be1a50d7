package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/depthcrawl/internal/database"
)

// MarkdownWriter renders a report as GitHub-flavored Markdown.
type MarkdownWriter struct {
	output io.Writer
}

// NewMarkdownWriter creates a MarkdownWriter writing to output.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: output}
}

// Write renders report as Markdown.
func (w *MarkdownWriter) Write(report *StoreReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("depthcrawl Store Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Database", "`" + report.Database + "`"},
			{"Generated", report.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
			{"Records", strconv.Itoa(report.TotalRecords)},
			{"URLs with shared content", strconv.Itoa(report.DuplicateURLs())},
		},
	})
	md.PlainText("")

	w.writeProtocols(md, report.Protocols)
	w.writeStatuses(md, report.Statuses)
	w.writeDuplicates(md, report.Duplicates)
	w.writeRecords(md, report)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeProtocols(md *markdown.Markdown, counts []database.Count) {
	md.H2("Protocols")
	md.PlainText("")
	if len(counts) == 0 {
		md.PlainText("No records stored.")
		md.PlainText("")
		return
	}

	md.Table(countTable("Protocol", counts))
	md.PlainText("")

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("HTTP protocol distribution"),
		piechart.WithShowData(true),
	)
	for _, c := range counts {
		chart.LabelAndIntValue(orDash(c.Value), uint64(c.Count)) //nolint:gosec // counts are never negative
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeStatuses(md *markdown.Markdown, counts []database.Count) {
	md.H2("Status Codes")
	md.PlainText("")
	if len(counts) == 0 {
		md.PlainText("No records stored.")
		md.PlainText("")
		return
	}
	md.Table(countTable("Status", counts))
	md.PlainText("")
}

func (w *MarkdownWriter) writeDuplicates(md *markdown.Markdown, groups []database.ChecksumGroup) {
	md.H2("Duplicate Content")
	md.PlainText("")
	if len(groups) == 0 {
		md.Tip("Every stored url has a distinct body.")
		md.PlainText("")
		return
	}

	md.Note("These urls serve byte-identical bodies.")
	md.PlainText("")
	for _, g := range groups {
		md.PlainText("`" + g.Checksum + "`")
		md.PlainText("")
		md.BulletList(g.URLs...)
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeRecords(md *markdown.Markdown, report *StoreReport) {
	md.H2("Records")
	md.PlainText("")
	if len(report.Records) < report.TotalRecords {
		md.PlainTextf("Showing %d of %d records.", len(report.Records), report.TotalRecords)
		md.PlainText("")
	}
	if len(report.Records) == 0 {
		md.PlainText("No records stored.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Records))
	for i, r := range report.Records {
		rows[i] = []string{
			strconv.FormatInt(r.ID, 10),
			truncateString(r.URL, 80),
			strconv.Itoa(r.StatusCode),
			orDash(r.HTTPProtocol),
			"`" + r.Checksum + "`",
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"ID", "URL", "Status", "Protocol", "Checksum"},
		Rows:   rows,
	})
	md.PlainText("")
}

func countTable(label string, counts []database.Count) markdown.TableSet {
	rows := make([][]string, len(counts))
	for i, c := range counts {
		rows[i] = []string{orDash(c.Value), strconv.Itoa(c.Count)}
	}
	return markdown.TableSet{
		Header: []string{label, "Count"},
		Rows:   rows,
	}
}
