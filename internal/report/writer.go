package report

import (
	"errors"
	"fmt"
	"io"
	"slices"
)

// Output formats accepted by NewWriter.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// ErrUnknownFormat is returned by NewWriter for an unsupported format.
var ErrUnknownFormat = errors.New("unknown report format")

// Formats lists the supported output formats.
func Formats() []string {
	return []string{FormatText, FormatMarkdown, FormatJSON}
}

// Writer renders a StoreReport.
type Writer interface {
	// Write renders report and returns the number of bytes written.
	Write(report *StoreReport) (int, error)
}

// NewWriter returns the Writer for format, writing to output.
func NewWriter(format string, output io.Writer) (Writer, error) {
	switch format {
	case FormatText:
		return NewSimpleWriter(output), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output), nil
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint()), nil
	default:
		return nil, fmt.Errorf("%w: %q (want one of %v)", ErrUnknownFormat, format, Formats())
	}
}

// IsFormat reports whether format is supported.
func IsFormat(format string) bool {
	return slices.Contains(Formats(), format)
}

// truncateString shortens s to maxLen bytes, marking the cut with "...".
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// orDash returns "-" for an empty value.
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
