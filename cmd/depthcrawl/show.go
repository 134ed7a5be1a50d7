package main

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
)

// errRecordNotFound is returned by show when the url was never stored.
var errRecordNotFound = errors.New("no record stored for url")

// NewShowCmd creates the show command.
func NewShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <url>",
		Short: "Print the archived record of one url",
		Long: heredoc.Doc(`
			Show prints the stored status code, protocol version, checksum and
			response headers of one archived url. The url must match the stored
			key exactly, as it was requested during the crawl.
		`),
		Example: heredoc.Doc(`
			# Show the record of a seed page
			depthcrawl show https://example.com/

			# Include the stored body
			depthcrawl show --body https://example.com/about
		`),
		Args: cobra.ExactArgs(1),
		RunE: runShowCmd,
	}

	cmd.Flags().String("db", "",
		"SQLite database path (default: XDG data directory)")
	cmd.Flags().BoolP("body", "b", false,
		"Print the stored response body")

	return cmd
}

// runShowCmd executes the show command.
func runShowCmd(cmd *cobra.Command, args []string) error {
	showBody, err := cmd.Flags().GetBool("body")
	if err != nil {
		return err
	}

	db, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	record, err := db.GetRecord(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("%w: %s", errRecordNotFound, args[0])
	}

	headers, err := record.DecodeHeaders()
	if err != nil {
		return fmt.Errorf("failed to decode stored headers: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "URL:       %s\n", record.URL)
	fmt.Fprintf(out, "Status:    %d\n", record.StatusCode)
	fmt.Fprintf(out, "Protocol:  %s\n", record.HTTPProtocol)
	fmt.Fprintf(out, "Checksum:  %s\n", record.Checksum)
	fmt.Fprintf(out, "Size:      %d bytes\n", len(record.ResponseBody))

	fmt.Fprintln(out, "\nHeaders:")
	for _, name := range slices.Sorted(maps.Keys(headers)) {
		fmt.Fprintf(out, "  %s: %s\n", name, strings.Join(headers[name], ", "))
	}

	if showBody {
		fmt.Fprintln(out, "\nBody:")
		fmt.Fprintln(out, record.ResponseBody)
	}

	return nil
}
