package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/nao1215/depthcrawl/internal/config"
)

//go:embed templates/config.yaml
var configTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a seed file with example settings",
		Long: heredoc.Doc(`
			Init writes a config.yaml seed file to the current directory.

			The generated file lists one example seed URL and documents the
			optional crawl settings (depth, timeout, user agent, database,
			concurrency and proxy).
		`),
		Example: heredoc.Doc(`
			# Create config.yaml in the current directory
			depthcrawl init

			# Create the seed file at a specific path
			depthcrawl init -o seeds/news.yaml

			# Overwrite an existing file
			depthcrawl init -f
		`),
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the seed file")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing seed file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("seed file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/config.yaml")
	if err != nil {
		return fmt.Errorf("failed to read seed file template: %w", err)
	}

	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write seed file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created seed file: %s\n", outputPath)
	fmt.Fprintln(out, "\nAdd your seed URLs under 'urls', then run:")
	fmt.Fprintf(out, "  depthcrawl crawl -c %s\n", outputPath)

	return nil
}
