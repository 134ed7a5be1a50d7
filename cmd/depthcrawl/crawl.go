package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/nao1215/depthcrawl/internal/config"
	"github.com/nao1215/depthcrawl/internal/crawler"
	"github.com/nao1215/depthcrawl/internal/database"
	"github.com/nao1215/depthcrawl/internal/fetcher"
	"github.com/nao1215/depthcrawl/internal/log"
	"github.com/nao1215/depthcrawl/internal/metrics"
	"github.com/nao1215/depthcrawl/internal/tor"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl the seed URLs and archive every page",
		Long: heredoc.Doc(`
			Crawl reads the seed URLs from a YAML seed file and visits each seed
			depth-first. Every page is fetched once per run, stored in SQLite
			unless its URL is already archived, and its hyperlinks are followed
			until the maximum depth is reached.

			Pages that fail to load are logged and skipped; the crawl always
			continues with the remaining work. The seed file is searched for in
			this order: --config, ./config.yaml, $XDG_CONFIG_HOME/depthcrawl/config.yaml.
		`),
		Example: heredoc.Doc(`
			# Crawl the seeds in ./config.yaml with the default depth of 2
			depthcrawl crawl

			# Use another seed file and follow links three hops deep
			depthcrawl crawl -c seeds.yaml -d 3

			# Store pages in a specific database and crawl four seeds at once
			depthcrawl crawl --db pages.db --concurrency 4

			# Route every request through an existing Tor SOCKS proxy
			depthcrawl crawl --proxy 127.0.0.1:9050

			# Start an embedded Tor daemon for this crawl
			depthcrawl crawl --tor

			# Expose Prometheus metrics while crawling
			depthcrawl crawl --metrics-addr 127.0.0.1:9090
		`),
		Args: cobra.NoArgs,
		RunE: runCrawlCmd,
	}

	cmd.Flags().StringP("config", "c", "",
		"Seed file path (default: ./config.yaml, then the XDG config directory)")
	cmd.Flags().IntP("depth", "d", config.DefaultCrawlDepth,
		"Maximum link depth; seeds are depth 0")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Network timeout for each fetch")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().String("db", "",
		"SQLite database path (default: XDG data directory)")
	cmd.Flags().Int("concurrency", config.DefaultConcurrency,
		"Number of seeds crawled in parallel")

	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy address for every fetch (e.g., 127.0.0.1:9050)")
	cmd.Flags().Bool("tor", false,
		"Start an embedded Tor daemon and crawl through it")
	cmd.Flags().DurationP("tor-timeout", "T", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")

	cmd.Flags().String("metrics-addr", "",
		"Serve Prometheus metrics on this address during the crawl")
	cmd.Flags().Bool("json-log", false,
		"Write log lines as JSON")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	out := cmd.OutOrStdout()
	logger := setupLogger(out, cfg.Verbose, cfg.JSONLog)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	summary, err := runCrawl(ctx, cfg, logger, out)
	if err != nil {
		return err
	}

	printSummary(out, summary)
	return nil
}

// buildConfig merges defaults, the seed file's crawl block and the flags
// the user explicitly set, in increasing order of precedence.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	explicitPath, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicit path that does not exist is reported by LoadSeedFile.
	path := config.FindConfigFile(explicitPath)
	if path == "" {
		path = explicitPath
		if path == "" {
			path = config.DefaultConfigFile
		}
	}

	seedFile, err := config.LoadSeedFile(path)
	if err != nil {
		return nil, err
	}
	cfg.ConfigFilePath = path
	cfg.Seeds = seedFile.URLs
	cfg.ApplySettings(seedFile.Crawl)

	if flags.Changed("depth") {
		if cfg.CrawlDepth, err = flags.GetInt("depth"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("user-agent") {
		if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("db") {
		if cfg.DBPath, err = flags.GetString("db"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("concurrency") {
		if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("proxy") {
		if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
			return nil, err
		}
	}

	if cfg.UseTor, err = flags.GetBool("tor"); err != nil {
		return nil, err
	}
	if cfg.TorStartupTimeout, err = flags.GetDuration("tor-timeout"); err != nil {
		return nil, err
	}
	if cfg.MetricsAddr, err = flags.GetString("metrics-addr"); err != nil {
		return nil, err
	}
	if cfg.JSONLog, err = flags.GetBool("json-log"); err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	return cfg, nil
}

// setupLogger creates the crawl logger. Crawl progress and per-URL errors
// go to standard output.
func setupLogger(w io.Writer, verbose, jsonLog bool) *slog.Logger {
	if jsonLog {
		return log.NewSecureJSONLogger(w, verbose)
	}
	return log.NewSecureLogger(w, verbose)
}

// runCrawl opens the store, prepares the transport and runs one crawl.
// Errors returned here are startup failures; per-URL failures only show
// up in the logs and the summary.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) (*crawler.Summary, error) {
	db, err := database.Open(cfg.DBPath, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	logger.Debug("database opened", "path", db.Path())

	proxyAddress := cfg.ProxyAddress
	switch {
	case cfg.UseTor:
		embeddedTor, err := startEmbeddedTor(ctx, cfg, logger, out)
		if err != nil {
			return nil, err
		}
		defer func() {
			logger.Info("stopping embedded Tor daemon...")
			if err := embeddedTor.Stop(); err != nil {
				logger.Error("failed to stop embedded Tor", "error", err)
			}
		}()
		if proxyAddress, err = embeddedTor.ProxyAddress(); err != nil {
			return nil, err
		}
	case proxyAddress != "":
		if status := tor.CheckProxy(ctx, proxyAddress, tor.DefaultCheckTimeout); status != tor.ProxyStatusOK {
			return nil, fmt.Errorf("proxy check failed: %s (make sure a SOCKS5 proxy is running at %s): %w",
				status, proxyAddress, status.Err())
		}
		logger.Info("proxy connection verified", "address", proxyAddress)
	}

	pageFetcher, err := fetcher.NewHTTPFetcher(fetcher.Options{
		UserAgent:    cfg.UserAgent,
		Timeout:      cfg.Timeout,
		ProxyAddress: proxyAddress,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create fetcher: %w", err)
	}

	opts := []crawler.Option{
		crawler.WithMaxDepth(cfg.CrawlDepth),
		crawler.WithConcurrency(cfg.Concurrency),
		crawler.WithLogger(logger),
	}

	if cfg.MetricsAddr != "" {
		m, stop, err := startMetrics(ctx, cfg.MetricsAddr, logger)
		if err != nil {
			return nil, err
		}
		defer stop()
		opts = append(opts, crawler.WithMetrics(m))
	}

	logger.Info("loaded seeds",
		"config", cfg.ConfigFilePath,
		"seeds", len(cfg.Seeds),
		"depth", cfg.CrawlDepth,
		"database", cfg.DBPath,
	)

	return crawler.NewCrawler(pageFetcher, db, opts...).Crawl(ctx, cfg.Seeds), nil
}

// startMetrics registers the crawl metrics on a fresh registry and serves
// them until the returned stop function is called.
func startMetrics(ctx context.Context, addr string, logger *slog.Logger) (*metrics.Metrics, func(), error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	serveCtx, cancel := context.WithCancel(ctx)
	_, done, err := metrics.Serve(serveCtx, addr, reg, logger)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("failed to start metrics server: %w", err)
	}

	stop := func() {
		cancel()
		if err := <-done; err != nil {
			logger.Warn("metrics server stopped with error", "error", err)
		}
	}
	return m, stop, nil
}

// startEmbeddedTor starts an embedded Tor daemon and verifies its SOCKS port.
func startEmbeddedTor(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) (*tor.EmbeddedTor, error) {
	fmt.Fprintln(out, "Starting embedded Tor daemon...")
	fmt.Fprintf(out, "This may take 1-3 minutes while Tor bootstraps and connects to the network.\n\n")

	embeddedTor := tor.NewEmbeddedTor(
		tor.WithStartupTimeout(cfg.TorStartupTimeout),
	)

	if err := embeddedTor.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start embedded Tor: %w", err)
	}

	logger.Info("embedded Tor daemon started",
		"socks_addr", embeddedTor.SocksAddr(),
		"control_addr", embeddedTor.ControlAddr(),
	)

	if status := tor.CheckProxy(ctx, embeddedTor.SocksAddr(), tor.DefaultCheckTimeout); status != tor.ProxyStatusOK {
		_ = embeddedTor.Stop() //nolint:errcheck // Best effort cleanup
		return nil, fmt.Errorf("embedded Tor proxy check failed: %s", status)
	}

	fmt.Fprintf(out, "Embedded Tor daemon started successfully!\n")
	fmt.Fprintf(out, "SOCKS proxy: %s\n\n", embeddedTor.SocksAddr())

	return embeddedTor, nil
}

// printSummary writes the end-of-run totals.
func printSummary(w io.Writer, s *crawler.Summary) {
	status := "completed"
	if s.Interrupted {
		status = "interrupted"
	}

	fmt.Fprintf(w, "\nCrawl %s in %s (run %s)\n", status, s.Elapsed.Round(time.Millisecond), s.RunID)
	fmt.Fprintf(w, "  seeds:           %d\n", s.Seeds)
	fmt.Fprintf(w, "  saved:           %d\n", s.Saved)
	fmt.Fprintf(w, "  already stored:  %d\n", s.Duplicates)
	fmt.Fprintf(w, "  fetch failures:  %d\n", s.FetchFailed)
	fmt.Fprintf(w, "  store failures:  %d\n", s.StorageFailed)
	fmt.Fprintf(w, "  links found:     %d\n", s.LinksFound)
}
