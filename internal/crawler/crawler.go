package crawler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/depthcrawl/internal/metrics"
	"github.com/nao1215/depthcrawl/internal/model"
)

// DefaultMaxDepth is the deepest level followed from a seed.
const DefaultMaxDepth = 2

// Fetcher downloads a single page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*model.Page, error)
}

// RecordSink persists crawl records, keeping the first record for each url.
type RecordSink interface {
	// SaveIfAbsent stores rec unless its url is already stored.
	// inserted is false for an existing url.
	SaveIfAbsent(ctx context.Context, rec *model.CrawlRecord) (inserted bool, err error)
}

// Crawler runs depth-limited depth-first crawls.
type Crawler struct {
	fetcher     Fetcher
	sink        RecordSink
	extractor   LinkExtractor
	logger      *slog.Logger
	metrics     *metrics.Metrics
	maxDepth    int
	concurrency int
	hook        func(VisitResult)
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithMaxDepth sets the maximum depth. 0 visits only the seeds.
// Negative values are ignored.
func WithMaxDepth(depth int) Option {
	return func(c *Crawler) {
		if depth >= 0 {
			c.maxDepth = depth
		}
	}
}

// WithLinkExtractor replaces the HTML Parser.
func WithLinkExtractor(e LinkExtractor) Option {
	return func(c *Crawler) {
		if e != nil {
			c.extractor = e
		}
	}
}

// WithLogger sets the logger. Per-url failures are reported here.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics enables Prometheus accounting.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Crawler) {
		c.metrics = m
	}
}

// WithConcurrency sets how many seeds are traversed in parallel.
// Each seed is still traversed depth-first. Values below 1 are ignored.
func WithConcurrency(n int) Option {
	return func(c *Crawler) {
		if n >= 1 {
			c.concurrency = n
		}
	}
}

// WithVisitHook registers fn to receive every VisitResult.
// With concurrency above 1, fn is called from several goroutines.
func WithVisitHook(fn func(VisitResult)) Option {
	return func(c *Crawler) {
		c.hook = fn
	}
}

// NewCrawler creates a Crawler that fetches with fetcher and stores into sink.
func NewCrawler(fetcher Fetcher, sink RecordSink, opts ...Option) *Crawler {
	c := &Crawler{
		fetcher:     fetcher,
		sink:        sink,
		extractor:   NewParser(),
		logger:      slog.New(slog.DiscardHandler),
		maxDepth:    DefaultMaxDepth,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MaxDepth returns the configured maximum depth.
func (c *Crawler) MaxDepth() int {
	return c.maxDepth
}

// Crawl traverses every seed in order, sharing one visited set.
//
// Crawl never fails: per-url errors are logged and counted in the Summary.
// Cancelling ctx stops the traversal at the next work item and sets
// Summary.Interrupted.
func (c *Crawler) Crawl(ctx context.Context, seeds []string) *Summary {
	start := time.Now()
	runID := uuid.NewString()
	run := &crawlRun{
		Crawler: c,
		logger:  c.logger.With(slog.String("run_id", runID)),
		visited: NewVisitedSet(),
	}
	run.summary.RunID = runID
	run.summary.Seeds = len(seeds)

	run.logger.Info("crawl started",
		"seeds", len(seeds),
		"max_depth", c.maxDepth,
		"concurrency", c.concurrency,
	)

	if c.concurrency <= 1 {
		for _, seed := range seeds {
			run.traverse(ctx, seed)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(c.concurrency)
		for _, seed := range seeds {
			g.Go(func() error {
				run.traverse(ctx, seed)
				return nil
			})
		}
		_ = g.Wait() //nolint:errcheck // traverse never returns an error
	}

	summary := run.result(time.Since(start))
	run.logger.Info("crawl finished",
		"saved", summary.Saved,
		"duplicates", summary.Duplicates,
		"fetch_failed", summary.FetchFailed,
		"storage_failed", summary.StorageFailed,
		"links_found", summary.LinksFound,
		"interrupted", summary.Interrupted,
		"elapsed", summary.Elapsed,
	)
	return summary
}

// crawlRun is the state of a single Crawl call.
type crawlRun struct {
	*Crawler
	logger  *slog.Logger
	visited *VisitedSet

	mu      sync.Mutex
	summary Summary
}

// workItem is a url waiting on the traversal stack.
type workItem struct {
	url   string
	depth int
}

// traverse walks one seed depth-first.
func (r *crawlRun) traverse(ctx context.Context, seed string) {
	stack := []workItem{{url: seed, depth: 0}}

	for len(stack) > 0 {
		if ctx.Err() != nil {
			r.interrupt()
			return
		}

		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		links := r.visit(ctx, item)
		for i := len(links) - 1; i >= 0; i-- {
			stack = append(stack, workItem{url: links[i], depth: item.depth + 1})
		}
	}
}

// visit processes one work item and returns the links to follow.
func (r *crawlRun) visit(ctx context.Context, item workItem) []string {
	result := VisitResult{URL: item.url, Depth: item.depth}

	if item.depth > r.maxDepth {
		result.Outcome = OutcomeSkippedDepth
		r.record(result)
		return nil
	}
	if r.visited.Contains(item.url) {
		result.Outcome = OutcomeSkippedVisited
		r.record(result)
		return nil
	}

	r.logger.Debug("fetching page", "url", item.url, "depth", item.depth)

	fetchStart := time.Now()
	page, err := r.fetcher.Fetch(ctx, item.url)
	if err != nil {
		if ctx.Err() != nil {
			r.interrupt()
			return nil
		}
		r.metrics.ObserveFetch(time.Since(fetchStart), errorKind(err))
		r.logger.Warn("failed to fetch page", "url", item.url, "depth", item.depth, "error", err)
		result.Outcome = OutcomeFetchFailed
		result.Err = err
		r.record(result)
		return nil
	}
	r.metrics.ObserveFetch(time.Since(fetchStart), "")

	// The fetched page is stored even if ctx is cancelled meanwhile.
	result.Outcome, result.Err = r.save(context.WithoutCancel(ctx), page)
	r.visited.Add(item.url)

	links, err := r.extractor.ExtractLinks(page.Body, item.url)
	if err != nil {
		r.logger.Warn("failed to extract links", "url", item.url, "error", err)
	}
	result.Links = links
	r.metrics.AddLinks(len(links))

	r.record(result)
	return links
}

// save converts page to a record and stores it if absent.
func (r *crawlRun) save(ctx context.Context, page *model.Page) (Outcome, error) {
	rec, err := model.NewCrawlRecord(page)
	if err != nil {
		r.logger.Error("failed to build record", "url", page.URL, "error", err)
		return OutcomeStorageFailed, err
	}

	inserted, err := r.sink.SaveIfAbsent(ctx, rec)
	if err != nil {
		r.logger.Error("failed to save page", "url", page.URL, "error", err)
		return OutcomeStorageFailed, err
	}
	if !inserted {
		r.logger.Debug("page already stored", "url", page.URL)
		return OutcomeDuplicate, nil
	}

	r.logger.Info("page saved",
		"url", page.URL,
		"status", rec.StatusCode,
		"protocol", rec.HTTPProtocol,
		"checksum", rec.Checksum,
	)
	return OutcomeSaved, nil
}

// record adds result to the summary and forwards it to the hook.
func (r *crawlRun) record(result VisitResult) {
	r.mu.Lock()
	r.summary.add(result)
	r.mu.Unlock()

	r.metrics.ObserveVisit(result.Outcome.String())
	if r.hook != nil {
		r.hook(result)
	}
}

func (r *crawlRun) interrupt() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary.Interrupted = true
}

func (r *crawlRun) result(elapsed time.Duration) *Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.summary
	s.Elapsed = elapsed
	return &s
}

// errorKind classifies a fetch error for metrics.
func errorKind(err error) string {
	var kinded interface{ Kind() string }
	if errors.As(err, &kinded) {
		return kinded.Kind()
	}
	return "network"
}
