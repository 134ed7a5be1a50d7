package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "depthcrawl"

// Metrics holds the crawl collectors.
type Metrics struct {
	// Visits counts visit steps by outcome label (saved, duplicate, ...).
	Visits *prometheus.CounterVec

	// FetchErrors counts failed fetches by kind (status, timeout, network).
	FetchErrors *prometheus.CounterVec

	// LinksDiscovered counts links extracted from fetched pages.
	LinksDiscovered prometheus.Counter

	// FetchDuration observes the time spent fetching one page.
	FetchDuration prometheus.Histogram
}

// New creates and registers the crawl collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Visits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "visits_total",
				Help:      "Visit steps processed, by outcome",
			},
			[]string{"outcome"},
		),
		FetchErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetch_errors_total",
				Help:      "Failed fetches, by kind",
			},
			[]string{"kind"},
		),
		LinksDiscovered: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "links_discovered_total",
				Help:      "Links extracted from fetched pages",
			},
		),
		FetchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fetch_duration_seconds",
				Help:      "Time taken to download a page",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}
}

// ObserveVisit records one visit step. A nil receiver is a no-op, so callers
// need not check whether metrics are enabled.
func (m *Metrics) ObserveVisit(outcome string) {
	if m == nil {
		return
	}
	m.Visits.WithLabelValues(outcome).Inc()
}

// ObserveFetch records the duration of a fetch and, on failure, its kind.
func (m *Metrics) ObserveFetch(d time.Duration, errKind string) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
	if errKind != "" {
		m.FetchErrors.WithLabelValues(errKind).Inc()
	}
}

// AddLinks records n discovered links.
func (m *Metrics) AddLinks(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.LinksDiscovered.Add(float64(n))
}

// Handler returns the /metrics handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
// The listener is bound before Serve returns, so a bad address is reported
// immediately; the returned channel yields the server's final error.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer, logger *slog.Logger) (net.Addr, <-chan error, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	done := make(chan error, 1)
	go func() {
		if logger != nil {
			logger.Info("metrics server started", slog.String("addr", ln.Addr().String()))
		}
		err := srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		done <- err
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx) //nolint:errcheck // best effort on exit
	}()

	return ln.Addr(), done, nil
}
