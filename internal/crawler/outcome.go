package crawler

import "time"

// Outcome is what happened to one work item.
type Outcome int

const (
	// OutcomeSaved means the page was fetched and inserted.
	OutcomeSaved Outcome = iota
	// OutcomeDuplicate means the page was fetched but its url was already stored.
	OutcomeDuplicate
	// OutcomeFetchFailed means the fetch failed; the branch ended there.
	OutcomeFetchFailed
	// OutcomeStorageFailed means the page was fetched but could not be stored.
	// Its links were still followed.
	OutcomeStorageFailed
	// OutcomeSkippedDepth means the item was deeper than the maximum depth.
	OutcomeSkippedDepth
	// OutcomeSkippedVisited means the url had already been visited.
	OutcomeSkippedVisited
)

// String returns the snake_case label used in logs and metrics.
func (o Outcome) String() string {
	switch o {
	case OutcomeSaved:
		return "saved"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeFetchFailed:
		return "fetch_failed"
	case OutcomeStorageFailed:
		return "storage_failed"
	case OutcomeSkippedDepth:
		return "skipped_depth"
	case OutcomeSkippedVisited:
		return "skipped_visited"
	default:
		return "unknown"
	}
}

// Fetched reports whether the outcome involved a successful fetch.
func (o Outcome) Fetched() bool {
	return o == OutcomeSaved || o == OutcomeDuplicate || o == OutcomeStorageFailed
}

// VisitResult describes one processed work item.
type VisitResult struct {
	URL     string
	Depth   int
	Outcome Outcome

	// Err is the fetch or storage error for the failed outcomes.
	Err error

	// Links are the links found on the page, in document order.
	Links []string
}

// Summary aggregates the results of one Crawl call.
type Summary struct {
	// RunID identifies the crawl in logs.
	RunID string `json:"run_id"`

	Seeds          int `json:"seeds"`
	Saved          int `json:"saved"`
	Duplicates     int `json:"duplicates"`
	FetchFailed    int `json:"fetch_failed"`
	StorageFailed  int `json:"storage_failed"`
	SkippedDepth   int `json:"skipped_depth"`
	SkippedVisited int `json:"skipped_visited"`
	LinksFound     int `json:"links_found"`

	// Interrupted is true when the context was cancelled before the
	// traversal finished.
	Interrupted bool `json:"interrupted"`

	Elapsed time.Duration `json:"elapsed"`
}

// Fetched returns the number of successful fetches.
func (s *Summary) Fetched() int {
	return s.Saved + s.Duplicates + s.StorageFailed
}

func (s *Summary) add(r VisitResult) {
	switch r.Outcome {
	case OutcomeSaved:
		s.Saved++
	case OutcomeDuplicate:
		s.Duplicates++
	case OutcomeFetchFailed:
		s.FetchFailed++
	case OutcomeStorageFailed:
		s.StorageFailed++
	case OutcomeSkippedDepth:
		s.SkippedDepth++
	case OutcomeSkippedVisited:
		s.SkippedVisited++
	}
	s.LinksFound += len(r.Links)
}
