package scraper

import (
	"context"
	"fmt"
	"iter"
	"time"

	"spoilerscraper/pkg/checkpoint"
	"spoilerscraper/pkg/config"
	errs "spoilerscraper/pkg/errors"
	"spoilerscraper/pkg/logger"
	"spoilerscraper/pkg/models"
	"spoilerscraper/pkg/ratelimit"
	"spoilerscraper/pkg/retry"
	"spoilerscraper/pkg/twitter"
)

// Request is what one collection run is asked to do
type Request struct {
	// Target is how many marker-bearing records this run should gather
	Target int
	// Language restricts the search; empty means any language
	Language string
}

// Progress tracks one run. It is owned by the caller and updated in place.
type Progress struct {
	Target         int
	Useful         int
	Fetched        int
	LastBatch      int
	Pages          int
	RateLimitWaits int
}

// Done reports whether the run reached its target
func (p Progress) Done() bool {
	return p.Useful >= p.Target
}

// Options tunes the collection loop
type Options struct {
	Query        string
	PageSize     int
	ResetPadding time.Duration
	Fallback     retry.BackoffStrategy
	Clock        retry.Clock
}

// OptionsFromConfig derives Options from the loaded configuration
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Query:        cfg.Twitter.Query,
		PageSize:     cfg.Twitter.PageSize,
		ResetPadding: cfg.RateLimit.ResetPadding,
		Fallback: &retry.ExponentialBackoff{
			BaseDelay:    cfg.RateLimit.FallbackDelay,
			MaxDelay:     cfg.RateLimit.MaxFallbackDelay,
			Multiplier:   cfg.RateLimit.BackoffMultiplier,
			JitterFactor: 0.1,
		},
	}
}

// Scraper pages backwards through search results
type Scraper struct {
	client   SearchClient
	opts     Options
	reporter Reporter
	logger   logger.Logger
}

// New creates a Scraper. Zero-valued options fall back to the default query,
// a full page and the system clock.
func New(client SearchClient, opts Options, log logger.Logger) *Scraper {
	if opts.Query == "" {
		opts.Query = config.DefaultQuery
	}
	if opts.PageSize <= 0 || opts.PageSize > twitter.MaxPageSize {
		opts.PageSize = twitter.MaxPageSize
	}
	if opts.Clock == nil {
		opts.Clock = retry.SystemClock{}
	}
	if opts.Fallback == nil {
		opts.Fallback = retry.DefaultExponentialBackoff()
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Scraper{
		client:   client,
		opts:     opts,
		reporter: nopReporter{},
		logger:   log.WithField("component", "scraper"),
	}
}

// SetReporter installs a progress reporter
func (s *Scraper) SetReporter(r Reporter) {
	if r == nil {
		r = nopReporter{}
	}
	s.reporter = r
}

// Collect lazily pages backwards from state.Cursor. Each yielded batch is
// one full page; state and progress are updated after the consumer accepts
// it. The sequence ends when progress reaches the target or the endpoint
// returns an empty page. Rate limits are waited out; any other failure is
// yielded once and ends the sequence.
func (s *Scraper) Collect(ctx context.Context, req Request, state *checkpoint.State, progress *Progress) iter.Seq2[models.Batch, error] {
	return func(yield func(models.Batch, error) bool) {
		progress.Target = req.Target
		retryCfg := s.retryConfig(ctx, progress)

		for !progress.Done() {
			params := s.searchParams(req, state)

			statuses, err := retry.DoWithResult(func() ([]twitter.Status, error) {
				return s.client.Search(ctx, params)
			}, retryCfg)
			if err != nil {
				yield(nil, fmt.Errorf("failed to fetch page %d: %w", progress.Pages+1, err))
				return
			}

			if len(statuses) == 0 {
				s.logger.InfoWithFields("Search exhausted", map[string]interface{}{
					"cursor": state.CursorString(),
					"useful": progress.Useful,
					"target": progress.Target,
				})
				return
			}

			batch, err := s.accept(statuses, params.MaxID)
			if err != nil {
				yield(nil, err)
				return
			}

			state.MoveCursor(batch)
			if !yield(batch, nil) {
				return
			}

			useful := batch.CountUseful()
			state.AcceptedCount += len(batch)
			progress.Useful += useful
			progress.Fetched += len(batch)
			progress.LastBatch = len(batch)
			progress.Pages++

			s.logger.InfoWithFields("Page collected", map[string]interface{}{
				"page":     progress.Pages,
				"records":  len(batch),
				"useful":   useful,
				"progress": fmt.Sprintf("%d/%d", progress.Useful, progress.Target),
				"cursor":   state.CursorString(),
			})
			s.reporter.PageCollected(*progress, *state)
		}
	}
}

// Run drains Collect into w, persisting every page before the next request
func (s *Scraper) Run(ctx context.Context, req Request, state *checkpoint.State, progress *Progress, w BatchWriter) error {
	for batch, err := range s.Collect(ctx, req, state, progress) {
		if err != nil {
			return err
		}
		path, err := w.WriteBatch(batch)
		if err != nil {
			return fmt.Errorf("failed to persist batch: %w", err)
		}
		s.logger.DebugWithFields("Batch persisted", map[string]interface{}{
			"path":    path,
			"records": len(batch),
		})
	}
	return nil
}

func (s *Scraper) searchParams(req Request, state *checkpoint.State) twitter.SearchParams {
	params := twitter.SearchParams{
		Query:      s.opts.Query,
		Lang:       req.Language,
		Count:      s.opts.PageSize,
		ResultType: twitter.ResultTypeRecent,
	}
	if maxID, ok := state.MaxID(); ok {
		params.MaxID = &maxID
	}
	return params
}

// accept validates every status of a page and converts it to a batch
func (s *Scraper) accept(statuses []twitter.Status, maxID *int64) (models.Batch, error) {
	batch := make(models.Batch, 0, len(statuses))
	for _, st := range statuses {
		if v := Validate(st, maxID); !v.Accepted {
			s.logger.ErrorWithFields("Endpoint contract violated", map[string]interface{}{
				"status_id": st.ID,
				"reason":    string(v.Reason),
			})
			return nil, ContractError(st, v)
		}
		batch = append(batch, st.Record())
	}
	return batch, nil
}

func (s *Scraper) retryConfig(ctx context.Context, progress *Progress) *retry.Config {
	backoff := &ratelimit.ResetBackoff{
		Source:   s.client,
		Clock:    s.opts.Clock,
		Padding:  s.opts.ResetPadding,
		Fallback: s.opts.Fallback,
		Logger:   s.logger,
		OnWait: func(resource string, wait time.Duration) {
			progress.RateLimitWaits++
			s.reporter.RateLimited(resource, wait)
		},
	}
	return &retry.Config{
		MaxAttempts: 0,
		RetryIf:     errs.IsRateLimit,
		Delay:       backoff.Delay,
		Context:     ctx,
		Clock:       s.opts.Clock,
		Logger:      s.logger,
	}
}
