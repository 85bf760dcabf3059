package administrator

import (
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"categorycrawler/internal/pkg/aggregator"
	"categorycrawler/internal/pkg/fetcher"
	bloomfilter "categorycrawler/internal/pkg/filter"
	"categorycrawler/internal/pkg/logger"
	"categorycrawler/internal/pkg/metrics"
	"categorycrawler/internal/pkg/types"
	"categorycrawler/internal/pkg/utils"
)

const (
	DefaultMinDelay       = 500 * time.Millisecond
	DefaultMaxDelay       = 2 * time.Second
	DefaultMaxAttempts    = 5
	DefaultRetryBaseDelay = time.Second
	DefaultRetryMaxDelay  = 30 * time.Second
)

var (
	ErrCrawlAborted    = errors.New("crawl aborted")
	ErrInvalidStartURL = errors.New("invalid start URL")
)

// CrawlAbortedError is returned when every attempt on a single cursor failed.
// It matches ErrCrawlAborted and unwraps to the last fetch error.
type CrawlAbortedError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *CrawlAbortedError) Error() string {
	return fmt.Sprintf("crawl aborted after %d failed attempts on %s: %v", e.Attempts, e.URL, e.Err)
}

func (e *CrawlAbortedError) Unwrap() error { return e.Err }

func (e *CrawlAbortedError) Is(target error) bool { return target == ErrCrawlAborted }

// Parser turns page HTML into entries and the next-page link.
type Parser interface {
	Parse(content string) (*goquery.Document, error)
	ExtractEntries(doc *goquery.Document) []string
	ExtractNextPageLink(doc *goquery.Document) (string, bool)
}

// RobotsChecker reports whether a URL may be fetched and the host's crawl delay.
type RobotsChecker interface {
	Check(ctx context.Context, url string) (time.Duration, error)
}

type Options struct {
	StartURL string
	// BaseURL resolves next-page links; defaults to StartURL.
	BaseURL string

	// Randomised pause between pages, uniform in [MinDelay, MaxDelay].
	MinDelay time.Duration
	MaxDelay time.Duration

	// MaxAttempts bounds consecutive fetch attempts on one cursor.
	MaxAttempts    int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration

	// Robots is consulted before each fetch; nil disables the check.
	Robots  RobotsChecker
	Metrics *metrics.Metrics
	// OnPage is called after every successfully processed page.
	OnPage func(types.PageReport)
}

// Administrator owns the pagination loop: one page at a time, fetch, parse,
// record, then advance to the next-page link after a randomised delay.
type Administrator struct {
	fetcher fetcher.Fetcher
	parser  Parser
	robots  RobotsChecker
	metrics *metrics.Metrics
	onPage  func(types.PageReport)

	startURL string
	baseURL  string

	minDelay       time.Duration
	maxDelay       time.Duration
	maxAttempts    int
	retryBaseDelay time.Duration
	retryMaxDelay  time.Duration

	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(minDelay, maxDelay time.Duration) time.Duration
}

func NewAdministrator(f fetcher.Fetcher, p Parser, opts Options) (*Administrator, error) {
	start, err := utils.ParseAbsolute(opts.StartURL)
	if err != nil {
		return nil, errors.Errorf("%w: %v", ErrInvalidStartURL, err)
	}
	base := opts.BaseURL
	if base == "" {
		base = start.String()
	}
	if _, err := utils.ParseAbsolute(base); err != nil {
		return nil, errors.Wrap(err, "invalid base URL")
	}

	if opts.MinDelay < 0 {
		opts.MinDelay = 0
	}
	if opts.MaxDelay < opts.MinDelay {
		opts.MaxDelay = opts.MinDelay
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.RetryBaseDelay <= 0 {
		opts.RetryBaseDelay = DefaultRetryBaseDelay
	}
	if opts.RetryMaxDelay < opts.RetryBaseDelay {
		opts.RetryMaxDelay = max(DefaultRetryMaxDelay, opts.RetryBaseDelay)
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}

	return &Administrator{
		fetcher:        f,
		parser:         p,
		robots:         opts.Robots,
		metrics:        opts.Metrics,
		onPage:         opts.OnPage,
		startURL:       start.String(),
		baseURL:        base,
		minDelay:       opts.MinDelay,
		maxDelay:       opts.MaxDelay,
		maxAttempts:    opts.MaxAttempts,
		retryBaseDelay: opts.RetryBaseDelay,
		retryMaxDelay:  opts.RetryMaxDelay,
		sleep:          sleepContext,
		jitter:         randomDelay,
	}, nil
}

// Run crawls from the start URL until the last page, a retry cap, a robots
// refusal or cancellation. The result is returned on every path; on error it
// holds what was counted before the crawl stopped.
func (a *Administrator) Run(ctx context.Context) (types.CrawlResult, error) {
	domain, _ := utils.GetDomainFromURL(a.startURL)
	ctx = logger.WithFields(ctx, zap.String("domain", domain))

	counts := aggregator.New()
	visited := bloomfilter.NewVisitedFilter(bloomfilter.DefaultCapacity, bloomfilter.DefaultFPRate)
	result := types.CrawlResult{StartedAt: time.Now()}
	done := func(err error) (types.CrawlResult, error) {
		result.Counts = counts
		result.FinalState = types.StateDone
		result.FinishedAt = time.Now()
		return result, err
	}

	minDelay, maxDelay := a.minDelay, a.maxDelay
	cursor := a.startURL
	visited.CheckAndMark(cursor)
	var page types.Page
	state := types.StateFetching

	logger.Info(ctx, "crawl started", zap.String("url", cursor))
	for state != types.StateDone {
		switch state {
		case types.StateFetching:
			result.LastURL = cursor
			if a.robots != nil {
				crawlDelay, err := a.robots.Check(ctx, cursor)
				if err != nil {
					return done(errors.Wrapf(err, "robots check for %s", cursor))
				}
				if crawlDelay > minDelay {
					minDelay, maxDelay = crawlDelay, max(maxDelay, crawlDelay)
				}
			}

			var err error
			page, err = a.fetchPage(ctx, cursor)
			result.Attempts += page.Attempts
			if page.Attempts > 1 {
				result.Retries += page.Attempts - 1
			}
			if err != nil {
				if ctx.Err() != nil {
					return done(errors.Wrap(ctx.Err(), "crawl interrupted"))
				}
				logger.Error(ctx, "giving up on page", zap.String("url", cursor), zap.Int("attempts", page.Attempts), zap.Error(err))
				return done(err)
			}

			counts.Record(page.Entries...)
			result.Pages++
			result.Entries += len(page.Entries)
			a.observePage(ctx, page, result, counts)
			state = types.StateAdvancing

		case types.StateAdvancing:
			if !page.HasNext {
				state = types.StateDone
				break
			}
			next, err := utils.JoinURL(a.baseURL, page.NextLink)
			if err != nil {
				logger.Warn(ctx, "unusable next page link, stopping", zap.String("href", page.NextLink), zap.Error(err))
				state = types.StateDone
				break
			}
			if visited.CheckAndMark(next) {
				logger.Warn(ctx, "next page already visited, stopping", zap.String("url", next))
				state = types.StateDone
				break
			}

			delay := a.jitter(minDelay, maxDelay)
			logger.Debug(ctx, "waiting before next request", zap.Duration("delay", delay))
			if err := a.sleep(ctx, delay); err != nil {
				return done(errors.Wrap(err, "crawl interrupted"))
			}
			cursor = next
			state = types.StateFetching
		}
	}

	if counts.Total() == 0 {
		// the next-page label or entry selector may no longer match the site
		logger.Warn(ctx, "crawl finished without any entries", zap.Int("pages", result.Pages))
	}
	logger.Info(ctx, "crawl finished",
		zap.Int("pages", result.Pages),
		zap.Int("entries", result.Entries),
		zap.Int("letters", len(counts)),
		zap.Int("retries", result.Retries))
	return done(nil)
}

// fetchPage fetches and parses one cursor, retrying with exponential backoff
// up to maxAttempts. A parse timeout counts as a failed attempt.
func (a *Administrator) fetchPage(ctx context.Context, url string) (types.Page, error) {
	page := types.Page{URL: url}
	b := a.newBackOff()

	for {
		if err := ctx.Err(); err != nil {
			return page, err
		}
		page.Attempts++

		start := time.Now()
		content, err := a.fetcher.Fetch(ctx, url)
		a.metrics.FetchDuration.Observe(time.Since(start).Seconds())
		if err == nil {
			var doc *goquery.Document
			doc, err = a.parser.Parse(content)
			if err == nil {
				page.Entries = a.parser.ExtractEntries(doc)
				page.NextLink, page.HasNext = a.parser.ExtractNextPageLink(doc)
				page.LoadTime = time.Since(start)
				return page, nil
			}
		}
		if ctx.Err() != nil {
			return page, ctx.Err()
		}
		a.metrics.FetchFailures.Inc()

		wait := b.NextBackOff()
		if page.Attempts >= a.maxAttempts || wait == backoff.Stop {
			return page, &CrawlAbortedError{URL: url, Attempts: page.Attempts, Err: err}
		}
		logger.Warn(ctx, "page attempt failed, retrying",
			zap.String("url", url),
			zap.Int("attempt", page.Attempts),
			zap.Int("max_attempts", a.maxAttempts),
			zap.Duration("backoff", wait),
			zap.Error(err))
		if err := a.sleep(ctx, wait); err != nil {
			return page, err
		}
	}
}

func (a *Administrator) observePage(ctx context.Context, page types.Page, result types.CrawlResult, counts aggregator.LetterCount) {
	a.metrics.PagesFetched.Inc()
	a.metrics.EntriesRecorded.Add(float64(len(page.Entries)))
	a.metrics.Letters.Set(float64(len(counts)))

	logger.Info(ctx, "page crawled",
		zap.Int("page", result.Pages),
		zap.String("url", page.URL),
		zap.Int("entries", len(page.Entries)),
		zap.Int("total_entries", result.Entries),
		zap.Bool("has_next", page.HasNext),
		zap.Duration("load_time", page.LoadTime))

	if a.onPage != nil {
		a.onPage(types.PageReport{
			Number:       result.Pages,
			URL:          page.URL,
			Entries:      len(page.Entries),
			TotalEntries: result.Entries,
			Letters:      len(counts),
			Attempts:     page.Attempts,
		})
	}
}
