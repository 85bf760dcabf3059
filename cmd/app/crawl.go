package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"categorycrawler/internal/pkg/administrator"
	"categorycrawler/internal/pkg/config"
	"categorycrawler/internal/pkg/extractor"
	"categorycrawler/internal/pkg/fetcher"
	"categorycrawler/internal/pkg/logger"
	"categorycrawler/internal/pkg/metrics"
	"categorycrawler/internal/pkg/sink"
	"categorycrawler/internal/pkg/types"
	"categorycrawler/internal/pkg/useragent"
	"categorycrawler/internal/pkg/useragent/fakeua"
	"categorycrawler/internal/pkg/utils"
)

const (
	userAgentWeighted = "weighted"
	userAgentFake     = "fake"
)

var errUnknownUserAgentSource = errors.New("unknown user agent source")

// crawlFlags override the loaded config when set on the command line.
type crawlFlags struct {
	startURL      string
	output        string
	maxAttempts   int
	minDelay      time.Duration
	maxDelay      time.Duration
	userAgent     string
	respectRobots bool
	summary       string
	progress      bool
	metricsFile   string
}

func addCrawlFlags(fs *pflag.FlagSet, f *crawlFlags) {
	fs.StringVar(&f.startURL, "start-url", "", "First category page (scheme defaults to https)")
	fs.StringVarP(&f.output, "output", "o", sink.DefaultPath, "CSV output path, overwritten on every run")
	fs.IntVar(&f.maxAttempts, "max-attempts", administrator.DefaultMaxAttempts, "Consecutive fetch attempts per page before aborting")
	fs.DurationVar(&f.minDelay, "min-delay", administrator.DefaultMinDelay, "Minimum pause between pages")
	fs.DurationVar(&f.maxDelay, "max-delay", administrator.DefaultMaxDelay, "Maximum pause between pages")
	fs.StringVar(&f.userAgent, "user-agent", "", "Fixed User-Agent instead of a random one per request")
	fs.BoolVar(&f.respectRobots, "respect-robots", false, "Consult robots.txt before every page and stop when it disallows one")
	fs.StringVar(&f.summary, "summary", "", "Also write a Markdown summary to this path")
	fs.BoolVar(&f.progress, "progress", false, "Show a progress spinner on stderr")
	fs.StringVar(&f.metricsFile, "metrics-file", "", "Write Prometheus metrics in textfile format to this path")
}

func crawlCommand(cfg *config.Config) *cobra.Command {
	flags := &crawlFlags{}
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawls the category and writes per-letter counts to CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCrawl(cmd, cfg, flags)
		},
	}
	addCrawlFlags(cmd.Flags(), flags)

	return cmd
}

// applyFlags copies explicitly set flags over the loaded config.
func applyFlags(fs *pflag.FlagSet, cfg *config.Config, f *crawlFlags) error {
	if fs.Changed("start-url") {
		fullURL, err := utils.BuildFullUrl(f.startURL)
		if err != nil {
			return errors.Errorf("%w: %v", administrator.ErrInvalidStartURL, err)
		}
		cfg.Crawl.StartURL = fullURL
	}
	if fs.Changed("output") {
		cfg.Output.Path = f.output
	}
	if fs.Changed("max-attempts") {
		cfg.Crawl.MaxAttempts = f.maxAttempts
	}
	if fs.Changed("min-delay") {
		cfg.Crawl.MinDelay = f.minDelay
	}
	if fs.Changed("max-delay") {
		cfg.Crawl.MaxDelay = f.maxDelay
	}
	if fs.Changed("user-agent") {
		cfg.HTTP.UserAgent = f.userAgent
	}
	if fs.Changed("respect-robots") {
		cfg.Crawl.RespectRobots = f.respectRobots
	}
	if fs.Changed("metrics-file") {
		cfg.Output.MetricsFile = f.metricsFile
	}

	return cfg.Validate()
}

func startURL(cfg *config.Config) (string, error) {
	if cfg.Crawl.StartURL != "" {
		return cfg.Crawl.StartURL, nil
	}
	return utils.JoinURL(cfg.Crawl.BaseURL, cfg.Crawl.CategoryPath)
}

func userAgentSource(cfg *config.Config) (useragent.Source, error) {
	if cfg.HTTP.UserAgent != "" {
		return useragent.Static(cfg.HTTP.UserAgent), nil
	}
	switch strings.ToLower(cfg.HTTP.UserAgentSource) {
	case "", userAgentWeighted:
		w, err := useragent.NewWeighted()
		if err != nil {
			return nil, err
		}
		return w.Source(), nil
	case userAgentFake:
		return fakeua.Source(), nil
	}
	return nil, errors.Wrap(errUnknownUserAgentSource, cfg.HTTP.UserAgentSource)
}

func runCrawl(cmd *cobra.Command, cfg *config.Config, f *crawlFlags) error {
	if err := applyFlags(cmd.Flags(), cfg, f); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start, err := startURL(cfg)
	if err != nil {
		return errors.Errorf("%w: %v", administrator.ErrInvalidStartURL, err)
	}

	ua, err := userAgentSource(cfg)
	if err != nil {
		return errors.Wrap(err, "user agent")
	}

	httpFetcher, err := fetcher.New(fetcher.Options{
		Timeout:        cfg.HTTP.Timeout,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		AcceptLanguage: cfg.HTTP.AcceptLanguage,
		UserAgent:      ua,
	})
	if err != nil {
		return errors.Wrap(err, "create fetcher")
	}
	defer httpFetcher.Close()

	parser, err := extractor.New(extractor.Options{
		EntrySelector: cfg.Crawl.EntrySelector,
		CategoryTitle: cfg.Crawl.CategoryTitle,
		NextPageLabel: cfg.Crawl.NextPageLabel,
		ParseTimeout:  cfg.Crawl.ParseTimeout,
	})
	if err != nil {
		return errors.Wrap(err, "create extractor")
	}

	m := metrics.New()
	progress := newProgress(cmd.ErrOrStderr(), f.progress)

	opts := administrator.Options{
		StartURL:       start,
		BaseURL:        cfg.Crawl.BaseURL,
		MinDelay:       cfg.Crawl.MinDelay,
		MaxDelay:       cfg.Crawl.MaxDelay,
		MaxAttempts:    cfg.Crawl.MaxAttempts,
		RetryBaseDelay: cfg.Crawl.RetryBaseDelay,
		RetryMaxDelay:  cfg.Crawl.RetryMaxDelay,
		Metrics:        m,
		OnPage:         progress.Update,
	}
	if cfg.Crawl.StartURL != "" {
		// next-page links are site-relative, resolve them against the start page
		opts.BaseURL = start
	}
	if cfg.Crawl.RespectRobots {
		opts.Robots = fetcher.NewRobotsGuard(httpFetcher.Client(), ua)
	}

	admin, err := administrator.NewAdministrator(httpFetcher, parser, opts)
	if err != nil {
		return err
	}

	progress.Start()
	result, crawlErr := admin.Run(ctx)
	progress.Stop()

	// partial counts are still worth keeping after an abort
	if crawlErr == nil || result.Pages > 0 {
		// a failed save is logged by the sink and does not change the exit code
		_ = sink.SaveCSV(ctx, cfg.Output.Path, result.Counts)
	}
	if f.summary != "" {
		writeSummary(ctx, f.summary, result, crawlErr)
	}
	if cfg.Output.MetricsFile != "" {
		if err := m.WriteTextfile(cfg.Output.MetricsFile); err != nil {
			logger.Error(ctx, "could not write metrics", zap.Error(err))
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d pages, %d entries, %d letters in %s\n",
		result.Pages, result.Entries, len(result.Counts), result.Duration().Round(time.Millisecond))

	return crawlErr
}

func writeSummary(ctx context.Context, path string, result types.CrawlResult, crawlErr error) {
	notes := []string{
		fmt.Sprintf("Pages: %d", result.Pages),
		fmt.Sprintf("Entries: %d", result.Entries),
		fmt.Sprintf("Retries: %d", result.Retries),
		fmt.Sprintf("Duration: %s", result.Duration().Round(time.Millisecond)),
		fmt.Sprintf("Last page: %s", result.LastURL),
	}
	if crawlErr != nil {
		notes = append(notes, fmt.Sprintf("Stopped early: %v", crawlErr))
	}

	var buf bytes.Buffer
	err := sink.WriteMarkdown(&buf, sink.Summary{
		Title:  "Entries by first letter",
		Counts: result.Counts,
		Notes:  notes,
	})
	if err == nil {
		err = os.WriteFile(path, buf.Bytes(), 0o644)
	}
	if err != nil {
		logger.Error(ctx, "could not write summary", zap.String("path", path), zap.Error(err))
	}
}
