package fetcher

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"go.uber.org/zap"

	"categorycrawler/internal/pkg/logger"
	"categorycrawler/internal/pkg/useragent"
)

var ErrCrawlingDisallowed = errors.New("crawling disallowed by robots.txt")

const maxCrawlDelay = 5 * time.Second

type robotsData struct {
	group      *robotstxt.Group
	crawlDelay time.Duration
}

// RobotsGuard answers whether a URL may be crawled, fetching robots.txt once
// per host. An unreachable or failing robots.txt allows everything.
type RobotsGuard struct {
	client    *http.Client
	userAgent useragent.Source

	mutex sync.Mutex
	cache map[string]*robotsData
}

func NewRobotsGuard(client *http.Client, ua useragent.Source) *RobotsGuard {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &RobotsGuard{
		client:    client,
		userAgent: ua,
		cache:     make(map[string]*robotsData),
	}
}

// Check returns ErrCrawlingDisallowed when targetURL is excluded, otherwise
// the Crawl-delay requested for its host (capped at 5s, zero when absent).
func (g *RobotsGuard) Check(ctx context.Context, targetURL string) (time.Duration, error) {
	parsedURL, err := url.Parse(targetURL)
	if err != nil {
		return 0, err
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	data, exists := g.cache[parsedURL.Host]
	if !exists {
		data = g.fetchRobotsData(ctx, parsedURL)
		g.cache[parsedURL.Host] = data
	}

	if data.group != nil && !data.group.Test(pathWithQuery(parsedURL)) {
		return 0, ErrCrawlingDisallowed
	}
	return data.crawlDelay, nil
}

func (g *RobotsGuard) fetchRobotsData(ctx context.Context, parsedURL *url.URL) *robotsData {
	robotsURL := parsedURL.Scheme + "://" + parsedURL.Host + "/robots.txt"
	allowAll := &robotsData{}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return allowAll
	}
	agent := g.userAgent()
	req.Header.Set("User-Agent", agent)

	resp, err := g.client.Do(req)
	if err != nil {
		logger.Debug(ctx, "robots.txt unreachable, allowing all", zap.String("url", robotsURL), zap.Error(err))
		return allowAll
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return allowAll
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return allowAll
	}
	robots, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		logger.Debug(ctx, "robots.txt unparsable, allowing all", zap.String("url", robotsURL), zap.Error(err))
		return allowAll
	}

	group := robots.FindGroup(agent)
	data := &robotsData{group: group}
	if group != nil && group.CrawlDelay > 0 {
		data.crawlDelay = min(group.CrawlDelay, maxCrawlDelay)
	}
	logger.Debug(ctx, "robots.txt loaded", zap.String("host", parsedURL.Host), zap.Duration("crawl_delay", data.crawlDelay))
	return data
}

func pathWithQuery(u *url.URL) string {
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return path
}
