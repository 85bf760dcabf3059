package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"categorycrawler/internal/pkg/logger"
	"categorycrawler/internal/pkg/useragent"
)

//go:generate mockgen -package mockfetcher -source=fetcher.go -destination=mock/mockfetcher.go Fetcher

// Fetcher retrieves the HTML text of a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// ErrFetchFailed wraps every transport failure returned by Fetch.
var ErrFetchFailed = errors.New("fetch failed")

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("received non-2xx response code %d from %s", e.StatusCode, e.URL)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrFetchFailed
}

const (
	DefaultTimeout        = 15 * time.Second
	DefaultMaxBodySize    = 4 * 1024 * 1024 // 4 MB, large category pages run ~500 KB
	DefaultAcceptLanguage = "ru,en;q=0.8"
)

type Options struct {
	Timeout        time.Duration
	MaxBodySize    int64
	AcceptLanguage string
	UserAgent      useragent.Source
	// Transport overrides the tuned default transport (tests).
	Transport http.RoundTripper
}

// HTTPFetcher issues one GET per Fetch with a fresh random user agent.
// Failures are logged here and returned as errors wrapping ErrFetchFailed;
// retries belong to the caller.
type HTTPFetcher struct {
	client         *http.Client
	userAgent      useragent.Source
	maxBodySize    int64
	acceptLanguage string
}

func New(opts Options) (*HTTPFetcher, error) {
	if opts.UserAgent == nil {
		return nil, errors.New("fetcher: user agent source is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = DefaultMaxBodySize
	}
	if opts.AcceptLanguage == "" {
		opts.AcceptLanguage = DefaultAcceptLanguage
	}

	transport := opts.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   5 * time.Second,
			ResponseHeaderTimeout: 10 * time.Second,
			IdleConnTimeout:       30 * time.Second,
			MaxIdleConns:          4,
			MaxIdleConnsPerHost:   2,
		}
	}

	return &HTTPFetcher{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		userAgent:      opts.UserAgent,
		maxBodySize:    opts.MaxBodySize,
		acceptLanguage: opts.AcceptLanguage,
	}, nil
}

// Client exposes the underlying client so the robots guard shares connections.
func (f *HTTPFetcher) Client() *http.Client {
	return f.client
}

// Fetch returns the body of url as text.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	content, err := f.fetchContent(ctx, url)
	if err != nil {
		logger.Warn(ctx, "HTTP fetch failed", zap.String("url", url), zap.Error(err))
		return "", err
	}
	return content, nil
}

func (f *HTTPFetcher) fetchContent(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: failed to create HTTP request: %v", ErrFetchFailed, err)
	}
	req.Header.Set("User-Agent", f.userAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", f.acceptLanguage)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		return "", &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	limitedReader := io.LimitReader(resp.Body, f.maxBodySize)
	bodyBytes, err := io.ReadAll(limitedReader)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response body: %w", ErrFetchFailed, err)
	}

	if int64(len(bodyBytes)) == f.maxBodySize {
		logger.Warn(ctx, "response truncated", zap.String("url", url), zap.Int64("max_body_size", f.maxBodySize))
	}

	return string(bodyBytes), nil
}

// Close releases idle keep-alive connections.
func (f *HTTPFetcher) Close() {
	f.client.CloseIdleConnections()
}
