package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"categorycrawler/internal/pkg/useragent"
)

func newTestFetcher(t *testing.T, opts Options) *HTTPFetcher {
	t.Helper()
	if opts.UserAgent == nil {
		opts.UserAgent = useragent.Static("test-agent")
	}
	f, err := New(opts)
	if err != nil {
		t.Fatalf("New returned unexpected error: %v", err)
	}
	t.Cleanup(f.Close)
	return f
}

// Fetch using an httptest server.
func TestFetchSuccess(t *testing.T) {
	const responseBody = "<html><body>Hello, World!</body></html>"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(responseBody))
	}))
	defer server.Close()

	f := newTestFetcher(t, Options{})
	content, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch returned unexpected error: %v", err)
	}
	if content != responseBody {
		t.Errorf("expected %q, got %q", responseBody, content)
	}
}

// Every request carries a user agent drawn fresh from the source.
func TestFetchFreshUserAgentPerRequest(t *testing.T) {
	var mutex sync.Mutex
	var seen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mutex.Lock()
		seen = append(seen, r.Header.Get("User-Agent"))
		mutex.Unlock()
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	var calls atomic.Int32
	source := func() string {
		return fmt.Sprintf("agent-%d", calls.Add(1))
	}
	f := newTestFetcher(t, Options{UserAgent: source, AcceptLanguage: "ru"})

	for i := 0; i < 3; i++ {
		if _, err := f.Fetch(context.Background(), server.URL); err != nil {
			t.Fatalf("Fetch returned unexpected error: %v", err)
		}
	}

	want := []string{"agent-1", "agent-2", "agent-3"}
	if strings.Join(seen, ",") != strings.Join(want, ",") {
		t.Errorf("expected user agents %v, got %v", want, seen)
	}
}

// Fetching with non-2xx responses.
func TestFetchNon2xx(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusTooManyRequests, http.StatusBadGateway} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
			}))
			defer server.Close()

			f := newTestFetcher(t, Options{})
			content, err := f.Fetch(context.Background(), server.URL)
			if err == nil {
				t.Fatal("expected an error for non-2xx status, got nil")
			}
			if content != "" {
				t.Errorf("expected empty content, got %q", content)
			}
			if !errors.Is(err, ErrFetchFailed) {
				t.Errorf("expected error to match ErrFetchFailed, got %v", err)
			}
			var statusErr *StatusError
			if !errors.As(err, &statusErr) || statusErr.StatusCode != status {
				t.Errorf("expected StatusError with code %d, got %v", status, err)
			}
		})
	}
}

// Transport errors surface as ErrFetchFailed.
func TestFetchConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	f := newTestFetcher(t, Options{Timeout: time.Second})
	_, err := f.Fetch(context.Background(), url)
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	f := newTestFetcher(t, Options{Timeout: 50 * time.Millisecond})
	_, err := f.Fetch(context.Background(), server.URL)
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed on timeout, got %v", err)
	}
}

func TestFetchMalformedURL(t *testing.T) {
	f := newTestFetcher(t, Options{})
	_, err := f.Fetch(context.Background(), "http://[::1")
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
}

// The response should be truncated to MaxBodySize bytes.
func TestFetchTruncated(t *testing.T) {
	const maxBodySize = 1024
	longContent := strings.Repeat("a", maxBodySize+100)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(longContent))
	}))
	defer server.Close()

	f := newTestFetcher(t, Options{MaxBodySize: maxBodySize})
	content, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(content) != maxBodySize {
		t.Errorf("expected content length %d, got %d", maxBodySize, len(content))
	}
}

func TestNewRequiresUserAgent(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Error("expected an error without a user agent source")
	}
}
