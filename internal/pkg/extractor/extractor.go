package extractor

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

const (
	DefaultEntrySelector = "#mw-pages div.mw-category-group li a"
	DefaultCategoryTitle = "Категория:Животные по алфавиту"
	DefaultNextPageLabel = "Следующая страница"
	DefaultParseTimeout  = 5 * time.Second
)

var ErrParseTimeout = errors.New("HTML parsing timed out")

type Options struct {
	EntrySelector string
	// CategoryTitle and NextPageLabel identify the next-page anchor. Both are
	// compared exactly; a relabelled link ends pagination.
	CategoryTitle string
	NextPageLabel string
	ParseTimeout  time.Duration
}

// Extractor pulls entry titles and the next-page link out of a category page.
type Extractor struct {
	entries       cascadia.Selector
	categoryTitle string
	nextPageLabel string
	parseTimeout  time.Duration
}

func New(opts Options) (*Extractor, error) {
	if opts.EntrySelector == "" {
		opts.EntrySelector = DefaultEntrySelector
	}
	if opts.CategoryTitle == "" {
		opts.CategoryTitle = DefaultCategoryTitle
	}
	if opts.NextPageLabel == "" {
		opts.NextPageLabel = DefaultNextPageLabel
	}
	if opts.ParseTimeout <= 0 {
		opts.ParseTimeout = DefaultParseTimeout
	}

	selector, err := cascadia.Compile(opts.EntrySelector)
	if err != nil {
		return nil, fmt.Errorf("invalid entry selector %q: %w", opts.EntrySelector, err)
	}

	return &Extractor{
		entries:       selector,
		categoryTitle: opts.CategoryTitle,
		nextPageLabel: opts.NextPageLabel,
		parseTimeout:  opts.ParseTimeout,
	}, nil
}

// Parse builds a queryable document. Malformed markup is not an error; only a
// parse exceeding the timeout is.
func (e *Extractor) Parse(content string) (*goquery.Document, error) {
	root, err := parseHTMLWithTimeout(content, e.parseTimeout)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromNode(root), nil
}

// Entry titles in document order, trimmed, empties dropped. Not deduplicated.
func (e *Extractor) ExtractEntries(doc *goquery.Document) []string {
	var titles []string
	doc.FindMatcher(e.entries).Each(func(_ int, s *goquery.Selection) {
		if title := strings.TrimSpace(s.Text()); title != "" {
			titles = append(titles, title)
		}
	})
	return titles
}

// Returns the href of the next-page anchor, or false on the last page.
func (e *Extractor) ExtractNextPageLink(doc *goquery.Document) (string, bool) {
	var href string
	var found bool
	doc.Find("a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		title, ok := s.Attr("title")
		if !ok || title != e.categoryTitle {
			return true
		}
		if strings.TrimSpace(s.Text()) != e.nextPageLabel {
			return true
		}
		link, ok := s.Attr("href")
		if !ok || strings.TrimSpace(link) == "" {
			return true
		}
		href, found = link, true
		return false
	})
	return href, found
}

// Tries to parse HTML, returns an error if parsing takes too long.
func parseHTMLWithTimeout(content string, maxDuration time.Duration) (*html.Node, error) {
	type result struct {
		doc *html.Node
		err error
	}
	done := make(chan result, 1)

	go func() {
		doc, err := html.Parse(strings.NewReader(content))
		done <- result{doc, err}
	}()

	timer := time.NewTimer(maxDuration)
	defer timer.Stop()

	select {
	case r := <-done:
		return r.doc, r.err
	case <-timer.C:
		return nil, fmt.Errorf("%w after %v", ErrParseTimeout, maxDuration)
	}
}
