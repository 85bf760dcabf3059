package bloomfilter

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

const (
	// DefaultCapacity comfortably covers the few hundred pages of a large category.
	DefaultCapacity = 10000
	DefaultFPRate   = 1e-6
)

// Remembers which cursors a crawl has already visited, so that a pagination
// loop (a next-page link pointing back to an earlier page) ends the crawl.
// Lives only for one crawl; nothing is persisted.
type VisitedFilter struct {
	filter *bloom.BloomFilter
	mutex  sync.Mutex
	count  int
}

func NewVisitedFilter(capacity int, fpRate float64) *VisitedFilter {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if fpRate <= 0 || fpRate >= 1 {
		fpRate = DefaultFPRate
	}
	return &VisitedFilter{
		filter: bloom.NewWithEstimates(uint(capacity), fpRate),
	}
}

// Checks if a URL has been visited.
func (f *VisitedFilter) IsVisited(url string) bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.filter.TestString(url)
}

// Marks url as visited and reports whether it already was.
func (f *VisitedFilter) CheckAndMark(url string) bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.filter.TestString(url) {
		return true
	}
	f.filter.AddString(url)
	f.count++
	return false
}

// Number of distinct URLs marked.
func (f *VisitedFilter) Count() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.count
}
