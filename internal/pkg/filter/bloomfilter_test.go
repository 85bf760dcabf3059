package bloomfilter

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsVisited_ReturnsFalseForNewFilter(t *testing.T) {
	f := NewVisitedFilter(1000, 0.01)
	assert.False(t, f.IsVisited("https://ru.wikipedia.org/wiki/Category"))
}

func TestCheckAndMark_FirstVisitThenRepeat(t *testing.T) {
	f := NewVisitedFilter(1000, 0.001)

	assert.False(t, f.CheckAndMark("page-1"))
	assert.True(t, f.IsVisited("page-1"))
	assert.True(t, f.CheckAndMark("page-1"))
	assert.False(t, f.CheckAndMark("page-2"))
	assert.Equal(t, 2, f.Count())
}

func TestNewVisitedFilter_DefaultsForBadArguments(t *testing.T) {
	f := NewVisitedFilter(0, 2)
	assert.False(t, f.CheckAndMark("x"))
	assert.True(t, f.IsVisited("x"))
}

func TestNoFalsePositivesAtCrawlScale(t *testing.T) {
	f := NewVisitedFilter(DefaultCapacity, DefaultFPRate)
	for i := 0; i < 500; i++ {
		assert.False(t, f.CheckAndMark(fmt.Sprintf("https://ru.wikipedia.org/w/index.php?pagefrom=%d", i)))
	}
}

func TestConcurrentCheckAndMark(t *testing.T) {
	f := NewVisitedFilter(1000, 0.001)
	var wg sync.WaitGroup
	firsts := make(chan bool, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			firsts <- !f.CheckAndMark("same-url")
		}()
	}
	wg.Wait()
	close(firsts)

	first := 0
	for ok := range firsts {
		if ok {
			first++
		}
	}
	assert.Equal(t, 1, first)
}
