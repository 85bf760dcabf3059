// Package aggregator tallies entry titles by their first letter.
package aggregator

import (
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// LetterCount maps an upper-cased first letter to the number of titles
// starting with it. It is owned by a single crawl and not safe for concurrent use.
type LetterCount map[string]int

func New() LetterCount {
	return make(LetterCount)
}

// Letter returns the key a title is counted under: the first character of the
// trimmed, NFC-normalised title, upper-cased. Blank titles have no key.
func Letter(title string) (string, bool) {
	title = norm.NFC.String(strings.TrimSpace(title))
	if title == "" {
		return "", false
	}
	first, size := utf8.DecodeRuneInString(title)
	if first == utf8.RuneError && size <= 1 {
		// undecodable leading bytes share one key so the tally stays valid UTF-8
		return string(utf8.RuneError), true
	}
	// a fresh Caser per call: Casers are stateful and not safe for concurrent use
	return cases.Upper(language.Und).String(string(first)), true
}

// Record counts every non-blank title. Recording the same titles twice counts
// them twice.
func (c LetterCount) Record(titles ...string) {
	for _, title := range titles {
		if letter, ok := Letter(title); ok {
			c[letter]++
		}
	}
}

// Total is the sum of all counts.
func (c LetterCount) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Keys returns the letters in ascending byte order.
func (c LetterCount) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (c LetterCount) Merge(other LetterCount) {
	for k, n := range other {
		c[k] += n
	}
}

func (c LetterCount) Clone() LetterCount {
	out := make(LetterCount, len(c))
	out.Merge(c)
	return out
}
