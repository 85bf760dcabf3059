package sink

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"

	"categorycrawler/internal/pkg/aggregator"
)

// Summary is the human-readable view of a tally.
type Summary struct {
	Title  string
	Counts aggregator.LetterCount
	// Notes are rendered as a bullet list under the table (pages, duration, ...).
	Notes []string
}

// WriteMarkdown renders the summary as a markdown document with one table row
// per letter and its share of all entries.
func WriteMarkdown(w io.Writer, s Summary) error {
	md := markdown.NewMarkdown(w)
	md.H1(s.Title)
	md.PlainText("")

	total := s.Counts.Total()
	if total == 0 {
		md.Note("No entries were recorded.")
	} else {
		rows := make([][]string, 0, len(s.Counts)+1)
		for _, letter := range s.Counts.Keys() {
			n := s.Counts[letter]
			rows = append(rows, []string{letter, strconv.Itoa(n), fmt.Sprintf("%.1f%%", 100*float64(n)/float64(total))})
		}
		rows = append(rows, []string{"Σ", strconv.Itoa(total), "100.0%"})

		md.Table(markdown.TableSet{
			Header: []string{"Letter", "Count", "Share"},
			Rows:   rows,
		})
	}

	if len(s.Notes) > 0 {
		md.PlainText("")
		md.BulletList(s.Notes...)
	}
	return md.Build()
}
