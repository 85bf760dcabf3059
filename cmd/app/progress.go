package main

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"

	"categorycrawler/internal/pkg/types"
)

// progress renders a spinner with the running totals. A disabled progress
// accepts every call and draws nothing.
type progress struct {
	spinner *spinner.Spinner
}

func newProgress(w io.Writer, enabled bool) *progress {
	if !enabled {
		return &progress{}
	}
	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " starting crawl"
	return &progress{spinner: s}
}

func (p *progress) Start() {
	if p.spinner != nil {
		p.spinner.Start()
	}
}

func (p *progress) Stop() {
	if p.spinner != nil {
		p.spinner.Stop()
	}
}

// Update is the administrator's page hook.
func (p *progress) Update(r types.PageReport) {
	if p.spinner == nil {
		return
	}
	p.spinner.Lock()
	p.spinner.Suffix = fmt.Sprintf(" page %d: %d entries, %d letters", r.Number, r.TotalEntries, r.Letters)
	p.spinner.Unlock()
}
