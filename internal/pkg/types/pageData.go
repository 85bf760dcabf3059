package types

import "time"

// State of the crawl state machine.
type State int

const (
    StateFetching State = iota
    StateAdvancing
    StateDone
)

func (s State) String() string {
    switch s {
    case StateFetching:
        return "FETCHING"
    case StateAdvancing:
        return "ADVANCING"
    case StateDone:
        return "DONE"
    }
    return "UNKNOWN"
}

// Data collected from one category listing page
type Page struct {
    URL      string        `json:"url"`
    Entries  []string      `json:"entries"`
    NextLink string        `json:"next_link"`
    HasNext  bool          `json:"has_next"`
    Attempts int           `json:"attempts"`
    LoadTime time.Duration `json:"load_time"`
}

// Emitted after every page so callers can report progress
type PageReport struct {
    Number       int    `json:"number"`
    URL          string `json:"url"`
    Entries      int    `json:"entries"`
    TotalEntries int    `json:"total_entries"`
    Letters      int    `json:"letters"`
    Attempts     int    `json:"attempts"`
}

// Outcome of a whole crawl. Counts is keyed by upper-cased first letter.
type CrawlResult struct {
    Counts     map[string]int `json:"counts"`
    Pages      int            `json:"pages"`
    Entries    int            `json:"entries"`
    Attempts   int            `json:"attempts"`
    Retries    int            `json:"retries"`
    FinalState State          `json:"final_state"`
    LastURL    string         `json:"last_url"`
    StartedAt  time.Time      `json:"started_at"`
    FinishedAt time.Time      `json:"finished_at"`
}

func (r CrawlResult) Duration() time.Duration {
    return r.FinishedAt.Sub(r.StartedAt)
}
