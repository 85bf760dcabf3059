// Package useragent produces browser identifiers for outgoing requests.
package useragent

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
)

//go:embed data/userAgents.json
var embeddedUserAgents []byte

// Source returns a user agent string. Implementations must be safe for
// concurrent use and should return a fresh random choice on every call.
type Source func() string

type UserAgentData struct {
	UserAgent string  `json:"ua"`
	Pct       float64 `json:"pct"`
}

var ErrNoUserAgents = errors.New("no user agents loaded")

// Weighted picks user agents proportionally to their market share.
type Weighted struct {
	data  []UserAgentData
	total float64
}

// NewWeighted loads the embedded user agent list.
func NewWeighted() (*Weighted, error) {
	return ParseWeighted(embeddedUserAgents)
}

// ParseWeighted loads a JSON list of {"ua": ..., "pct": ...} entries.
// Entries with an empty ua or non-positive pct are skipped.
func ParseWeighted(raw []byte) (*Weighted, error) {
	var data []UserAgentData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("error decoding user agents JSON: %w", err)
	}

	w := &Weighted{}
	for _, d := range data {
		if d.UserAgent == "" || d.Pct <= 0 {
			continue
		}
		w.data = append(w.data, d)
		w.total += d.Pct
	}
	if len(w.data) == 0 {
		return nil, ErrNoUserAgents
	}
	return w, nil
}

func (w *Weighted) Len() int {
	return len(w.data)
}

// Random returns one user agent, weighted by Pct.
func (w *Weighted) Random() string {
	pick := rand.Float64() * w.total
	for _, d := range w.data {
		pick -= d.Pct
		if pick < 0 {
			return d.UserAgent
		}
	}
	return w.data[len(w.data)-1].UserAgent
}

// Source adapts w to the Source type.
func (w *Weighted) Source() Source {
	return w.Random
}

// Static always returns ua.
func Static(ua string) Source {
	return func() string { return ua }
}
