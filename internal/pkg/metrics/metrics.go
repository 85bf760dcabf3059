// Package metrics holds the crawl counters. They live in a private registry and
// are exported as a Prometheus textfile at the end of a run, since the crawler
// is a batch job with no HTTP surface to scrape.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultBuckets are latency buckets in seconds for page fetches.
var DefaultBuckets = []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15} //nolint: gochecknoglobals

type Metrics struct {
	registry *prometheus.Registry

	PagesFetched    prometheus.Counter
	FetchFailures   prometheus.Counter
	EntriesRecorded prometheus.Counter
	FetchDuration   prometheus.Histogram
	Letters         prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		PagesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crawler_pages_fetched_total",
			Help: "Category pages fetched and parsed successfully.",
		}),
		FetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crawler_fetch_failures_total",
			Help: "Failed fetch attempts, including retried ones.",
		}),
		EntriesRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crawler_entries_recorded_total",
			Help: "Entry titles fed to the aggregator.",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "crawler_fetch_duration_seconds",
			Help:    "Duration of single fetch attempts.",
			Buckets: DefaultBuckets,
		}),
		Letters: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "crawler_letters",
			Help: "Distinct first letters observed so far.",
		}),
	}
	m.registry.MustRegister(m.PagesFetched, m.FetchFailures, m.EntriesRecorded, m.FetchDuration, m.Letters)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("could not write metrics textfile %s: %w", path, err)
	}
	return nil
}
