// Package metrics holds the crawl counters and writes them in textfile-collector format.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Miss stages, used as the "stage" label of FetchMisses.
const (
	StagePR       = "pr"
	StageJob      = "job"
	StageFinished = "finished"
	StageStarted  = "started"
)

// Crawl holds the collectors updated by the crawler.
type Crawl struct {
	Registry *prometheus.Registry

	PRsScanned     prometheus.Counter
	PagesFetched   prometheus.Counter
	FetchMisses    *prometheus.CounterVec
	RunsFailed     prometheus.Counter
	BuildsRecorded prometheus.Counter
	StoreSize      prometheus.Gauge
	BuildDuration  prometheus.Histogram
	LastSave       prometheus.Gauge
}

// NewCrawl creates the collectors on a private registry.
func NewCrawl() *Crawl {
	c := &Crawl{
		Registry: prometheus.NewRegistry(),
		PRsScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "buildtrend_prs_scanned_total",
			Help: "Pull requests whose listing was requested.",
		}),
		PagesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "buildtrend_pages_fetched_total",
			Help: "Listing pages and metadata documents fetched successfully.",
		}),
		FetchMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "buildtrend_fetch_misses_total",
			Help: "Fetches skipped because the server returned an error status.",
		}, []string{"stage"}),
		RunsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "buildtrend_runs_failed_total",
			Help: "Finished runs that did not succeed.",
		}),
		BuildsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "buildtrend_builds_recorded_total",
			Help: "Successful builds written to the store.",
		}),
		StoreSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "buildtrend_store_builds",
			Help: "Builds held by the store after the last save.",
		}),
		BuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "buildtrend_build_duration_seconds",
			Help:    "Duration of recorded builds.",
			Buckets: []float64{600, 1200, 1800, 2400, 3000, 3600, 5400, 7200},
		}),
		LastSave: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "buildtrend_last_save_timestamp_seconds",
			Help: "Unix time of the last store save.",
		}),
	}

	c.Registry.MustRegister(
		c.PRsScanned,
		c.PagesFetched,
		c.FetchMisses,
		c.RunsFailed,
		c.BuildsRecorded,
		c.StoreSize,
		c.BuildDuration,
		c.LastSave,
	)
	return c
}

// WriteTextfile writes every metric to path for the node-exporter textfile collector.
func (c *Crawl) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.Registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
