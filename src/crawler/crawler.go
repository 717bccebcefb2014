// Package crawler walks pull request listings and records successful job runs.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"buildtrend/src/buildstore"
	"buildtrend/src/fetch"
	"buildtrend/src/listing"
	"buildtrend/src/logger"
	"buildtrend/src/metrics"
	"buildtrend/src/prow"
)

// MissError marks a unit of work skipped because the server answered with an
// error status. Everything else the crawler returns is unrecoverable.
type MissError struct {
	PR    int
	Stage string // one of the metrics.Stage* values
	URI   string
	Err   error
}

func (e *MissError) Error() string {
	return fmt.Sprintf("PR %d: %s %s skipped: %v", e.PR, e.Stage, e.URI, e.Err)
}

func (e *MissError) Unwrap() error {
	return e.Err
}

// IsMiss reports whether err is a transient miss.
func IsMiss(err error) bool {
	var miss *MissError
	return errors.As(err, &miss)
}

// Options tunes a Crawler. Zero values select the defaults.
type Options struct {
	// JobSuffix identifies the job directory inside a PR listing.
	JobSuffix string
	// PRStart and PREnd bound the half-open range crawled by Crawl.
	PRStart int
	PREnd   int
	// Location is the zone start keys are rendered in. Nil means time.Local.
	Location *time.Location
	Metrics  *metrics.Crawl
	Mirrors  []buildstore.Mirror
}

// Summary counts what a crawl did.
type Summary struct {
	PRsScanned int
	PRsSkipped int
	RunsSeen   int
	RunsFailed int
	RunsMissed int
	Recorded   int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d PRs scanned (%d skipped), %d runs seen (%d failed, %d missed), %d builds recorded",
		s.PRsScanned, s.PRsSkipped, s.RunsSeen, s.RunsFailed, s.RunsMissed, s.Recorded)
}

// Crawler visits pull requests in order, one fetch at a time.
type Crawler struct {
	client  *prow.Client
	store   *buildstore.Store
	log     logger.Logger
	metrics *metrics.Crawl
	mirrors []buildstore.Mirror

	jobSuffix string
	prStart   int
	prEnd     int
	loc       *time.Location
}

// New creates a Crawler that records builds into store.
func New(client *prow.Client, store *buildstore.Store, log logger.Logger, opts Options) *Crawler {
	if log == nil {
		log = logger.NewSilentLogger()
	}
	if opts.JobSuffix == "" {
		opts.JobSuffix = "e2e-aws/"
	}
	if opts.PRStart == 0 && opts.PREnd == 0 {
		opts.PRStart, opts.PREnd = 1, 10000
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewCrawl()
	}

	return &Crawler{
		client:    client,
		store:     store,
		log:       log,
		metrics:   opts.Metrics,
		mirrors:   opts.Mirrors,
		jobSuffix: opts.JobSuffix,
		prStart:   opts.PRStart,
		prEnd:     opts.PREnd,
		loc:       opts.Location,
	}
}

// StartKey renders an epoch timestamp as a store key in the crawler's zone.
func (c *Crawler) StartKey(epoch int64) string {
	return time.Unix(epoch, 0).In(c.loc).Format(buildstore.KeyLayout)
}

// Crawl visits every PR in the configured range. The store is saved after
// each PR whose job listing was read, then mirrors receive that PR's entries.
// A cancelled ctx stops the crawl between fetches; builds saved so far remain.
func (c *Crawler) Crawl(ctx context.Context) (Summary, error) {
	var sum Summary

	for pr := c.prStart; pr < c.prEnd; pr++ {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		entries, err := c.crawlPR(ctx, pr, &sum)
		if err != nil {
			var miss *MissError
			if errors.As(err, &miss) {
				c.log.Info("[Crawler] %v", miss)
				sum.PRsSkipped++
				continue
			}
			return sum, err
		}
		if entries == nil {
			// No job directory for this PR.
			sum.PRsSkipped++
			continue
		}

		if err := c.persist(ctx, pr, entries); err != nil {
			return sum, err
		}
	}

	c.log.Info("[Crawler] Done: %s", sum)
	return sum, nil
}

// CrawlPR visits one pull request and records its successful runs in the
// store without saving it. A nil slice with a nil error means the PR has no
// job directory. A *MissError means the PR or job listing was unavailable.
func (c *Crawler) CrawlPR(ctx context.Context, pr int) ([]buildstore.Entry, error) {
	var sum Summary
	return c.crawlPR(ctx, pr, &sum)
}

func (c *Crawler) crawlPR(ctx context.Context, pr int, sum *Summary) ([]buildstore.Entry, error) {
	sum.PRsScanned++
	c.metrics.PRsScanned.Inc()

	page, err := c.client.PRListing(ctx, pr)
	if err != nil {
		return nil, c.miss(err, pr, metrics.StagePR, fmt.Sprintf("%d/", pr))
	}
	c.metrics.PagesFetched.Inc()

	jobHref, ok := listing.FirstWithSuffix(page, c.jobSuffix)
	if !ok {
		c.log.Debug("[Crawler] PR %d: no %s job", pr, c.jobSuffix)
		return nil, nil
	}
	c.log.Debug("[Crawler] PR %d: %s", pr, jobHref)

	jobURI, err := c.client.Resolve(jobHref)
	if err != nil {
		return nil, err
	}
	page, err = c.client.Listing(ctx, jobURI)
	if err != nil {
		return nil, c.miss(err, pr, metrics.StageJob, jobURI)
	}
	c.metrics.PagesFetched.Inc()

	entries := []buildstore.Entry{}
	for _, runHref := range listing.WithPrefix(page, jobHref) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sum.RunsSeen++

		entry, ok, err := c.crawlRun(ctx, pr, runHref)
		if err != nil {
			var miss *MissError
			if errors.As(err, &miss) {
				c.log.Debug("[Crawler] %v", miss)
				sum.RunsMissed++
				continue
			}
			return nil, err
		}
		if !ok {
			sum.RunsFailed++
			continue
		}

		c.store.Put(entry.Start, entry.Record)
		sum.Recorded++
		c.metrics.BuildsRecorded.Inc()
		c.metrics.BuildDuration.Observe(float64(entry.Duration))
		entries = append(entries, entry)
	}
	return entries, nil
}

// crawlRun reads one run directory. ok is false when the run did not succeed.
func (c *Crawler) crawlRun(ctx context.Context, pr int, runHref string) (entry buildstore.Entry, ok bool, err error) {
	runURI, err := c.client.Resolve(runHref)
	if err != nil {
		return entry, false, err
	}

	finished, err := c.client.Finished(ctx, runURI)
	if err != nil {
		return entry, false, c.miss(err, pr, metrics.StageFinished, runURI)
	}
	c.metrics.PagesFetched.Inc()

	if !finished.Succeeded() {
		c.metrics.RunsFailed.Inc()
		return entry, false, nil
	}

	started, err := c.client.Started(ctx, runURI)
	if err != nil {
		return entry, false, c.miss(err, pr, metrics.StageStarted, runURI)
	}
	c.metrics.PagesFetched.Inc()

	duration, err := finished.Duration(started)
	if err != nil {
		return entry, false, fmt.Errorf("%s: %w", runURI, err)
	}

	entry = buildstore.Entry{
		Start: c.StartKey(*started.Timestamp),
		Record: buildstore.Record{
			Duration:    duration,
			PullRequest: pr,
			URI:         runURI,
		},
	}
	c.log.Debug("[Crawler] PR %d: %s took %ds", pr, runURI, duration)
	return entry, true, nil
}

// miss converts HTTP status errors into a *MissError and passes anything else through.
func (c *Crawler) miss(err error, pr int, stage, uri string) error {
	if !fetch.IsHTTPError(err) {
		return err
	}
	c.metrics.FetchMisses.WithLabelValues(stage).Inc()
	return &MissError{PR: pr, Stage: stage, URI: uri, Err: err}
}

func (c *Crawler) persist(ctx context.Context, pr int, entries []buildstore.Entry) error {
	if err := c.store.Save(); err != nil {
		return fmt.Errorf("PR %d: %w", pr, err)
	}
	c.metrics.StoreSize.Set(float64(c.store.Len()))
	c.metrics.LastSave.SetToCurrentTime()

	if len(entries) > 0 {
		c.log.Info("[Crawler] PR %d: recorded %d builds (%d total)", pr, len(entries), c.store.Len())
	}

	for _, m := range c.mirrors {
		if err := m.Mirror(ctx, entries); err != nil {
			return fmt.Errorf("PR %d: %w", pr, err)
		}
	}
	return nil
}
