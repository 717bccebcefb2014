package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"buildtrend/src/broker"
	"buildtrend/src/buildstore"
	"buildtrend/src/config"
	"buildtrend/src/crawler"
	"buildtrend/src/fetch"
	"buildtrend/src/metrics"
	"buildtrend/src/prow"
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Crawl pull request listings and record successful e2e build durations",
	Long: `Visits every pull request directory in [--pr-start, --pr-end), reads the
finished.json and started.json of each run of the e2e job and records the
duration of successful runs in the build store. The store is saved after
every pull request, so an interrupted crawl keeps what it found.

With --schedule the crawl repeats on a cron schedule until interrupted.

Example:
  buildtrend scrape --pr-start 100 --pr-end 500
  buildtrend scrape --schedule "@every 6h" --metrics-file /var/lib/node_exporter/buildtrend.prom`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := runScrape(ctx); err != nil {
			exitWithError(err)
		}
	},
}

func runScrape(ctx context.Context) error {
	loc, err := appConfig.TimeLocation()
	if err != nil {
		return err
	}

	store, err := buildstore.Load(appConfig.Store)
	if err != nil {
		return err
	}

	fetcher := fetch.NewClient(appConfig.Timeout, appConfig.UserAgent)
	client, err := prow.NewClient(fetcher, appConfig.BaseURL)
	if err != nil {
		return err
	}

	mirrors, err := openMirrors(ctx)
	if err != nil {
		return err
	}
	defer func() {
		for _, m := range mirrors {
			if err := m.Close(); err != nil {
				appLog.Warn("[Scrape] Failed to close mirror: %v", err)
			}
		}
	}()

	crawlMetrics := metrics.NewCrawl()
	c := crawler.New(client, store, appLog, crawler.Options{
		JobSuffix: appConfig.JobSuffix,
		PRStart:   appConfig.PRStart,
		PREnd:     appConfig.PREnd,
		Location:  loc,
		Metrics:   crawlMetrics,
		Mirrors:   mirrors,
	})

	crawlOnce := func(ctx context.Context) error {
		appLog.Info("[Scrape] Crawling PRs %d..%d from %s", appConfig.PRStart, appConfig.PREnd-1, client.BaseURL())
		sum, err := c.Crawl(ctx)
		appLog.Info("[Scrape] %s", sum)
		logMirrorCounts(ctx, mirrors)
		if appConfig.MetricsFile != "" {
			if werr := crawlMetrics.WriteTextfile(appConfig.MetricsFile); werr != nil {
				appLog.Warn("[Scrape] %v", werr)
			}
		}
		return err
	}

	if appConfig.Schedule == "" {
		return crawlOnce(ctx)
	}

	sched := crawler.NewScheduler(appLog, loc)
	return sched.Run(ctx, appConfig.Schedule, true, func(ctx context.Context) {
		if err := crawlOnce(ctx); err != nil && ctx.Err() == nil {
			appLog.Error("[Scrape] Crawl failed: %v", WrapError(err))
		}
	})
}

// openMirrors connects the optional Postgres and Redpanda mirrors.
func openMirrors(ctx context.Context) ([]buildstore.Mirror, error) {
	var mirrors []buildstore.Mirror

	if appConfig.PostgresDSN != "" {
		pg, err := buildstore.NewPostgresMirror(ctx, appConfig.PostgresDSN)
		if err != nil {
			return nil, err
		}
		appLog.Info("[Scrape] Mirroring builds to Postgres")
		mirrors = append(mirrors, pg)
	}

	if len(appConfig.RedpandaBrokers) > 0 {
		rp, err := broker.NewRedpandaBroker(appConfig.RedpandaBrokers, appLog)
		if err != nil {
			closeAll(mirrors)
			return nil, err
		}
		if err := rp.Ping(ctx); err != nil {
			rp.Close()
			closeAll(mirrors)
			return nil, err
		}
		appLog.Info("[Scrape] Publishing builds to %v topic %s", appConfig.RedpandaBrokers, appConfig.Topic)
		mirrors = append(mirrors, broker.NewMirror(rp, appConfig.Topic, appConfig.JobSuffix))
	}

	return mirrors, nil
}

// logMirrorCounts reports how many builds each Postgres mirror holds.
func logMirrorCounts(ctx context.Context, mirrors []buildstore.Mirror) {
	for _, m := range mirrors {
		pg, ok := m.(*buildstore.PostgresMirror)
		if !ok {
			continue
		}
		n, err := pg.Count(ctx)
		if err != nil {
			if ctx.Err() == nil {
				appLog.Warn("[Scrape] %v", err)
			}
			continue
		}
		appLog.Info("[Scrape] Postgres mirror holds %d builds", n)
	}
}

func closeAll(mirrors []buildstore.Mirror) {
	for _, m := range mirrors {
		m.Close()
	}
}

func init() {
	flags := scrapeCmd.Flags()
	flags.String("base-url", config.DefaultBaseURL, "Directory listing with one subdirectory per pull request")
	flags.String("job-suffix", config.DefaultJobSuffix, "Suffix identifying the job directory inside a pull request")
	flags.Int("pr-start", 1, "First pull request to crawl")
	flags.Int("pr-end", 10000, "Pull request to stop before")
	flags.Duration("timeout", 30*time.Second, "Per-request timeout")
	flags.String("user-agent", "buildtrend", "User-Agent header sent with every request")
	flags.String("location", "Local", "Time zone used for build start keys")
	flags.String("metrics-file", "", "Write crawl metrics here in node-exporter textfile format")
	flags.String("postgres-dsn", "", "Also upsert recorded builds into this Postgres database")
	flags.StringSlice("redpanda-brokers", nil, "Also publish recorded builds to these Kafka/Redpanda brokers")
	flags.String("topic", config.DefaultTopic, "Topic for published builds")
	flags.String("schedule", "", `Repeat the crawl on this cron schedule, e.g. "@every 6h"`)
}
