package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"buildtrend/src/broker"
	"buildtrend/src/buildstore"
	"buildtrend/src/logger"
)

// followCmd represents the follow command
var followCmd = &cobra.Command{
	Use:   "follow",
	Short: "Log build events published by 'scrape --redpanda-brokers'",
	Long: `Joins a consumer group on the build topic and logs every build event as
it arrives. With --record the builds are also written to the local build
store, which keeps a second store in sync with a remote scraper.

Example:
  buildtrend follow --redpanda-brokers localhost:9092
  buildtrend follow --redpanda-brokers localhost:9092 --record --store mirror.json`,
	Run: func(cmd *cobra.Command, args []string) {
		group, _ := cmd.Flags().GetString("group")
		record, _ := cmd.Flags().GetBool("record")

		if len(appConfig.RedpandaBrokers) == 0 {
			exitWithError(&UserError{
				Message: "No brokers configured",
				Hint:    "Pass --redpanda-brokers or set BUILDTREND_REDPANDA_BROKERS.",
			})
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rp, err := broker.NewRedpandaBroker(appConfig.RedpandaBrokers, appLog)
		if err != nil {
			exitWithError(err)
		}
		defer rp.Close()

		var store *buildstore.Store
		if record {
			if store, err = buildstore.Load(appConfig.Store); err != nil {
				exitWithError(err)
			}
		}

		msgs, err := rp.Subscribe(ctx, appConfig.Topic, group)
		if err != nil {
			exitWithError(err)
		}
		appLog.Info("[Follow] Listening on %s as %s", appConfig.Topic, group)

		n, err := followEvents(ctx, msgs, store, appLog)
		appLog.Info("[Follow] Received %d builds", n)
		if err != nil && !errors.Is(err, context.Canceled) {
			exitWithError(err)
		}
	},
}

// followEvents logs each build event from msgs until the channel closes or
// ctx is done. When store is non-nil every event is recorded and saved.
// Malformed messages are logged and skipped.
func followEvents(ctx context.Context, msgs <-chan broker.Message, store *buildstore.Store, log logger.Logger) (int, error) {
	received := 0
	for {
		select {
		case <-ctx.Done():
			return received, ctx.Err()

		case msg, ok := <-msgs:
			if !ok {
				return received, nil
			}
			event, err := broker.DecodeBuildEvent(msg)
			if err != nil {
				log.Warn("[Follow] Skipping message at offset %d: %v", msg.Offset, err)
				continue
			}
			received++
			log.Info("[Follow] PR %d: %s took %.1f minutes (%s)", event.PullRequest, event.Start, float64(event.Duration)/60, event.URI)

			if store == nil {
				continue
			}
			store.Put(event.Start, buildstore.Record{
				Duration:    event.Duration,
				PullRequest: event.PullRequest,
				URI:         event.URI,
			})
			if err := store.Save(); err != nil {
				return received, err
			}
		}
	}
}

func init() {
	flags := followCmd.Flags()
	flags.StringSlice("redpanda-brokers", nil, "Kafka/Redpanda brokers to consume from")
	flags.String("topic", "buildtrend.builds", "Topic build events are published to")
	flags.String("group", "buildtrend-follow", "Consumer group")
	flags.Bool("record", false, "Also write received builds to the build store")
}
