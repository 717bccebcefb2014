// Package contracts defines the messages buildtrend publishes to a broker.
package contracts

// BuildsTopic is the default topic build events are published to.
// Key: {pull_request}
const BuildsTopic = "buildtrend.builds"

// BuildEvent announces a successful build written to the build store.
type BuildEvent struct {
	// Start time key, layout 2006-01-02T15:04:05 in the crawler's zone.
	Start string `json:"start"`
	// Run directory URI.
	URI string `json:"uri"`
	// Seconds between started.json and finished.json timestamps.
	Duration int64 `json:"duration"`
	// Pull request the run belongs to.
	PullRequest int `json:"pull_request"`
	// Job directory suffix the crawler tracks (e.g. "e2e-aws/").
	Job string `json:"job"`
	// Unix milliseconds at which the event was published.
	RecordedAt int64 `json:"recorded_at"`
}
