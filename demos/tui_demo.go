// Demo program to showcase the build browser with a synthetic history.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"buildtrend/src/buildstore"
	"buildtrend/src/tui"
)

func main() {
	fmt.Println("Generating sample build history...")
	entries := generateSampleData(time.Date(2018, 8, 1, 0, 0, 0, 0, time.UTC), 120)

	fmt.Printf("Loaded %d builds.\n", len(entries))
	fmt.Println("Launching TUI...")
	time.Sleep(500 * time.Millisecond)

	if err := tui.Start(entries); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

// generateSampleData spreads n builds over the weeks after start. Durations
// hover around 30 minutes with a slow stretch around the #151 outage.
func generateSampleData(start time.Time, n int) []buildstore.Entry {
	r := rand.New(rand.NewSource(151))
	entries := make([]buildstore.Entry, 0, n)

	t := start
	for i := 0; i < n; i++ {
		t = t.Add(time.Duration(2+r.Intn(14)) * time.Hour)
		pr := 100 + i*3

		minutes := 25 + r.Float64()*10
		if t.Month() == time.August && t.Day() >= 18 && t.Day() <= 22 {
			minutes += 20
		}

		entries = append(entries, buildstore.Entry{
			Start: t.Format(buildstore.KeyLayout),
			Record: buildstore.Record{
				Duration:    int64(minutes * 60),
				PullRequest: pr,
				URI:         fmt.Sprintf("https://gcsweb-ci.svc.ci.openshift.org/gcs/origin-ci-test/pr-logs/pull/openshift_installer/%d/pull-ci-openshift-installer-master-e2e-aws/%d/", pr, 1000+i),
			},
		})
	}
	return entries
}
