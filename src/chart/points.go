// Package chart renders build durations over time as scatter plots.
package chart

import (
	"fmt"
	"time"

	"buildtrend/src/buildstore"
)

// Point is one build placed on the chart. Time is the store key read as a
// naive wall-clock time and carried in UTC.
type Point struct {
	Time        time.Time
	Minutes     float64
	PullRequest int
	URI         string
}

// LoadPoints converts every store entry to a Point in key order. A key that
// does not match buildstore.KeyLayout exactly is an error.
func LoadPoints(store *buildstore.Store) ([]Point, error) {
	entries := store.Entries()
	points := make([]Point, 0, len(entries))
	for _, e := range entries {
		t, err := parseKey(e.Start)
		if err != nil {
			return nil, fmt.Errorf("invalid build start %q in %s: %w", e.Start, store.Path(), err)
		}
		points = append(points, Point{
			Time:        t,
			Minutes:     float64(e.Duration) / 60,
			PullRequest: e.PullRequest,
			URI:         e.URI,
		})
	}
	return points, nil
}

// parseKey reads a store key. time.Parse tolerates fractional seconds the
// layout does not mention, so the key must also format back to itself.
func parseKey(key string) (time.Time, error) {
	t, err := time.Parse(buildstore.KeyLayout, key)
	if err != nil {
		return time.Time{}, err
	}
	if t.Format(buildstore.KeyLayout) != key {
		return time.Time{}, fmt.Errorf("does not match layout %s", buildstore.KeyLayout)
	}
	return t, nil
}

// Filter keeps points strictly after cutoff. A zero cutoff keeps everything.
func Filter(points []Point, cutoff time.Time) []Point {
	if cutoff.IsZero() {
		return points
	}
	var out []Point
	for _, p := range points {
		if p.Time.After(cutoff) {
			out = append(out, p)
		}
	}
	return out
}
