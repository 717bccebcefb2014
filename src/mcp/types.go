// Package mcp exposes the recorded build history as MCP tools.
package mcp

import "buildtrend/src/buildstore"

// Build is one recorded build as returned by the tools.
type Build struct {
	Start       string  `json:"start"`
	Duration    int64   `json:"duration_seconds"`
	Minutes     float64 `json:"minutes"`
	PullRequest int     `json:"pull_request"`
	URI         string  `json:"uri"`
}

// BuildList is the list_builds response.
// Matched counts every build in range; Builds holds at most the requested limit.
type BuildList struct {
	Matched int     `json:"matched"`
	Builds  []Build `json:"builds"`
}

// BuildStats is the build_stats response.
type BuildStats struct {
	Count         int     `json:"count"`
	First         string  `json:"first,omitempty"`
	Last          string  `json:"last,omitempty"`
	MinMinutes    float64 `json:"min_minutes"`
	MaxMinutes    float64 `json:"max_minutes"`
	MeanMinutes   float64 `json:"mean_minutes"`
	MedianMinutes float64 `json:"median_minutes"`
}

func toBuild(e buildstore.Entry) Build {
	return Build{
		Start:       e.Start,
		Duration:    e.Duration,
		Minutes:     float64(e.Duration) / 60,
		PullRequest: e.PullRequest,
		URI:         e.URI,
	}
}

func toStats(s buildstore.Stats) BuildStats {
	return BuildStats{
		Count:         s.Count,
		First:         s.First,
		Last:          s.Last,
		MinMinutes:    float64(s.Min) / 60,
		MaxMinutes:    float64(s.Max) / 60,
		MeanMinutes:   s.Mean / 60,
		MedianMinutes: s.Median / 60,
	}
}
