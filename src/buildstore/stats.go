package buildstore

import "sort"

// Stats summarizes build durations in seconds.
type Stats struct {
	Count  int
	Min    int64
	Max    int64
	Mean   float64
	Median float64
	First  string
	Last   string
}

// Summarize computes Stats over every record in the store.
func (s *Store) Summarize() Stats {
	return Summarize(s.Entries())
}

// Summarize computes Stats over entries, which must be ordered by start key.
func Summarize(entries []Entry) Stats {
	if len(entries) == 0 {
		return Stats{}
	}

	durations := make([]int64, len(entries))
	var total int64
	for i, e := range entries {
		durations[i] = e.Duration
		total += e.Duration
	}
	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	n := len(durations)
	median := float64(durations[n/2])
	if n%2 == 0 {
		median = float64(durations[n/2-1]+durations[n/2]) / 2
	}

	return Stats{
		Count:  n,
		Min:    durations[0],
		Max:    durations[n-1],
		Mean:   float64(total) / float64(n),
		Median: median,
		First:  entries[0].Start,
		Last:   entries[n-1].Start,
	}
}

// Between returns the entries whose start key lies in [since, until].
// An empty bound is open.
func Between(entries []Entry, since, until string) []Entry {
	var out []Entry
	for _, e := range entries {
		if since != "" && e.Start < since {
			continue
		}
		if until != "" && e.Start > until {
			continue
		}
		out = append(out, e)
	}
	return out
}
