// Package spike finds minutes with an unusually high WARN/ERROR density.
package spike

import (
	"sort"
	"time"

	"github.com/richie-p-meyer/loglens/internal/model"
)

const (
	// MinCount is the smallest per-minute count that can be a spike.
	MinCount = 3
	// MinRatio is the smallest count/median multiple that can be a spike.
	MinRatio = 2.0

	minuteLayout = "2006-01-02T15:04:05"
)

// Spike is one anomalous minute.
type Spike struct {
	// Minute is the UTC minute rendered without an offset suffix,
	// e.g. 2025-11-08T13:30:00.
	Minute string  `json:"minute" yaml:"minute"`
	Count  int     `json:"count" yaml:"count"`
	Ratio  float64 `json:"ratio" yaml:"ratio"`
}

// IsAlert reports whether level counts toward spike detection.
func IsAlert(level string) bool {
	switch level {
	case "ERROR", "WARN", "WARNING":
		return true
	}
	return false
}

// Scan buckets WARN/ERROR entries by UTC minute and returns the minutes
// whose count is at least MinCount and at least MinRatio times the median
// per-minute count (floored at 1). Results are ordered by descending
// count, descending ratio, then ascending minute.
func Scan(entries []model.LogEntry) []Spike {
	perMinute := make(map[time.Time]int)
	for _, e := range entries {
		if !IsAlert(e.Level) {
			continue
		}
		perMinute[e.Timestamp.UTC().Truncate(time.Minute)]++
	}
	if len(perMinute) == 0 {
		return nil
	}

	counts := make([]int, 0, len(perMinute))
	for _, c := range perMinute {
		counts = append(counts, c)
	}
	baseline := Median(counts)
	if baseline < 1 {
		baseline = 1
	}

	var spikes []Spike
	for minute, c := range perMinute {
		ratio := float64(c) / baseline
		if c >= MinCount && ratio >= MinRatio {
			spikes = append(spikes, Spike{
				Minute: minute.Format(minuteLayout),
				Count:  c,
				Ratio:  ratio,
			})
		}
	}

	sort.Slice(spikes, func(i, j int) bool {
		a, b := spikes[i], spikes[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.Ratio != b.Ratio {
			return a.Ratio > b.Ratio
		}
		return a.Minute < b.Minute
	})
	return spikes
}

// Median returns the median of counts; the mean of the two middle values
// for an even length. counts is not modified.
func Median(counts []int) float64 {
	if len(counts) == 0 {
		return 0
	}
	sorted := append([]int(nil), counts...)
	sort.Ints(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return float64(sorted[mid])
	}
	return float64(sorted[mid-1]+sorted[mid]) / 2
}
