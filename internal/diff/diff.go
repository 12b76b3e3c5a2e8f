// Package diff compares a healthy log capture with a failing one.
package diff

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/richie-p-meyer/loglens/internal/aggregator"
	"github.com/richie-p-meyer/loglens/internal/model"
	"github.com/richie-p-meyer/loglens/internal/spike"
)

const (
	maxMessages = 15
	maxSpikes   = 10

	// MissingSideMessage is the report text when either side is empty.
	MissingSideMessage = "Need both healthy and failing logs."
)

// ErrMissingSide is returned by Compare when either side has no entries.
var ErrMissingSide = errors.New("need both healthy and failing logs")

// LatencyDelta compares p95 latency between the two sides.
type LatencyDelta struct {
	HealthyP95 int `json:"healthy_p95" yaml:"healthy_p95"`
	FailingP95 int `json:"failing_p95" yaml:"failing_p95"`
	Delta      int `json:"delta" yaml:"delta"`
}

// Report is the outcome of comparing healthy and failing entries.
type Report struct {
	HealthyLevels []aggregator.Count `json:"healthy_levels" yaml:"healthy_levels"`
	FailingLevels []aggregator.Count `json:"failing_levels" yaml:"failing_levels"`
	// NewMessages are normalized messages seen only in the failing set,
	// with their failing count.
	NewMessages []aggregator.Count `json:"new_messages" yaml:"new_messages"`
	// ElevatedMessages are seen in both sets but more often when failing;
	// Count holds the positive difference.
	ElevatedMessages []aggregator.Count `json:"elevated_messages" yaml:"elevated_messages"`
	// Latency is nil unless both sides carry latency values.
	Latency *LatencyDelta `json:"latency,omitempty" yaml:"latency,omitempty"`
	Spikes  []spike.Spike `json:"failing_spikes" yaml:"failing_spikes"`
}

// Compare builds a Report. It returns ErrMissingSide when either input is
// empty.
func Compare(healthy, failing []model.LogEntry) (*Report, error) {
	if len(healthy) == 0 || len(failing) == 0 {
		return nil, ErrMissingSide
	}

	r := &Report{
		HealthyLevels: aggregator.LevelCounts(healthy).MostCommon(0),
		FailingLevels: aggregator.LevelCounts(failing).MostCommon(0),
	}

	msgH := aggregator.MessageCounts(healthy)
	msgF := aggregator.MessageCounts(failing)

	var newMsgs, elevated []aggregator.Count
	for _, key := range msgF.Keys() {
		f, _ := msgF.Get(key)
		h, seen := msgH.Get(key)
		switch {
		case !seen:
			newMsgs = append(newMsgs, aggregator.Count{Key: key, Count: f})
		case f > h:
			elevated = append(elevated, aggregator.Count{Key: key, Count: f - h})
		}
	}
	r.NewMessages = topByCount(newMsgs, maxMessages)
	r.ElevatedMessages = topByCount(elevated, maxMessages)

	latH := aggregator.Latencies(healthy)
	latF := aggregator.Latencies(failing)
	if len(latH) > 0 && len(latF) > 0 {
		h, _ := aggregator.Percentile(latH, 0.95)
		f, _ := aggregator.Percentile(latF, 0.95)
		r.Latency = &LatencyDelta{HealthyP95: h, FailingP95: f, Delta: f - h}
	}

	r.Spikes = spike.Scan(failing)
	if len(r.Spikes) > maxSpikes {
		r.Spikes = r.Spikes[:maxSpikes]
	}
	return r, nil
}

// Render compares the two sides and returns the text report, or
// MissingSideMessage when either side is empty.
func Render(healthy, failing []model.LogEntry) string {
	r, err := Compare(healthy, failing)
	if err != nil {
		return MissingSideMessage
	}
	return r.String()
}

// topByCount sorts by descending count, keeping first-seen order on ties,
// and keeps at most n items.
func topByCount(counts []aggregator.Count, n int) []aggregator.Count {
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })
	if len(counts) > n {
		counts = counts[:n]
	}
	return counts
}

// String renders the report in fixed sections.
func (r *Report) String() string {
	if r == nil {
		return MissingSideMessage
	}

	var lines []string
	lines = append(lines,
		"=== Levels ===",
		"Healthy: "+aggregator.JoinCounts(r.HealthyLevels),
		"Failing: "+aggregator.JoinCounts(r.FailingLevels),
		"",
		"=== New Messages in FAILING ===",
	)
	if len(r.NewMessages) == 0 {
		lines = append(lines, "  (none)")
	}
	for _, m := range r.NewMessages {
		lines = append(lines, fmt.Sprintf("  - %5d × %s", m.Count, m.Key))
	}

	lines = append(lines, "", "=== Elevated Messages (more frequent in FAILING) ===")
	if len(r.ElevatedMessages) == 0 {
		lines = append(lines, "  (none)")
	}
	for _, m := range r.ElevatedMessages {
		lines = append(lines, fmt.Sprintf("  - +%4d × %s", m.Count, m.Key))
	}
	lines = append(lines, "")

	if r.Latency != nil {
		lines = append(lines,
			"=== Latency ===",
			fmt.Sprintf("Latency p95: healthy=%dms → failing=%dms (Δ=%dms)",
				r.Latency.HealthyP95, r.Latency.FailingP95, r.Latency.Delta),
			"",
		)
	}

	lines = append(lines, "=== Spike Minutes in FAILING (WARN/ERROR) ===")
	if len(r.Spikes) == 0 {
		lines = append(lines, "  (none)")
	}
	for _, s := range r.Spikes {
		lines = append(lines, fmt.Sprintf("  - %sZ : %d events (~%.1f× baseline)", s.Minute, s.Count, s.Ratio))
	}

	return strings.Join(lines, "\n")
}
