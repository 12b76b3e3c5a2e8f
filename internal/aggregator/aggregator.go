package aggregator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/richie-p-meyer/loglens/internal/model"
	"github.com/richie-p-meyer/loglens/internal/normalize"
	"github.com/richie-p-meyer/loglens/internal/spike"
)

const (
	topMessages = 8
	topSpikes   = 10
)

// Count is a key with its number of occurrences.
type Count struct {
	Key   string `json:"key" yaml:"key"`
	Count int    `json:"count" yaml:"count"`
}

// Counter tallies string keys and remembers the order they were first seen,
// which is the tie-break for MostCommon.
type Counter struct {
	order  []string
	counts map[string]int
}

// NewCounter returns an empty Counter.
func NewCounter() *Counter {
	return &Counter{counts: make(map[string]int)}
}

// Add records one occurrence of key.
func (c *Counter) Add(key string) {
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

// Get returns the count for key and whether it was ever added.
func (c *Counter) Get(key string) (int, bool) {
	n, ok := c.counts[key]
	return n, ok
}

// Len returns the number of distinct keys.
func (c *Counter) Len() int { return len(c.order) }

// Keys returns the distinct keys in first-seen order.
func (c *Counter) Keys() []string {
	return append([]string(nil), c.order...)
}

// MostCommon returns up to n keys by descending count, ties in first-seen
// order. n <= 0 returns every key.
func (c *Counter) MostCommon(n int) []Count {
	out := make([]Count, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, Count{Key: k, Count: c.counts[k]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// LevelCounts tallies entries by level.
func LevelCounts(entries []model.LogEntry) *Counter {
	c := NewCounter()
	for _, e := range entries {
		c.Add(e.Level)
	}
	return c
}

// MessageCounts tallies entries by normalized message.
func MessageCounts(entries []model.LogEntry) *Counter {
	c := NewCounter()
	for _, e := range entries {
		c.Add(normalize.Message(e.Message))
	}
	return c
}

// Latencies returns the ascending latencies of entries that carry one.
func Latencies(entries []model.LogEntry) []int {
	var out []int
	for _, e := range entries {
		if v, ok := e.Latency(); ok {
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}

// Percentile picks the nearest-rank value at index floor(p*(n-1)) from an
// ascending slice. It returns false for an empty slice.
func Percentile(sorted []int, p float64) (int, bool) {
	if len(sorted) == 0 {
		return 0, false
	}
	idx := int(p * float64(len(sorted)-1))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx], true
}

// LatencySummary holds latency percentiles in milliseconds.
type LatencySummary struct {
	P50 int `json:"p50" yaml:"p50"`
	P95 int `json:"p95" yaml:"p95"`
	P99 int `json:"p99" yaml:"p99"`
}

// Summary is a statistical snapshot of a set of entries.
type Summary struct {
	Total       int             `json:"total" yaml:"total"`
	Levels      []Count         `json:"levels" yaml:"levels"`
	TopMessages []Count         `json:"top_messages" yaml:"top_messages"`
	Latency     *LatencySummary `json:"latency,omitempty" yaml:"latency,omitempty"`
	Spikes      []spike.Spike   `json:"spikes,omitempty" yaml:"spikes,omitempty"`
}

// Summarize computes level counts, the most common normalized messages,
// latency percentiles and the top spike minutes.
func Summarize(entries []model.LogEntry) Summary {
	s := Summary{Total: len(entries)}
	if len(entries) == 0 {
		return s
	}

	s.Levels = LevelCounts(entries).MostCommon(0)
	s.TopMessages = MessageCounts(entries).MostCommon(topMessages)

	if lats := Latencies(entries); len(lats) > 0 {
		p50, _ := Percentile(lats, 0.50)
		p95, _ := Percentile(lats, 0.95)
		p99, _ := Percentile(lats, 0.99)
		s.Latency = &LatencySummary{P50: p50, P95: p95, P99: p99}
	}

	spikes := spike.Scan(entries)
	if len(spikes) > topSpikes {
		spikes = spikes[:topSpikes]
	}
	s.Spikes = spikes
	return s
}

// String renders the summary as a human-readable report.
func (s Summary) String() string {
	if s.Total == 0 {
		return "No entries."
	}

	var out []string
	out = append(out, fmt.Sprintf("Entries: %d", s.Total))
	out = append(out, "By level: "+JoinCounts(s.Levels))

	if len(s.TopMessages) > 0 {
		out = append(out, "Top messages:")
		for _, m := range s.TopMessages {
			out = append(out, fmt.Sprintf("  - %5d × %s", m.Count, m.Key))
		}
	}

	if s.Latency != nil {
		out = append(out, "", fmt.Sprintf("Latency (ms): p50=%d, p95=%d, p99=%d",
			s.Latency.P50, s.Latency.P95, s.Latency.P99))
	}

	if len(s.Spikes) > 0 {
		out = append(out, "Spike minutes (ERROR/WARN):")
		for _, sp := range s.Spikes {
			out = append(out, fmt.Sprintf("  - %sZ : %d (baseline≈%.1fx)", sp.Minute, sp.Count, sp.Ratio))
		}
	}

	return strings.Join(out, "\n")
}

// JoinCounts renders counts as "KEY=n, KEY=n".
func JoinCounts(counts []Count) string {
	parts := make([]string, len(counts))
	for i, c := range counts {
		parts[i] = fmt.Sprintf("%s=%d", c.Key, c.Count)
	}
	return strings.Join(parts, ", ")
}
