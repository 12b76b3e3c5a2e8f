// Package filter selects log entries by time window, level, keyword,
// request id and latency.
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/richie-p-meyer/loglens/internal/model"
	"github.com/richie-p-meyer/loglens/internal/parser"
)

// Criteria is a set of predicates combined with logical AND.
// Zero values disable the corresponding predicate.
type Criteria struct {
	Since     time.Time // inclusive lower bound
	Until     time.Time // inclusive upper bound
	Levels    []string  // case-insensitive set membership
	Keywords  []string  // case-insensitive substring, any of
	RequestID string    // exact match
	// MinLatency excludes entries below the threshold, including entries
	// without a latency.
	MinLatency *int
}

// Apply returns the entries matching c in their original order.
// The input slice is not modified.
func Apply(entries []model.LogEntry, c Criteria) []model.LogEntry {
	m := c.matcher()
	out := make([]model.LogEntry, 0, len(entries))
	for _, e := range entries {
		if m.match(e) {
			out = append(out, e)
		}
	}
	return out
}

// Match reports whether a single entry satisfies c.
func (c Criteria) Match(e model.LogEntry) bool {
	return c.matcher().match(e)
}

// matcher holds the criteria with case folding done once.
type matcher struct {
	Criteria
	levelSet map[string]bool
	keywords []string
}

func (c Criteria) matcher() matcher {
	m := matcher{Criteria: c}
	if len(c.Levels) > 0 {
		m.levelSet = make(map[string]bool, len(c.Levels))
		for _, l := range c.Levels {
			m.levelSet[strings.ToUpper(l)] = true
		}
	}
	for _, k := range c.Keywords {
		m.keywords = append(m.keywords, strings.ToLower(k))
	}
	return m
}

func (m matcher) match(e model.LogEntry) bool {
	if !m.Since.IsZero() && e.Timestamp.Before(m.Since) {
		return false
	}
	if !m.Until.IsZero() && e.Timestamp.After(m.Until) {
		return false
	}
	if m.levelSet != nil && !m.levelSet[strings.ToUpper(e.Level)] {
		return false
	}
	if m.RequestID != "" && e.RequestID != m.RequestID {
		return false
	}
	if m.MinLatency != nil {
		lat, ok := e.Latency()
		if !ok {
			lat = -1
		}
		if lat < *m.MinLatency {
			return false
		}
	}
	if len(m.keywords) > 0 && !containsAny(strings.ToLower(e.Message), m.keywords) {
		return false
	}
	return true
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Query is the textual form of Criteria as it arrives from flags or URL
// parameters.
type Query struct {
	Since      string
	Until      string
	Levels     []string
	Keywords   []string
	RequestID  string
	MinLatency *int
}

// Criteria parses the query. Levels may be comma-separated; blank items
// are dropped.
func (q Query) Criteria() (Criteria, error) {
	c := Criteria{
		Levels:     splitList(q.Levels),
		Keywords:   q.Keywords,
		RequestID:  q.RequestID,
		MinLatency: q.MinLatency,
	}

	if q.Since != "" {
		t, ok := parser.ParseTimestamp(q.Since)
		if !ok {
			return Criteria{}, fmt.Errorf("invalid since timestamp %q", q.Since)
		}
		c.Since = t
	}
	if q.Until != "" {
		t, ok := parser.ParseTimestamp(q.Until)
		if !ok {
			return Criteria{}, fmt.Errorf("invalid until timestamp %q", q.Until)
		}
		c.Until = t
	}
	return c, nil
}

func splitList(items []string) []string {
	var out []string
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
