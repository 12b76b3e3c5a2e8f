package parser

import (
	"fmt"
	"strings"
	"time"
)

// timestampLayouts are tried in order. A literal "Z" is rewritten to
// "+00:00" before parsing, so only numeric offsets appear here. Layouts
// without an offset parse as UTC. Fractional seconds are accepted after
// the seconds field even though no layout spells them out.
var timestampLayouts = []string{
	"2006-01-02T15:04:05-07:00",
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05-0700",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04-07:00",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp converts an ISO-8601-like string into a UTC instant.
// It never fails loudly: malformed or empty input yields false.
func ParseTimestamp(value string) (time.Time, bool) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, false
	}
	v = strings.ReplaceAll(v, "Z", "+00:00")

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// FormatTimestamp renders t in UTC as ISO-8601 with a trailing "Z".
// Sub-second precision is printed in microseconds, and only when non-zero.
func FormatTimestamp(t time.Time) string {
	t = t.UTC()
	out := t.Format("2006-01-02T15:04:05")
	if us := t.Nanosecond() / int(time.Microsecond); us != 0 {
		out += fmt.Sprintf(".%06d", us)
	}
	return out + "Z"
}
