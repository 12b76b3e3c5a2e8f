package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONParser(t *testing.T) {
	p := NewJSONParser()

	line := `{"timestamp":"2025-11-08T13:30:01Z","level":"error","message":"DB timeout","latency_ms":"812"}`
	entry, ok := p.Parse(line, "/var/log/app.log")
	require.True(t, ok)

	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, "DB timeout", entry.Message)
	assert.Equal(t, "/var/log/app.log", entry.Source)
	assert.Equal(t, line, entry.Raw)
	assert.Equal(t, time.Date(2025, 11, 8, 13, 30, 1, 0, time.UTC), entry.Timestamp)
	assert.Equal(t, time.UTC, entry.Timestamp.Location())

	lat, ok := entry.Latency()
	require.True(t, ok)
	assert.Equal(t, 812, lat)
}

func TestJSONParserAltFields(t *testing.T) {
	p := NewJSONParser()

	entry, ok := p.Parse(`{"ts":"2026-02-17T12:00:00+02:00","msg":"high latency","rid":"r-9","duration_ms":42.9}`, "app.log")
	require.True(t, ok)

	assert.Equal(t, "INFO", entry.Level, "missing level defaults to INFO")
	assert.Equal(t, "high latency", entry.Message)
	assert.Equal(t, "r-9", entry.RequestID)
	assert.Equal(t, time.Date(2026, 2, 17, 10, 0, 0, 0, time.UTC), entry.Timestamp)
	require.NotNil(t, entry.LatencyMS)
	assert.Equal(t, 42, *entry.LatencyMS)
}

func TestJSONParserFallbackKeys(t *testing.T) {
	p := NewJSONParser()

	// Empty values fall through to the next key name.
	entry, ok := p.Parse(`{"timestamp":"","time":"2026-02-17T12:00:00","request_id":"","req_id":"abc","lat_ms":7}`, "")
	require.True(t, ok)
	assert.Equal(t, "abc", entry.RequestID)
	assert.Equal(t, 7, *entry.LatencyMS)
	assert.Equal(t, "", entry.Message)

	// A latency value that does not coerce falls through as well.
	entry, ok = p.Parse(`{"timestamp":"2026-02-17T12:00:00Z","latency_ms":"","lat_ms":5}`, "")
	require.True(t, ok)
	require.NotNil(t, entry.LatencyMS)
	assert.Equal(t, 5, *entry.LatencyMS)

	entry, ok = p.Parse(`{"timestamp":"2026-02-17T12:00:00Z","latency_ms":"n/a","duration_ms":40}`, "")
	require.True(t, ok)
	require.NotNil(t, entry.LatencyMS)
	assert.Equal(t, 40, *entry.LatencyMS)

	// An explicit zero is a real latency and stops the search.
	entry, ok = p.Parse(`{"timestamp":"2026-02-17T12:00:00Z","latency_ms":0,"lat_ms":5}`, "")
	require.True(t, ok)
	require.NotNil(t, entry.LatencyMS)
	assert.Equal(t, 0, *entry.LatencyMS)
}

func TestJSONParserRejects(t *testing.T) {
	p := NewJSONParser()

	for name, line := range map[string]string{
		"not json":        "not json at all",
		"broken json":     `{"timestamp":"2026-02-17T12:00:00Z"`,
		"array":           `[1,2,3]`,
		"no timestamp":    `{"level":"error","message":"oom killed"}`,
		"bad timestamp":   `{"timestamp":"yesterday","message":"x"}`,
		"numeric ts":      `{"timestamp":1700000000,"message":"x"}`,
		"trailing tokens": `{"timestamp":"2026-02-17T12:00:00Z"} {"a":1}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, ok := p.Parse(line, "test.log")
			assert.False(t, ok)
		})
	}
}

func TestCoerceLatency(t *testing.T) {
	p := NewJSONParser()

	cases := []struct {
		value string
		want  *int
	}{
		{`812`, intp(812)},
		{`"812"`, intp(812)},
		{`0`, intp(0)},
		{`12.7`, intp(12)},
		{`"12ms"`, nil},
		{`"-5"`, nil},
		{`-5`, nil},
		{`true`, nil},
		{`{"v":1}`, nil},
	}
	for _, tc := range cases {
		t.Run(tc.value, func(t *testing.T) {
			entry, ok := p.Parse(`{"timestamp":"2026-02-17T12:00:00Z","latency_ms":`+tc.value+`}`, "")
			require.True(t, ok)
			assert.Equal(t, tc.want, entry.LatencyMS)
		})
	}
}

func TestTextParser(t *testing.T) {
	p := NewTextParser()

	line := "2025-11-08T13:30:01.234Z ERROR [req=abc123] DB timeout (latency=812ms)"
	entry, ok := p.Parse(line, "app.log")
	require.True(t, ok)

	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, "abc123", entry.RequestID)
	require.NotNil(t, entry.LatencyMS)
	assert.Equal(t, 812, *entry.LatencyMS)
	assert.Equal(t, "[req=abc123] DB timeout (latency=812ms)", entry.Message)
	assert.Equal(t, time.Date(2025, 11, 8, 13, 30, 1, 234000000, time.UTC), entry.Timestamp)
	assert.Equal(t, line, entry.Raw)
}

func TestTextParserVariants(t *testing.T) {
	p := NewTextParser()

	entry, ok := p.Parse("2025-11-08T13:30:01 warn request:r_77 slow call dur: 45 ms", "")
	require.True(t, ok)
	assert.Equal(t, "WARN", entry.Level)
	assert.Equal(t, "r_77", entry.RequestID)
	assert.Equal(t, 45, *entry.LatencyMS)

	entry, ok = p.Parse("2025-11-08T13:30:01Z INFO   started   ", "")
	require.True(t, ok)
	assert.Equal(t, "started", entry.Message)
	assert.Empty(t, entry.RequestID)
	assert.Nil(t, entry.LatencyMS)
}

func TestTextParserRejects(t *testing.T) {
	p := NewTextParser()

	for _, line := range []string{
		"2026-02-17 WARN disk usage at 90%",
		"ERROR disk full",
		"2025-11-08T13:30:01Z ERROR",
		"2025-13-45T99:30:01Z ERROR impossible date",
	} {
		_, ok := p.Parse(line, "")
		assert.False(t, ok, line)
	}
}

func TestCLFParser(t *testing.T) {
	p := NewCLFParser()

	line := `127.0.0.1 - frank [17/Feb/2026:12:00:00 +0100] "GET /api/health HTTP/1.1" 500 1234`
	entry, ok := p.Parse(line, "access.log")
	require.True(t, ok)

	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, "GET /api/health HTTP/1.1", entry.Message)
	assert.Equal(t, time.Date(2026, 2, 17, 11, 0, 0, 0, time.UTC), entry.Timestamp)
}

func TestCLFParserStatusLevels(t *testing.T) {
	p := NewCLFParser()

	entry, ok := p.Parse(`192.168.1.1 - - [17/Feb/2026:12:00:00 +0000] "GET / HTTP/1.1" 200 5678`, "access.log")
	require.True(t, ok)
	assert.Equal(t, "INFO", entry.Level)

	entry, ok = p.Parse(`10.0.0.1 - - [17/Feb/2026:12:00:00 +0000] "GET /missing HTTP/1.1" 404 0`, "access.log")
	require.True(t, ok)
	assert.Equal(t, "WARN", entry.Level)
}

func TestRegexParser(t *testing.T) {
	p, err := NewRegexParser(`^(?P<timestamp>\S+) \[(?P<level>\w+)\] (?P<request_id>\S+) (?P<latency_ms>\d+) (?P<message>.+)$`)
	require.NoError(t, err)

	entry, ok := p.Parse("2026-02-17T12:00:00Z [error] r-1 250 something failed badly", "app.log")
	require.True(t, ok)

	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, "something failed badly", entry.Message)
	assert.Equal(t, "r-1", entry.RequestID)
	assert.Equal(t, 250, *entry.LatencyMS)

	_, ok = p.Parse("garbage", "app.log")
	assert.False(t, ok)
}

func TestRegexParserInvalidPattern(t *testing.T) {
	_, err := NewRegexParser(`[invalid`)
	assert.Error(t, err)

	_, err = NewRegexParser(`(?P<level>\w+)`)
	assert.Error(t, err, "timestamp group is required")
}

func TestChainFirstSuccessWins(t *testing.T) {
	c := Default()

	entry, ok := c.Parse(`{"timestamp":"2026-02-17T12:00:00Z","level":"warn","message":"from json"}`, "")
	require.True(t, ok)
	assert.Equal(t, "from json", entry.Message)

	entry, ok = c.Parse("2026-02-17T12:00:00Z DEBUG from text", "")
	require.True(t, ok)
	assert.Equal(t, "DEBUG", entry.Level)
	assert.Equal(t, "from text", entry.Message)

	_, ok = c.Parse("nothing to see here", "")
	assert.False(t, ok)
}

func TestFromNames(t *testing.T) {
	c, err := FromNames(nil, "")
	require.NoError(t, err)
	assert.Len(t, c, 2)

	c, err = FromNames([]string{"json", "text", "clf"}, `(?P<timestamp>\S+) (?P<message>.*)`)
	require.NoError(t, err)
	assert.Len(t, c, 4)

	_, err = FromNames([]string{"xml"}, "")
	assert.Error(t, err)

	_, err = FromNames([]string{"regex"}, "")
	assert.Error(t, err)
}

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2025-11-08T13:30:01Z", time.Date(2025, 11, 8, 13, 30, 1, 0, time.UTC)},
		{"2025-11-08T13:30:01.5Z", time.Date(2025, 11, 8, 13, 30, 1, 500000000, time.UTC)},
		{"2025-11-08T13:30:01", time.Date(2025, 11, 8, 13, 30, 1, 0, time.UTC)},
		{"2025-11-08T15:30:01+02:00", time.Date(2025, 11, 8, 13, 30, 1, 0, time.UTC)},
		{"2025-11-08T08:30:01.250-0500", time.Date(2025, 11, 8, 13, 30, 1, 250000000, time.UTC)},
		{" 2025-11-08 13:30:01 ", time.Date(2025, 11, 8, 13, 30, 1, 0, time.UTC)},
		{"2025-11-08", time.Date(2025, 11, 8, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := ParseTimestamp(tc.in)
			require.True(t, ok)
			assert.True(t, tc.want.Equal(got), "got %s", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}

	for _, bad := range []string{"", "   ", "not a time", "2025-11-08T25:00:00Z", "11/08/2025"} {
		_, ok := ParseTimestamp(bad)
		assert.False(t, ok, bad)
	}
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "2025-11-08T13:30:01Z", FormatTimestamp(time.Date(2025, 11, 8, 13, 30, 1, 0, time.UTC)))
	assert.Equal(t, "2025-11-08T13:30:01.234000Z", FormatTimestamp(time.Date(2025, 11, 8, 13, 30, 1, 234000000, time.UTC)))

	est := time.FixedZone("EST", -5*3600)
	assert.Equal(t, "2025-11-08T13:30:01Z", FormatTimestamp(time.Date(2025, 11, 8, 8, 30, 1, 0, est)))
}

func intp(v int) *int { return &v }
