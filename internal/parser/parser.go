package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/richie-p-meyer/loglens/internal/model"
)

// Parser converts a raw log line into a structured LogEntry.
// The boolean result is false when the line is not in the parser's format
// or carries no usable timestamp; such lines are skipped, never reported.
type Parser interface {
	Parse(raw string, source string) (model.LogEntry, bool)
}

// ---------------------------------------------------------------------------
// JSON Parser
// ---------------------------------------------------------------------------

// JSONParser handles JSON-formatted log lines.
// Recognizes field names: timestamp/time/ts, level, message/msg,
// request_id/req_id/rid and latency_ms/lat_ms/duration_ms.
type JSONParser struct{}

func NewJSONParser() *JSONParser { return &JSONParser{} }

func (p *JSONParser) Parse(raw string, source string) (model.LogEntry, bool) {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return model.LogEntry{}, false
	}

	var data map[string]interface{}
	dec := json.NewDecoder(strings.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&data); err != nil || dec.More() {
		return model.LogEntry{}, false
	}

	tsValue, _ := data[firstTruthy(data, "timestamp", "time", "ts")].(string)
	ts, ok := ParseTimestamp(tsValue)
	if !ok {
		return model.LogEntry{}, false
	}

	entry := base(raw, source, ts)

	if v, ok := data["level"]; ok && v != nil {
		entry.Level = strings.ToUpper(stringify(v))
	}

	if v, ok := data["message"]; ok {
		entry.Message = stringify(v)
	} else if v, ok := data["msg"]; ok {
		entry.Message = stringify(v)
	}

	if k := firstTruthy(data, "request_id", "req_id", "rid"); k != "" {
		entry.RequestID = stringify(data[k])
	}

	for _, k := range []string{"latency_ms", "lat_ms", "duration_ms"} {
		if lat := CoerceLatency(data[k]); lat != nil {
			entry.LatencyMS = lat
			break
		}
	}

	return entry, true
}

// CoerceLatency converts a decoded JSON value into a non-negative
// millisecond count. Numbers are truncated, strings must be all digits.
// Anything else (including negatives) yields nil.
func CoerceLatency(v interface{}) *int {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return nonNegative(i)
		}
		if f, err := n.Float64(); err == nil && !math.IsInf(f, 0) && f < math.MaxInt32 {
			return nonNegative(int64(f))
		}
	case float64:
		if !math.IsInf(n, 0) && !math.IsNaN(n) && n < math.MaxInt32 {
			return nonNegative(int64(n))
		}
	case int:
		return nonNegative(int64(n))
	case string:
		return parseDigits(n)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Text Parser (timestamp + level prefix)
// ---------------------------------------------------------------------------

var (
	textLineRe  = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?Z?)\s+([A-Za-z]+)\s+(.*)`)
	requestIDRe = regexp.MustCompile(`(?i)req(?:uest)?[=_:\s]([A-Za-z0-9_-]+)`)
	latencyRe   = regexp.MustCompile(`(?i)(?:latency|lat|dur|duration)[=\s:~]*(\d+)\s*ms`)
)

// TextParser handles free-text lines of the shape
// "<timestamp> <LEVEL> <rest>", e.g.
//
//	2025-11-08T13:30:01.234Z ERROR [req=abc123] DB timeout (latency=812ms)
//
// The request id and latency are extracted from the rest, which is kept
// whole as the message.
type TextParser struct{}

func NewTextParser() *TextParser { return &TextParser{} }

func (p *TextParser) Parse(raw string, source string) (model.LogEntry, bool) {
	matches := textLineRe.FindStringSubmatch(raw)
	if matches == nil {
		return model.LogEntry{}, false
	}

	ts, ok := ParseTimestamp(matches[1])
	if !ok {
		return model.LogEntry{}, false
	}

	entry := base(raw, source, ts)
	entry.Level = strings.ToUpper(matches[2])

	rest := strings.TrimSpace(matches[3])
	entry.Message = rest

	if m := requestIDRe.FindStringSubmatch(rest); m != nil {
		entry.RequestID = m[1]
	}
	if m := latencyRe.FindStringSubmatch(rest); m != nil {
		entry.LatencyMS = parseDigits(m[1])
	}

	return entry, true
}

// ---------------------------------------------------------------------------
// CLF Parser (Common Log Format)
// ---------------------------------------------------------------------------

// CLFParser handles Apache/Nginx Common Log Format lines.
// Format: host ident authuser [date] "request" status bytes
type CLFParser struct {
	re *regexp.Regexp
}

func NewCLFParser() *CLFParser {
	return &CLFParser{
		re: regexp.MustCompile(`^(\S+) (\S+) (\S+) \[([^\]]+)\] "([^"]*)" (\d{3}) (\S+)`),
	}
}

func (p *CLFParser) Parse(raw string, source string) (model.LogEntry, bool) {
	matches := p.re.FindStringSubmatch(raw)
	if matches == nil {
		return model.LogEntry{}, false
	}

	// 17/Feb/2026:12:00:00 +0000
	t, err := time.Parse("02/Jan/2006:15:04:05 -0700", matches[4])
	if err != nil {
		return model.LogEntry{}, false
	}

	entry := base(raw, source, t.UTC())
	entry.Level = statusToLevel(matches[6])
	entry.Message = matches[5] // the request line
	return entry, true
}

// statusToLevel maps HTTP status codes to log severity levels.
func statusToLevel(status string) string {
	if len(status) == 0 {
		return "INFO"
	}
	switch status[0] {
	case '5':
		return "ERROR"
	case '4':
		return "WARN"
	default:
		return "INFO"
	}
}

// ---------------------------------------------------------------------------
// Regex Parser (user-defined patterns)
// ---------------------------------------------------------------------------

// RegexParser uses a user-supplied regex with named capture groups.
// The timestamp group is required; level, message, request_id and
// latency_ms are optional.
type RegexParser struct {
	re *regexp.Regexp
}

func NewRegexParser(pattern string) (*RegexParser, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex pattern: %w", err)
	}
	if re.SubexpIndex("timestamp") < 0 {
		return nil, fmt.Errorf("regex pattern %q has no (?P<timestamp>...) group", pattern)
	}
	return &RegexParser{re: re}, nil
}

func (p *RegexParser) Parse(raw string, source string) (model.LogEntry, bool) {
	matches := p.re.FindStringSubmatch(raw)
	if matches == nil {
		return model.LogEntry{}, false
	}

	ts, ok := ParseTimestamp(matches[p.re.SubexpIndex("timestamp")])
	if !ok {
		return model.LogEntry{}, false
	}
	entry := base(raw, source, ts)

	for i, name := range p.re.SubexpNames() {
		if i == 0 || name == "" || matches[i] == "" {
			continue
		}
		val := matches[i]
		switch name {
		case "level":
			entry.Level = strings.ToUpper(val)
		case "message":
			entry.Message = strings.TrimSpace(val)
		case "request_id":
			entry.RequestID = val
		case "latency_ms":
			entry.LatencyMS = parseDigits(val)
		}
	}

	return entry, true
}

// ---------------------------------------------------------------------------
// Chain (ordered strategies)
// ---------------------------------------------------------------------------

// Chain tries parsers in order; the first one that yields an entry wins.
type Chain []Parser

// Default returns the standard chain: JSON first, then free text.
func Default() Chain {
	return Chain{NewJSONParser(), NewTextParser()}
}

func (c Chain) Parse(raw string, source string) (model.LogEntry, bool) {
	for _, p := range c {
		if entry, ok := p.Parse(raw, source); ok {
			return entry, true
		}
	}
	return model.LogEntry{}, false
}

// FromNames builds a chain from strategy names (json, text, clf, regex).
// A non-empty pattern appends a regex strategy if "regex" is not listed.
func FromNames(names []string, pattern string) (Chain, error) {
	if len(names) == 0 {
		names = []string{"json", "text"}
	}

	var chain Chain
	sawRegex := false
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "json":
			chain = append(chain, NewJSONParser())
		case "text":
			chain = append(chain, NewTextParser())
		case "clf":
			chain = append(chain, NewCLFParser())
		case "regex":
			if pattern == "" {
				return nil, fmt.Errorf("parser %q requires a pattern", name)
			}
			rp, err := NewRegexParser(pattern)
			if err != nil {
				return nil, err
			}
			chain = append(chain, rp)
			sawRegex = true
		default:
			return nil, fmt.Errorf("unknown parser %q", name)
		}
	}

	if pattern != "" && !sawRegex {
		rp, err := NewRegexParser(pattern)
		if err != nil {
			return nil, err
		}
		chain = append(chain, rp)
	}
	return chain, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// base returns a LogEntry with defaults populated.
func base(raw, source string, ts time.Time) model.LogEntry {
	return model.LogEntry{
		Timestamp: ts,
		Source:    source,
		Raw:       strings.TrimRight(raw, "\n"),
		Level:     "INFO",
	}
}

// firstTruthy returns the first key whose value is present and not
// null, false, zero or empty.
func firstTruthy(data map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		switch v := data[k].(type) {
		case nil:
		case bool:
			if v {
				return k
			}
		case string:
			if v != "" {
				return k
			}
		case json.Number:
			if f, err := v.Float64(); err != nil || f != 0 {
				return k
			}
		case map[string]interface{}:
			if len(v) > 0 {
				return k
			}
		case []interface{}:
			if len(v) > 0 {
				return k
			}
		default:
			return k
		}
	}
	return ""
}

// stringify renders a decoded JSON value as text. Scalars print as-is,
// containers as compact JSON.
func stringify(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case json.Number:
		return s.String()
	case bool:
		return strconv.FormatBool(s)
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(s); err != nil {
			return fmt.Sprintf("%v", s)
		}
		return strings.TrimSpace(buf.String())
	}
}

func parseDigits(s string) *int {
	if s == "" {
		return nil
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return nil
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return model.IntPtr(n)
}

func nonNegative(i int64) *int {
	if i < 0 || i > math.MaxInt32 {
		return nil
	}
	return model.IntPtr(int(i))
}
