package model

import "time"

// LogEntry represents a single parsed log line.
// Entries are built once by a parser and never modified afterwards.
type LogEntry struct {
	// Timestamp is always normalized to UTC.
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	// Source is the originating file path.
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
	// Raw is the original line text.
	Raw string `json:"raw" yaml:"raw"`
	// Level is uppercase: INFO, WARN, ERROR, ...
	Level   string `json:"level" yaml:"level"`
	Message string `json:"message" yaml:"message"`
	// RequestID is empty when the line carries no correlation id.
	RequestID string `json:"request_id,omitempty" yaml:"request_id,omitempty"`
	// LatencyMS is nil when the line carries no latency.
	LatencyMS *int `json:"latency_ms,omitempty" yaml:"latency_ms,omitempty"`
}

// Latency returns the entry latency in milliseconds and whether it is present.
func (e LogEntry) Latency() (int, bool) {
	if e.LatencyMS == nil {
		return 0, false
	}
	return *e.LatencyMS, true
}

// IntPtr returns a pointer to v, for building entries with a latency.
func IntPtr(v int) *int { return &v }
