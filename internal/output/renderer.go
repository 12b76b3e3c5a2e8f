package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/richie-p-meyer/loglens/internal/model"
	"github.com/richie-p-meyer/loglens/internal/parser"
)

// Renderer writes LogEntry values to an output stream.
type Renderer interface {
	Render(entry model.LogEntry) error
}

// New returns the renderer for format ("text" or "json").
func New(format string, w io.Writer, color bool) (Renderer, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return NewTextRenderer(w, color), nil
	case "json":
		return NewJSONRenderer(w), nil
	default:
		return nil, fmt.Errorf("unsupported listing format %q", format)
	}
}

// ---------------------------------------------------------------------------
// Text Renderer
// ---------------------------------------------------------------------------

var (
	styleInfo  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")) // gray
	styleDebug = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Faint(true)
	styleWarn  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))            // yellow
	styleError = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true) // red bold
	styleFatal = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("196")).
			Bold(true) // white on red
)

// TextRenderer prints one line per entry:
//
//	<timestamp>Z <LEVEL> <message>[ req=<id>][ latency=<n>ms]
//
// With color enabled the level is styled by severity.
type TextRenderer struct {
	w     io.Writer
	color bool
}

// NewTextRenderer returns a Renderer that writes text lines to w.
func NewTextRenderer(w io.Writer, color bool) *TextRenderer {
	return &TextRenderer{w: w, color: color}
}

func (r *TextRenderer) Render(entry model.LogEntry) error {
	level := entry.Level
	if r.color {
		level = styleLevelTag(level)
	}
	_, err := fmt.Fprintln(r.w, formatLine(entry, level))
	return err
}

// FormatEntry renders entry as a plain listing line.
func FormatEntry(entry model.LogEntry) string {
	return formatLine(entry, entry.Level)
}

func formatLine(entry model.LogEntry, level string) string {
	var b strings.Builder
	b.WriteString(parser.FormatTimestamp(entry.Timestamp))
	b.WriteByte(' ')
	b.WriteString(level)
	b.WriteByte(' ')
	b.WriteString(entry.Message)
	if entry.RequestID != "" {
		b.WriteString(" req=")
		b.WriteString(entry.RequestID)
	}
	if lat, ok := entry.Latency(); ok {
		fmt.Fprintf(&b, " latency=%dms", lat)
	}
	return b.String()
}

func styleLevelTag(level string) string {
	switch level {
	case "DEBUG", "TRACE":
		return styleDebug.Render(level)
	case "WARN", "WARNING":
		return styleWarn.Render(level)
	case "ERROR":
		return styleError.Render(level)
	case "FATAL", "CRITICAL":
		return styleFatal.Render(level)
	default:
		return styleInfo.Render(level)
	}
}

// ---------------------------------------------------------------------------
// JSON Renderer (structured output for piping)
// ---------------------------------------------------------------------------

// JSONRenderer prints each log entry as a single JSON object per line.
type JSONRenderer struct {
	enc *json.Encoder
}

// NewJSONRenderer returns a Renderer that writes JSON lines to w.
func NewJSONRenderer(w io.Writer) *JSONRenderer {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONRenderer{enc: enc}
}

func (r *JSONRenderer) Render(entry model.LogEntry) error {
	return r.enc.Encode(entry)
}

// RenderAll renders at most limit entries (all when limit <= 0) and
// returns how many were written.
func RenderAll(r Renderer, entries []model.LogEntry, limit int) (int, error) {
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	for i, e := range entries {
		if err := r.Render(e); err != nil {
			return i, err
		}
	}
	return len(entries), nil
}
