package output

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"github.com/richie-p-meyer/loglens/internal/aggregator"
	"github.com/richie-p-meyer/loglens/internal/model"
)

func sampleEntry() model.LogEntry {
	return model.LogEntry{
		Timestamp: time.Date(2025, 11, 8, 13, 30, 1, 234000000, time.UTC),
		Source:    "/var/log/app.log",
		Raw:       "2025-11-08T13:30:01.234Z ERROR [req=abc123] DB timeout (latency=812ms)",
		Level:     "ERROR",
		Message:   "[req=abc123] DB timeout (latency=812ms)",
		RequestID: "abc123",
		LatencyMS: model.IntPtr(812),
	}
}

func TestFormatEntry(t *testing.T) {
	assert.Equal(t,
		"2025-11-08T13:30:01.234000Z ERROR [req=abc123] DB timeout (latency=812ms) req=abc123 latency=812ms",
		FormatEntry(sampleEntry()))

	bare := model.LogEntry{Timestamp: time.Date(2025, 11, 8, 13, 30, 1, 0, time.UTC), Level: "INFO", Message: "started"}
	assert.Equal(t, "2025-11-08T13:30:01Z INFO started", FormatEntry(bare))
}

func TestTextRendererLimit(t *testing.T) {
	var buf bytes.Buffer
	r := NewTextRenderer(&buf, false)

	entries := []model.LogEntry{sampleEntry(), sampleEntry(), sampleEntry()}
	n, err := RenderAll(r, entries, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))

	buf.Reset()
	n, err = RenderAll(r, entries, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestJSONRenderer(t *testing.T) {
	var buf bytes.Buffer
	renderer := NewJSONRenderer(&buf)

	require.NoError(t, renderer.Render(sampleEntry()))

	var got model.LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got), "raw: %s", buf.String())
	assert.Equal(t, "ERROR", got.Level)
	assert.Equal(t, "abc123", got.RequestID)
	assert.Equal(t, "/var/log/app.log", got.Source)
	require.NotNil(t, got.LatencyMS)
	assert.Equal(t, 812, *got.LatencyMS)
}

func TestNewRenderer(t *testing.T) {
	var buf bytes.Buffer

	r, err := New("JSON", &buf, false)
	require.NoError(t, err)
	assert.IsType(t, &JSONRenderer{}, r)

	r, err = New("", &buf, true)
	require.NoError(t, err)
	assert.IsType(t, &TextRenderer{}, r)

	_, err = New("xml", &buf, false)
	assert.Error(t, err)
}

func TestWriteReport(t *testing.T) {
	s := aggregator.Summarize([]model.LogEntry{sampleEntry()})

	var text bytes.Buffer
	require.NoError(t, WriteReport(&text, "text", s))
	assert.Equal(t, s.String()+"\n", text.String())

	var js bytes.Buffer
	require.NoError(t, WriteReport(&js, "json", s))
	var decoded aggregator.Summary
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	assert.Equal(t, s, decoded)

	var ym bytes.Buffer
	require.NoError(t, WriteReport(&ym, "yaml", s))
	var fromYAML aggregator.Summary
	require.NoError(t, yaml.Unmarshal(ym.Bytes(), &fromYAML))
	assert.Equal(t, 1, fromYAML.Total)
	assert.Equal(t, "ERROR", fromYAML.Levels[0].Key)

	assert.Error(t, WriteReport(&text, "csv", s))
}

func TestExportParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.parquet")
	bare := model.LogEntry{Timestamp: time.Date(2025, 11, 8, 13, 31, 0, 0, time.UTC), Level: "INFO", Message: "ok"}

	require.NoError(t, ExportParquet(path, []model.LogEntry{sampleEntry(), bare}))

	rows, err := parquet.ReadFile[parquetRow](path)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.True(t, sampleEntry().Timestamp.Equal(rows[0].Timestamp))
	assert.Equal(t, "ERROR", rows[0].Level)
	require.NotNil(t, rows[0].RequestID)
	assert.Equal(t, "abc123", *rows[0].RequestID)
	require.NotNil(t, rows[0].LatencyMS)
	assert.Equal(t, int64(812), *rows[0].LatencyMS)

	assert.Nil(t, rows[1].RequestID)
	assert.Nil(t, rows[1].LatencyMS)
}
