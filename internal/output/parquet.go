package output

import (
	"fmt"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/richie-p-meyer/loglens/internal/model"
)

// parquetRow is the on-disk layout of an exported entry.
type parquetRow struct {
	Timestamp time.Time `parquet:"timestamp"`
	Source    string    `parquet:"source"`
	Level     string    `parquet:"level"`
	Message   string    `parquet:"message"`
	RequestID *string   `parquet:"request_id,optional"`
	LatencyMS *int64    `parquet:"latency_ms,optional"`
	Raw       string    `parquet:"raw"`
}

func toParquetRow(e model.LogEntry) parquetRow {
	row := parquetRow{
		Timestamp: e.Timestamp,
		Source:    e.Source,
		Level:     e.Level,
		Message:   e.Message,
		Raw:       e.Raw,
	}
	if e.RequestID != "" {
		rid := e.RequestID
		row.RequestID = &rid
	}
	if lat, ok := e.Latency(); ok {
		v := int64(lat)
		row.LatencyMS = &v
	}
	return row
}

// ExportParquet writes entries to a parquet file at path.
func ExportParquet(path string, entries []model.LogEntry) error {
	rows := make([]parquetRow, len(entries))
	for i, e := range entries {
		rows[i] = toParquetRow(e)
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("failed to write parquet file %s: %w", path, err)
	}
	return nil
}
