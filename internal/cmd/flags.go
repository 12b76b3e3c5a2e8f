package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/richie-p-meyer/loglens/internal/filter"
	"github.com/richie-p-meyer/loglens/internal/loader"
	"github.com/richie-p-meyer/loglens/internal/model"
)

// filterFlags holds the predicate flags shared by stats, filter and diff.
type filterFlags struct {
	since      string
	until      string
	levels     []string
	keywords   []string
	requestID  string
	minLatency int
}

func (f *filterFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.since, "since", "", `ISO timestamp, e.g. "2025-11-08T13:00:00Z"`)
	fs.StringVar(&f.until, "until", "", "ISO timestamp")
	fs.StringSliceVar(&f.levels, "levels", nil, "filter by levels, e.g. ERROR,WARN")
	fs.StringSliceVar(&f.keywords, "keywords", nil, "filter by keyword(s) in the message")
	fs.StringVar(&f.requestID, "request-id", "", "filter by request id")
	fs.IntVar(&f.minLatency, "min-latency", 0, "only entries with latency >= ms")
}

// criteria converts the flags into filter criteria. min-latency applies
// only when explicitly set.
func (f *filterFlags) criteria(cmd *cobra.Command) (filter.Criteria, error) {
	q := filter.Query{
		Since:     f.since,
		Until:     f.until,
		Levels:    f.levels,
		Keywords:  f.keywords,
		RequestID: f.requestID,
	}
	if cmd.Flags().Changed("min-latency") {
		v := f.minLatency
		q.MinLatency = &v
	}
	return q.Criteria()
}

// loadFiltered loads every file matching pattern and applies c.
func loadFiltered(l *loader.Loader, pattern string, c filter.Criteria) ([]model.LogEntry, error) {
	entries, err := l.Files(pattern)
	if err != nil {
		return nil, err
	}
	return filter.Apply(entries, c), nil
}

// loadPair runs the healthy and failing pipelines concurrently. They share
// no state, so the result matches sequential loading.
func loadPair(l *loader.Loader, healthy, failing string, c filter.Criteria) ([]model.LogEntry, []model.LogEntry, error) {
	var h, f []model.LogEntry
	var g errgroup.Group
	g.Go(func() error {
		var err error
		h, err = loadFiltered(l, healthy, c)
		if err != nil {
			return fmt.Errorf("healthy: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		f, err = loadFiltered(l, failing, c)
		if err != nil {
			return fmt.Errorf("failing: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return h, f, nil
}
