// Package loader turns raw log text into a time-ordered slice of entries.
package loader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sirupsen/logrus"

	"github.com/richie-p-meyer/loglens/internal/model"
	"github.com/richie-p-meyer/loglens/internal/parser"
)

// maxLineSize bounds a single line; longer lines are skipped.
const maxLineSize = 4 << 20

// Loader applies a parser to every non-blank line and sorts the result.
type Loader struct {
	parser parser.Parser
	log    logrus.FieldLogger
}

// New creates a Loader. A nil parser selects parser.Default().
func New(p parser.Parser, log logrus.FieldLogger) *Loader {
	if p == nil {
		p = parser.Default()
	}
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Loader{parser: p, log: log}
}

// Lines parses already-read lines. Blank and unparseable lines are
// skipped. The result is sorted ascending by timestamp; entries with equal
// timestamps keep their input order.
func (l *Loader) Lines(lines []string, source string) []model.LogEntry {
	var entries []model.LogEntry
	skipped := 0
	for _, line := range lines {
		if !l.parseInto(&entries, line, source) {
			skipped++
		}
	}
	l.logCounts(source, len(entries), skipped)
	sortEntries(entries)
	return entries
}

// Read parses lines from r. Invalid UTF-8 is replaced, not rejected.
func (l *Loader) Read(r io.Reader, source string) ([]model.LogEntry, error) {
	entries, err := l.read(r, source)
	if err != nil {
		return nil, err
	}
	sortEntries(entries)
	return entries, nil
}

// Files expands a glob pattern (supporting ** via doublestar) and merges
// the entries of every matching file into one sorted slice. Files are read
// in lexical order, so equal timestamps keep file-then-line order.
func (l *Loader) Files(pattern string) ([]model.LogEntry, error) {
	paths, err := expandGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to expand pattern %q: %w", pattern, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no files matched %q", pattern)
	}

	var all []model.LogEntry
	for _, p := range paths {
		entries, err := l.readFile(p)
		if err != nil {
			return nil, err
		}
		all = append(all, entries...)
	}
	sortEntries(all)
	return all, nil
}

func (l *Loader) readFile(path string) ([]model.LogEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}
	defer f.Close()

	entries, err := l.read(f, path)
	if err != nil {
		return nil, fmt.Errorf("read error on %s: %w", path, err)
	}
	return entries, nil
}

// read parses r line by line without sorting. A line longer than
// maxLineSize is consumed and counted as skipped.
func (l *Loader) read(r io.Reader, source string) ([]model.LogEntry, error) {
	br := bufio.NewReaderSize(r, 64*1024)

	var entries []model.LogEntry
	skipped := 0
	for {
		line, oversized, err := readLine(br)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if oversized {
			skipped++
			continue
		}
		if !l.parseInto(&entries, strings.ToValidUTF8(line, "\uFFFD"), source) {
			skipped++
		}
	}
	l.logCounts(source, len(entries), skipped)
	return entries, nil
}

// readLine returns the next line without its terminator. Lines longer than
// maxLineSize are drained and reported as oversized with an empty text.
func readLine(br *bufio.Reader) (string, bool, error) {
	var buf []byte
	oversized := false
	for {
		chunk, isPrefix, err := br.ReadLine()
		if err != nil {
			if err == io.EOF && (len(buf) > 0 || oversized) {
				return string(buf), oversized, nil
			}
			return "", false, err
		}
		if !oversized {
			if len(buf)+len(chunk) > maxLineSize {
				oversized = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if !isPrefix {
			return string(buf), oversized, nil
		}
	}
}

// parseInto appends the parsed line to dst. It returns false only for a
// non-blank line that no strategy accepted.
func (l *Loader) parseInto(dst *[]model.LogEntry, line, source string) bool {
	if strings.TrimSpace(line) == "" {
		return true
	}
	entry, ok := l.parser.Parse(line, source)
	if !ok {
		return false
	}
	*dst = append(*dst, entry)
	return true
}

func (l *Loader) logCounts(source string, parsed, skipped int) {
	l.log.WithFields(logrus.Fields{
		"source":  source,
		"parsed":  parsed,
		"skipped": skipped,
	}).Debug("loaded log entries")
}

func sortEntries(entries []model.LogEntry) {
	slices.SortStableFunc(entries, func(a, b model.LogEntry) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
}

// expandGlob resolves a glob pattern to matching file paths.
// Supports recursive patterns like /var/log/**/*.log via doublestar.
func expandGlob(pattern string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
	if err != nil {
		return nil, err
	}
	for i, m := range matches {
		if abs, err := filepath.Abs(m); err == nil {
			matches[i] = abs
		}
	}
	slices.Sort(matches)
	return matches, nil
}
