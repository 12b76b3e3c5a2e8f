// Package normalize collapses volatile tokens in log messages so that
// messages describing the same kind of event group together.
package normalize

import (
	"regexp"
	"strings"
)

const (
	IDPlaceholder     = "<id>"
	NumberPlaceholder = "<n>"
)

var (
	hexRunRe   = regexp.MustCompile(`(?i)\b[0-9a-f]{6,}\b`)
	digitRunRe = regexp.MustCompile(`\b\d+\b`)
)

// Message returns the grouping key for msg: whole-word hex runs of six or
// more characters become <id>, then whole-word digit runs become <n>.
// Message is idempotent.
func Message(msg string) string {
	msg = hexRunRe.ReplaceAllLiteralString(msg, IDPlaceholder)
	msg = digitRunRe.ReplaceAllLiteralString(msg, NumberPlaceholder)
	return strings.TrimSpace(msg)
}
