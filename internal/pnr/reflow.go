package pnr

import (
	"strings"

	"billete/internal/patterns"
)

// Reflow joins physical lines into logical GDS records. A trimmed line that
// starts with a sequence number opens a record; every other non-blank line is
// appended to the open record with a single space.
func Reflow(text string) []string {
	var out []string
	var current strings.Builder
	open := false

	flush := func() {
		if open {
			out = append(out, current.String())
			current.Reset()
		}
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if patterns.RecordStartPattern.MatchString(line) {
			flush()
			current.WriteString(line)
			open = true
			continue
		}

		// Continuation. Text before the first numbered record becomes a
		// record of its own.
		if open {
			current.WriteByte(' ')
		}
		current.WriteString(line)
		open = true
	}
	flush()

	return out
}
