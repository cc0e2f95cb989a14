// Package textfmt normalizes freeform user input into sentence-terminated
// prose suitable for speech synthesis. The speech service pauses naturally at
// sentence boundaries, so every line boundary becomes "<terminator> ".
package textfmt

import "strings"

// Format joins the given lines into a single string where every line ends in
// a sentence terminator followed by exactly one space. Lines that already end
// in '.', '?' or '!' are kept as-is; blank and whitespace-only lines are
// skipped. Formatting already-formatted text is a no-op.
func Format(lines []string) string {
	var b strings.Builder
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		b.WriteString(line)
		if !endsWithTerminator(line) {
			b.WriteByte('.')
		}
		b.WriteByte(' ')
	}
	return b.String()
}

// TrimTrailing returns lines with the last n entries removed.
// n <= 0 keeps everything; n >= len(lines) yields an empty slice.
func TrimTrailing(lines []string, n int) []string {
	if n <= 0 {
		return lines
	}
	if n >= len(lines) {
		return nil
	}
	return lines[:len(lines)-n]
}

func endsWithTerminator(s string) bool {
	if s == "" {
		return false
	}
	switch s[len(s)-1] {
	case '.', '?', '!':
		return true
	}
	return false
}
