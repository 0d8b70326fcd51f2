package extract

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/parts-catalog/internal/patterns"
)

const (
	DefaultContextLimit = 250
	fallbackWindow      = 100
)

var reSpaces = regexp.MustCompile(`\s+`)

// CollapseSpace trims s and folds every whitespace run into one space.
func CollapseSpace(s string) string {
	return reSpaces.ReplaceAllString(strings.TrimSpace(s), " ")
}

// Truncate caps s at n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// contextFor picks the first line holding the literal match; otherwise a raw window around it.
func contextFor(text string, lines []string, m patterns.Match, limit int) string {
	for _, line := range lines {
		if strings.Contains(line, m.Text) {
			return Truncate(CollapseSpace(line), limit)
		}
	}
	start := m.Start - fallbackWindow
	if start < 0 {
		start = 0
	}
	end := m.End + fallbackWindow
	if end > len(text) {
		end = len(text)
	}
	return strings.TrimSpace(strings.ToValidUTF8(text[start:end], ""))
}
