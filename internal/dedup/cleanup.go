package dedup

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/parts-catalog/internal/extract"
)

const (
	DescriptionLimit = 500
	TextLimit        = 1000
)

var (
	reDotDashRuns = regexp.MustCompile(`\.{3,}|-{3,}`)
	reWhitespace  = regexp.MustCompile(`\s+`)
)

// Clean collapses leader runs (three or more dots or dashes) and repeated whitespace, then caps
// the result at limit runes. Clean(Clean(s)) == Clean(s).
func Clean(s string, limit int) string {
	s = reDotDashRuns.ReplaceAllString(s, " ")
	s = strings.TrimSpace(reWhitespace.ReplaceAllString(s, " "))
	return strings.TrimSpace(extract.Truncate(s, limit))
}

// appendText adds addition to base with sep unless it is empty or already contained.
func appendText(base, addition, sep string) string {
	addition = strings.TrimSpace(addition)
	switch {
	case addition == "" || strings.Contains(base, addition):
		return base
	case base == "":
		return addition
	}
	return base + sep + addition
}
