package pdfdoc

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reTabs       = regexp.MustCompile(`\t+`)
	reMultiSpace = regexp.MustCompile(` {2,}`)
	reMultiBlank = regexp.MustCompile(`\n{3,}`)
)

// Normalize folds compatibility characters (ligatures, full-width digits) and collapses
// noisy whitespace. Line breaks are kept; part-number context depends on them.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = norm.NFKC.String(s)
	s = strings.ReplaceAll(s, "\f", "\n")
	s = reCRLF.ReplaceAllString(s, "\n")
	s = reTabs.ReplaceAllString(s, " ")
	s = reMultiSpace.ReplaceAllString(s, " ")
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
