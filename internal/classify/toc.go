package classify

import (
	"regexp"
	"strconv"
	"strings"
)

// TOCEntry is one contents line: a section title and the page it starts on.
type TOCEntry struct {
	Title string
	Page  int
}

const tocScanPages = 20

var (
	tocIndicators  = []string{"contents", "table of contents", "index", "chapter"}
	reTrailingPage = regexp.MustCompile(`(\d+)$`)
	reLeaderTail   = regexp.MustCompile(`[.\s]+$`)
)

// DefaultTOC is used when no contents page is found.
var DefaultTOC = []TOCEntry{{Title: "Document", Page: 1}}

// TOCScanPages is how many leading pages ExtractTOC looks at.
func TOCScanPages() int { return tocScanPages }

// ExtractTOC parses the first contents-like page among pages (page texts in order, 1-based).
func ExtractTOC(pages []string) []TOCEntry {
	for i, text := range pages {
		if i >= tocScanPages {
			break
		}
		lower := strings.ToLower(text)
		if !containsAny(lower, tocIndicators) {
			continue
		}
		var entries []TOCEntry
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(line)
			loc := reTrailingPage.FindStringSubmatchIndex(line)
			if loc == nil {
				continue
			}
			page, err := strconv.Atoi(line[loc[2]:loc[3]])
			if err != nil || page >= 1000 {
				continue
			}
			title := reLeaderTail.ReplaceAllString(strings.TrimSpace(line[:loc[0]]), "")
			if len(title) > 3 {
				entries = append(entries, TOCEntry{Title: title, Page: page})
			}
		}
		if len(entries) > 0 {
			return entries
		}
		break
	}
	return DefaultTOC
}

// SectionFor maps a page to the last TOC entry starting at or before it.
func SectionFor(page int, toc []TOCEntry) string {
	if len(toc) == 0 {
		return "General"
	}
	current := toc[0].Title
	for _, e := range toc {
		if page >= e.Page {
			current = e.Title
		} else {
			break
		}
	}
	return current
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
