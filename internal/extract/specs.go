package extract

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/parts-catalog/internal/entity"
)

var (
	reMeasurement = regexp.MustCompile(`(?i)(\d+\.?\d*)\s*(mm|in|inch|lbs?|kg|psi|bar|rpm|ft)\b`)
	reLabelled    = regexp.MustCompile(`(?i)\b(Torque|Weight|Capacity|Pressure|Size|Length|Width|Height):?[ \t]*([^\n]+)`)
)

const maxSpecValue = 120

// PageSpecifications mines labelled values and the last bare measurement on a catalog page.
// Keys are lower-case; a repeated key keeps its first value.
func PageSpecifications(text string) []entity.SpecPair {
	var out []entity.SpecPair
	seen := map[string]struct{}{}
	add := func(k, v string) {
		if _, ok := seen[k]; ok || v == "" {
			return
		}
		seen[k] = struct{}{}
		out = append(out, entity.SpecPair{Key: k, Value: v})
	}
	for _, sm := range reLabelled.FindAllStringSubmatch(text, -1) {
		add(strings.ToLower(sm[1]), Truncate(CollapseSpace(sm[2]), maxSpecValue))
	}
	if ms := reMeasurement.FindAllStringSubmatch(text, -1); len(ms) > 0 {
		last := ms[len(ms)-1]
		add("measurement", last[1]+" "+strings.ToLower(last[2]))
	}
	return out
}

var (
	reOENumber = regexp.MustCompile(`(?i)\b(?:OE|OEM|REPLACES|CROSS[ -]?REF(?:ERENCE)?)\b[#:.\s-]*([A-Z0-9][A-Z0-9-]{3,})`)
	reBullet   = regexp.MustCompile(`^\s*(?:[•▪◦*]|-\s)\s*(.+)$`)
)

const maxFeatures = 1000

// OENumbers returns the original-equipment numbers cross-referenced in text, first-seen order.
func OENumbers(text string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, sm := range reOENumber.FindAllStringSubmatch(text, -1) {
		n := strings.ToUpper(strings.Trim(sm[1], "-"))
		if len(n) < 4 {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// PageFeatures joins the bullet lines of a page.
func PageFeatures(text string) string {
	var parts []string
	for _, line := range strings.Split(text, "\n") {
		if sm := reBullet.FindStringSubmatch(line); sm != nil {
			if f := CollapseSpace(sm[1]); f != "" {
				parts = append(parts, f)
			}
		}
	}
	return Truncate(strings.Join(parts, " "), maxFeatures)
}
