package guides

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/joseph-ayodele/parts-catalog/internal/entity"
)

type specPattern struct {
	re *regexp.Regexp
	// key/value/unit capture group indexes
	key, value, unit int
}

// specPatterns run in this order: "key = value unit", "value unit key", "key - value unit".
var specPatterns = []specPattern{
	{re: regexp.MustCompile(`(?i)(\w+)\s*[=:]\s*([\d.]+)\s*(\w+)`), key: 1, value: 2, unit: 3},
	{re: regexp.MustCompile(`(?i)([\d.]+)\s*(\w+)\s*([\w\s]+)`), key: 3, value: 1, unit: 2},
	{re: regexp.MustCompile(`(?i)(\w+)\s*[-–]\s*([\d.]+)\s*(\w+)`), key: 1, value: 2, unit: 3},
}

var abbreviations = map[string]string{
	"max":  "maximum",
	"min":  "minimum",
	"temp": "temperature",
	"volt": "voltage",
	"amp":  "amperage",
	"rpm":  "speed",
	"psi":  "pressure",
	"hp":   "horsepower",
}

var specKeyBlacklist = map[string]bool{
	"page":    true,
	"figure":  true,
	"table":   true,
	"chapter": true,
	"section": true,
}

var (
	reDigitsOnly = regexp.MustCompile(`^[\d.]+$`)
	titleCaser   = cases.Title(language.English)
)

// NormalizeSpecKey lower-cases raw, expands abbreviations word by word and title-cases the
// result. ok is false for keys that are numeric, shorter than two characters or blacklisted.
func NormalizeSpecKey(raw string) (key string, ok bool) {
	lower := strings.Join(strings.Fields(strings.ToLower(raw)), " ")
	if utf8.RuneCountInString(lower) < 2 || reDigitsOnly.MatchString(lower) || specKeyBlacklist[lower] {
		return "", false
	}
	words := strings.Fields(lower)
	for i, w := range words {
		if full, found := abbreviations[w]; found {
			words[i] = full
		}
	}
	return titleCaser.String(strings.Join(words, " ")), true
}

// specCollector keeps the first value seen for each normalized key, in insertion order.
type specCollector struct {
	pairs []entity.SpecPair
	seen  map[string]bool
}

func newSpecCollector() *specCollector {
	return &specCollector{seen: map[string]bool{}}
}

func (c *specCollector) add(rawKey, value string) {
	key, ok := NormalizeSpecKey(rawKey)
	if !ok || c.seen[key] || value == "" {
		return
	}
	c.seen[key] = true
	c.pairs = append(c.pairs, entity.SpecPair{Key: key, Value: value})
}

// collect mines one page, pattern by pattern, line by line.
func (c *specCollector) collect(text string) {
	lines := strings.Split(text, "\n")
	for _, p := range specPatterns {
		for _, line := range lines {
			for _, m := range p.re.FindAllStringSubmatch(line, -1) {
				value := strings.TrimSpace(m[p.value])
				if strings.Trim(value, ".") == "" {
					continue
				}
				if unit := strings.TrimSpace(m[p.unit]); unit != "" {
					value += " " + unit
				}
				c.add(m[p.key], value)
			}
		}
	}
}
