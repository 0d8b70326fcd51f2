package extract

import (
	"sort"
	"strings"

	"github.com/joseph-ayodele/parts-catalog/internal/patterns"
)

// ModelRecognizer collects machine/model tokens into a sorted set.
type ModelRecognizer struct {
	bank *patterns.Bank
}

func NewModelRecognizer(bank *patterns.Bank) *ModelRecognizer {
	return &ModelRecognizer{bank: bank}
}

// Recognize returns the uppercase, de-duplicated, sorted model tokens in text.
func (r *ModelRecognizer) Recognize(text string) []string {
	set := map[string]struct{}{}
	for _, re := range r.bank.ModelPatterns() {
		for _, sm := range re.FindAllStringSubmatch(text, -1) {
			tok := strings.ToUpper(strings.TrimSpace(sm[1]))
			if len(tok) < 2 {
				continue
			}
			set[tok] = struct{}{}
		}
	}
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
