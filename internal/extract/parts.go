// Package extract turns page text into part-number and machine-model candidates.
package extract

import (
	"strings"

	"github.com/joseph-ayodele/parts-catalog/constants"
	"github.com/joseph-ayodele/parts-catalog/internal/patterns"
)

// Candidate is a recognized, validated part-number occurrence.
type Candidate struct {
	Type    constants.EntityType
	Number  string
	Context string
	Page    int
	Rule    string
}

// PartRecognizer scans text with a shared PatternBank.
type PartRecognizer struct {
	bank         *patterns.Bank
	contextLimit int
}

type Option func(*PartRecognizer)

// WithContextLimit caps the context line length in runes.
func WithContextLimit(n int) Option {
	return func(r *PartRecognizer) {
		if n > 0 {
			r.contextLimit = n
		}
	}
}

func NewPartRecognizer(bank *patterns.Bank, opts ...Option) *PartRecognizer {
	r := &PartRecognizer{bank: bank, contextLimit: DefaultContextLimit}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Recognize returns every validated hit of every rule, in rule order then text order.
// Overlapping hits from different rules are separate candidates.
func (r *PartRecognizer) Recognize(text string, page int, family constants.CatalogFamily) []Candidate {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var lines []string
	var out []Candidate
	for _, m := range r.bank.Scan(text) {
		number := strings.ToUpper(strings.TrimSpace(m.Text))
		if !patterns.Valid(number, family) {
			continue
		}
		if lines == nil {
			lines = strings.Split(text, "\n")
		}
		out = append(out, Candidate{
			Type:    m.Rule.Type,
			Number:  number,
			Context: contextFor(text, lines, m, r.contextLimit),
			Page:    page,
			Rule:    m.Rule.Name,
		})
	}
	return out
}

// Numbers returns the distinct validated numbers found in text, first-seen order.
func (r *PartRecognizer) Numbers(text string, family constants.CatalogFamily) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, m := range r.bank.Scan(text) {
		number := strings.ToUpper(strings.TrimSpace(m.Text))
		if !patterns.Valid(number, family) {
			continue
		}
		if _, ok := seen[number]; ok {
			continue
		}
		seen[number] = struct{}{}
		out = append(out, number)
	}
	return out
}
