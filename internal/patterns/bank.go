// Package patterns holds the immutable rule tables shared by every recognizer.
package patterns

import (
	"fmt"
	"regexp"

	"github.com/joseph-ayodele/parts-catalog/constants"
)

// Rule is one (pattern, entity type) entry. The pattern's first capture group is the match.
type Rule struct {
	Name string
	Re   *regexp.Regexp
	Type constants.EntityType
}

// RuleSpec is the uncompiled form of a Rule.
type RuleSpec struct {
	Name    string
	Pattern string
	Type    constants.EntityType
}

// Bank is an ordered, read-only table of rules. Build it once and share it.
type Bank struct {
	rules  []Rule
	models []*regexp.Regexp
}

// DefaultPartRules is the built-in part-number table. Order decides candidate order only.
var DefaultPartRules = []RuleSpec{
	{Name: "alnum", Pattern: `\b([A-Z]{1,4}\d{2,4}(?:-\d+)?[A-Z]?)\b`, Type: constants.EntityPart},
	{Name: "numeric", Pattern: `\b(\d{5,7}[A-Z]?)\b`, Type: constants.EntityPart},
	{Name: "dashed", Pattern: `\b([A-Z]{2,}-[A-Z0-9]+(?:-[A-Z0-9]+)?)\b`, Type: constants.EntityPart},
	{Name: "kit", Pattern: `(?i)\b(?:KIT|PK)[-_]?(\d+[A-Z]?)\b`, Type: constants.EntityKit},
	{Name: "model", Pattern: `\b([A-Z]?\d+[A-Z]+|[A-Z]+\d+[A-Z]*)\b`, Type: constants.EntityModel},
	{Name: "caliper", Pattern: `(?i)\b(600-\d{3,4}[A-Z]?)\b`, Type: constants.EntityCaliper},
	{Name: "hardware-kit", Pattern: `(?i)\b(CH\d{4})\b`, Type: constants.EntityKit},
	{Name: "slashed", Pattern: `\b([A-Z0-9]+/[A-Z0-9]+)\b`, Type: constants.EntityPart},
}

// DefaultModelPatterns recognise machine/model tokens.
var DefaultModelPatterns = []string{
	`\b(D[3-9]|D1[0-1]|[0-9]{3}[A-Z]?)\b`,
	`(?i)\b([0-9]{1,2}[A-Z]*\s*Series?)\b`,
	`\b([A-Z]+\s*[0-9]+[A-Z]*)\b`,
}

// New compiles specs (in order) plus the default model patterns.
func New(specs []RuleSpec) (*Bank, error) {
	b := &Bank{rules: make([]Rule, 0, len(specs))}
	for i, s := range specs {
		re, err := regexp.Compile(s.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, s.Name, err)
		}
		if re.NumSubexp() < 1 {
			return nil, fmt.Errorf("rule %d (%s): pattern needs a capture group", i, s.Name)
		}
		if s.Type == "" {
			s.Type = constants.EntityPart
		}
		b.rules = append(b.rules, Rule{Name: s.Name, Re: re, Type: s.Type})
	}
	for _, p := range DefaultModelPatterns {
		b.models = append(b.models, regexp.MustCompile(p))
	}
	return b, nil
}

// MustNew is New for package-level tables known to compile.
func MustNew(specs []RuleSpec) *Bank {
	b, err := New(specs)
	if err != nil {
		panic(err)
	}
	return b
}

// Default returns a bank built from DefaultPartRules followed by extra.
func Default(extra ...RuleSpec) (*Bank, error) {
	specs := make([]RuleSpec, 0, len(DefaultPartRules)+len(extra))
	specs = append(specs, DefaultPartRules...)
	specs = append(specs, extra...)
	return New(specs)
}

// Rules returns a copy of the ordered rule table.
func (b *Bank) Rules() []Rule {
	out := make([]Rule, len(b.rules))
	copy(out, b.rules)
	return out
}

// Len is the number of part rules.
func (b *Bank) Len() int { return len(b.rules) }

// Match is one rule hit inside a text.
type Match struct {
	Rule  Rule
	Text  string // literal capture as it appears in the source
	Start int
	End   int
}

// Scan applies every rule in table order and returns each hit, rule-major then by offset.
func (b *Bank) Scan(text string) []Match {
	var out []Match
	for _, r := range b.rules {
		for _, loc := range r.Re.FindAllStringSubmatchIndex(text, -1) {
			if loc[2] < 0 {
				continue
			}
			out = append(out, Match{Rule: r, Text: text[loc[2]:loc[3]], Start: loc[2], End: loc[3]})
		}
	}
	return out
}

// ModelPatterns returns the compiled machine/model patterns.
func (b *Bank) ModelPatterns() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(b.models))
	copy(out, b.models)
	return out
}
