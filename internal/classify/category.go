// Package classify assigns categories to parts and families to catalog documents.
package classify

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/parts-catalog/constants"
)

// ShapeRule maps a part-number shape straight to a category.
type ShapeRule struct {
	Re       *regexp.Regexp
	Category constants.Category
}

// KeywordGroup is one priority level of keyword-context inference.
type KeywordGroup struct {
	Category constants.Category
	Keywords []string
}

// DefaultShapeRules are checked against every part-number-like token of the context.
var DefaultShapeRules = []ShapeRule{
	{Re: regexp.MustCompile(`^600-\d{3,4}[A-Z]?$`), Category: constants.BrakeSystem},
	{Re: regexp.MustCompile(`^CH\d{4}$`), Category: constants.BrakeSystem},
	{Re: regexp.MustCompile(`^FP-[A-Z0-9]+`), Category: constants.Engine},
}

// DefaultKeywordGroups is ordered most specific first; generic groups must stay last.
var DefaultKeywordGroups = []KeywordGroup{
	{Category: constants.ExhaustSystem, Keywords: []string{"exhaust", "muffler", "tailpipe", "catalytic"}},
	{Category: constants.Lighting, Keywords: []string{"lighting", "lamp", "headlight", "bulb", "led"}},
	{Category: constants.BrakeSystem, Keywords: []string{"brake", "rotor", "pad", "caliper", "disc"}},
	{Category: constants.Engine, Keywords: []string{"engine", "piston", "cylinder", "crankshaft", "camshaft"}},
	{Category: constants.HydraulicSystem, Keywords: []string{"hydraulic", "pump", "valve", "hose"}},
	{Category: constants.Electrical, Keywords: []string{"electrical", "sensor", "switch", "wire", "harness"}},
	{Category: constants.Drivetrain, Keywords: []string{"axle", "differential", "transmission", "driveshaft"}},
	{Category: constants.Suspension, Keywords: []string{"spring", "suspension", "shock"}},
	{Category: constants.KitsAssemblies, Keywords: []string{"kit", "assembly", "assemblies"}},
}

var reToken = regexp.MustCompile(`[A-Z0-9][A-Z0-9\-/]{2,}`)

type keywordMatcher struct {
	category constants.Category
	re       *regexp.Regexp
}

// CategoryClassifier is immutable after construction and safe for concurrent use.
type CategoryClassifier struct {
	shapes   []ShapeRule
	keywords []keywordMatcher
	fallback constants.Category
}

// NewCategoryClassifier compiles groups into word-prefix matchers. Nil arguments use the defaults.
func NewCategoryClassifier(shapes []ShapeRule, groups []KeywordGroup) *CategoryClassifier {
	if shapes == nil {
		shapes = DefaultShapeRules
	}
	if groups == nil {
		groups = DefaultKeywordGroups
	}
	c := &CategoryClassifier{shapes: shapes, fallback: constants.General}
	for _, g := range groups {
		quoted := make([]string, len(g.Keywords))
		for i, k := range g.Keywords {
			quoted[i] = regexp.QuoteMeta(strings.ToLower(k))
		}
		c.keywords = append(c.keywords, keywordMatcher{
			category: g.Category,
			re:       regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)`),
		})
	}
	return c
}

// Classify infers a category: part-number shape first, then keyword groups, then General.
func (c *CategoryClassifier) Classify(context string) string {
	if cat, ok := c.byShape(context); ok {
		return string(cat)
	}
	if cat, ok := c.byKeywords(context); ok {
		return string(cat)
	}
	return string(c.fallback)
}

func (c *CategoryClassifier) byShape(context string) (constants.Category, bool) {
	for _, tok := range reToken.FindAllString(strings.ToUpper(context), -1) {
		for _, s := range c.shapes {
			if s.Re.MatchString(tok) {
				return s.Category, true
			}
		}
	}
	return "", false
}

func (c *CategoryClassifier) byKeywords(context string) (constants.Category, bool) {
	lower := strings.ToLower(context)
	for _, k := range c.keywords {
		if k.re.MatchString(lower) {
			return k.category, true
		}
	}
	return "", false
}
