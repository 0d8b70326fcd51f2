package patterns

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/parts-catalog/constants"
)

var (
	reYear       = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	rePageNumber = regexp.MustCompile(`^\d{1,3}$`)
	reCommonWord = regexp.MustCompile(`(?i)\b(CHAPTER|SECTION|PAGE|FIG|TABLE)\b`)
	reAllDigits  = regexp.MustCompile(`^\d+$`)
)

const (
	DefaultMinLength = 4
	minNumericValue  = 1000
	maxNumericValue  = 99999999
)

// IsFalsePositive reports whether a normalized candidate looks like a year, a page number or a
// document word rather than a part number.
func IsFalsePositive(number string) bool {
	return reYear.MatchString(number) || rePageNumber.MatchString(number) || reCommonWord.MatchString(number)
}

// FamilyRule is the catalog-family specific validity check applied after the false-positive filter.
type FamilyRule struct {
	MinLength       int
	RequireAny      []string // at least one substring must be present
	RejectAllDigits bool
	DigitsMin       int // all-digit numbers must have at least this many digits (0 = unchecked)
	DigitsMax       int
}

var familyRules = map[constants.CatalogFamily]FamilyRule{
	constants.FamilyDayton:      {MinLength: 3, RequireAny: []string{"D", "600-", "CH"}},
	constants.FamilyCaterpillar: {MinLength: 4, RejectAllDigits: true},
	constants.FamilyCummins:     {MinLength: 4, DigitsMin: 6, DigitsMax: 7},
	constants.FamilyBrakes:      {MinLength: 3}, // short axle and chamber codes such as D50
}

// RuleFor returns the validity rule for a family; unknown families get the default minimum.
func RuleFor(family constants.CatalogFamily) FamilyRule {
	if r, ok := familyRules[family]; ok {
		return r
	}
	return FamilyRule{MinLength: DefaultMinLength}
}

// Valid applies the false-positive filter, the global numeric range and the family rule.
func Valid(number string, family constants.CatalogFamily) bool {
	if number == "" || IsFalsePositive(number) {
		return false
	}
	rule := RuleFor(family)
	if utf8.RuneCountInString(number) < rule.MinLength {
		return false
	}
	if reAllDigits.MatchString(number) {
		if rule.RejectAllDigits {
			return false
		}
		v, err := strconv.ParseInt(number, 10, 64)
		if err != nil || v < minNumericValue || v > maxNumericValue {
			return false
		}
		if rule.DigitsMin > 0 && (len(number) < rule.DigitsMin || len(number) > rule.DigitsMax) {
			return false
		}
	}
	if len(rule.RequireAny) > 0 {
		for _, s := range rule.RequireAny {
			if strings.Contains(number, s) {
				return true
			}
		}
		return false
	}
	return true
}
