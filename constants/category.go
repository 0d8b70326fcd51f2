package constants

import (
	"strings"
)

type Category string

const (
	ExhaustSystem   Category = "Exhaust System"
	Lighting        Category = "Lighting"
	BrakeSystem     Category = "Brake System"
	Engine          Category = "Engine"
	HydraulicSystem Category = "Hydraulic System"
	Electrical      Category = "Electrical"
	Drivetrain      Category = "Drivetrain"
	Suspension      Category = "Suspension"
	KitsAssemblies  Category = "Kits & Assemblies"
	General         Category = "General"
	Equipment       Category = "Equipment"
	Specifications  Category = "Specifications"
	TechnicalDocs   Category = "Technical Documentation"
)

var allCategories = []Category{
	ExhaustSystem,
	Lighting,
	BrakeSystem,
	Engine,
	HydraulicSystem,
	Electrical,
	Drivetrain,
	Suspension,
	KitsAssemblies,
	General,
	Equipment,
	Specifications,
	TechnicalDocs,
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// Canonicalize maps a free-form label (config overrides, CLI filters) onto a known category.
func Canonicalize(input string) (Category, bool) {
	if input == "" {
		return General, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	synonyms := map[string]Category{
		"brakes":     BrakeSystem,
		"brake":      BrakeSystem,
		"exhaust":    ExhaustSystem,
		"lights":     Lighting,
		"hydraulics": HydraulicSystem,
		"hydraulic":  HydraulicSystem,
		"springs":    Suspension,
		"kits":       KitsAssemblies,
		"kit":        KitsAssemblies,
		"assemblies": KitsAssemblies,
		"engines":    Engine,
		"axles":      Drivetrain,
		"technical":  TechnicalDocs,
	}

	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	for _, cat := range allCategories {
		if normalized == strings.ToLower(string(cat)) {
			return cat, true
		}
	}

	return General, false
}
