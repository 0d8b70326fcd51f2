package patterns

import (
	"testing"

	"github.com/joseph-ayodele/parts-catalog/constants"
)

func TestNewRejectsBadRules(t *testing.T) {
	tests := []struct {
		name string
		spec RuleSpec
	}{
		{"syntax", RuleSpec{Name: "bad", Pattern: `(\d+`}},
		{"no group", RuleSpec{Name: "flat", Pattern: `\d+`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New([]RuleSpec{tt.spec}); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestDefaultAppendsExtraRules(t *testing.T) {
	b, err := Default(RuleSpec{Name: "extra", Pattern: `\b(X\d{3})\b`})
	if err != nil {
		t.Fatal(err)
	}
	if b.Len() != len(DefaultPartRules)+1 {
		t.Fatalf("Len = %d", b.Len())
	}
	rules := b.Rules()
	last := rules[len(rules)-1]
	if last.Name != "extra" || last.Type != constants.EntityPart {
		t.Errorf("last rule = %+v", last)
	}
	rules[0].Name = "mutated"
	if b.Rules()[0].Name == "mutated" {
		t.Error("Rules exposes the internal table")
	}
}

func TestScanOverlappingRules(t *testing.T) {
	b := MustNew(DefaultPartRules)
	matches := b.Scan("Kit CH5004 fits D50")
	var alnum, kit bool
	for _, m := range matches {
		if m.Text != "CH5004" {
			continue
		}
		if m.Start != 4 || m.End != 10 {
			t.Errorf("offsets = %d..%d", m.Start, m.End)
		}
		switch m.Rule.Name {
		case "alnum":
			alnum = true
		case "hardware-kit":
			kit = true
			if m.Rule.Type != constants.EntityKit {
				t.Errorf("hardware-kit type = %s", m.Rule.Type)
			}
		}
	}
	if !alnum || !kit {
		t.Errorf("CH5004 should match both alnum and hardware-kit: %+v", matches)
	}
	if matches[0].Rule.Name != "alnum" {
		t.Errorf("scan is not rule-major: first = %s", matches[0].Rule.Name)
	}
}

func TestIsFalsePositive(t *testing.T) {
	tests := map[string]bool{
		"1999":    true,
		"2024":    true,
		"12":      true,
		"SECTION": true,
		"FIG12":   false,
		"CH5004":  false,
		"123456":  false,
	}
	for in, want := range tests {
		if got := IsFalsePositive(in); got != want {
			t.Errorf("IsFalsePositive(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		number string
		family constants.CatalogFamily
		want   bool
	}{
		{"CH5004", constants.FamilyDayton, true},
		{"600-123", constants.FamilyDayton, true},
		{"D50", constants.FamilyDayton, true},
		{"12345", constants.FamilyDayton, false},
		{"12345", constants.FamilyCaterpillar, false},
		{"1R0750", constants.FamilyCaterpillar, true},
		{"D50", constants.FamilyBrakes, true},
		{"12345", constants.FamilyBrakes, true},
		{"123", constants.FamilyBrakes, false},
		{"123456", constants.FamilyCummins, true},
		{"12345", constants.FamilyCummins, false},
		{"12345", constants.FamilyGeneral, true},
		{"ABC", constants.FamilyGeneral, false},
		{"2019", constants.FamilyGeneral, false},
		{"123456789", constants.FamilyGeneral, false},
		{"", constants.FamilyGeneral, false},
	}
	for _, tt := range tests {
		if got := Valid(tt.number, tt.family); got != tt.want {
			t.Errorf("Valid(%q, %s) = %v, want %v", tt.number, tt.family, got, tt.want)
		}
	}
}
