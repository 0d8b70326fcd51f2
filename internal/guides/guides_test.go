package guides

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/joseph-ayodele/parts-catalog/internal/entity"
	"github.com/joseph-ayodele/parts-catalog/internal/extract"
	"github.com/joseph-ayodele/parts-catalog/internal/patterns"
)

const page1 = `HYDRAULIC BRAKE SERVICE MANUAL
This manual covers the installation of caliper kits.
It applies to all Dayton hydraulic brake assemblies.
Read every warning before starting any procedure.
A fourth long line that must not be used here.
1. Installation
Torque the bolts to spec. Use kit CH5004 and caliper 600-123.
Max Pressure: 3000 psi
RPM = 2500 rpm`

const page2 = `TROUBLESHOOTING
Replace pump assembly 12345
Weight - 45 kg
Max: 90 psi`

func newExtractor() *Extractor {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return NewExtractor(
		extract.NewPartRecognizer(patterns.MustNew(patterns.DefaultPartRules)),
		WithClock(func() time.Time { return fixed }),
		WithIDSource(func() string { return "doc-1" }),
	)
}

func TestNormalizeSpecKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"max", "Maximum", true},
		{"RPM", "Speed", true},
		{"Max  Temp", "Maximum Temperature", true},
		{"psi", "Pressure", true},
		{"torque", "Torque", true},
		{"maximum", "Maximum", true},
		{"page", "", false},
		{"Section", "", false},
		{"12", "", false},
		{"a", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeSpecKey(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("NormalizeSpecKey(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestExtractGuide(t *testing.T) {
	e := newExtractor()
	g := e.Extract("/guides/hydraulic_brake_service.pdf", []PageText{{1, page1}, {2, page2}, {3, "   "}})

	if g.Name != "hydraulic_brake_service" || g.DisplayName != "Hydraulic Brake Service Technical Guide" {
		t.Fatalf("names = %q / %q", g.Name, g.DisplayName)
	}
	if g.Category != "Brake System" {
		t.Errorf("category = %q", g.Category)
	}
	wantDesc := "This manual covers the installation of caliper kits. It applies to all Dayton hydraulic brake assemblies. Read every warning before starting any procedure."
	if g.Description != wantDesc {
		t.Errorf("description = %q", g.Description)
	}

	titles := make([]string, 0, len(g.Sections))
	for _, s := range g.Sections {
		titles = append(titles, s.Title)
	}
	if want := []string{"HYDRAULIC BRAKE SERVICE MANUAL", "1. Installation", "TROUBLESHOOTING"}; !reflect.DeepEqual(titles, want) {
		t.Fatalf("sections = %v", titles)
	}
	if g.Sections[2].Page != 2 || !strings.HasPrefix(g.Sections[2].Content, "Replace pump assembly 12345") {
		t.Errorf("troubleshooting section = %+v", g.Sections[2])
	}

	wantSpecs := []entity.SpecPair{
		{Key: "Pressure", Value: "3000 psi"},
		{Key: "Speed", Value: "2500 rpm"},
		{Key: "Maximum", Value: "90 psi"},
		{Key: "Weight", Value: "45 kg"},
	}
	if !reflect.DeepEqual(g.Specifications, wantSpecs) {
		t.Errorf("specifications = %+v", g.Specifications)
	}

	if want := []string{"CH5004", "600-123", "12345"}; !reflect.DeepEqual(g.RelatedParts, want) {
		t.Errorf("related parts = %v", g.RelatedParts)
	}
}

func TestSpecificationFirstOccurrenceWins(t *testing.T) {
	e := newExtractor()
	g := e.Extract("spec.pdf", []PageText{{1, "Max: 90 psi\nMax: 120 psi"}, {2, "max = 150 psi"}})
	if len(g.Specifications) != 1 || g.Specifications[0].Value != "90 psi" {
		t.Fatalf("specifications = %+v", g.Specifications)
	}
}

func TestTemplateFields(t *testing.T) {
	e := newExtractor()
	var pages []PageText
	for i := 1; i <= 8; i++ {
		pages = append(pages, PageText{Number: i, Text: "OVERVIEW\nSee part 1234" + string(rune('0'+i)) + " for details"})
	}
	g := e.Extract("/guides/crane_operation.pdf", pages)
	tf, raw, err := e.Template(g)
	if err != nil {
		t.Fatal(err)
	}
	if len(tf.Sections) != 5 || len(tf.RelatedParts) != 8 {
		t.Fatalf("sections = %d, related = %d", len(tf.Sections), len(tf.RelatedParts))
	}
	if tf.Category != "Equipment" || tf.GuideTitle != "Crane Operation Technical Guide" {
		t.Errorf("template = %+v", tf)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["created_date"] != "2024-03-01" || decoded["document_id"] != "doc-1" {
		t.Errorf("decoded = %v", decoded)
	}
}

func TestTemplateFieldsEmptyGuide(t *testing.T) {
	e := newExtractor()
	g := e.Extract("/guides/blank.pdf", nil)
	_, raw, err := e.Template(g)
	if err != nil {
		t.Fatalf("empty guide should still validate: %v", err)
	}
	if !strings.Contains(string(raw), `"sections":[]`) {
		t.Errorf("raw = %s", raw)
	}
}

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"hydraulic_brake-service": "Hydraulic Brake Service Technical Guide",
		"CAT_engine_MANUAL":       "Cat Engine Manual",
		"torque-specs":            "Torque Specs",
	}
	for in, want := range tests {
		if got := DisplayName(in); got != want {
			t.Errorf("DisplayName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDescriptionSkipsHeadersAndShortLines(t *testing.T) {
	text := "INTRODUCTION TO BRAKE SERVICE\nShort line\nOperation And Maintenance Procedures\n" + strings.Repeat("long description text ", 40)
	got := Description(text)
	if !strings.HasPrefix(got, "long description text") || len([]rune(got)) != 500 {
		t.Fatalf("description = %q (%d)", got, len([]rune(got)))
	}
}
