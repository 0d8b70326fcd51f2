package dedup

import (
	"reflect"
	"strings"
	"testing"

	"github.com/joseph-ayodele/parts-catalog/internal/entity"
)

func part(seq int, number string, page int, desc string) entity.ExtractedPart {
	return entity.ExtractedPart{Seq: seq, Catalog: "dayton", Number: number, Page: page, Description: desc}
}

func TestDedupMergesDescriptions(t *testing.T) {
	in := []entity.ExtractedPart{
		part(1, "D1234", 4, "Brake pad"),
		part(2, "D1234", 4, "Brake pad for model X....... see chart"),
	}
	out, stats := New(Earliest).Dedup(in)
	if len(out) != 1 || stats.Groups != 1 || stats.Input != 2 || stats.Output != 1 {
		t.Fatalf("out = %+v, stats = %+v", out, stats)
	}
	d := out[0].Description
	if !strings.Contains(d, "Brake pad") || !strings.Contains(d, "Brake pad for model X") {
		t.Fatalf("description = %q", d)
	}
	if strings.Contains(d, "...") || strings.Contains(d, "  ") {
		t.Fatalf("description not cleaned: %q", d)
	}
	if out[0].Seq != 1 {
		t.Fatalf("survivor seq = %d", out[0].Seq)
	}
}

func TestDedupKeepsDistinctPages(t *testing.T) {
	in := []entity.ExtractedPart{
		part(1, "D1234", 4, "a"),
		part(2, "D1234", 5, "b"),
		part(3, "D1234", 4, "a"),
	}
	out, stats := New(Earliest).Dedup(in)
	if len(out) != 2 || out[0].Page != 4 || out[1].Page != 5 || stats.Groups != 1 {
		t.Fatalf("out = %+v", out)
	}
	if out[0].Description != "a" {
		t.Fatalf("substring value should not be appended: %q", out[0].Description)
	}
}

func TestDedupStructuredMerge(t *testing.T) {
	a := part(1, "CH5004", 2, "Kit")
	a.Models = []string{"D52"}
	a.Applications = "D50"
	a.Specifications = []entity.SpecPair{{Key: "measurement", Value: "12 mm"}}
	b := part(2, "CH5004", 2, "")
	b.Models = []string{"D50", "D52"}
	b.Applications = "D52"
	b.ImageRef = "dayton_p2_img1.png"
	b.OENumbers = []string{"OE-1"}
	b.Specifications = []entity.SpecPair{{Key: "measurement", Value: "14 mm"}, {Key: "torque", Value: "40 Nm"}}

	out, _ := New(Earliest).Dedup([]entity.ExtractedPart{a, b})
	got := out[0]
	if !reflect.DeepEqual(got.Models, []string{"D50", "D52"}) {
		t.Errorf("models = %v", got.Models)
	}
	if got.Applications != "D50;D52" {
		t.Errorf("applications = %q", got.Applications)
	}
	if got.ImageRef != "dayton_p2_img1.png" || !reflect.DeepEqual(got.OENumbers, []string{"OE-1"}) {
		t.Errorf("image/oe = %q %v", got.ImageRef, got.OENumbers)
	}
	want := []entity.SpecPair{{Key: "measurement", Value: "12 mm"}, {Key: "torque", Value: "40 Nm"}}
	if !reflect.DeepEqual(got.Specifications, want) {
		t.Errorf("specifications = %v", got.Specifications)
	}
	if len(a.Models) != 1 || a.Applications != "D50" {
		t.Error("input records must not be modified")
	}
}

func TestDedupLatestStrategy(t *testing.T) {
	in := []entity.ExtractedPart{
		part(1, "D1234", 4, "old"),
		part(2, "D1234", 4, "new"),
	}
	out, _ := New(Latest).Dedup(in)
	if out[0].Seq != 2 || out[0].Description != "new old" {
		t.Fatalf("out = %+v", out[0])
	}
}

func TestDedupIdempotent(t *testing.T) {
	long := strings.Repeat("Hydraulic brake caliper ---- assembly ", 30)
	in := []entity.ExtractedPart{
		part(1, "D1234", 1, "Brake pad"),
		part(2, "D1234", 1, "Brake pad for model X"),
		part(3, "600-123", 1, long),
		part(4, "600-123", 1, "Caliper ... with bracket"),
		part(5, "CH5004", 2, "Kit   hardware"),
	}
	in[4].Models = []string{"D52", "D50"}
	for _, s := range []Strategy{Earliest, Latest} {
		d := New(s)
		once, _ := d.Dedup(in)
		twice, stats := d.Dedup(once)
		if !reflect.DeepEqual(once, twice) {
			t.Fatalf("%s: not idempotent\nonce:  %+v\ntwice: %+v", s, once, twice)
		}
		if stats.Groups != 0 {
			t.Fatalf("%s: second pass found %d groups", s, stats.Groups)
		}
		if n := len([]rune(once[1].Description)); n > DescriptionLimit {
			t.Fatalf("description not capped: %d", n)
		}
	}
}

func TestClean(t *testing.T) {
	tests := map[string]string{
		"Brake pad ..... page 4":   "Brake pad page 4",
		"Hose ----- 12 in":         "Hose 12 in",
		"  two  spaces\tand\ttabs ": "two spaces and tabs",
		"keep .. two dots -- ok":   "keep .. two dots -- ok",
	}
	for in, want := range tests {
		if got := Clean(in, TextLimit); got != want {
			t.Errorf("Clean(%q) = %q, want %q", in, got, want)
		}
		if got := Clean(Clean(in, 10), 10); got != Clean(in, 10) {
			t.Errorf("Clean not idempotent for %q", in)
		}
	}
}

func TestSurvivor(t *testing.T) {
	keep, remove := Survivor([]int64{7, 3, 9}, Earliest)
	if keep != 3 || !reflect.DeepEqual(remove, []int64{7, 9}) {
		t.Fatalf("earliest = %d %v", keep, remove)
	}
	keep, remove = Survivor([]int64{7, 3, 9}, Latest)
	if keep != 9 || !reflect.DeepEqual(remove, []int64{3, 7}) {
		t.Fatalf("latest = %d %v", keep, remove)
	}
	if keep, remove := Survivor(nil, Earliest); keep != 0 || remove != nil {
		t.Fatal("empty group")
	}
}

func TestParseStrategy(t *testing.T) {
	if s, ok := ParseStrategy("highest_id"); !ok || s != Latest {
		t.Fatal("highest_id")
	}
	if _, ok := ParseStrategy("random"); ok {
		t.Fatal("random accepted")
	}
}
