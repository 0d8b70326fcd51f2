package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joseph-ayodele/parts-catalog/internal/common"
)

// execute runs the root command against a fresh SQLite database in a temp dir.
func execute(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	base := []string{
		"--db", "file:" + filepath.Join(dir, "parts.db"),
		"--images-dir", filepath.Join(dir, "images"),
		"--log-level", "error",
	}
	cmd.SetArgs(append(base, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestDBHealthOnEmptyDatabase(t *testing.T) {
	out, err := execute(t, t.TempDir(), "dbhealth")
	if err != nil {
		t.Fatalf("dbhealth: %v", err)
	}
	for _, want := range []string{"DB health: OK", "- parts:         0", "- guides:        0"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestProcessEmptyDirectories(t *testing.T) {
	dir := t.TempDir()
	catalogs := filepath.Join(dir, "catalogs")
	guides := filepath.Join(dir, "guides")
	for _, d := range []string{catalogs, guides} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	out, err := execute(t, dir, "process", "all", "--catalogs", catalogs, "--guides", guides)
	if err != nil {
		t.Fatalf("process all: %v", err)
	}
	for _, want := range []string{"catalog (", "guide (", "documents processed: 0", "parts extracted:     0", "guides processed:    0", "run "} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestProcessInputErrors(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.pdf")
	if err := os.WriteFile(file, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		args []string
	}{
		{"missing dir", []string{"process", "catalogs", filepath.Join(dir, "nope")}},
		{"file not dir", []string{"process", "guides", file}},
		{"no sources", []string{"process", "all"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, dir, tt.args...)
			if !errors.Is(err, common.ErrInvalidInput) {
				t.Fatalf("want ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestSearchEmpty(t *testing.T) {
	dir := t.TempDir()
	for _, args := range [][]string{{"search", "ch5004"}, {"search", "--catalog", "dayton"}} {
		out, err := execute(t, dir, args...)
		if err != nil {
			t.Fatalf("%v: %v", args, err)
		}
		if !strings.Contains(out, "no parts found") {
			t.Errorf("%v: got %q", args, out)
		}
	}
}

func TestDedupCommand(t *testing.T) {
	dir := t.TempDir()
	if _, err := execute(t, dir, "dedup", "--strategy", "random"); !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}
	out, err := execute(t, dir, "dedup", "--dry-run")
	if err != nil {
		t.Fatalf("dedup: %v", err)
	}
	if !strings.Contains(out, "would remove 0 rows") {
		t.Errorf("got %q", out)
	}
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "parts.xlsx")
	if _, err := execute(t, dir, "export", "--out", path); err != nil {
		t.Fatalf("export: %v", err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Fatalf("export file: %v", err)
	}
	if _, err := execute(t, dir, "export", "--out", filepath.Join(dir, "parts.csv")); !errors.Is(err, common.ErrUnsupportedFormat) {
		t.Fatalf("want ErrUnsupportedFormat, got %v", err)
	}
}

func TestGuideNotFound(t *testing.T) {
	_, err := execute(t, t.TempDir(), "guide", "missing")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestInvalidConfiguration(t *testing.T) {
	t.Setenv("IMAGE_FALLBACK_POLICY", "nearest")
	_, err := execute(t, t.TempDir(), "dbhealth")
	if !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}
}

func TestCategoryFlag(t *testing.T) {
	tests := map[string]string{
		"":                 "",
		"brakes":           "Brake System",
		"hydraulic system": "Hydraulic System",
		"Kits":             "Kits & Assemblies",
		"Custom Bin":       "Custom Bin",
	}
	for in, want := range tests {
		if got := categoryFlag(in); got != want {
			t.Errorf("categoryFlag(%q) = %q, want %q", in, got, want)
		}
	}
}
