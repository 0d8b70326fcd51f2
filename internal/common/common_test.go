package common

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"DB_URL", "WORKERS", "IMAGE_FALLBACK_POLICY", "FULL_PAGE_RATIO", "JOB_TIMEOUT", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig()
	if cfg.Database.DSN != "file:parts.db" {
		t.Errorf("DSN = %q", cfg.Database.DSN)
	}
	if cfg.Workers != 1 || cfg.Extraction.FallbackPolicy != "first-unassociated" || cfg.Extraction.FullPageRatio != 0.8 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Server.JobTimeout != 30*time.Minute {
		t.Errorf("JobTimeout = %v", cfg.Server.JobTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("DB_URL", "postgres://u:p@localhost/parts")
	t.Setenv("WORKERS", "4")
	t.Setenv("JOB_TIMEOUT", "90s")
	t.Setenv("SKIP_IMAGES", "true")
	t.Setenv("FULL_PAGE_RATIO", "0.5")
	t.Setenv("MIN_IMAGE_PIXELS", "not-a-number")

	cfg := LoadConfig()
	if cfg.Database.DSN != "postgres://u:p@localhost/parts" {
		t.Errorf("DSN = %q", cfg.Database.DSN)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d", cfg.Workers)
	}
	if cfg.Server.JobTimeout != 90*time.Second {
		t.Errorf("JobTimeout = %v", cfg.Server.JobTimeout)
	}
	if !cfg.Extraction.SkipImages || cfg.Extraction.FullPageRatio != 0.5 {
		t.Errorf("extraction = %+v", cfg.Extraction)
	}
	if cfg.Extraction.MinImagePixels != 50 {
		t.Errorf("unparsable value should fall back to default, got %d", cfg.Extraction.MinImagePixels)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty dsn", func(c *Config) { c.Database.DSN = "" }},
		{"unknown policy", func(c *Config) { c.Extraction.FallbackPolicy = "nearest" }},
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"ratio above one", func(c *Config) { c.Extraction.FullPageRatio = 1.5 }},
		{"ratio zero", func(c *Config) { c.Extraction.FullPageRatio = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := LoadConfig()
			cfg.Database.DSN = "file:x.db"
			cfg.Workers = 1
			cfg.Extraction.FallbackPolicy = "drop"
			cfg.Extraction.FullPageRatio = 0.8
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("want ErrInvalidInput, got %v", err)
			}
			if ErrorCode(err) != "CONFIG_ERROR" {
				t.Errorf("code = %q", ErrorCode(err))
			}
		})
	}
}

func TestApplyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parts.yaml")
	yml := `
image_dir: /srv/images
workers: 3
extraction:
  max_pages: 12
  fallback_policy: drop
  association_window: 150
  extra_patterns:
    - name: cat-pin
      pattern: '\b(\d[A-Z]\d{4})\b'
      type: part
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := LoadConfig()
	cfg.Extraction.ContextLimit = 250
	if err := cfg.ApplyFile(path); err != nil {
		t.Fatalf("ApplyFile: %v", err)
	}
	if cfg.Storage.ImageDir != "/srv/images" || cfg.Workers != 3 {
		t.Errorf("top level not applied: %+v", cfg)
	}
	e := cfg.Extraction
	if e.MaxPages != 12 || e.FallbackPolicy != "drop" || e.AssociationWindow != 150 {
		t.Errorf("extraction not applied: %+v", e)
	}
	if e.ContextLimit != 250 {
		t.Errorf("zero value in file overwrote ContextLimit: %d", e.ContextLimit)
	}
	if len(e.ExtraPatterns) != 1 || e.ExtraPatterns[0].Name != "cat-pin" || e.ExtraPatterns[0].Type != "part" {
		t.Errorf("extra patterns = %+v", e.ExtraPatterns)
	}

	if err := cfg.ApplyFile(""); err != nil {
		t.Errorf("empty path should be a no-op: %v", err)
	}
	if err := cfg.ApplyFile(filepath.Join(t.TempDir(), "missing.yaml")); ErrorCode(err) != "CONFIG_ERROR" {
		t.Errorf("missing file: %v", err)
	}
}

func TestDocumentOpenError(t *testing.T) {
	cause := errors.New("malformed xref")
	err := DocumentOpenError("/in/a.pdf", cause)
	if !IsDocumentOpen(err) {
		t.Fatal("IsDocumentOpen = false")
	}
	if !errors.Is(err, cause) {
		t.Error("cause not in chain")
	}
	if ErrorCode(err) != "DOCUMENT_OPEN" {
		t.Errorf("code = %q", ErrorCode(err))
	}
	if IsDocumentOpen(errors.New("other")) {
		t.Error("unrelated error reported as open failure")
	}
	if ErrorCode(WrapError(err, "batch")) != "DOCUMENT_OPEN" {
		t.Error("code lost through WrapError")
	}
	if WrapError(nil, "x") != nil {
		t.Error("WrapError(nil) != nil")
	}
}

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	if RunIDFromContext(ctx) != "" || DocumentFromContext(ctx) != "" {
		t.Fatal("empty context carries values")
	}
	ctx = WithDocument(WithRunID(ctx, "run-1"), "/in/a.pdf")
	if RunIDFromContext(ctx) != "run-1" || DocumentFromContext(ctx) != "/in/a.pdf" {
		t.Errorf("got %q %q", RunIDFromContext(ctx), DocumentFromContext(ctx))
	}
	if LoggerFrom(ctx, nil) == nil {
		t.Error("LoggerFrom returned nil")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSchema(t *testing.T) {
	s := MustCompileSchema("machine.json", map[string]any{
		"type":     "object",
		"required": []any{"models"},
		"properties": map[string]any{
			"models": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
	})
	if err := s.ValidateJSON([]byte(`{"models":["D50"]}`)); err != nil {
		t.Fatalf("valid document rejected: %v", err)
	}
	if err := s.ValidateJSON([]byte(`{"models":[1]}`)); !errors.Is(err, ErrValidation) {
		t.Errorf("want ErrValidation, got %v", err)
	}
	if _, err := s.Marshal(map[string]any{"section": "Brakes"}); !errors.Is(err, ErrValidation) {
		t.Errorf("missing required field: %v", err)
	}
	if b, err := s.Marshal(map[string]any{"models": []string{"D52"}}); err != nil || string(b) != `{"models":["D52"]}` {
		t.Errorf("Marshal = %s, %v", b, err)
	}
}

func TestValidator(t *testing.T) {
	v := NewValidator()
	v.Field("name", "", Required).Field("count", -1, Positive).Field("mode", "x", OneOf("a", "b"))
	if !v.HasErrors() || len(v.Errors()) != 3 {
		t.Fatalf("errors = %v", v.Errors())
	}
	if NewValidator().Field("name", "ok", Required, MaxLength(5)).Error() != nil {
		t.Error("valid field reported an error")
	}
}
