package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joseph-ayodele/parts-catalog/constants"
	"github.com/joseph-ayodele/parts-catalog/internal/common"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func sha(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func TestIngestDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.pdf"), "alpha")
	writeFile(t, filepath.Join(root, "b.PDF"), "bravo")
	writeFile(t, filepath.Join(root, "notes.txt"), "ignored")
	writeFile(t, filepath.Join(root, ".x.pdf"), "hidden file")
	writeFile(t, filepath.Join(root, ".hidden", "c.pdf"), "hidden dir")
	writeFile(t, filepath.Join(root, "sub", "d.pdf"), "delta")

	ing := NewFSIngestor(nil)
	results, stats, err := ing.IngestDirectory(context.Background(), constants.KindCatalog, root, true)
	if err != nil {
		t.Fatal(err)
	}
	want := []struct{ path, content string }{
		{filepath.Join(root, "a.pdf"), "alpha"},
		{filepath.Join(root, "b.PDF"), "bravo"},
		{filepath.Join(root, "sub", "d.pdf"), "delta"},
	}
	if len(results) != len(want) {
		t.Fatalf("results = %+v", results)
	}
	for i, w := range want {
		r := results[i]
		if r.SourcePath != w.path || r.HashHex != sha(w.content) || r.Kind != constants.KindCatalog || r.Size != int64(len(w.content)) {
			t.Errorf("result %d = %+v", i, r)
		}
	}
	if stats.Scanned != 8 || stats.Matched != 3 || stats.Succeeded != 3 || stats.Failed != 0 {
		t.Errorf("stats = %+v", stats)
	}

	jobs := Jobs(results)
	if len(jobs) != 3 || jobs[0].Hash != sha("alpha") || jobs[2].Kind != constants.KindCatalog {
		t.Errorf("jobs = %+v", jobs)
	}

	all, _, err := ing.IngestDirectory(context.Background(), constants.KindGuide, root, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 5 {
		t.Errorf("with hidden = %d results", len(all))
	}
}

func TestIngestDirectoryErrors(t *testing.T) {
	ing := NewFSIngestor(nil)
	if _, _, err := ing.IngestDirectory(context.Background(), constants.KindCatalog, " ", true); !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("empty root err = %v", err)
	}
	if _, _, err := ing.IngestDirectory(context.Background(), constants.KindCatalog, filepath.Join(t.TempDir(), "missing"), true); err == nil {
		t.Error("missing root should fail")
	}

	txt := filepath.Join(t.TempDir(), "notes.txt")
	writeFile(t, txt, "x")
	if _, err := ing.IngestPath(context.Background(), constants.KindCatalog, txt); !errors.Is(err, common.ErrUnsupportedFormat) {
		t.Errorf("txt err = %v", err)
	}
}

func TestJobsSkipsFailures(t *testing.T) {
	jobs := Jobs([]IngestionResult{
		{SourcePath: "/a.pdf", Kind: constants.KindGuide, HashHex: "h"},
		{SourcePath: "/b.pdf", Err: "permission denied"},
	})
	if len(jobs) != 1 || jobs[0].Path != "/a.pdf" || jobs[0].Kind != constants.KindGuide || jobs[0].Hash != "h" {
		t.Errorf("jobs = %+v", jobs)
	}
}

func TestIsHidden(t *testing.T) {
	tests := map[string]bool{
		"/x/.git":      true,
		"/x/.a.pdf":    true,
		"/x/a.pdf":     false,
		".":            false,
		"/x/sub/b.pdf": false,
	}
	for path, want := range tests {
		if got := IsHidden(path); got != want {
			t.Errorf("IsHidden(%q) = %v", path, got)
		}
	}
}

func TestRootOf(t *testing.T) {
	roots := []string{"/data/pdfs", "/data/pdfs/guides", "/data/other"}
	tests := map[string]string{
		"/data/pdfs/a.pdf":        "/data/pdfs",
		"/data/pdfs/guides/g.pdf": "/data/pdfs/guides",
		"/data/pdfsx/a.pdf":       "",
	}
	for path, want := range tests {
		if got := rootOf(roots, path); got != want {
			t.Errorf("rootOf(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestWatcherEmitsNewDocuments(t *testing.T) {
	root := t.TempDir()
	existing := filepath.Join(root, "existing.pdf")
	writeFile(t, existing, "old")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, InitialScan: true, Debounce: 20 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}

	wait := func(path string) {
		t.Helper()
		timeout := time.After(5 * time.Second)
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					t.Fatal("watcher closed")
				}
				if ev.Path == path {
					if ev.Root != root {
						t.Errorf("root = %q, want %q", ev.Root, root)
					}
					return
				}
			case <-timeout:
				t.Fatalf("no event for %s", path)
			}
		}
	}
	wait(existing)

	created := filepath.Join(root, "new.pdf")
	writeFile(t, filepath.Join(root, "ignored.txt"), "x")
	writeFile(t, created, "new")
	wait(created)

	cancel()
	for range events {
	}
}

func TestWatcherRequiresRoots(t *testing.T) {
	if _, _, err := StartWatcher(context.Background(), WatchConfig{}); err == nil {
		t.Error("expected error")
	}
}
