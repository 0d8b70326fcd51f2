package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/joseph-ayodele/parts-catalog/constants"
	"github.com/joseph-ayodele/parts-catalog/internal/common"
	"github.com/joseph-ayodele/parts-catalog/internal/entity"
	"github.com/joseph-ayodele/parts-catalog/internal/pdfdoc"
	"github.com/joseph-ayodele/parts-catalog/internal/pdfdoc/pdftest"
	"github.com/joseph-ayodele/parts-catalog/internal/storage"
)

type fakeDoc struct {
	path     string
	pages    []pdfdoc.Page
	pageErrs map[int]error
	images   map[int][]pdfdoc.RawImage
	closed   bool
}

func (d *fakeDoc) Path() string  { return d.path }
func (d *fakeDoc) NumPages() int { return len(d.pages) }
func (d *fakeDoc) Close() error  { d.closed = true; return nil }

func (d *fakeDoc) Page(_ context.Context, n int) (pdfdoc.Page, error) {
	if err := d.pageErrs[n]; err != nil {
		return pdfdoc.Page{}, err
	}
	return d.pages[n-1], nil
}

func (d *fakeDoc) Images(_ context.Context, n int) ([]pdfdoc.RawImage, error) {
	return d.images[n], nil
}

type fakeOpener struct {
	docs map[string]*fakeDoc
}

func (o *fakeOpener) Open(_ context.Context, path string) (pdfdoc.Document, error) {
	d, ok := o.docs[path]
	if !ok {
		return nil, common.DocumentOpenError(path, errors.New("not a PDF"))
	}
	return d, nil
}

func textPage(n int, text string, spans ...entity.TextSpan) pdfdoc.Page {
	return pdfdoc.Page{Number: n, Text: text, Spans: spans, Width: 612, Height: 792, Source: "native"}
}

func pngData(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newStages(t *testing.T, opener pdfdoc.Opener) (*Stages, string) {
	t.Helper()
	cfg := common.LoadConfig()
	dir := t.TempDir()
	store, err := storage.NewLocalStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	st, err := BuildStages(cfg, opener, store, nil)
	if err != nil {
		t.Fatal(err)
	}
	return st, dir
}

func TestCatalogKitScenario(t *testing.T) {
	tests := []struct {
		path    string
		family  constants.CatalogFamily
		catalog string
	}{
		{"/in/dayton_brakes.pdf", constants.FamilyDayton, "dayton_brakes"},
		{"/in/catalog.pdf", constants.FamilyBrakes, "catalog"},
		{"/in/parts_2023.pdf", constants.FamilyBrakes, "parts_2023"},
	}
	for _, tt := range tests {
		t.Run(tt.catalog, func(t *testing.T) {
			doc := &fakeDoc{path: tt.path, pages: []pdfdoc.Page{textPage(1, "Kit CH5004 fits D50, D52 brakes")}}
			st, _ := newStages(t, &fakeOpener{docs: map[string]*fakeDoc{doc.path: doc}})

			res := st.Catalog.Run(context.Background(), Job{Path: doc.path, Kind: constants.KindCatalog})
			if res.Status != constants.DocumentOK || res.Family != tt.family {
				t.Fatalf("status=%s family=%s err=%v", res.Status, res.Family, res.Err)
			}
			if !doc.closed {
				t.Error("document not closed")
			}
			if res.Dedup.Input < 2 {
				t.Fatalf("candidates = %d", res.Dedup.Input)
			}
			byNumber := map[string]entity.ExtractedPart{}
			for _, p := range res.Parts {
				byNumber[p.Number] = p
			}
			for _, n := range []string{"CH5004", "D50", "D52"} {
				p, ok := byNumber[n]
				if !ok {
					t.Fatalf("missing part %s in %+v", n, res.Parts)
				}
				if p.Category != string(constants.BrakeSystem) {
					t.Errorf("%s category = %q", n, p.Category)
				}
				if p.Catalog != tt.catalog || p.Page != 1 || p.PDFPath != filepath.Base(tt.path) {
					t.Errorf("%s record = %+v", n, p)
				}
				models := strings.Join(p.Models, ",")
				if !strings.Contains(models, "D50") || !strings.Contains(models, "D52") {
					t.Errorf("%s models = %v", n, p.Models)
				}
			}
			if got := byNumber["CH5004"].Applications; got != "CH5004;D50;D52" {
				t.Errorf("applications = %q", got)
			}
		})
	}
}

func TestCatalogMinesTextPastStoredLimit(t *testing.T) {
	filler := strings.Repeat("lorem ipsum ", 900)
	text := "D1234 water pump\n" + filler + "\nD5678 brake rotor"
	doc := &fakeDoc{path: "/in/general.pdf", pages: []pdfdoc.Page{textPage(1, text)}}
	st, _ := newStages(t, &fakeOpener{docs: map[string]*fakeDoc{doc.path: doc}})
	st.Catalog.Limits.PageTextLimit = 10000

	res := st.Catalog.Run(context.Background(), Job{Path: doc.path, Kind: constants.KindCatalog})
	found := map[string]entity.ExtractedPart{}
	for _, p := range res.Parts {
		found[p.Number] = p
	}
	for _, n := range []string{"D1234", "D5678"} {
		p, ok := found[n]
		if !ok {
			t.Fatalf("missing part %s in %d parts", n, len(res.Parts))
		}
		if got := utf8.RuneCountInString(p.PageText); got != 10000 {
			t.Errorf("%s stored page text = %d runes", n, got)
		}
	}
}

func TestCatalogAssociatesImages(t *testing.T) {
	spans := []entity.TextSpan{
		{Text: "12345", Bounds: entity.Rect{X0: 100, Y0: 500, X1: 140, Y1: 510}},
		{Text: "67890", Bounds: entity.Rect{X0: 400, Y0: 100, X1: 440, Y1: 110}},
	}
	doc := &fakeDoc{
		path:  "/in/general.pdf",
		pages: []pdfdoc.Page{textPage(1, "12345 Water pump\n67890 Hose clamp", spans...)},
		images: map[int][]pdfdoc.RawImage{1: {
			{Name: "Im1", Format: "png", Data: pngData(t, 80, 80), Bounds: entity.Rect{X0: 90, Y0: 520, X1: 150, Y1: 580}},
			{Name: "Im2", Format: "png", Data: pngData(t, 10, 10), Bounds: entity.Rect{X0: 0, Y0: 0, X1: 10, Y1: 10}},
		}},
	}
	st, dir := newStages(t, &fakeOpener{docs: map[string]*fakeDoc{doc.path: doc}})

	res := st.Catalog.Run(context.Background(), Job{Path: doc.path, Kind: constants.KindCatalog})
	if len(res.Links) != 1 {
		t.Fatalf("links = %+v", res.Links)
	}
	l := res.Links[0]
	if l.Part.Number != "12345" || l.Filename != "general_p1_img1.png" || l.Fallback || l.Confidence <= 0 {
		t.Fatalf("link = %+v", l)
	}
	if !strings.HasPrefix(l.Path, dir) {
		t.Fatalf("artifact path %q not under %q", l.Path, dir)
	}
	if _, err := os.Stat(l.Path); err != nil {
		t.Fatal(err)
	}
	for _, p := range res.Parts {
		if p.Number == "12345" && p.ImageRef != "general_p1_img1.png" {
			t.Errorf("image ref = %q", p.ImageRef)
		}
		if p.Number == "67890" && p.ImageRef != "" {
			t.Errorf("unexpected image ref on 67890: %q", p.ImageRef)
		}
	}
	if res.ImagesAssociated() != 1 || res.Pages[0].Associated != 1 {
		t.Errorf("associated = %d / %+v", res.ImagesAssociated(), res.Pages[0])
	}
	if len(res.Pages[0].ImageSkips) != 1 || res.Pages[0].ImageSkips[0].Reason != constants.SkipTooSmall {
		t.Errorf("image skips = %+v", res.Pages[0].ImageSkips)
	}
}

func TestCatalogStageReadsRealPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pumps.pdf")
	pdftest.Write(t, path, pdftest.Page{
		Texts: []pdftest.Text{
			{X: 72, Y: 700, Size: 12, S: "12345 Water pump"},
			{X: 400, Y: 300, Size: 12, S: "67890 Hose clamp"},
		},
		Images: []pdftest.Image{
			{Name: "Im1", W: 100, H: 80, X: 72, Y: 560, Width: 120, Height: 100},
			{Name: "Im2", W: 90, H: 90, X: 400, Y: 150, Width: 100, Height: 100, InForm: true},
		},
	})
	st, _ := newStages(t, pdfdoc.NewReader(pdfdoc.Config{}, nil))

	res := st.Catalog.Run(context.Background(), Job{Path: path, Kind: constants.KindCatalog})
	if res.Status != constants.DocumentOK || len(res.Parts) != 2 {
		t.Fatalf("status=%s parts=%+v err=%v", res.Status, res.Parts, res.Err)
	}
	if len(res.Links) != 2 {
		t.Fatalf("links = %+v", res.Links)
	}
	want := map[string]string{"12345": "pumps_p1_img1.png", "67890": "pumps_p1_img2.png"}
	for _, l := range res.Links {
		if l.Fallback || l.Confidence <= 0 || want[l.Part.Number] != l.Filename {
			t.Errorf("link = %+v", l)
		}
	}
}

func TestCatalogPageFailuresAreIsolated(t *testing.T) {
	doc := &fakeDoc{
		path: "/in/general.pdf",
		pages: []pdfdoc.Page{
			textPage(1, "Part 12345 pump"),
			textPage(2, ""),
			textPage(3, "   "),
			textPage(4, "Part 67890 valve"),
		},
		pageErrs: map[int]error{2: errors.New("bad content stream")},
	}
	st, _ := newStages(t, &fakeOpener{docs: map[string]*fakeDoc{doc.path: doc}})
	res := st.Catalog.Run(context.Background(), Job{Path: doc.path})

	reasons := []constants.SkipReason{constants.SkipNone, constants.SkipTextFailed, constants.SkipEmptyPage, constants.SkipNone}
	if len(res.Pages) != 4 {
		t.Fatalf("pages = %+v", res.Pages)
	}
	for i, want := range reasons {
		if res.Pages[i].Reason != want {
			t.Errorf("page %d reason = %q, want %q", i+1, res.Pages[i].Reason, want)
		}
	}
	if len(res.Parts) != 2 || res.PageFailures() != 1 {
		t.Fatalf("parts = %+v failures = %d", res.Parts, res.PageFailures())
	}
}

func TestCatalogPageLimit(t *testing.T) {
	doc := &fakeDoc{path: "/in/general.pdf", pages: []pdfdoc.Page{textPage(1, "12345"), textPage(2, "67890"), textPage(3, "55555")}}
	st, _ := newStages(t, &fakeOpener{docs: map[string]*fakeDoc{doc.path: doc}})
	st.Catalog.Limits.MaxPages = 2
	res := st.Catalog.Run(context.Background(), Job{Path: doc.path})
	if len(res.Parts) != 2 {
		t.Fatalf("parts = %+v", res.Parts)
	}
	if last := res.Pages[len(res.Pages)-1]; last.Reason != constants.SkipPageLimit || last.Page != 3 {
		t.Fatalf("last outcome = %+v", last)
	}
}

func TestGuideStage(t *testing.T) {
	doc := &fakeDoc{path: "/guides/brake_service.pdf", pages: []pdfdoc.Page{
		textPage(1, "BRAKE SERVICE\nThis guide explains how to service caliper 600-123.\nMax: 90 psi"),
		textPage(2, "INSTALLATION\nUse kit CH5004"),
	}}
	st, _ := newStages(t, &fakeOpener{docs: map[string]*fakeDoc{doc.path: doc}})
	res := st.Guide.Run(context.Background(), Job{Path: doc.path, Kind: constants.KindGuide})
	if res.Status != constants.DocumentOK || res.Guide == nil {
		t.Fatalf("res = %+v", res)
	}
	if res.Guide.Category != string(constants.BrakeSystem) || res.Name != "brake_service" {
		t.Errorf("guide = %+v", res.Guide)
	}
	if len(res.Template) == 0 {
		t.Error("template JSON missing")
	}
	numbers := map[string]float64{}
	for _, l := range res.GuideLinks {
		numbers[l.Number] = l.Confidence
	}
	if numbers["600-123"] != 1 || numbers["CH5004"] != 1 {
		t.Errorf("guide links = %+v", res.GuideLinks)
	}
}

type memorySink struct {
	mu       sync.Mutex
	catalogs []string
	guides   []string
	fail     bool
}

func (s *memorySink) SaveCatalog(_ context.Context, r *DocumentResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("disk full")
	}
	s.catalogs = append(s.catalogs, r.Job.Path)
	return nil
}

func (s *memorySink) SaveGuide(_ context.Context, r *DocumentResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guides = append(s.guides, r.Job.Path)
	return nil
}

type memoryIndex struct {
	mu   sync.Mutex
	seen map[string]string
	runs []entity.DocumentRun
}

func (m *memoryIndex) Unchanged(_ context.Context, path, hash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seen[path] == hash, nil
}

func (m *memoryIndex) RecordRun(_ context.Context, run entity.DocumentRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	if run.Status == constants.DocumentOK {
		m.seen[run.Path] = run.ContentHash
	}
	return nil
}

func batchFixture(t *testing.T) (*fakeOpener, *Stages) {
	opener := &fakeOpener{docs: map[string]*fakeDoc{
		"/in/a.pdf":     {path: "/in/a.pdf", pages: []pdfdoc.Page{textPage(1, "Part 12345 pump\nPart 67890 valve")}},
		"/in/b.pdf":     {path: "/in/b.pdf", pages: []pdfdoc.Page{textPage(1, "Part 55555 hose")}},
		"/guides/g.pdf": {path: "/guides/g.pdf", pages: []pdfdoc.Page{textPage(1, "OVERVIEW\nSee part 12345")}},
	}}
	st, _ := newStages(t, opener)
	return opener, st
}

func TestBatchSummary(t *testing.T) {
	_, st := batchFixture(t)
	sink := &memorySink{}
	index := &memoryIndex{seen: map[string]string{}}
	p := NewProcessor(nil, st.Catalog, st.Guide, sink, index)
	jobs := []Job{
		{Path: "/in/a.pdf", Kind: constants.KindCatalog, Hash: "h1"},
		{Path: "/in/missing.pdf", Kind: constants.KindCatalog},
		{Path: "/in/b.pdf", Kind: constants.KindCatalog, Hash: "h2"},
		{Path: "/guides/g.pdf", Kind: constants.KindGuide},
	}
	sum, err := NewBatch(p, 3, nil).Run(context.Background(), jobs)
	if err != nil {
		t.Fatal(err)
	}
	if sum.DocumentsProcessed != 3 || sum.PartsExtracted != 3 || sum.GuidesProcessed != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	if len(sum.OpenFailures) != 1 || sum.OpenFailures[0] != "/in/missing.pdf" {
		t.Fatalf("open failures = %v", sum.OpenFailures)
	}
	if len(sum.Results) != 4 || sum.Results[1].Job.Path != "/in/missing.pdf" {
		t.Fatal("results must keep job order")
	}
	if !IsOpenFailure(sum.Results[1]) {
		t.Error("missing document should be an open failure")
	}
	if len(sink.catalogs) != 2 || len(sink.guides) != 1 || len(index.runs) != 4 {
		t.Fatalf("sink = %v/%v runs = %d", sink.catalogs, sink.guides, len(index.runs))
	}

	again, _ := NewBatch(p, 1, nil).Run(context.Background(), jobs[:1])
	if again.Unchanged != 1 || again.DocumentsProcessed != 0 {
		t.Fatalf("second run = %+v", again)
	}
	forced, _ := NewBatch(p.Force(true), 1, nil).Run(context.Background(), jobs[:1])
	if forced.DocumentsProcessed != 1 {
		t.Fatalf("forced run = %+v", forced)
	}
}

func TestBatchStoreFailure(t *testing.T) {
	_, st := batchFixture(t)
	p := NewProcessor(nil, st.Catalog, st.Guide, &memorySink{fail: true}, nil)
	sum, _ := NewBatch(p, 1, nil).Run(context.Background(), []Job{{Path: "/in/a.pdf"}})
	if len(sum.StoreFailures) != 1 || sum.Results[0].Status != constants.DocumentStoreFailed {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestBatchCanceledBetweenDocuments(t *testing.T) {
	_, st := batchFixture(t)
	sink := &memorySink{}
	p := NewProcessor(nil, st.Catalog, st.Guide, sink, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sum, err := NewBatch(p, 2, nil).Run(ctx, []Job{{Path: "/in/a.pdf"}, {Path: "/in/b.pdf"}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if sum.Canceled != 2 || len(sink.catalogs) != 0 {
		t.Fatalf("summary = %+v", sum)
	}
}
