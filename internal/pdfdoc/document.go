// Package pdfdoc reads page text, positioned spans and embedded images out of PDF files.
package pdfdoc

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	lpdf "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/joseph-ayodele/parts-catalog/internal/common"
	"github.com/joseph-ayodele/parts-catalog/internal/entity"
)

// Page is the text side of one page.
type Page struct {
	Number int
	Text   string
	Spans  []entity.TextSpan
	Width  float64
	Height float64
	Source string // "native" | "plain" | "pdftotext"
}

// RawImage is an embedded image as stored in the file, before filtering or conversion.
type RawImage struct {
	Name   string
	ObjNr  int
	Format string // file type reported by the extractor: png, jpg, tif, jp2...
	Data   []byte
	Bounds entity.Rect
}

// Document is one opened PDF. Pages are 1-based.
type Document interface {
	Path() string
	NumPages() int
	Page(ctx context.Context, n int) (Page, error)
	Images(ctx context.Context, n int) ([]RawImage, error)
	Close() error
}

// Opener opens documents; the pipeline depends on this instead of a concrete reader.
type Opener interface {
	Open(ctx context.Context, path string) (Document, error)
}

type Config struct {
	Pdftotext string // binary name or absolute path; empty disables the fallback
}

// Reader opens documents with ledongthuc/pdf for text and pdfcpu for images.
type Reader struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewReader(cfg Config, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{cfg: cfg, runner: execRunner{}, logger: logger}
}

// WithRunner swaps the command runner (tests).
func (r *Reader) WithRunner(run Runner) *Reader {
	r.runner = run
	return r
}

// Open fails only when the file cannot be parsed at all; that is document-fatal.
func (r *Reader) Open(_ context.Context, path string) (doc Document, err error) {
	defer func() {
		if p := recover(); p != nil {
			doc, err = nil, common.DocumentOpenError(path, fmt.Errorf("panic: %v", p))
		}
	}()
	f, rd, err := lpdf.Open(path)
	if err != nil {
		return nil, common.DocumentOpenError(path, err)
	}
	return &document{path: path, file: f, reader: rd, parent: r}, nil
}

type document struct {
	path   string
	file   *os.File
	reader *lpdf.Reader
	parent *Reader

	imgOnce sync.Once
	imgCtx  *model.Context
	imgErr  error
}

func (d *document) Path() string  { return d.path }
func (d *document) NumPages() int { return d.reader.NumPage() }

func (d *document) Close() error {
	if d.file != nil {
		return d.file.Close()
	}
	return nil
}

func (d *document) Page(ctx context.Context, n int) (Page, error) {
	page := Page{Number: n, Width: letterWidth, Height: letterHeight}
	text, spans, w, h, err := d.nativePage(n)
	if w > 0 && h > 0 {
		page.Width, page.Height = w, h
	}
	switch {
	case err == nil && strings.TrimSpace(text) != "":
		page.Text, page.Spans, page.Source = Normalize(text), spans, "native"
		return page, nil
	case d.parent.cfg.Pdftotext != "":
		out, ferr := pdftotextPage(ctx, d.parent.runner, d.parent.cfg.Pdftotext, d.path, n)
		if ferr != nil {
			if err != nil {
				return page, fmt.Errorf("%w; fallback: %v", err, ferr)
			}
			return page, ferr
		}
		page.Text, page.Source = Normalize(out), "pdftotext"
		return page, nil
	case err != nil:
		return page, err
	}
	return page, nil
}

// nativePage recovers from reader panics; malformed content streams are common in catalogs.
func (d *document) nativePage(n int) (text string, spans []entity.TextSpan, w, h float64, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("page %d: reader panic: %v", n, p)
		}
	}()
	p := d.reader.Page(n)
	if p.V.IsNull() {
		return "", nil, 0, 0, fmt.Errorf("page %d: missing page object", n)
	}
	w, h = mediaBox(p)

	content := p.Content()
	glyphs := make([]Glyph, 0, len(content.Text))
	for _, t := range content.Text {
		glyphs = append(glyphs, Glyph{X: t.X, Y: t.Y, W: t.W, FontSize: t.FontSize, S: t.S})
	}
	text, spans = Layout(glyphs)
	if strings.TrimSpace(text) != "" {
		return text, spans, w, h, nil
	}
	plain, perr := p.GetPlainText(nil)
	if perr != nil {
		return "", nil, w, h, fmt.Errorf("page %d: %w", n, perr)
	}
	return plain, nil, w, h, nil
}

const (
	letterWidth  = 612.0
	letterHeight = 792.0
)

// mediaBox walks up the page tree for an inherited MediaBox.
func mediaBox(p lpdf.Page) (float64, float64) {
	v := p.V
	for i := 0; i < 10 && !v.IsNull(); i++ {
		mb := v.Key("MediaBox")
		if mb.Kind() == lpdf.Array && mb.Len() == 4 {
			w := mb.Index(2).Float64() - mb.Index(0).Float64()
			h := mb.Index(3).Float64() - mb.Index(1).Float64()
			if w > 0 && h > 0 {
				return w, h
			}
		}
		v = v.Key("Parent")
	}
	return letterWidth, letterHeight
}

// Images returns the page's embedded images with their placement. pdfcpu parses the file
// once per document on first use.
func (d *document) Images(_ context.Context, n int) (imgs []RawImage, err error) {
	d.imgOnce.Do(func() { d.imgCtx, d.imgErr = d.openImageContext() })
	if d.imgErr != nil {
		return nil, d.imgErr
	}
	defer func() {
		if p := recover(); p != nil {
			imgs, err = nil, fmt.Errorf("page %d: image extraction panic: %v", n, p)
		}
	}()

	placements := map[string]entity.Rect{}
	if rd, cerr := pdfcpu.ExtractPageContent(d.imgCtx, n); cerr == nil && rd != nil {
		if raw, rerr := io.ReadAll(rd); rerr == nil {
			placements = WalkPlacements(raw, d.pageForms(n))
		}
	}

	found, err := pdfcpu.ExtractPageImages(d.imgCtx, n, false)
	if err != nil {
		return nil, fmt.Errorf("page %d: extract images: %w", n, err)
	}
	objNrs := make([]int, 0, len(found))
	for nr := range found {
		objNrs = append(objNrs, nr)
	}
	sort.Ints(objNrs)
	for _, nr := range objNrs {
		img := found[nr]
		if img.Reader == nil {
			continue
		}
		data, rerr := io.ReadAll(img.Reader)
		if rerr != nil {
			d.parent.logger.Warn("image read failed", "path", d.path, "page", n, "obj", nr, "error", rerr)
			continue
		}
		imgs = append(imgs, RawImage{
			Name:   img.Name,
			ObjNr:  nr,
			Format: strings.ToLower(img.FileType),
			Data:   data,
			Bounds: placements[strings.TrimPrefix(img.Name, "/")],
		})
	}
	return imgs, nil
}

// pageForms resolves form XObjects against the page resources.
func (d *document) pageForms(n int) FormResolver {
	_, _, inh, err := d.imgCtx.PageDict(n, false)
	if err != nil || inh == nil {
		return nil
	}
	return d.formResolver(inh.Resources)
}

func (d *document) formResolver(resources types.Dict) FormResolver {
	if resources == nil {
		return nil
	}
	o, found := resources.Find("XObject")
	if !found {
		return nil
	}
	xobjects, err := d.imgCtx.DereferenceDict(o)
	if err != nil || xobjects == nil {
		return nil
	}
	var resolve FormResolver
	resolve = func(name string) (Form, bool) {
		o, found := xobjects.Find(name)
		if !found {
			return Form{}, false
		}
		sd, _, err := d.imgCtx.DereferenceStreamDict(o)
		if err != nil || sd == nil {
			return Form{}, false
		}
		if st := sd.Subtype(); st == nil || *st != "Form" {
			return Form{}, false
		}
		if err := sd.Decode(); err != nil {
			d.parent.logger.Debug("form decode failed", "path", d.path, "form", name, "error", err)
			return Form{}, false
		}
		f := Form{Content: sd.Content, Matrix: [6]float64{1, 0, 0, 1, 0, 0}, Forms: resolve}
		if mo, ok := sd.Find("Matrix"); ok {
			if a, aerr := d.imgCtx.DereferenceArray(mo); aerr == nil && len(a) == 6 {
				for i := range a {
					v, verr := d.imgCtx.DereferenceNumber(a[i])
					if verr != nil {
						return Form{}, false
					}
					f.Matrix[i] = v
				}
			}
		}
		if ro, ok := sd.Find("Resources"); ok {
			if res, rerr := d.imgCtx.DereferenceDict(ro); rerr == nil {
				f.Forms = d.formResolver(res)
			}
		}
		return f, true
	}
	return resolve
}

func (d *document) openImageContext() (ctx *model.Context, err error) {
	defer func() {
		if p := recover(); p != nil {
			ctx, err = nil, fmt.Errorf("pdfcpu panic: %v", p)
		}
	}()
	raw, err := os.ReadFile(d.path)
	if err != nil {
		return nil, err
	}
	conf := model.NewDefaultConfiguration()
	ctx, err = api.ReadValidateAndOptimize(bytes.NewReader(raw), conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}
	return ctx, nil
}
