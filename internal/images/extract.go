// Package images filters, converts and links the raster images embedded in catalog pages.
package images

import (
	"context"
	"fmt"
	"log/slog"
	"path"

	"github.com/joseph-ayodele/parts-catalog/constants"
	"github.com/joseph-ayodele/parts-catalog/internal/entity"
	"github.com/joseph-ayodele/parts-catalog/internal/pdfdoc"
	"github.com/joseph-ayodele/parts-catalog/internal/storage"
)

const (
	DefaultMinPixels     = 50
	DefaultFullPageRatio = 0.8
)

// Outcome records what happened to one embedded image.
type Outcome struct {
	Page   int
	Index  int
	Name   string
	Reason constants.SkipReason
	Err    error
}

// Extractor drops icons and page backgrounds and converts the rest to PNG.
type Extractor struct {
	store         storage.ArtifactStore
	minPixels     int
	fullPageRatio float64
	maxDimension  int
	logger        *slog.Logger
}

type Option func(*Extractor)

func WithMinPixels(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.minPixels = n
		}
	}
}

func WithFullPageRatio(r float64) Option {
	return func(e *Extractor) {
		if r > 0 && r <= 1 {
			e.fullPageRatio = r
		}
	}
}

// WithMaxDimension downscales artifacts whose longer side exceeds n pixels; 0 keeps the original size.
func WithMaxDimension(n int) Option {
	return func(e *Extractor) { e.maxDimension = max(0, n) }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

func NewExtractor(store storage.ArtifactStore, opts ...Option) *Extractor {
	e := &Extractor{
		store:         store,
		minPixels:     DefaultMinPixels,
		fullPageRatio: DefaultFullPageRatio,
		logger:        slog.Default(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract converts the page's raw images. Every raw image yields exactly one Outcome;
// the returned images still hold their PNG bytes until Store is called.
func (e *Extractor) Extract(document string, page pdfdoc.Page, raws []pdfdoc.RawImage) ([]entity.ExtractedImage, []Outcome) {
	pageArea := page.Width * page.Height
	stem := storage.SafeName(document)

	var out []entity.ExtractedImage
	outcomes := make([]Outcome, 0, len(raws))
	for i, raw := range raws {
		index := i + 1
		oc := Outcome{Page: page.Number, Index: index, Name: raw.Name}

		cfg, err := decodeConfig(raw.Format, raw.Data)
		if err != nil {
			oc.Reason, oc.Err = constants.SkipCodecFailed, err
			outcomes = append(outcomes, oc)
			e.logger.Warn("image decode failed", "document", document, "page", page.Number, "image", raw.Name, "format", raw.Format, "error", err)
			continue
		}
		if cfg.Width < e.minPixels || cfg.Height < e.minPixels {
			oc.Reason = constants.SkipTooSmall
			outcomes = append(outcomes, oc)
			continue
		}
		if e.isFullPage(raw.Bounds, pageArea) {
			oc.Reason = constants.SkipFullPage
			outcomes = append(outcomes, oc)
			continue
		}

		data, w, h, err := e.convert(raw)
		if err != nil {
			oc.Reason, oc.Err = constants.SkipCodecFailed, err
			outcomes = append(outcomes, oc)
			e.logger.Warn("image conversion failed", "document", document, "page", page.Number, "image", raw.Name, "error", err)
			continue
		}

		filename := fmt.Sprintf("%s_p%d_img%d.png", stem, page.Number, index)
		out = append(out, entity.ExtractedImage{
			Document: document,
			Page:     page.Number,
			Index:    index,
			Name:     raw.Name,
			Width:    w,
			Height:   h,
			Format:   "png",
			Bounds:   raw.Bounds,
			Filename: filename,
			Data:     data,
		})
		outcomes = append(outcomes, oc)
	}
	return out, outcomes
}

// convert isolates codec panics to the single image.
func (e *Extractor) convert(raw pdfdoc.RawImage) (data []byte, w, h int, err error) {
	defer func() {
		if p := recover(); p != nil {
			data, w, h, err = nil, 0, 0, fmt.Errorf("codec panic: %v", p)
		}
	}()
	return toPNG(raw.Format, raw.Data, e.maxDimension)
}

// isFullPage compares the painted area with the page area, both in points. An image with no
// known placement is never treated as a background.
func (e *Extractor) isFullPage(bounds entity.Rect, pageArea float64) bool {
	if pageArea <= 0 || bounds.Empty() {
		return false
	}
	return bounds.Area() > pageArea*e.fullPageRatio
}

// Store writes the artifact under "<document stem>/<filename>", records its path and
// releases the in-memory bytes on every exit path.
func (e *Extractor) Store(ctx context.Context, img *entity.ExtractedImage) error {
	defer func() { img.Data = nil }()
	key := path.Join(storage.SafeName(img.Document), img.Filename)
	p, err := e.store.Put(ctx, key, img.Data)
	if err != nil {
		return err
	}
	img.Path = p
	return nil
}
