package entity

// Rect is an axis-aligned box in PDF user space (origin bottom-left).
type Rect struct {
	X0, Y0, X1, Y1 float64
}

func (r Rect) Empty() bool { return r.X1 <= r.X0 || r.Y1 <= r.Y0 }

func (r Rect) Width() float64  { return r.X1 - r.X0 }
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }
func (r Rect) Area() float64   { return r.Width() * r.Height() }

// Center returns the midpoint of r.
func (r Rect) Center() (float64, float64) {
	return (r.X0 + r.X1) / 2, (r.Y0 + r.Y1) / 2
}

// TextSpan is a positioned piece of page text. Association input only.
type TextSpan struct {
	Text   string
	Bounds Rect
}

// ExtractedImage is one embedded raster image that survived the icon/background filter.
type ExtractedImage struct {
	Document string
	Page     int
	Index    int
	Name     string // resource name on the page, e.g. Im3
	Width    int
	Height   int
	Format   string
	Bounds   Rect // placement on the page; empty when unknown
	Filename string
	Path     string
	Data     []byte // released once the artifact is written
}
