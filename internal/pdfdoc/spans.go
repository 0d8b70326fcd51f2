package pdfdoc

import (
	"math"
	"sort"
	"strings"

	"github.com/joseph-ayodele/parts-catalog/internal/entity"
)

// Glyph is one positioned text run as reported by the PDF reader (usually a single character).
type Glyph struct {
	X, Y     float64
	W        float64
	FontSize float64
	S        string
}

const (
	rowTolerance       = 2.0
	wordGapMultiplier  = 0.3
	fallbackWordGap    = 3.0
	defaultGlyphHeight = 10.0
)

type row struct {
	yMin, yMax float64
	glyphs     []Glyph
}

// Layout groups glyphs into rows (top to bottom) and words (left to right).
// It returns the page text, one line per row, and one TextSpan per word.
func Layout(glyphs []Glyph) (string, []entity.TextSpan) {
	if len(glyphs) == 0 {
		return "", nil
	}
	rows := groupRows(glyphs)
	lines := make([]string, 0, len(rows))
	var spans []entity.TextSpan
	for _, r := range rows {
		words := wordsOf(r.glyphs)
		parts := make([]string, 0, len(words))
		for _, w := range words {
			parts = append(parts, w.Text)
		}
		if len(parts) > 0 {
			lines = append(lines, strings.Join(parts, " "))
		}
		spans = append(spans, words...)
	}
	return strings.Join(lines, "\n"), spans
}

func groupRows(glyphs []Glyph) []row {
	var rows []row
	for _, g := range glyphs {
		placed := false
		for i := range rows {
			if g.Y >= rows[i].yMin-rowTolerance && g.Y <= rows[i].yMax+rowTolerance {
				rows[i].glyphs = append(rows[i].glyphs, g)
				rows[i].yMin = math.Min(rows[i].yMin, g.Y)
				rows[i].yMax = math.Max(rows[i].yMax, g.Y)
				placed = true
				break
			}
		}
		if !placed {
			rows = append(rows, row{yMin: g.Y, yMax: g.Y, glyphs: []Glyph{g}})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].yMax > rows[j].yMax })
	return rows
}

func wordsOf(glyphs []Glyph) []entity.TextSpan {
	sorted := make([]Glyph, len(glyphs))
	copy(sorted, glyphs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	var out []entity.TextSpan
	var b strings.Builder
	var cur entity.Rect
	open := false
	flush := func() {
		if open && strings.TrimSpace(b.String()) != "" {
			out = append(out, entity.TextSpan{Text: strings.TrimSpace(b.String()), Bounds: cur})
		}
		b.Reset()
		open = false
	}
	for _, g := range sorted {
		if strings.TrimSpace(g.S) == "" {
			flush()
			continue
		}
		h := g.FontSize
		if h <= 0 {
			h = defaultGlyphHeight
		}
		if open {
			gap := g.X - cur.X1
			threshold := wordGapMultiplier * g.FontSize
			if g.FontSize <= 0 {
				threshold = fallbackWordGap
			}
			if gap > threshold {
				flush()
			}
		}
		if !open {
			cur = entity.Rect{X0: g.X, Y0: g.Y, X1: g.X + g.W, Y1: g.Y + h}
			open = true
		} else {
			cur.X1 = math.Max(cur.X1, g.X+g.W)
			cur.Y0 = math.Min(cur.Y0, g.Y)
			cur.Y1 = math.Max(cur.Y1, g.Y+h)
		}
		b.WriteString(g.S)
	}
	flush()
	return out
}
