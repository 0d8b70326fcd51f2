package pdfdoc

import (
	"bytes"
	"strconv"

	"github.com/joseph-ayodele/parts-catalog/internal/entity"
)

// matrix is a PDF transformation [a b c d e f].
type matrix struct{ a, b, c, d, e, f float64 }

var identity = matrix{1, 0, 0, 1, 0, 0}

// then returns m followed by n (m x n in PDF row-vector convention).
func (m matrix) then(n matrix) matrix {
	return matrix{
		a: m.a*n.a + m.b*n.c,
		b: m.a*n.b + m.b*n.d,
		c: m.c*n.a + m.d*n.c,
		d: m.c*n.b + m.d*n.d,
		e: m.e*n.a + m.f*n.c + n.e,
		f: m.e*n.b + m.f*n.d + n.f,
	}
}

func (m matrix) apply(x, y float64) (float64, float64) {
	return m.a*x + m.c*y + m.e, m.b*x + m.d*y + m.f
}

// unitBounds maps the image unit square through m.
func (m matrix) unitBounds() entity.Rect {
	r := entity.Rect{X0: 1e18, Y0: 1e18, X1: -1e18, Y1: -1e18}
	for _, p := range [4][2]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
		x, y := m.apply(p[0], p[1])
		r.X0, r.X1 = min(r.X0, x), max(r.X1, x)
		r.Y0, r.Y1 = min(r.Y0, y), max(r.Y1, y)
	}
	return r
}

// Form is a form XObject reached from a content stream: its own content, its /Matrix and a
// resolver for the names its resources define.
type Form struct {
	Content []byte
	Matrix  [6]float64
	Forms   FormResolver
}

// FormResolver looks up a form XObject by resource name. ok is false for images and unknown names.
type FormResolver func(name string) (f Form, ok bool)

// maxFormDepth bounds form nesting; self-referencing forms exist in the wild.
const maxFormDepth = 8

// ImagePlacements scans a page content stream and returns where each XObject is painted.
// Only the first placement of a name is kept. Names are returned without the leading slash.
func ImagePlacements(content []byte) map[string]entity.Rect {
	return WalkPlacements(content, nil)
}

// WalkPlacements is ImagePlacements that also descends into form XObjects. Images painted
// inside a form are keyed by the dotted resource path, e.g. "Fm1.Im1".
func WalkPlacements(content []byte, forms FormResolver) map[string]entity.Rect {
	out := map[string]entity.Rect{}
	walkPlacements(content, identity, "", forms, 0, out)
	return out
}

func walkPlacements(content []byte, ctm matrix, prefix string, forms FormResolver, depth int, out map[string]entity.Rect) {
	var stack []matrix
	var operands []string

	s := &scanner{src: content}
	for {
		tok, kind := s.next()
		if kind == tokEOF {
			break
		}
		if kind != tokOperator {
			operands = append(operands, tok)
			continue
		}
		switch tok {
		case "q":
			stack = append(stack, ctm)
		case "Q":
			if n := len(stack); n > 0 {
				ctm = stack[n-1]
				stack = stack[:n-1]
			}
		case "cm":
			if m, ok := matrixFrom(operands); ok {
				ctm = m.then(ctm)
			}
		case "Do":
			if n := len(operands); n > 0 && len(operands[n-1]) > 1 && operands[n-1][0] == '/' {
				name := operands[n-1][1:]
				key := name
				if prefix != "" {
					key = prefix + "." + name
				}
				if forms != nil && depth < maxFormDepth {
					if f, ok := forms(name); ok {
						fm := matrix{f.Matrix[0], f.Matrix[1], f.Matrix[2], f.Matrix[3], f.Matrix[4], f.Matrix[5]}
						walkPlacements(f.Content, fm.then(ctm), key, f.Forms, depth+1, out)
						break
					}
				}
				if _, seen := out[key]; !seen {
					out[key] = ctm.unitBounds()
				}
			}
		case "BI":
			s.skipInlineImage()
		}
		operands = operands[:0]
	}
}

func matrixFrom(ops []string) (matrix, bool) {
	if len(ops) < 6 {
		return matrix{}, false
	}
	var v [6]float64
	for i, o := range ops[len(ops)-6:] {
		f, err := strconv.ParseFloat(o, 64)
		if err != nil {
			return matrix{}, false
		}
		v[i] = f
	}
	return matrix{v[0], v[1], v[2], v[3], v[4], v[5]}, true
}

type tokKind int

const (
	tokEOF tokKind = iota
	tokOperand
	tokOperator
)

// scanner is a minimal content-stream tokenizer: it only needs to tell operands from
// operators and to step over strings, arrays, dictionaries and inline image data.
type scanner struct {
	src []byte
	pos int
}

func isWhite(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t' || c == '\f' || c == 0
}

func isDelim(c byte) bool {
	return bytes.IndexByte([]byte("()<>[]{}/%"), c) >= 0
}

func (s *scanner) next() (string, tokKind) {
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case isWhite(c):
			s.pos++
		case c == '%':
			for s.pos < len(s.src) && s.src[s.pos] != '\n' && s.src[s.pos] != '\r' {
				s.pos++
			}
		case c == '(':
			s.skipString()
			return "()", tokOperand
		case c == '<' && s.pos+1 < len(s.src) && s.src[s.pos+1] == '<':
			s.pos += 2
			return "<<", tokOperand
		case c == '>' && s.pos+1 < len(s.src) && s.src[s.pos+1] == '>':
			s.pos += 2
			return ">>", tokOperand
		case c == '<':
			for s.pos < len(s.src) && s.src[s.pos] != '>' {
				s.pos++
			}
			s.pos++
			return "<>", tokOperand
		case c == '[' || c == ']' || c == '{' || c == '}':
			s.pos++
			return string(c), tokOperand
		case c == '/':
			start := s.pos
			s.pos++
			for s.pos < len(s.src) && !isWhite(s.src[s.pos]) && !isDelim(s.src[s.pos]) {
				s.pos++
			}
			return string(s.src[start:s.pos]), tokOperand
		default:
			start := s.pos
			for s.pos < len(s.src) && !isWhite(s.src[s.pos]) && !isDelim(s.src[s.pos]) {
				s.pos++
			}
			if s.pos == start {
				s.pos++
				continue
			}
			word := string(s.src[start:s.pos])
			if isNumber(word) || word == "true" || word == "false" || word == "null" {
				return word, tokOperand
			}
			return word, tokOperator
		}
	}
	return "", tokEOF
}

func (s *scanner) skipString() {
	depth := 0
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		s.pos++
		switch c {
		case '\\':
			s.pos++
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return
			}
		}
	}
}

// skipInlineImage moves past "ID <binary> EI".
func (s *scanner) skipInlineImage() {
	idx := bytes.Index(s.src[s.pos:], []byte("ID"))
	if idx < 0 {
		s.pos = len(s.src)
		return
	}
	s.pos += idx + 2
	for s.pos < len(s.src) {
		idx := bytes.Index(s.src[s.pos:], []byte("EI"))
		if idx < 0 {
			s.pos = len(s.src)
			return
		}
		at := s.pos + idx
		before := at == 0 || isWhite(s.src[at-1])
		after := at+2 >= len(s.src) || isWhite(s.src[at+2])
		s.pos = at + 2
		if before && after {
			return
		}
	}
}

func isNumber(w string) bool {
	_, err := strconv.ParseFloat(w, 64)
	return err == nil
}
