// Package pdftest writes small uncompressed PDF files for reader tests: one Helvetica font,
// positioned text and grayscale JPEG image XObjects, optionally wrapped in a form XObject.
package pdftest

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"strings"
	"testing"
)

// Text is one line shown at (X, Y) in points.
type Text struct {
	X, Y float64
	Size float64
	S    string
}

// Image is a W x H pixel JPEG painted into the rectangle (X, Y, Width, Height) in points.
// InForm paints it from inside a form XObject named "Fm<n>" instead of the page content.
type Image struct {
	Name          string
	W, H          int
	X, Y          float64
	Width, Height float64
	InForm        bool
}

type Page struct {
	Width, Height float64
	Texts         []Text
	Images        []Image
}

// Write builds the document and stores it at path.
func Write(t testing.TB, path string, pages ...Page) {
	t.Helper()
	data, err := Build(pages...)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

type object struct {
	dict   string
	stream []byte
}

// Build returns the PDF bytes. Object numbers: 1 catalog, 2 page tree, 3 font, then per page.
func Build(pages ...Page) ([]byte, error) {
	objs := []object{{}, {}, {}}
	add := func(o object) int {
		objs = append(objs, o)
		return len(objs)
	}
	widths := strings.TrimSpace(strings.Repeat("600 ", 126-32+1))
	objs[2] = object{dict: "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding " +
		"/FirstChar 32 /LastChar 126 /Widths [" + widths + "] >>"}

	var kids []string
	for _, p := range pages {
		w, h := p.Width, p.Height
		if w <= 0 || h <= 0 {
			w, h = 612, 792
		}
		var content bytes.Buffer
		var xobjects []string
		for i, img := range p.Images {
			data, err := grayJPEG(img.W, img.H)
			if err != nil {
				return nil, err
			}
			imgNr := add(object{
				dict: fmt.Sprintf("<< /Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /DeviceGray "+
					"/BitsPerComponent 8 /Filter /DCTDecode /Length %d >>", img.W, img.H, len(data)),
				stream: data,
			})
			if !img.InForm {
				xobjects = append(xobjects, fmt.Sprintf("/%s %d 0 R", img.Name, imgNr))
				fmt.Fprintf(&content, "q %g 0 0 %g %g %g cm /%s Do Q\n", img.Width, img.Height, img.X, img.Y, img.Name)
				continue
			}
			formContent := []byte(fmt.Sprintf("q %g 0 0 %g 0 0 cm /%s Do Q", img.Width, img.Height, img.Name))
			formNr := add(object{
				dict: fmt.Sprintf("<< /Type /XObject /Subtype /Form /BBox [0 0 %g %g] /Matrix [1 0 0 1 %g %g] "+
					"/Resources << /XObject << /%s %d 0 R >> >> /Length %d >>",
					img.Width, img.Height, img.X, img.Y, img.Name, imgNr, len(formContent)),
				stream: formContent,
			})
			form := fmt.Sprintf("Fm%d", i+1)
			xobjects = append(xobjects, fmt.Sprintf("/%s %d 0 R", form, formNr))
			fmt.Fprintf(&content, "/%s Do\n", form)
		}
		for _, tx := range p.Texts {
			fmt.Fprintf(&content, "BT /F1 %g Tf %g %g Td (%s) Tj ET\n", tx.Size, tx.X, tx.Y, escape(tx.S))
		}

		contentNr := add(object{dict: fmt.Sprintf("<< /Length %d >>", content.Len()), stream: content.Bytes()})
		resources := "/Font << /F1 3 0 R >>"
		if len(xobjects) > 0 {
			resources += " /XObject << " + strings.Join(xobjects, " ") + " >>"
		}
		pageNr := add(object{dict: fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %g %g] /Resources << %s >> /Contents %d 0 R >>",
			w, h, resources, contentNr)})
		kids = append(kids, fmt.Sprintf("%d 0 R", pageNr))
	}
	objs[0] = object{dict: "<< /Type /Catalog /Pages 2 0 R >>"}
	objs[1] = object{dict: fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(kids))}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\n", i+1, o.dict)
		if o.stream != nil {
			buf.WriteString("stream\n")
			buf.Write(o.stream)
			buf.WriteString("\nendstream\n")
		}
		buf.WriteString("endobj\n")
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes(), nil
}

func grayJPEG(w, h int) ([]byte, error) {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8((x + y) % 256)})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func escape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`).Replace(s)
}
