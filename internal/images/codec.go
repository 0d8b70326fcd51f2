package images

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/joseph-ayodele/parts-catalog/internal/common"
)

// decodeConfig reads the pixel size without decoding the whole raster.
func decodeConfig(format string, data []byte) (image.Config, error) {
	switch normalizeFormat(format) {
	case "tif":
		return tiff.DecodeConfig(bytes.NewReader(data))
	case "bmp":
		return bmp.DecodeConfig(bytes.NewReader(data))
	case "jp2", "jpx", "jb2", "ccitt":
		return image.Config{}, fmt.Errorf("%w: %s", common.ErrUnsupportedFormat, format)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return image.Config{}, fmt.Errorf("%w: %s: %v", common.ErrUnsupportedFormat, format, err)
	}
	return cfg, nil
}

func decode(format string, data []byte) (image.Image, error) {
	switch normalizeFormat(format) {
	case "tif":
		return tiff.Decode(bytes.NewReader(data))
	case "bmp":
		return bmp.Decode(bytes.NewReader(data))
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", common.ErrUnsupportedFormat, format, err)
	}
	return img, nil
}

func normalizeFormat(f string) string {
	f = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(f), "."))
	switch f {
	case "jpeg":
		return "jpg"
	case "tiff":
		return "tif"
	}
	return f
}

// toPNG re-encodes src as NRGBA PNG. When maxDim > 0 the longer side is scaled down to it.
// The decoded raster never escapes this function.
func toPNG(format string, data []byte, maxDim int) ([]byte, int, int, error) {
	src, err := decode(format, data)
	if err != nil {
		return nil, 0, 0, err
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim > 0 && (w > maxDim || h > maxDim) {
		if w >= h {
			h = max(1, h*maxDim/w)
			w = maxDim
		} else {
			w = max(1, w*maxDim/h)
			h = maxDim
		}
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, 0, 0, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), w, h, nil
}
