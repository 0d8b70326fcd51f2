package pdfdoc

import (
	"context"
	"fmt"
	"strconv"
)

// pdftotextPage extracts one page with poppler's pdftotext; used when the native reader fails.
func pdftotextPage(ctx context.Context, r Runner, bin, path string, page int) (string, error) {
	n := strconv.Itoa(page)
	// pdftotext -f N -l N -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := r.Run(ctx, bin, "-f", n, "-l", n, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", fmt.Errorf("pdftotext page %d: %w (%s)", page, err, truncate(string(errb), 512))
	}
	return string(out), nil
}
