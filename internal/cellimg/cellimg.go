// Package cellimg provides loading and raster access for per-cell
// microscopy images.
package cellimg

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	_ "golang.org/x/image/tiff"
)

// CellImage holds one cell image as a float64 grayscale raster.
type CellImage struct {
	ID     string // Filename stem, used as the stable sample id
	Path   string // Original file path
	Width  int
	Height int
	Pix    []float64 // Row-major grayscale values (0-65535 scale)
	DPI    float64   // Detected resolution, 0 when unknown
}

// Load loads an image from the specified path and converts it to a
// grayscale raster. Color input is reduced with the usual luma weights;
// Gray and Gray16 pixels are taken directly.
func Load(path string) (*CellImage, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	ci := FromImage(img)
	ci.Path = path
	ci.ID = Stem(path)

	// Try to extract resolution from TIFF metadata
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".tiff" || ext == ".tif" {
		if dpi, err := extractTIFFDPI(path); err == nil {
			ci.DPI = dpi
		}
	}

	return ci, nil
}

// FromImage converts a decoded image to a CellImage raster.
func FromImage(img image.Image) *CellImage {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	ci := &CellImage{
		Width:  w,
		Height: h,
		Pix:    make([]float64, w*h),
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			var v float64
			if r == g && g == b {
				v = float64(r)
			} else {
				v = 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
			}
			ci.Pix[y*w+x] = v
		}
	}
	return ci
}

// At returns the grayscale value at (x, y), or 0 outside the raster.
func (c *CellImage) At(x, y int) float64 {
	if x < 0 || x >= c.Width || y < 0 || y >= c.Height {
		return 0
	}
	return c.Pix[y*c.Width+x]
}

// Stem returns the filename without directory or extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// NumericID extracts the trailing digit run from a filename stem,
// e.g. "cell_0042" -> 42. Returns -1 when the stem has no trailing digits.
func NumericID(path string) int {
	stem := Stem(path)
	end := len(stem)
	start := end
	for start > 0 && unicode.IsDigit(rune(stem[start-1])) {
		start--
	}
	if start == end {
		return -1
	}
	id := 0
	for _, r := range stem[start:end] {
		id = id*10 + int(r-'0')
	}
	return id
}

// SupportedFormats returns the list of supported image formats.
func SupportedFormats() []string {
	return []string{".tiff", ".tif", ".png", ".jpg", ".jpeg"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}
