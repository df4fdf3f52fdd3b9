//go:build purego || js

package composite

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"cell-binner/internal/cellimg"
)

// resizeRaster scales a cell raster to (w, h) with the pure Go bilinear
// scaler, round-tripping through Gray16.
func resizeRaster(m *cellimg.CellImage, w, h int) []float64 {
	src := image.NewGray16(image.Rect(0, 0, m.Width, m.Height))
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			v := math.Round(m.Pix[y*m.Width+x])
			if v < 0 {
				v = 0
			}
			if v > 65535 {
				v = 65535
			}
			src.SetGray16(x, y, color.Gray16{Y: uint16(v)})
		}
	}

	dst := image.NewGray16(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out[y*w+x] = float64(dst.Gray16At(x, y).Y)
		}
	}
	return out
}
