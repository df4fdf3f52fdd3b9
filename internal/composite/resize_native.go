//go:build !purego && !js

package composite

import (
	"image"

	"gocv.io/x/gocv"

	"cell-binner/internal/cellimg"
)

// resizeRaster scales a cell raster to (w, h) with OpenCV bilinear
// interpolation.
func resizeRaster(m *cellimg.CellImage, w, h int) []float64 {
	src := gocv.NewMatWithSize(m.Height, m.Width, gocv.MatTypeCV32F)
	defer src.Close()
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			src.SetFloatAt(y, x, float32(m.Pix[y*m.Width+x]))
		}
	}

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Resize(src, &dst, image.Pt(w, h), 0, 0, gocv.InterpolationLinear)

	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out[y*w+x] = float64(dst.GetFloatAt(y, x))
		}
	}
	return out
}
