// Package composite builds per-group composite images by resizing member
// cells onto a shared canvas and summing them in floating point.
package composite

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"cell-binner/internal/cellimg"
)

// Canvas accumulates member images on a shared zero-filled canvas.
type Canvas struct {
	Width   int
	Height  int
	Acc     []float64 // Row-major float64 accumulator
	Members int
}

// BuildGroup composites the member cell images of one group. The canvas is
// the maximum height and width over members; each member is scaled
// aspect-preserving to fit, centered with zero padding, and added to the
// accumulator. An empty member list is an error so the caller can log the
// group and continue.
func BuildGroup(members []*cellimg.CellImage) (*Canvas, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("group has no member images")
	}

	var w, h int
	for _, m := range members {
		if m.Width > w {
			w = m.Width
		}
		if m.Height > h {
			h = m.Height
		}
	}
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("group members have zero-sized images")
	}

	c := &Canvas{
		Width:  w,
		Height: h,
		Acc:    make([]float64, w*h),
	}
	for _, m := range members {
		c.add(m)
	}
	return c, nil
}

// add scales one member to fit the canvas and sums it into the accumulator.
func (c *Canvas) add(m *cellimg.CellImage) {
	if m.Width == 0 || m.Height == 0 {
		return
	}

	scale := math.Min(
		float64(c.Width)/float64(m.Width),
		float64(c.Height)/float64(m.Height),
	)
	tw := int(math.Round(float64(m.Width) * scale))
	th := int(math.Round(float64(m.Height) * scale))
	if tw < 1 {
		tw = 1
	}
	if th < 1 {
		th = 1
	}
	if tw > c.Width {
		tw = c.Width
	}
	if th > c.Height {
		th = c.Height
	}

	pix := m.Pix
	if tw != m.Width || th != m.Height {
		pix = resizeRaster(m, tw, th)
	}

	// Center with zero padding (letterbox, not crop)
	offX := (c.Width - tw) / 2
	offY := (c.Height - th) / 2
	for y := 0; y < th; y++ {
		row := (y + offY) * c.Width
		for x := 0; x < tw; x++ {
			c.Acc[row+offX+x] += pix[y*tw+x]
		}
	}
	c.Members++
}

// Normalize16 linearly rescales the accumulator to the full 16-bit range.
// A constant accumulator (max == min) yields an all-zero image instead of
// dividing by zero.
func (c *Canvas) Normalize16() *image.Gray16 {
	out := image.NewGray16(image.Rect(0, 0, c.Width, c.Height))

	lo, hi := c.Acc[0], c.Acc[0]
	for _, v := range c.Acc[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi == lo {
		return out
	}

	scale := 65535.0 / (hi - lo)
	for y := 0; y < c.Height; y++ {
		for x := 0; x < c.Width; x++ {
			v := math.Round((c.Acc[y*c.Width+x] - lo) * scale)
			if v < 0 {
				v = 0
			}
			if v > 65535 {
				v = 65535
			}
			out.SetGray16(x, y, color.Gray16{Y: uint16(v)})
		}
	}
	return out
}
