package rimage

import (
	"math"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/mat"
)

// BilinearInterpolation samples m at a subpixel location. ok is false when the point lies
// outside [0, width-1] x [0, height-1].
func BilinearInterpolation(pt r2.Point, m *mat.Dense) (float64, bool) {
	h, w := m.Dims()
	if pt.X < 0 || pt.Y < 0 || pt.X > float64(w-1) || pt.Y > float64(h-1) || math.IsNaN(pt.X+pt.Y) {
		return 0, false
	}
	x0, y0 := int(math.Floor(pt.X)), int(math.Floor(pt.Y))
	x1, y1 := x0+1, y0+1
	if x1 > w-1 {
		x1 = w - 1
	}
	if y1 > h-1 {
		y1 = h - 1
	}
	fx, fy := pt.X-float64(x0), pt.Y-float64(y0)
	raw := m.RawMatrix()
	at := func(x, y int) float64 { return raw.Data[y*raw.Stride+x] }
	top := at(x0, y0)*(1-fx) + at(x1, y0)*fx
	bottom := at(x0, y1)*(1-fx) + at(x1, y1)*fx
	return top*(1-fy) + bottom*fy, true
}

