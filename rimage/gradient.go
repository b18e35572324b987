package rimage

import (
	"image"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/w407022008/librealsense-2.55.1/utils"
)

// SobelGradients applies the Sobel kernels to m. The outermost ring of pixels has no full 3x3
// neighbourhood and is left at zero in both outputs.
func SobelGradients(m *mat.Dense) (gx, gy *mat.Dense) {
	h, w := m.Dims()
	gx = mat.NewDense(h, w, nil)
	gy = mat.NewDense(h, w, nil)
	if h < 3 || w < 3 {
		return gx, gy
	}
	sobelX, sobelY := GetSobelX(), GetSobelY()
	src := m.RawMatrix()
	dx, dy := gx.RawMatrix(), gy.RawMatrix()
	utils.ParallelForEachPixel(image.Point{w - 2, h - 2}, func(x, y int) {
		x, y = x+1, y+1
		sumX, sumY := 0., 0.
		for ky := 0; ky < 3; ky++ {
			row := (y + ky - 1) * src.Stride
			for kx := 0; kx < 3; kx++ {
				p := src.Data[row+x+kx-1]
				sumX += p * sobelX.At(kx, ky)
				sumY += p * sobelY.At(kx, ky)
			}
		}
		dx.Data[y*dx.Stride+x] = sumX
		dy.Data[y*dy.Stride+x] = sumY
	})
	return gx, gy
}

// GradientMagnitude returns sqrt(gx^2 + gy^2) per pixel.
func GradientMagnitude(gx, gy *mat.Dense) *mat.Dense {
	h, w := gx.Dims()
	mag := mat.NewDense(h, w, nil)
	mag.Apply(func(i, j int, v float64) float64 {
		return math.Hypot(v, gy.At(i, j))
	}, gx)
	return mag
}

// SobelMagnitude is GradientMagnitude over SobelGradients.
func SobelMagnitude(m *mat.Dense) *mat.Dense {
	gx, gy := SobelGradients(m)
	return GradientMagnitude(gx, gy)
}

// CentralDifferences returns the x and y derivatives of m using (f(i+1) - f(i-1)) / 2 in the
// interior and one-sided differences f(1) - f(0), f(n-1) - f(n-2) on the borders.
func CentralDifferences(m *mat.Dense) (dx, dy *mat.Dense) {
	h, w := m.Dims()
	dx = mat.NewDense(h, w, nil)
	dy = mat.NewDense(h, w, nil)
	src := m.RawMatrix()
	outX, outY := dx.RawMatrix(), dy.RawMatrix()
	at := func(x, y int) float64 { return src.Data[y*src.Stride+x] }
	utils.ParallelForEachPixel(image.Point{w, h}, func(x, y int) {
		switch {
		case w < 2:
		case x == 0:
			outX.Data[y*outX.Stride+x] = at(1, y) - at(0, y)
		case x == w-1:
			outX.Data[y*outX.Stride+x] = at(w-1, y) - at(w-2, y)
		default:
			outX.Data[y*outX.Stride+x] = 0.5 * (at(x+1, y) - at(x-1, y))
		}
		switch {
		case h < 2:
		case y == 0:
			outY.Data[y*outY.Stride+x] = at(x, 1) - at(x, 0)
		case y == h-1:
			outY.Data[y*outY.Stride+x] = at(x, h-1) - at(x, h-2)
		default:
			outY.Data[y*outY.Stride+x] = 0.5 * (at(x, y+1) - at(x, y-1))
		}
	})
	return dx, dy
}
