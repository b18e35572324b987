package rimage

import (
	"image"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/w407022008/librealsense-2.55.1/utils"
)

// BorderPad defines how the pixels outside of the image are read during a convolution.
type BorderPad int

const (
	// BorderConstant reads zeros outside of the image.
	BorderConstant BorderPad = iota
	// BorderReplicate repeats the closest border pixel: aaa|abcd|ddd.
	BorderReplicate
	// BorderReflect mirrors the image without repeating the border pixel: cb|abcd|cb.
	BorderReflect
)

// Kernel is a convolution matrix. Content is indexed [row][column].
type Kernel struct {
	Content [][]float64
	Width   int
	Height  int
}

// NewKernel checks that every row of content has the same length and wraps it in a Kernel.
func NewKernel(content [][]float64) (*Kernel, error) {
	if len(content) == 0 || len(content[0]) == 0 {
		return nil, errors.New("kernel must not be empty")
	}
	w := len(content[0])
	for i, row := range content {
		if len(row) != w {
			return nil, errors.Errorf("kernel row %d has %d columns, expected %d", i, len(row), w)
		}
	}
	return &Kernel{content, w, len(content)}, nil
}

// At returns the kernel value at column x, row y.
func (k *Kernel) At(x, y int) float64 {
	return k.Content[y][x]
}

// Size returns the kernel dimensions.
func (k *Kernel) Size() image.Point {
	return image.Point{k.Width, k.Height}
}

// Center is the default anchor of the kernel.
func (k *Kernel) Center() image.Point {
	return image.Point{k.Width / 2, k.Height / 2}
}

// Normalize scales the kernel so that its entries sum to one. A kernel summing to zero is
// returned unchanged.
func (k *Kernel) Normalize() *Kernel {
	sum := 0.
	for _, row := range k.Content {
		for _, v := range row {
			sum += v
		}
	}
	if sum == 0 {
		return k
	}
	content := make([][]float64, k.Height)
	for y, row := range k.Content {
		content[y] = make([]float64, k.Width)
		for x, v := range row {
			content[y][x] = v / sum
		}
	}
	return &Kernel{content, k.Width, k.Height}
}

// GetSobelX returns the Kernel corresponding to the Sobel kernel in the x direction.
func GetSobelX() Kernel {
	return Kernel{
		[][]float64{
			{-1, 0, 1},
			{-2, 0, 2},
			{-1, 0, 1},
		},
		3,
		3,
	}
}

// GetSobelY returns the Kernel corresponding to the Sobel kernel in the y direction.
func GetSobelY() Kernel {
	return Kernel{
		[][]float64{
			{-1, -2, -1},
			{0, 0, 0},
			{1, 2, 1},
		},
		3,
		3,
	}
}

// borderIndex maps a coordinate that may fall outside [0, n) back into the image according to
// border. The second return is false when the pixel reads as a constant zero.
func borderIndex(i, n int, border BorderPad) (int, bool) {
	if i >= 0 && i < n {
		return i, true
	}
	switch border {
	case BorderReplicate:
		return utils.ClampInt(i, 0, n-1), true
	case BorderReflect:
		if n == 1 {
			return 0, true
		}
		period := 2 * (n - 1)
		i %= period
		if i < 0 {
			i += period
		}
		if i >= n {
			i = period - i
		}
		return i, true
	default:
		return 0, false
	}
}

// ConvolveGrayFloat64 implements a gray float64 image convolution with the Kernel filter.
// The kernel is applied as a correlation (not flipped), anchored at its center. There is no
// clamping of the result.
func ConvolveGrayFloat64(m *mat.Dense, filter *Kernel, border BorderPad) (*mat.Dense, error) {
	if filter == nil {
		return nil, errors.New("convolution kernel is nil")
	}
	h, w := m.Dims()
	result := mat.NewDense(h, w, nil)
	anchor := filter.Center()
	src := m.RawMatrix()
	dst := result.RawMatrix()

	utils.ParallelForEachPixel(image.Point{w, h}, func(x, y int) {
		sum := 0.
		for ky := 0; ky < filter.Height; ky++ {
			yy, ok := borderIndex(y+ky-anchor.Y, h, border)
			if !ok {
				continue
			}
			for kx := 0; kx < filter.Width; kx++ {
				xx, ok := borderIndex(x+kx-anchor.X, w, border)
				if !ok {
					continue
				}
				sum += src.Data[yy*src.Stride+xx] * filter.At(kx, ky)
			}
		}
		dst.Data[y*dst.Stride+x] = sum
	})
	return result, nil
}
