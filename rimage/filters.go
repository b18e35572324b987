package rimage

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Helper function for convolving matrices together, When used with i, dx := range makeRangeArray(n)
// i is the position within the kernel and dx gives the offset within the image.
// if length is even, then the origin is to the right of middle i.e. 4 -> {-2, -1, 0, 1}
func makeRangeArray(length int) []int {
	if length <= 0 {
		return make([]int, 0)
	}
	rangeArray := make([]int, length)
	span := length / 2
	for i := range rangeArray {
		rangeArray[i] = i - span
	}
	return rangeArray
}

// GaussianFunction2D takes in a sigma and returns an isotropic 2D gaussian.
func GaussianFunction2D(sigma float64) func(p1, p2 float64) float64 {
	if sigma <= 0. {
		return func(p1, p2 float64) float64 {
			return 1.
		}
	}
	return func(p1, p2 float64) float64 {
		return math.Exp(-0.5*(p1*p1+p2*p2)/math.Pow(sigma, 2)) / (sigma * sigma * 2. * math.Pi)
	}
}

// GaussianKernel returns a size x size gaussian kernel normalized to sum to one.
// The size must be odd so the kernel has a center pixel.
func GaussianKernel(sigma float64, size int) (*Kernel, error) {
	if size <= 0 || size%2 == 0 {
		return nil, errors.Errorf("gaussian kernel size must be odd and positive, got %d", size)
	}
	gaus2D := GaussianFunction2D(sigma)
	r := makeRangeArray(size)
	content := make([][]float64, size)
	for j, dy := range r {
		content[j] = make([]float64, size)
		for i, dx := range r {
			content[j][i] = gaus2D(float64(dx), float64(dy))
		}
	}
	kernel, err := NewKernel(content)
	if err != nil {
		return nil, err
	}
	return kernel.Normalize(), nil
}

// GaussianFilter blurs m with a normalized gaussian kernel, replicating the border pixels.
func GaussianFilter(m *mat.Dense, sigma float64, size int) (*mat.Dense, error) {
	kernel, err := GaussianKernel(sigma, size)
	if err != nil {
		return nil, err
	}
	return ConvolveGrayFloat64(m, kernel, BorderReplicate)
}
