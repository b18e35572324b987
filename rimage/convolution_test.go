package rimage

import (
	"testing"

	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
)

func ramp(w, h int, slopeX, slopeY float64) *mat.Dense {
	m := mat.NewDense(h, w, nil)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.Set(y, x, slopeX*float64(x)+slopeY*float64(y))
		}
	}
	return m
}

func TestBorderIndex(t *testing.T) {
	i, ok := borderIndex(-1, 4, BorderConstant)
	test.That(t, ok, test.ShouldBeFalse)
	i, ok = borderIndex(-2, 4, BorderReplicate)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, i, test.ShouldEqual, 0)
	i, _ = borderIndex(5, 4, BorderReplicate)
	test.That(t, i, test.ShouldEqual, 3)
	i, _ = borderIndex(-1, 4, BorderReflect)
	test.That(t, i, test.ShouldEqual, 1)
	i, _ = borderIndex(5, 4, BorderReflect)
	test.That(t, i, test.ShouldEqual, 1)
	i, _ = borderIndex(2, 4, BorderReflect)
	test.That(t, i, test.ShouldEqual, 2)
}

func TestGaussianKernel(t *testing.T) {
	_, err := GaussianKernel(1, 4)
	test.That(t, err, test.ShouldNotBeNil)

	k, err := GaussianKernel(1, 5)
	test.That(t, err, test.ShouldBeNil)
	sum := 0.
	for _, row := range k.Content {
		for _, v := range row {
			sum += v
		}
	}
	test.That(t, sum, test.ShouldAlmostEqual, 1.)
	test.That(t, k.At(2, 2), test.ShouldBeGreaterThan, k.At(1, 2))
	test.That(t, k.At(0, 1), test.ShouldAlmostEqual, k.At(1, 0))
}

func TestGaussianFilterKeepsConstantImage(t *testing.T) {
	m := mat.NewDense(9, 11, nil)
	for i := 0; i < 9; i++ {
		for j := 0; j < 11; j++ {
			m.Set(i, j, 42)
		}
	}
	out, err := GaussianFilter(m, 1, 5)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mat.EqualApprox(out, m, 1e-9), test.ShouldBeTrue)
}

func TestConvolveGrayFloat64(t *testing.T) {
	k, err := NewKernel([][]float64{{0, 0, 0}, {0, 0, 1}, {0, 0, 0}})
	test.That(t, err, test.ShouldBeNil)
	m := ramp(5, 3, 1, 10)
	out, err := ConvolveGrayFloat64(m, k, BorderConstant)
	test.That(t, err, test.ShouldBeNil)
	// the kernel reads the right neighbour
	test.That(t, out.At(1, 1), test.ShouldEqual, m.At(1, 2))
	test.That(t, out.At(1, 4), test.ShouldEqual, 0.)

	out, err = ConvolveGrayFloat64(m, k, BorderReplicate)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.At(1, 4), test.ShouldEqual, m.At(1, 4))

	_, err = NewKernel([][]float64{{1, 2}, {3}})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = ConvolveGrayFloat64(m, nil, BorderConstant)
	test.That(t, err, test.ShouldNotBeNil)
}
