package rimage

import (
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"
)

func TestBilinearInterpolation(t *testing.T) {
	m := ramp(4, 3, 1, 10)
	v, ok := BilinearInterpolation(r2.Point{X: 1.25, Y: 0.5}, m)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, v, test.ShouldAlmostEqual, 1.25+5)

	// the last row and column are reachable
	v, ok = BilinearInterpolation(r2.Point{X: 3, Y: 2}, m)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, v, test.ShouldAlmostEqual, 23.)

	for _, pt := range []r2.Point{{X: -0.1, Y: 1}, {X: 1, Y: -0.1}, {X: 3.01, Y: 1}, {X: 1, Y: 2.01}} {
		_, ok = BilinearInterpolation(pt, m)
		test.That(t, ok, test.ShouldBeFalse)
	}
}
