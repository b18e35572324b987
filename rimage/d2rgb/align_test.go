package d2rgb

import (
	"testing"

	"go.viam.com/test"

	"github.com/w407022008/librealsense-2.55.1/logging"
	"github.com/w407022008/librealsense-2.55.1/rimage"
)

func TestAlignedDepth(t *testing.T) {
	scene := newSyntheticScene(nil)
	o := newTestOptimizer(t, scene, testOptions())
	aligned, err := o.AlignedDepth()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, aligned.Width(), test.ShouldEqual, scene.info.RGB.Width)
	test.That(t, aligned.Height(), test.ShouldEqual, scene.info.RGB.Height)

	// depth pixel (80, 60) on the background lands on color pixel (100, 75)
	test.That(t, aligned.GetDepth(100, 75), test.ShouldEqual, rimage.Depth(bgDepthMM))
	// center of the first box
	test.That(t, aligned.GetDepth(46, 38), test.ShouldEqual, rimage.Depth(fgDepthMM))

	// the color image is finer than the depth image so some pixels get no sample
	holes := 0
	for y := 0; y < aligned.Height(); y++ {
		for x := 0; x < aligned.Width(); x++ {
			if aligned.GetDepth(x, y) == 0 {
				holes++
			}
		}
	}
	test.That(t, holes, test.ShouldBeGreaterThan, 0)
	test.That(t, holes, test.ShouldBeLessThan, aligned.Width()*aligned.Height()/2)
}

func TestAlignedDepthNeedsDepth(t *testing.T) {
	o, err := NewOptimizer(testCameraInfo(), testOptions(), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	_, err = o.AlignedDepth()
	test.That(t, err, test.ShouldNotBeNil)
}

func TestProjectedEdges(t *testing.T) {
	scene := newSyntheticScene(nil)
	o := newTestOptimizer(t, scene, testOptions())
	pts, err := o.ProjectedEdges(o.Calibration())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(pts), test.ShouldBeGreaterThan, 0)
	test.That(t, len(pts), test.ShouldBeLessThanOrEqualTo, o.ZData().NumEdges())
	for _, p := range pts {
		test.That(t, p.X, test.ShouldBeGreaterThanOrEqualTo, 0.)
		test.That(t, p.Y, test.ShouldBeGreaterThanOrEqualTo, 0.)
		test.That(t, p.X, test.ShouldBeLessThanOrEqualTo, float64(scene.info.RGB.Width-1))
		test.That(t, p.Y, test.ShouldBeLessThanOrEqualTo, float64(scene.info.RGB.Height-1))
	}

	empty, err := NewOptimizer(testCameraInfo(), testOptions(), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	_, err = empty.ProjectedEdges(empty.Calibration())
	test.That(t, err, test.ShouldNotBeNil)
}
