package d2rgb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"

	"github.com/w407022008/librealsense-2.55.1/logging"
	"github.com/w407022008/librealsense-2.55.1/rimage"
)

// fixtureDirEnv points at a directory holding camera_info.json and the raw frames of a
// recorded capture.
const fixtureDirEnv = "D2RGB_FIXTURE_DIR"

func loadFixture(t *testing.T) (*CameraInfo, Frames) {
	t.Helper()
	dir := os.Getenv(fixtureDirEnv)
	if dir == "" {
		t.Skipf("%s is not set", fixtureDirEnv)
	}
	info, err := LoadCameraInfoFromJSONFile(filepath.Join(dir, "camera_info.json"))
	test.That(t, err, test.ShouldBeNil)

	rgbW, rgbH := info.RGB.Width, info.RGB.Height
	zW, zH := info.Z.Width, info.Z.Height
	color, err := rimage.ReadRawFile(filepath.Join(dir, "rgb.raw"), rgbW, rgbH, 2)
	test.That(t, err, test.ShouldBeNil)
	prev, err := rimage.ReadRawFile(filepath.Join(dir, "rgb_prev.raw"), rgbW, rgbH, 2)
	test.That(t, err, test.ShouldBeNil)
	ir, err := rimage.ReadRawFile(filepath.Join(dir, "ir.raw"), zW, zH, 1)
	test.That(t, err, test.ShouldBeNil)
	depth, err := rimage.ReadRawDepthFile(filepath.Join(dir, "depth.raw"), zW, zH)
	test.That(t, err, test.ShouldBeNil)
	return info, Frames{Color: color, PrevColor: prev, IR: ir, Depth: depth.Samples()}
}

func TestRecordedCapture(t *testing.T) {
	info, frames := loadFixture(t)
	o, err := NewOptimizer(*info, DefaultOptions(), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, o.SetFrames(context.Background(), frames), test.ShouldBeNil)

	test.That(t, o.IsSceneValid(), test.ShouldBeFalse)
	n, err := o.Optimize(context.Background(), nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, n, test.ShouldEqual, 5)
	test.That(t, o.IsValidResults(), test.ShouldBeFalse)
	test.That(t, o.CalcCorrectionInPixels(), test.ShouldAlmostEqual, 2.914122625391939, 1e-6)
}
