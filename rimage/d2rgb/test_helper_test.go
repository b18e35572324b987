package d2rgb

import (
	"context"
	"testing"

	"go.viam.com/test"

	"github.com/w407022008/librealsense-2.55.1/logging"
	"github.com/w407022008/librealsense-2.55.1/rimage/transform"
)

const (
	fgDepthMM   = 1000.
	bgDepthMM   = 2000.
	fgIntensity = 200
	bgIntensity = 50
)

// depthRect is a foreground box on the fg plane, bounded in depth pixel coordinates.
type depthRect struct {
	x0, x1, y0, y1 float64
}

// one box per quadrant so every section sees edges
var sceneRects = []depthRect{
	{15.5, 55.5, 12.5, 45.5},
	{95.5, 140.5, 18.5, 50.5},
	{20.5, 62.5, 70.5, 105.5},
	{100.5, 135.5, 65.5, 100.5},
}

func insideAny(x, y float64, rects []depthRect) bool {
	for _, r := range rects {
		if x > r.x0 && x < r.x1 && y > r.y0 && y < r.y1 {
			return true
		}
	}
	return false
}

func testCameraInfo() CameraInfo {
	return CameraInfo{
		RGB: SensorInfo{
			PinholeCameraIntrinsics: transform.PinholeCameraIntrinsics{
				Width: 200, Height: 150, Fx: 180, Fy: 180, Ppx: 99.5, Ppy: 74.5,
			},
			DistortionModel: transform.NoneDistortionType,
		},
		Z: SensorInfo{
			PinholeCameraIntrinsics: transform.PinholeCameraIntrinsics{
				Width: 160, Height: 120, Fx: 150, Fy: 150, Ppx: 79.5, Ppy: 59.5,
			},
			DistortionModel: transform.NoneDistortionType,
		},
		Extrinsics: transform.IdentityExtrinsics(),
		ZUnits:     0.001,
	}
}

// testOptions relaxes the edge count for the small synthetic frames.
func testOptions() Options {
	opts := DefaultOptions()
	opts.MinEdges = 300
	return opts
}

// renderDepthAndIR draws the boxes at fgDepthMM over a background plane at bgDepthMM.
func renderDepthAndIR(info CameraInfo, rects []depthRect) ([]uint16, []byte) {
	w, h := info.Z.Width, info.Z.Height
	depth := make([]uint16, w*h)
	ir := make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if insideAny(float64(x), float64(y), rects) {
				depth[y*w+x] = uint16(fgDepthMM)
				ir[y*w+x] = fgIntensity
			} else {
				depth[y*w+x] = uint16(bgDepthMM)
				ir[y*w+x] = bgIntensity
			}
		}
	}
	return depth, ir
}

// renderColor casts every color pixel's ray onto the foreground plane. The color camera sits
// at -translation in the depth frame with no rotation.
func renderColor(info CameraInfo, translation [3]float64, rects []depthRect) []byte {
	w, h := info.RGB.Width, info.RGB.Height
	yuy := make([]byte, 2*w*h)
	for v := 0; v < h; v++ {
		for u := 0; u < w; u++ {
			xn := (float64(u) - info.RGB.Ppx) / info.RGB.Fx
			yn := (float64(v) - info.RGB.Ppy) / info.RGB.Fy
			s := fgDepthMM + translation[2]
			xd := s*xn - translation[0]
			yd := s*yn - translation[1]
			px := info.Z.Ppx + info.Z.Fx*xd/fgDepthMM
			py := info.Z.Ppy + info.Z.Fy*yd/fgDepthMM
			i := v*w + u
			yuy[2*i] = bgIntensity
			if insideAny(px, py, rects) {
				yuy[2*i] = fgIntensity
			}
			yuy[2*i+1] = 128
		}
	}
	return yuy
}

type syntheticScene struct {
	truth  CameraInfo
	info   CameraInfo
	frames Frames
}

// newSyntheticScene renders frames with the true calibration; perturb edits the camera info
// the optimizer starts from.
func newSyntheticScene(perturb func(*CameraInfo)) *syntheticScene {
	truth := testCameraInfo()
	info := truth
	if perturb != nil {
		perturb(&info)
	}
	depth, ir := renderDepthAndIR(truth, sceneRects)
	color := renderColor(truth, truth.Extrinsics.Translation, sceneRects)
	return &syntheticScene{
		truth: truth,
		info:  info,
		frames: Frames{
			Color:     color,
			PrevColor: append([]byte(nil), color...),
			IR:        ir,
			Depth:     depth,
		},
	}
}

func shiftPrincipalPoint(info *CameraInfo) {
	info.RGB.Ppx += 1.5
	info.RGB.Ppy -= 1.0
}

func newTestOptimizer(t *testing.T, scene *syntheticScene, opts Options) *Optimizer {
	t.Helper()
	o, err := NewOptimizer(scene.info, opts, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, o.SetFrames(context.Background(), scene.frames), test.ShouldBeNil)
	return o
}
