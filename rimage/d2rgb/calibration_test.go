package d2rgb

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.viam.com/test"

	"github.com/w407022008/librealsense-2.55.1/rimage/transform"
)

func testCalibration() Calibration {
	intrinsics := transform.PinholeCameraIntrinsics{Width: 1280, Height: 720, Fx: 906, Fy: 907, Ppx: 641, Ppy: 363}
	extrinsics := transform.NewExtrinsicsFromAngles(
		transform.RotationAngles{Alpha: 0.01, Beta: -0.02, Gamma: 0.03},
		r3.Vector{X: 14, Y: 0.5, Z: -4},
	)
	return NewCalibration(intrinsics, extrinsics)
}

func TestCalibrationPMatrix(t *testing.T) {
	c := testCalibration()
	test.That(t, c.RotAngles.Alpha, test.ShouldAlmostEqual, 0.01, 1e-12)
	test.That(t, c.RotAngles.Beta, test.ShouldAlmostEqual, -0.02, 1e-12)
	test.That(t, c.RotAngles.Gamma, test.ShouldAlmostEqual, 0.03, 1e-12)

	r, tr := c.Rotation, c.Translation
	for col := 0; col < 4; col++ {
		rt := func(row int) float64 {
			if col == 3 {
				return tr[row]
			}
			return r[row*3+col]
		}
		test.That(t, c.PMat[col], test.ShouldAlmostEqual, c.K.Fx*rt(0)+c.K.Ppx*rt(2), 1e-9)
		test.That(t, c.PMat[4+col], test.ShouldAlmostEqual, c.K.Fy*rt(1)+c.K.Ppy*rt(2), 1e-9)
		test.That(t, c.PMat[8+col], test.ShouldAlmostEqual, rt(2), 1e-12)
	}
	p := c.PMatrix()
	rows, cols := p.Dims()
	test.That(t, rows, test.ShouldEqual, 3)
	test.That(t, cols, test.ShouldEqual, 4)
	test.That(t, p.At(1, 3), test.ShouldEqual, c.PMat[7])
	test.That(t, c.KMat().At(0, 2), test.ShouldEqual, 641.)

	// P and the camera model agree on projections
	pt := r3.Vector{X: 120, Y: -40, Z: 1500}
	ext := c.Extrinsics()
	pc := ext.Apply(pt)
	intrinsics := c.Intrinsics()
	model, err := transform.NewPinholeCameraModel(&intrinsics, nil)
	test.That(t, err, test.ShouldBeNil)
	uv, ok := model.ProjectPoint(pc)
	test.That(t, ok, test.ShouldBeTrue)
	h := [3]float64{}
	for row := 0; row < 3; row++ {
		h[row] = c.PMat[row*4]*pt.X + c.PMat[row*4+1]*pt.Y + c.PMat[row*4+2]*pt.Z + c.PMat[row*4+3]
	}
	test.That(t, h[0]/h[2], test.ShouldAlmostEqual, uv.X, 1e-9)
	test.That(t, h[1]/h[2], test.ShouldAlmostEqual, uv.Y, 1e-9)
}

func TestCalibrationDump(t *testing.T) {
	c := testCalibration()
	vals := c.Dump(-12.5)
	test.That(t, vals, test.ShouldHaveLength, 32)
	test.That(t, vals[:4], test.ShouldResemble, []float64{906, 907, 641, 363})
	test.That(t, vals[31], test.ShouldEqual, -12.5)

	back, cost, err := CalibrationFromDump(vals, 1280, 720)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cost, test.ShouldEqual, -12.5)
	test.That(t, back, test.ShouldResemble, c)

	_, _, err = CalibrationFromDump(vals[:31], 1280, 720)
	test.That(t, err, test.ShouldNotBeNil)

	dir := t.TempDir()
	path := filepath.Join(dir, "calib.bin")
	test.That(t, WriteCalibrationFile(path, c, -12.5), test.ShouldBeNil)
	data, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, data, test.ShouldHaveLength, 8*32)
	test.That(t, math.Float64frombits(binary.LittleEndian.Uint64(data[8:])), test.ShouldEqual, 907.)

	read, cost, err := ReadCalibrationFile(path, 1280, 720)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cost, test.ShouldEqual, -12.5)
	test.That(t, read, test.ShouldResemble, c)

	test.That(t, os.WriteFile(path, data[:64], 0o600), test.ShouldBeNil)
	_, _, err = ReadCalibrationFile(path, 1280, 720)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestCalibrationState(t *testing.T) {
	c := testCalibration()
	theta := c.state(true)
	test.That(t, theta, test.ShouldHaveLength, stateSize(true))
	test.That(t, theta[3:6], test.ShouldResemble, []float64{14, 0.5, -4})
	test.That(t, theta[6:], test.ShouldResemble, []float64{906, 907, 641, 363})

	back := c.fromState(theta)
	test.That(t, cmp.Equal(back, c, cmpopts.EquateApprox(0, 1e-9)), test.ShouldBeTrue)
	test.That(t, back.K, test.ShouldResemble, c.K)

	extrinsicOnly := c.state(false)
	test.That(t, extrinsicOnly, test.ShouldHaveLength, stateSize(false))
	extrinsicOnly[5] = 10
	moved := c.fromState(extrinsicOnly)
	test.That(t, moved.K, test.ShouldResemble, c.K)
	test.That(t, moved.Translation[2], test.ShouldEqual, 10.)
	test.That(t, moved.PMat[11], test.ShouldEqual, 10.)

	g := gradientCalibration(1280, 720, []float64{1, 2, 3, 4, 5, 6})
	test.That(t, g.Translation, test.ShouldResemble, [3]float64{4, 5, 6})
	test.That(t, g.K, test.ShouldResemble, KMatrix{})
}

func TestCalibrationIsFinite(t *testing.T) {
	c := testCalibration()
	test.That(t, c.IsFinite(), test.ShouldBeTrue)
	c.Translation[1] = math.Inf(-1)
	test.That(t, c.IsFinite(), test.ShouldBeFalse)
}
