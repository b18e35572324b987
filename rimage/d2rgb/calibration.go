package d2rgb

import (
	"encoding/binary"
	"math"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/w407022008/librealsense-2.55.1/rimage/transform"
	"github.com/w407022008/librealsense-2.55.1/utils"
)

// KMatrix holds the color intrinsics that take part in the optimization.
type KMatrix struct {
	Fx  float64 `json:"fx"`
	Fy  float64 `json:"fy"`
	Ppx float64 `json:"ppx"`
	Ppy float64 `json:"ppy"`
}

// Calibration is the depth to color alignment. Rotation and RotAngles are two views of the
// same rotation, and PMat is always K * [Rotation | Translation].
type Calibration struct {
	Width       int                      `json:"width"`
	Height      int                      `json:"height"`
	K           KMatrix                  `json:"k_mat"`
	Rotation    [9]float64               `json:"rot"`
	Translation [3]float64               `json:"trans"`
	RotAngles   transform.RotationAngles `json:"rot_angles"`
	PMat        [12]float64              `json:"p_mat"`
}

// NewCalibration builds a calibration from color intrinsics and depth to color extrinsics.
// The given rotation is kept as is and the angles are derived from it.
func NewCalibration(intrinsics transform.PinholeCameraIntrinsics, extrinsics transform.Extrinsics) Calibration {
	c := Calibration{
		Width:       intrinsics.Width,
		Height:      intrinsics.Height,
		K:           KMatrix{Fx: intrinsics.Fx, Fy: intrinsics.Fy, Ppx: intrinsics.Ppx, Ppy: intrinsics.Ppy},
		Rotation:    extrinsics.Rotation,
		Translation: extrinsics.Translation,
		RotAngles:   transform.AnglesFromRotation(extrinsics.Rotation),
	}
	c.PMat = c.computePMat()
	return c
}

// CalibrationFromCameraInfo returns the initial calibration stored in the camera info.
func CalibrationFromCameraInfo(info *CameraInfo) Calibration {
	return NewCalibration(info.RGB.PinholeCameraIntrinsics, info.Extrinsics)
}

// withAngles rebuilds the rotation and P matrix after the angles, translation or K changed.
func (c Calibration) withAngles(angles transform.RotationAngles, translation r3.Vector, k KMatrix) Calibration {
	ext := transform.NewExtrinsicsFromAngles(angles, translation)
	c.RotAngles = angles
	c.Rotation = ext.Rotation
	c.Translation = ext.Translation
	c.K = k
	c.PMat = c.computePMat()
	return c
}

// Intrinsics returns the color intrinsics of the calibration.
func (c Calibration) Intrinsics() transform.PinholeCameraIntrinsics {
	return transform.PinholeCameraIntrinsics{
		Width:  c.Width,
		Height: c.Height,
		Fx:     c.K.Fx,
		Fy:     c.K.Fy,
		Ppx:    c.K.Ppx,
		Ppy:    c.K.Ppy,
	}
}

// Extrinsics returns the depth to color transform.
func (c Calibration) Extrinsics() transform.Extrinsics {
	return transform.Extrinsics{Rotation: c.Rotation, Translation: c.Translation}
}

// KMat returns the 3x3 camera matrix.
func (c Calibration) KMat() *mat.Dense {
	intrinsics := c.Intrinsics()
	return intrinsics.GetCameraMatrix()
}

// PMatrix returns the 3x4 projection matrix.
func (c Calibration) PMatrix() *mat.Dense {
	return mat.NewDense(3, 4, append([]float64(nil), c.PMat[:]...))
}

func (c Calibration) computePMat() [12]float64 {
	rt := mat.NewDense(3, 4, nil)
	for r := 0; r < 3; r++ {
		for col := 0; col < 3; col++ {
			rt.Set(r, col, c.Rotation[r*3+col])
		}
		rt.Set(r, 3, c.Translation[r])
	}
	var p mat.Dense
	p.Mul(c.KMat(), rt)
	var out [12]float64
	copy(out[:], p.RawMatrix().Data)
	return out
}

// IsFinite reports whether every field is a finite number.
func (c Calibration) IsFinite() bool {
	return utils.AllFinite(c.Dump(0)...)
}

// calibrationDumpLen is fx, fy, ppx, ppy, alpha, beta, gamma, rotation, translation, P matrix, cost.
const calibrationDumpLen = 32

// Dump flattens the calibration and a cost in the layout used by the reference tooling.
func (c Calibration) Dump(cost float64) []float64 {
	out := make([]float64, 0, calibrationDumpLen)
	out = append(out, c.K.Fx, c.K.Fy, c.K.Ppx, c.K.Ppy)
	out = append(out, c.RotAngles.Alpha, c.RotAngles.Beta, c.RotAngles.Gamma)
	out = append(out, c.Rotation[:]...)
	out = append(out, c.Translation[:]...)
	out = append(out, c.PMat[:]...)
	return append(out, cost)
}

// CalibrationFromDump is the inverse of Dump. Width and height are not part of the dump.
func CalibrationFromDump(vals []float64, width, height int) (Calibration, float64, error) {
	if len(vals) != calibrationDumpLen {
		return Calibration{}, 0, errors.Errorf("calibration dump has %d values, expected %d", len(vals), calibrationDumpLen)
	}
	c := Calibration{
		Width:     width,
		Height:    height,
		K:         KMatrix{Fx: vals[0], Fy: vals[1], Ppx: vals[2], Ppy: vals[3]},
		RotAngles: transform.RotationAngles{Alpha: vals[4], Beta: vals[5], Gamma: vals[6]},
	}
	copy(c.Rotation[:], vals[7:16])
	copy(c.Translation[:], vals[16:19])
	copy(c.PMat[:], vals[19:31])
	return c, vals[31], nil
}

// ReadCalibrationFile reads a little-endian calibration dump.
func ReadCalibrationFile(path string, width, height int) (Calibration, float64, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return Calibration{}, 0, errors.Wrapf(err, "error reading calibration %q", path)
	}
	if len(data) != calibrationDumpLen*8 {
		return Calibration{}, 0, errors.Errorf("calibration file %q has %d bytes, expected %d", path, len(data), calibrationDumpLen*8)
	}
	vals := make([]float64, calibrationDumpLen)
	for i := range vals {
		vals[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[8*i:]))
	}
	return CalibrationFromDump(vals, width, height)
}

// WriteCalibrationFile writes the little-endian dump read by ReadCalibrationFile.
func WriteCalibrationFile(path string, c Calibration, cost float64) error {
	vals := c.Dump(cost)
	data := make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint64(data[8*i:], math.Float64bits(v))
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.Wrapf(err, "error writing calibration %q", path)
	}
	return nil
}

// stateSize is the number of optimized parameters.
func stateSize(withIntrinsics bool) int {
	if withIntrinsics {
		return 10
	}
	return 6
}

// state returns (alpha, beta, gamma, tx, ty, tz[, fx, fy, ppx, ppy]).
func (c Calibration) state(withIntrinsics bool) []float64 {
	theta := []float64{
		c.RotAngles.Alpha, c.RotAngles.Beta, c.RotAngles.Gamma,
		c.Translation[0], c.Translation[1], c.Translation[2],
	}
	if withIntrinsics {
		theta = append(theta, c.K.Fx, c.K.Fy, c.K.Ppx, c.K.Ppy)
	}
	return theta
}

// fromState returns c moved to the given state vector.
func (c Calibration) fromState(theta []float64) Calibration {
	k := c.K
	if len(theta) == 10 {
		k = KMatrix{Fx: theta[6], Fy: theta[7], Ppx: theta[8], Ppy: theta[9]}
	}
	return c.withAngles(
		transform.RotationAngles{Alpha: theta[0], Beta: theta[1], Gamma: theta[2]},
		r3.Vector{X: theta[3], Y: theta[4], Z: theta[5]},
		k,
	)
}

// gradientCalibration lays a gradient out like a calibration. Only the angles, the translation
// and K carry values.
func gradientCalibration(width, height int, g []float64) Calibration {
	c := Calibration{
		Width:       width,
		Height:      height,
		RotAngles:   transform.RotationAngles{Alpha: g[0], Beta: g[1], Gamma: g[2]},
		Translation: [3]float64{g[3], g[4], g[5]},
	}
	if len(g) == 10 {
		c.K = KMatrix{Fx: g[6], Fy: g[7], Ppx: g[8], Ppy: g[9]}
	}
	return c
}
