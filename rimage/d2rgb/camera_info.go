package d2rgb

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"io"
	"math"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"github.com/w407022008/librealsense-2.55.1/rimage/transform"
)

// SensorInfo describes one sensor of the device.
type SensorInfo struct {
	transform.PinholeCameraIntrinsics
	DistortionModel transform.DistortionType `json:"distortion_model"`
	// Coeffs are in RealSense order: k1, k2, p1, p2, k3.
	Coeffs [5]float64 `json:"coeffs"`
}

// Model builds the pinhole camera model of the sensor.
func (s SensorInfo) Model() (*transform.PinholeCameraModel, error) {
	intrinsics := s.PinholeCameraIntrinsics
	var distortion transform.Distorter
	switch s.DistortionModel {
	case transform.NoneDistortionType, "":
		d, err := transform.NewDistorter(transform.NoneDistortionType, s.Coeffs[:])
		if err != nil {
			return nil, err
		}
		distortion = d
	case transform.BrownConradyDistortionType, "brown-conrady":
		distortion = transform.NewBrownConradyFromRealSense(s.Coeffs)
	default:
		return nil, errors.Errorf("do not know how to parse %q distortion model", s.DistortionModel)
	}
	return transform.NewPinholeCameraModel(&intrinsics, distortion)
}

// CameraInfo is everything known about the device before calibration.
// Depth samples times ZUnits are metres; translation is in millimetres.
type CameraInfo struct {
	RGB        SensorInfo           `json:"rgb"`
	Z          SensorInfo           `json:"z"`
	Extrinsics transform.Extrinsics `json:"extrinsics"`
	ZUnits     float64              `json:"z_units"`
}

// DepthScaleMM returns the factor turning raw depth samples into millimetres.
func (ci *CameraInfo) DepthScaleMM() float64 {
	if ci.ZUnits <= 0 {
		return 1
	}
	return ci.ZUnits * 1000
}

// Validate checks both sensors and the extrinsics.
func (ci *CameraInfo) Validate() error {
	var errs error
	if _, err := ci.RGB.Model(); err != nil {
		errs = multierr.Append(errs, errors.Wrap(err, "rgb"))
	}
	if _, err := ci.Z.Model(); err != nil {
		errs = multierr.Append(errs, errors.Wrap(err, "z"))
	}
	if ci.Z.DistortionModel != "" && ci.Z.DistortionModel != transform.NoneDistortionType {
		errs = multierr.Append(errs, errors.Errorf("z sensor distortion must be none, got %q", ci.Z.DistortionModel))
	}
	if err := ci.Extrinsics.CheckValid(); err != nil {
		errs = multierr.Append(errs, errors.Wrap(err, "extrinsics"))
	}
	if ci.ZUnits < 0 || math.IsNaN(ci.ZUnits) {
		errs = multierr.Append(errs, errors.Errorf("invalid z_units %v", ci.ZUnits))
	}
	return errs
}

// LoadCameraInfoFromJSONFile reads a CameraInfo from a JSON file and validates it.
func LoadCameraInfoFromJSONFile(jsonPath string) (*CameraInfo, error) {
	//nolint:gosec
	jsonFile, err := os.Open(jsonPath)
	if err != nil {
		return nil, errors.Wrap(err, "error opening JSON file")
	}
	defer utils.UncheckedErrorFunc(jsonFile.Close)
	byteValue, err := io.ReadAll(jsonFile)
	if err != nil {
		return nil, errors.Wrap(err, "error reading JSON data")
	}
	info := &CameraInfo{}
	if err := json.Unmarshal(byteValue, info); err != nil {
		return nil, errors.Wrap(err, "error parsing JSON string")
	}
	if err := info.Validate(); err != nil {
		return nil, err
	}
	return info, nil
}

// CameraParams is the flat record of doubles the reference tooling exports for a device.
// K matrices are row-major 3x3.
type CameraParams struct {
	DepthWidth  float64
	DepthHeight float64
	DepthUnits  float64
	KDepth      [9]float64
	RGBWidth    float64
	RGBHeight   float64
	KRGB        [9]float64
	Coeffs      [5]float64
	Rotation    [9]float64
	Translation [3]float64
	PMat        [12]float64
}

// cameraParamsSize is the size in bytes of an encoded CameraParams.
const cameraParamsSize = 52 * 8

// ReadCameraParamsFile decodes a little-endian CameraParams record.
func ReadCameraParamsFile(path string) (*CameraParams, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading camera params %q", path)
	}
	if len(data) != cameraParamsSize {
		return nil, errors.Errorf("camera params file %q has %d bytes, expected %d", path, len(data), cameraParamsSize)
	}
	params := &CameraParams{}
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, params); err != nil {
		return nil, errors.Wrap(err, "error decoding camera params")
	}
	return params, nil
}

// CameraInfoFromParams converts the exported record. The color sensor is Brown-Conrady,
// the depth sensor is undistorted.
func CameraInfoFromParams(p *CameraParams) CameraInfo {
	intrinsics := func(width, height float64, k [9]float64) transform.PinholeCameraIntrinsics {
		return transform.PinholeCameraIntrinsics{
			Width:  int(width),
			Height: int(height),
			Fx:     k[0],
			Fy:     k[4],
			Ppx:    k[2],
			Ppy:    k[5],
		}
	}
	return CameraInfo{
		RGB: SensorInfo{
			PinholeCameraIntrinsics: intrinsics(p.RGBWidth, p.RGBHeight, p.KRGB),
			DistortionModel:         transform.BrownConradyDistortionType,
			Coeffs:                  p.Coeffs,
		},
		Z: SensorInfo{
			PinholeCameraIntrinsics: intrinsics(p.DepthWidth, p.DepthHeight, p.KDepth),
			DistortionModel:         transform.NoneDistortionType,
		},
		Extrinsics: transform.Extrinsics{Rotation: p.Rotation, Translation: p.Translation},
		ZUnits:     p.DepthUnits,
	}
}
