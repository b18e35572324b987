package d2rgb

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"

	"github.com/w407022008/librealsense-2.55.1/rimage/transform"
)

const cameraInfoJSON = `{
	"rgb": {
		"width_px": 1280, "height_px": 720,
		"fx": 906.2, "fy": 906.5, "ppx": 641.3, "ppy": 363.7,
		"distortion_model": "brown_conrady",
		"coeffs": [0.1, -0.2, 0.001, 0.002, 0.05]
	},
	"z": {
		"width_px": 1024, "height_px": 768,
		"fx": 730.1, "fy": 730.9, "ppx": 517.4, "ppy": 386.2,
		"distortion_model": "none"
	},
	"extrinsics": {
		"rotation": [1, 0, 0, 0, 1, 0, 0, 0, 1],
		"translation": [14.2, 0.3, -4.1]
	},
	"z_units": 0.00025
}`

func TestLoadCameraInfoFromJSONFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "camera_info.json")
	test.That(t, os.WriteFile(path, []byte(cameraInfoJSON), 0o600), test.ShouldBeNil)

	info, err := LoadCameraInfoFromJSONFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, info.RGB.Width, test.ShouldEqual, 1280)
	test.That(t, info.RGB.Ppy, test.ShouldEqual, 363.7)
	test.That(t, info.Z.Fx, test.ShouldEqual, 730.1)
	test.That(t, info.Extrinsics.Translation, test.ShouldResemble, [3]float64{14.2, 0.3, -4.1})
	test.That(t, info.DepthScaleMM(), test.ShouldAlmostEqual, 0.25)

	model, err := info.RGB.Model()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, model.Distortion.ModelType(), test.ShouldEqual, transform.BrownConradyDistortionType)
	test.That(t, model.Distortion.Parameters(), test.ShouldResemble, []float64{0.1, -0.2, 0.05, 0.001, 0.002})

	_, err = LoadCameraInfoFromJSONFile(filepath.Join(dir, "missing.json"))
	test.That(t, err.Error(), test.ShouldContainSubstring, "error opening JSON file")

	bad := filepath.Join(dir, "bad.json")
	test.That(t, os.WriteFile(bad, []byte("{"), 0o600), test.ShouldBeNil)
	_, err = LoadCameraInfoFromJSONFile(bad)
	test.That(t, err.Error(), test.ShouldContainSubstring, "error parsing JSON string")
}

func TestCameraInfoValidate(t *testing.T) {
	info := testCameraInfo()
	test.That(t, info.Validate(), test.ShouldBeNil)

	info.ZUnits = 0
	test.That(t, info.Validate(), test.ShouldBeNil)
	test.That(t, info.DepthScaleMM(), test.ShouldEqual, 1.)

	info = testCameraInfo()
	info.Z.DistortionModel = transform.BrownConradyDistortionType
	info.RGB.DistortionModel = "fisheye"
	info.Extrinsics.Rotation[0] = 2
	info.RGB.Width = 0
	err := info.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "z sensor distortion must be none")
	test.That(t, err.Error(), test.ShouldContainSubstring, "fisheye")
	test.That(t, err.Error(), test.ShouldContainSubstring, "extrinsics")

	info = testCameraInfo()
	info.RGB.DistortionModel = "brown-conrady"
	test.That(t, info.Validate(), test.ShouldBeNil)
	info.RGB.DistortionModel = ""
	test.That(t, info.Validate(), test.ShouldBeNil)
}

func TestCameraParamsFile(t *testing.T) {
	params := CameraParams{
		DepthWidth:  1024,
		DepthHeight: 768,
		DepthUnits:  0.00025,
		KDepth:      [9]float64{730, 0, 517, 0, 731, 386, 0, 0, 1},
		RGBWidth:    1280,
		RGBHeight:   720,
		KRGB:        [9]float64{906, 0, 641, 0, 907, 363, 0, 0, 1},
		Coeffs:      [5]float64{0.1, 0.2, 0.3, 0.4, 0.5},
		Rotation:    [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1},
		Translation: [3]float64{14, 0.5, -4},
	}
	var buf bytes.Buffer
	test.That(t, binary.Write(&buf, binary.LittleEndian, &params), test.ShouldBeNil)
	test.That(t, buf.Len(), test.ShouldEqual, cameraParamsSize)

	dir := t.TempDir()
	path := filepath.Join(dir, "camera_params.bin")
	test.That(t, os.WriteFile(path, buf.Bytes(), 0o600), test.ShouldBeNil)
	read, err := ReadCameraParamsFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, *read, test.ShouldResemble, params)

	info := CameraInfoFromParams(read)
	test.That(t, info.Validate(), test.ShouldBeNil)
	test.That(t, info.Z.PinholeCameraIntrinsics, test.ShouldResemble, transform.PinholeCameraIntrinsics{
		Width: 1024, Height: 768, Fx: 730, Fy: 731, Ppx: 517, Ppy: 386,
	})
	test.That(t, info.RGB.Fy, test.ShouldEqual, 907.)
	test.That(t, info.RGB.DistortionModel, test.ShouldEqual, transform.BrownConradyDistortionType)
	test.That(t, info.RGB.Coeffs, test.ShouldResemble, params.Coeffs)
	test.That(t, info.Extrinsics.Translation, test.ShouldResemble, params.Translation)
	test.That(t, info.DepthScaleMM(), test.ShouldAlmostEqual, 0.25)

	short := filepath.Join(dir, "short.bin")
	test.That(t, os.WriteFile(short, buf.Bytes()[:100], 0o600), test.ShouldBeNil)
	_, err = ReadCameraParamsFile(short)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "expected 416")
}
