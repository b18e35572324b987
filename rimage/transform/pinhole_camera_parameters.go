package transform

import (
	"fmt"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrNoIntrinsics is when a camera does not have intrinsics parameters or other parameters.
var ErrNoIntrinsics = errors.New("camera intrinsic parameters are not available")

// NewNoIntrinsicsError is used when the intriniscs are not defined.
func NewNoIntrinsicsError(msg string) error {
	return errors.Wrap(ErrNoIntrinsics, msg)
}

// PinholeCameraModel is the model of a pinhole camera.
type PinholeCameraModel struct {
	*PinholeCameraIntrinsics `json:"intrinsic_parameters"`
	Distortion               Distorter `json:"distortion"`
}

// NewPinholeCameraModel validates the intrinsics and fills in an identity distortion when none is given.
func NewPinholeCameraModel(intrinsics *PinholeCameraIntrinsics, distortion Distorter) (*PinholeCameraModel, error) {
	if err := intrinsics.CheckValid(); err != nil {
		return nil, err
	}
	if distortion == nil {
		distortion = &NoDistortion{}
	}
	if err := distortion.CheckValid(); err != nil {
		return nil, err
	}
	return &PinholeCameraModel{PinholeCameraIntrinsics: intrinsics, Distortion: distortion}, nil
}

func (params *PinholeCameraModel) distortion() Distorter {
	if params.Distortion == nil {
		return &NoDistortion{}
	}
	return params.Distortion
}

// DistortedNormalized returns the distorted normalized image coordinates of a camera-frame point.
// ok is false when the point is not in front of the camera.
func (params *PinholeCameraModel) DistortedNormalized(pt r3.Vector) (xd, yd float64, ok bool) {
	if pt.Z <= 0 {
		return 0, 0, false
	}
	xd, yd = params.distortion().Transform(pt.X/pt.Z, pt.Y/pt.Z)
	return xd, yd, true
}

// ProjectPoint projects a camera-frame point to a sub-pixel image location, distortion included.
func (params *PinholeCameraModel) ProjectPoint(pt r3.Vector) (r2.Point, bool) {
	xd, yd, ok := params.DistortedNormalized(pt)
	if !ok {
		return r2.Point{}, false
	}
	return r2.Point{X: params.Fx*xd + params.Ppx, Y: params.Fy*yd + params.Ppy}, true
}

// ProjectionJacobian returns the gradients of the projected u and v pixel coordinates
// with respect to the camera-frame point.
func (params *PinholeCameraModel) ProjectionJacobian(pt r3.Vector) (du, dv r3.Vector) {
	if pt.Z <= 0 {
		return r3.Vector{}, r3.Vector{}
	}
	invZ := 1 / pt.Z
	xn, yn := pt.X*invZ, pt.Y*invZ
	dxn := r3.Vector{X: invZ, Y: 0, Z: -xn * invZ}
	dyn := r3.Vector{X: 0, Y: invZ, Z: -yn * invZ}
	j := params.distortion().Jacobian(xn, yn)
	du = dxn.Mul(j[0]).Add(dyn.Mul(j[1])).Mul(params.Fx)
	dv = dxn.Mul(j[2]).Add(dyn.Mul(j[3])).Mul(params.Fy)
	return du, dv
}

// PinholeCameraIntrinsics holds the parameters necessary to do a perspective projection of a 3D scene to the 2D plane.
type PinholeCameraIntrinsics struct {
	Width  int     `json:"width_px"`
	Height int     `json:"height_px"`
	Fx     float64 `json:"fx"`
	Fy     float64 `json:"fy"`
	Ppx    float64 `json:"ppx"`
	Ppy    float64 `json:"ppy"`
}

// CheckValid checks if the fields for PinholeCameraIntrinsics have valid inputs.
func (params *PinholeCameraIntrinsics) CheckValid() error {
	if params == nil {
		return NewNoIntrinsicsError("Intrinsics do not exist")
	}
	if params.Width <= 0 || params.Height <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid size (%#v, %#v)", params.Width, params.Height))
	}
	if params.Fx <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fx = %#v", params.Fx))
	}
	if params.Fy <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fy = %#v", params.Fy))
	}
	if params.Ppx < 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid principal X point Ppx = %#v", params.Ppx))
	}
	if params.Ppy < 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid principal Y point Ppy = %#v", params.Ppy))
	}
	return nil
}

// PixelToPoint transforms a pixel with depth to a 3D point.
// The intrinsics parameters should be the ones of the sensor used to obtain the image that
// contains the pixel.
func (params *PinholeCameraIntrinsics) PixelToPoint(x, y, z float64) (float64, float64, float64) {
	if params == nil {
		return float64(0), float64(0), float64(0)
	}
	xOverZ := (x - params.Ppx) / params.Fx
	yOverZ := (y - params.Ppy) / params.Fy
	return xOverZ * z, yOverZ * z, z
}

// GetCameraMatrix creates a new camera matrix and returns it.
// Camera matrix:
// [[fx 0 ppx],
//
//	[0 fy ppy],
//	[0 0  1]]
func (params *PinholeCameraIntrinsics) GetCameraMatrix() *mat.Dense {
	if params == nil {
		return nil
	}
	cameraMatrix := mat.NewDense(3, 3, nil)
	cameraMatrix.Set(0, 0, params.Fx)
	cameraMatrix.Set(1, 1, params.Fy)
	cameraMatrix.Set(0, 2, params.Ppx)
	cameraMatrix.Set(1, 2, params.Ppy)
	cameraMatrix.Set(2, 2, 1)
	return cameraMatrix
}
