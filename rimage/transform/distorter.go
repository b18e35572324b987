package transform

import "github.com/pkg/errors"

// DistortionType is the name of the distortion model.
type DistortionType string

const (
	// NoneDistortionType is an ideal pinhole lens.
	NoneDistortionType = DistortionType("none")
	// BrownConradyDistortionType is for simple lenses of narrow field easily modeled as a pinhole camera.
	BrownConradyDistortionType = DistortionType("brown_conrady")
)

// Distorter defines a Transform that takes an undistorted image and distorts it according to the model.
// Points are in normalized image coordinates (x/z, y/z).
type Distorter interface {
	ModelType() DistortionType
	CheckValid() error
	Parameters() []float64
	Transform(x, y float64) (float64, float64)
	// Jacobian returns the partial derivatives of Transform at (x, y) as
	// [dxd/dx, dxd/dy, dyd/dx, dyd/dy].
	Jacobian(x, y float64) [4]float64
}

// InvalidDistortionError is used when the distortion_parameters are invalid.
func InvalidDistortionError(msg string) error {
	return errors.Wrap(errors.New("invalid distortion_parameters"), msg)
}

// NewDistorter returns a Distorter given a valid DistortionType and its parameters.
func NewDistorter(distortionType DistortionType, parameters []float64) (Distorter, error) {
	switch distortionType {
	case NoneDistortionType, "":
		for _, p := range parameters {
			if p != 0 {
				return nil, InvalidDistortionError("the none distortion model takes no non-zero parameters")
			}
		}
		return &NoDistortion{}, nil
	case BrownConradyDistortionType:
		bc, err := NewBrownConrady(parameters)
		if err != nil {
			return nil, err
		}
		return bc, nil
	default:
		return nil, errors.Errorf("do not know how to parse %q distortion model", distortionType)
	}
}

// NoDistortion is the identity distortion.
type NoDistortion struct{}

// ModelType returns the type of distortion model.
func (nd *NoDistortion) ModelType() DistortionType {
	return NoneDistortionType
}

// CheckValid always succeeds.
func (nd *NoDistortion) CheckValid() error {
	return nil
}

// Parameters returns an empty list.
func (nd *NoDistortion) Parameters() []float64 {
	return []float64{}
}

// Transform returns the input point.
func (nd *NoDistortion) Transform(x, y float64) (float64, float64) {
	return x, y
}

// Jacobian is the identity.
func (nd *NoDistortion) Jacobian(x, y float64) [4]float64 {
	return [4]float64{1, 0, 0, 1}
}
