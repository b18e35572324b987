package d2rgb

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInputShape is returned when a pixel buffer does not match the declared sensor size.
	ErrInputShape = errors.New("input buffer does not match the sensor dimensions")
	// ErrSceneInvalid is returned by Optimize when the scene was rejected and the options
	// ask the optimizer to refuse such scenes.
	ErrSceneInvalid = errors.New("scene is not valid for calibration")
	// ErrDiverged is the sentinel every DivergenceError unwraps to.
	ErrDiverged = errors.New("calibration optimization diverged")
	// ErrNoData is returned when an operation needs frames that were not provided yet.
	ErrNoData = errors.New("required frame data has not been set")
)

func newInputShapeError(what string, got, width, height, bytesPerPixel int) error {
	return errors.Wrapf(ErrInputShape, "%s buffer has %d bytes, expected %dx%dx%d=%d",
		what, got, width, height, bytesPerPixel, width*height*bytesPerPixel)
}

// DivergenceError aborts an optimization. It carries the last calibration and cost
// that were known to be numerically sound.
type DivergenceError struct {
	Iteration       int
	Reason          string
	LastCalibration Calibration
	LastCost        float64
}

func (e *DivergenceError) Error() string {
	return fmt.Sprintf("%v at iteration %d: %s (last stable cost %v)", ErrDiverged, e.Iteration, e.Reason, e.LastCost)
}

// Unwrap returns ErrDiverged.
func (e *DivergenceError) Unwrap() error {
	return ErrDiverged
}
