package transform

import "github.com/pkg/errors"

// BrownConrady is a struct for some terms of a modified Brown-Conrady model of distortion.
type BrownConrady struct {
	RadialK1     float64 `json:"rk1"`
	RadialK2     float64 `json:"rk2"`
	RadialK3     float64 `json:"rk3"`
	TangentialP1 float64 `json:"tp1"`
	TangentialP2 float64 `json:"tp2"`
}

// CheckValid checks if the fields for BrownConrady have valid inputs.
func (bc *BrownConrady) CheckValid() error {
	if bc == nil {
		return InvalidDistortionError("BrownConrady shaped distortion_parameters not provided")
	}
	return nil
}

// NewBrownConrady takes in a slice of floats that will be passed into the struct in order
// (k1, k2, k3, p1, p2).
func NewBrownConrady(inp []float64) (*BrownConrady, error) {
	if len(inp) > 5 {
		return nil, errors.Errorf("list of parameters too long, expected max 5, got %d", len(inp))
	}
	if len(inp) == 0 {
		return &BrownConrady{}, nil
	}
	for i := len(inp); i < 5; i++ { // fill missing values with 0.0
		inp = append(inp, 0.0)
	}
	return &BrownConrady{inp[0], inp[1], inp[2], inp[3], inp[4]}, nil
}

// NewBrownConradyFromRealSense builds the model from coefficients in RealSense order
// (k1, k2, p1, p2, k3).
func NewBrownConradyFromRealSense(coeffs [5]float64) *BrownConrady {
	return &BrownConrady{
		RadialK1:     coeffs[0],
		RadialK2:     coeffs[1],
		TangentialP1: coeffs[2],
		TangentialP2: coeffs[3],
		RadialK3:     coeffs[4],
	}
}

// ModelType returns the type of distortion model.
func (bc *BrownConrady) ModelType() DistortionType {
	return BrownConradyDistortionType
}

// Parameters returns the distortion parameters in a list.
func (bc *BrownConrady) Parameters() []float64 {
	if bc == nil {
		return []float64{}
	}
	return []float64{bc.RadialK1, bc.RadialK2, bc.RadialK3, bc.TangentialP1, bc.TangentialP2}
}

// Transform distorts the input points x,y according to a modified Brown-Conrady model:
//
//	x_d = x * (1 + k1*r² + k2*r⁴ + k3*r⁶) + 2*p1*x*y + p2*(r² + 2*x²)
//	y_d = y * (1 + k1*r² + k2*r⁴ + k3*r⁶) + 2*p2*x*y + p1*(r² + 2*y²)
func (bc *BrownConrady) Transform(x, y float64) (float64, float64) {
	if bc == nil {
		return x, y
	}
	r2 := x*x + y*y
	radDist := 1. + bc.RadialK1*r2 + bc.RadialK2*r2*r2 + bc.RadialK3*r2*r2*r2
	xd := x*radDist + 2.*bc.TangentialP1*x*y + bc.TangentialP2*(r2+2.*x*x)
	yd := y*radDist + 2.*bc.TangentialP2*x*y + bc.TangentialP1*(r2+2.*y*y)
	return xd, yd
}

// Jacobian returns [dxd/dx, dxd/dy, dyd/dx, dyd/dy] of Transform.
func (bc *BrownConrady) Jacobian(x, y float64) [4]float64 {
	if bc == nil {
		return [4]float64{1, 0, 0, 1}
	}
	r2 := x*x + y*y
	r4 := r2 * r2
	radDist := 1.0 + bc.RadialK1*r2 + bc.RadialK2*r4 + bc.RadialK3*r4*r2
	dRadDistDr2 := bc.RadialK1 + 2.0*bc.RadialK2*r2 + 3.0*bc.RadialK3*r4
	dRadDistDx := 2.0 * x * dRadDistDr2
	dRadDistDy := 2.0 * y * dRadDistDr2

	dxdDx := radDist + x*dRadDistDx + 2.0*bc.TangentialP1*y + 6.0*bc.TangentialP2*x
	dxdDy := x*dRadDistDy + 2.0*bc.TangentialP1*x + 2.0*bc.TangentialP2*y
	dydDx := y*dRadDistDx + 2.0*bc.TangentialP2*y + 2.0*bc.TangentialP1*x
	dydDy := radDist + y*dRadDistDy + 2.0*bc.TangentialP2*x + 6.0*bc.TangentialP1*y
	return [4]float64{dxdDx, dxdDy, dydDx, dydDy}
}
