package transform

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// RotationAngles are Euler angles in radians, composed as R = Rx(Alpha) * Ry(Beta) * Rz(Gamma).
type RotationAngles struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
	Gamma float64 `json:"gamma"`
}

// Extrinsics is the rigid transform from one camera frame to another.
// Rotation is stored row-major.
type Extrinsics struct {
	Rotation    [9]float64 `json:"rotation"`
	Translation [3]float64 `json:"translation"`
}

// IdentityExtrinsics returns the transform that leaves points unchanged.
func IdentityExtrinsics() Extrinsics {
	return Extrinsics{Rotation: [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}}
}

// Apply returns R*pt + t.
func (e *Extrinsics) Apply(pt r3.Vector) r3.Vector {
	r := e.Rotation
	return r3.Vector{
		X: r[0]*pt.X + r[1]*pt.Y + r[2]*pt.Z + e.Translation[0],
		Y: r[3]*pt.X + r[4]*pt.Y + r[5]*pt.Z + e.Translation[1],
		Z: r[6]*pt.X + r[7]*pt.Y + r[8]*pt.Z + e.Translation[2],
	}
}

// RotationMatrix returns the rotation as a 3x3 matrix.
func (e *Extrinsics) RotationMatrix() *mat.Dense {
	return mat.NewDense(3, 3, append([]float64(nil), e.Rotation[:]...))
}

// CheckValid makes sure the rotation is orthonormal with a positive determinant.
func (e *Extrinsics) CheckValid() error {
	r := e.RotationMatrix()
	var rrt mat.Dense
	rrt.Mul(r, r.T())
	if !mat.EqualApprox(&rrt, identity3(), 1e-6) {
		return errors.Errorf("rotation is not orthonormal: %v", e.Rotation)
	}
	if det := mat.Det(r); det <= 0 {
		return errors.Errorf("rotation has non-positive determinant %v", det)
	}
	return nil
}

func identity3() *mat.Dense {
	return mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
}

func axisRotations(a RotationAngles) (rx, ry, rz *mat.Dense) {
	sa, ca := math.Sincos(a.Alpha)
	sb, cb := math.Sincos(a.Beta)
	sg, cg := math.Sincos(a.Gamma)
	rx = mat.NewDense(3, 3, []float64{1, 0, 0, 0, ca, -sa, 0, sa, ca})
	ry = mat.NewDense(3, 3, []float64{cb, 0, sb, 0, 1, 0, -sb, 0, cb})
	rz = mat.NewDense(3, 3, []float64{cg, -sg, 0, sg, cg, 0, 0, 0, 1})
	return rx, ry, rz
}

func axisRotationDerivatives(a RotationAngles) (drx, dry, drz *mat.Dense) {
	sa, ca := math.Sincos(a.Alpha)
	sb, cb := math.Sincos(a.Beta)
	sg, cg := math.Sincos(a.Gamma)
	drx = mat.NewDense(3, 3, []float64{0, 0, 0, 0, -sa, -ca, 0, ca, -sa})
	dry = mat.NewDense(3, 3, []float64{-sb, 0, cb, 0, 0, 0, -cb, 0, -sb})
	drz = mat.NewDense(3, 3, []float64{-sg, -cg, 0, cg, -sg, 0, 0, 0, 0})
	return drx, dry, drz
}

func product3(a, b, c mat.Matrix) [9]float64 {
	var ab, abc mat.Dense
	ab.Mul(a, b)
	abc.Mul(&ab, c)
	var out [9]float64
	copy(out[:], abc.RawMatrix().Data)
	return out
}

// RotationFromAngles builds the row-major rotation Rx(alpha) * Ry(beta) * Rz(gamma).
func RotationFromAngles(a RotationAngles) [9]float64 {
	rx, ry, rz := axisRotations(a)
	return product3(rx, ry, rz)
}

// RotationAngleDerivatives returns dR/dAlpha, dR/dBeta and dR/dGamma, each row-major.
func RotationAngleDerivatives(a RotationAngles) [3][9]float64 {
	rx, ry, rz := axisRotations(a)
	drx, dry, drz := axisRotationDerivatives(a)
	return [3][9]float64{
		product3(drx, ry, rz),
		product3(rx, dry, rz),
		product3(rx, ry, drz),
	}
}

// AnglesFromRotation recovers the angles of RotationFromAngles. Beta is in [-pi/2, pi/2].
func AnglesFromRotation(r [9]float64) RotationAngles {
	sb := math.Max(-1, math.Min(1, r[2]))
	return RotationAngles{
		Alpha: math.Atan2(-r[5], r[8]),
		Beta:  math.Asin(sb),
		Gamma: math.Atan2(-r[1], r[0]),
	}
}

// NewExtrinsicsFromAngles builds extrinsics from rotation angles and a translation.
func NewExtrinsicsFromAngles(a RotationAngles, t r3.Vector) Extrinsics {
	return Extrinsics{Rotation: RotationFromAngles(a), Translation: [3]float64{t.X, t.Y, t.Z}}
}
