package d2rgb

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/w407022008/librealsense-2.55.1/rimage"
	"github.com/w407022008/librealsense-2.55.1/rimage/transform"
	"github.com/w407022008/librealsense-2.55.1/utils"
)

// costFunction scores how well projected depth edges land on color edges.
type costFunction struct {
	z              *ZData
	yuy            *YUYData
	distortion     transform.Distorter
	withIntrinsics bool
}

// evaluation holds one calibration's projection of every depth edge. Invalid edges have
// NaN samples and are left out of every aggregate.
type evaluation struct {
	calib    Calibration
	uv       []r2.Point
	valid    []bool
	dVals    []float64
	dValsX   []float64
	dValsY   []float64
	numValid int
	sumW     float64
	cost     float64
	gradient []float64
	hessian  *mat.SymDense
}

func (cf *costFunction) model(c Calibration) *transform.PinholeCameraModel {
	intrinsics := c.Intrinsics()
	return &transform.PinholeCameraModel{PinholeCameraIntrinsics: &intrinsics, Distortion: cf.distortion}
}

// project returns the color pixel of every depth edge vertex under c.
func (cf *costFunction) project(c Calibration) ([]r2.Point, []bool) {
	model := cf.model(c)
	ext := c.Extrinsics()
	n := cf.z.NumEdges()
	w, h := float64(c.Width-1), float64(c.Height-1)
	uv := make([]r2.Point, n)
	valid := make([]bool, n)
	utils.ParallelForEachIndex(n, func(i int) {
		pt, ok := model.ProjectPoint(ext.Apply(cf.z.Vertices[i]))
		if !ok {
			uv[i] = r2.Point{X: math.NaN(), Y: math.NaN()}
			return
		}
		uv[i] = pt
		valid[i] = pt.X >= 0 && pt.Y >= 0 && pt.X <= w && pt.Y <= h
	})
	return uv, valid
}

func (cf *costFunction) evaluate(c Calibration) *evaluation {
	n := cf.z.NumEdges()
	np := stateSize(cf.withIntrinsics)
	model := cf.model(c)
	ext := c.Extrinsics()
	dR := transform.RotationAngleDerivatives(c.RotAngles)
	uv, valid := cf.project(c)

	ev := &evaluation{
		calib:  c,
		uv:     uv,
		valid:  valid,
		dVals:  make([]float64, n),
		dValsX: make([]float64, n),
		dValsY: make([]float64, n),
	}
	jac := make([]float64, n*np)
	utils.ParallelForEachIndex(n, func(i int) {
		if !valid[i] {
			ev.dVals[i], ev.dValsX[i], ev.dValsY[i] = math.NaN(), math.NaN(), math.NaN()
			return
		}
		d, _ := rimage.BilinearInterpolation(uv[i], cf.yuy.EdgesIDT)
		dx, _ := rimage.BilinearInterpolation(uv[i], cf.yuy.EdgesIDTx)
		dy, _ := rimage.BilinearInterpolation(uv[i], cf.yuy.EdgesIDTy)
		ev.dVals[i], ev.dValsX[i], ev.dValsY[i] = d, dx, dy

		v := cf.z.Vertices[i]
		pc := ext.Apply(v)
		du, dv := model.ProjectionJacobian(pc)
		j := jac[i*np : (i+1)*np]
		for k := 0; k < 3; k++ {
			dPc := rotateBy(dR[k], v)
			j[k] = dx*du.Dot(dPc) + dy*dv.Dot(dPc)
		}
		j[3] = dx*du.X + dy*dv.X
		j[4] = dx*du.Y + dy*dv.Y
		j[5] = dx*du.Z + dy*dv.Z
		if cf.withIntrinsics {
			xd, yd, _ := model.DistortedNormalized(pc)
			j[6] = dx * xd
			j[7] = dy * yd
			j[8] = dx
			j[9] = dy
		}
	})

	// reductions run in edge order so the result does not depend on scheduling
	sumWD := 0.
	ev.gradient = make([]float64, np)
	ev.hessian = mat.NewSymDense(np, nil)
	for i := 0; i < n; i++ {
		if !valid[i] {
			continue
		}
		w := cf.z.Weights[i]
		j := jac[i*np : (i+1)*np]
		ev.numValid++
		ev.sumW += w
		sumWD += w * ev.dVals[i]
		floats.AddScaled(ev.gradient, w, j)
		ev.hessian.SymRankOne(ev.hessian, w, mat.NewVecDense(np, j))
	}
	if ev.sumW <= 0 {
		ev.cost = math.NaN()
		return ev
	}
	ev.cost = -sumWD / ev.sumW
	floats.Scale(-1/ev.sumW, ev.gradient)
	ev.hessian.ScaleSym(1/ev.sumW, ev.hessian)
	return ev
}

// finite reports whether the cost and its derivatives are usable.
func (ev *evaluation) finite() bool {
	if ev.numValid == 0 || !utils.IsFinite(ev.cost) || !utils.AllFinite(ev.gradient...) {
		return false
	}
	n := ev.hessian.SymmetricDim()
	for r := 0; r < n; r++ {
		for c := r; c < n; c++ {
			if !utils.IsFinite(ev.hessian.At(r, c)) {
				return false
			}
		}
	}
	return true
}

// sectionScores is the weighted mean sampled edge value of the valid edges of each section.
func (cf *costFunction) sectionScores(ev *evaluation, numSections int) []float64 {
	sumW := make([]float64, numSections)
	sumWD := make([]float64, numSections)
	for i, ok := range ev.valid {
		if !ok {
			continue
		}
		s := cf.z.EdgeSections[i]
		sumW[s] += cf.z.Weights[i]
		sumWD[s] += cf.z.Weights[i] * ev.dVals[i]
	}
	scores := make([]float64, numSections)
	for s := range scores {
		if sumW[s] > 0 {
			scores[s] = sumWD[s] / sumW[s]
		}
	}
	return scores
}

func rotateBy(r [9]float64, v r3.Vector) r3.Vector {
	return r3.Vector{
		X: r[0]*v.X + r[1]*v.Y + r[2]*v.Z,
		Y: r[3]*v.X + r[4]*v.Y + r[5]*v.Z,
		Z: r[6]*v.X + r[7]*v.Y + r[8]*v.Z,
	}
}
