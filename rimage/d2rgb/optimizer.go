// Package d2rgb aligns a depth sensor with a color sensor from a single set of frames.
// Depth edges are projected into the color image and the calibration is refined until they
// land on color edges.
package d2rgb

import (
	"context"
	"math"
	"sort"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/w407022008/librealsense-2.55.1/logging"
	"github.com/w407022008/librealsense-2.55.1/rimage"
	"github.com/w407022008/librealsense-2.55.1/rimage/transform"
	"github.com/w407022008/librealsense-2.55.1/utils"
)

// State is the optimizer's progress.
type State int

// The optimizer states.
const (
	StateInitialized State = iota
	StateIterating
	StateConverged
	StateMaxIterationsReached
	StateDiverged
	// StateCanceled means the context ended Optimize early. The calibration is the last
	// committed one.
	StateCanceled
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateIterating:
		return "iterating"
	case StateConverged:
		return "converged"
	case StateMaxIterationsReached:
		return "max_iterations_reached"
	case StateDiverged:
		return "diverged"
	case StateCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// IterationRecord is the snapshot handed to the callback once per iteration. Calibration,
// Cost and Gradient are taken before the iteration's update is committed. UVMap and the
// sampled values have one entry per depth edge; edges projecting outside the color image
// carry NaN samples.
type IterationRecord struct {
	Iteration    int
	Calibration  Calibration
	Cost         float64
	Gradient     Calibration
	UVMap        []r2.Point
	DVals        []float64
	DValsX       []float64
	DValsY       []float64
	Damping      float64
	StepAccepted bool
}

// IterationCallback observes iterations. It must not keep references into the optimizer.
type IterationCallback func(IterationRecord)

// Optimizer runs the whole pipeline for one set of frames.
type Optimizer struct {
	logger logging.Logger
	opts   Options
	info   CameraInfo

	colorModel *transform.PinholeCameraModel
	depthModel *transform.PinholeCameraModel

	ir    *IRData
	z     *ZData
	yuy   *YUYData
	scene *SceneReport

	initial Calibration
	calib   Calibration
	cost    float64
	state   State

	iterations int
	result     *ResultReport
}

// NewOptimizer validates the camera info and options.
func NewOptimizer(info CameraInfo, opts Options, logger logging.Logger) (*Optimizer, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid options")
	}
	if err := info.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid camera info")
	}
	colorModel, err := info.RGB.Model()
	if err != nil {
		return nil, err
	}
	depthModel, err := info.Z.Model()
	if err != nil {
		return nil, err
	}
	initial := CalibrationFromCameraInfo(&info)
	return &Optimizer{
		logger:     logger,
		opts:       opts,
		info:       info,
		colorModel: colorModel,
		depthModel: depthModel,
		initial:    initial,
		calib:      initial,
		cost:       math.NaN(),
		state:      StateInitialized,
	}, nil
}

// Frames are the raw buffers of one calibration request.
type Frames struct {
	// YUY2 packed color frames, 2 bytes per pixel.
	Color     []byte
	PrevColor []byte
	// 8 bit infrared frame.
	IR []byte
	// Depth samples in the camera's depth units.
	Depth []uint16
}

// SetFrames processes all frames; color runs alongside infrared and depth.
func (o *Optimizer) SetFrames(ctx context.Context, frames Frames) error {
	var (
		yuy *YUYData
		ir  *IRData
		z   *ZData
	)
	_, err := utils.RunInParallel(ctx, []utils.SimpleFunc{
		func(ctx context.Context) error {
			var err error
			yuy, err = o.processYUY(frames.Color, frames.PrevColor)
			return err
		},
		func(ctx context.Context) error {
			var err error
			if ir, err = o.processIR(frames.IR); err != nil {
				return err
			}
			z, err = o.processZ(frames.Depth, ir)
			return err
		},
	})
	if err != nil {
		return err
	}
	o.yuy, o.ir, o.z = yuy, ir, z
	o.resetDerived()
	return nil
}

// SetYUYData extracts color edges from the current frame and runs the motion guard
// against the previous one.
func (o *Optimizer) SetYUYData(cur, prev []byte) error {
	yuy, err := o.processYUY(cur, prev)
	if err != nil {
		return err
	}
	o.yuy = yuy
	o.resetDerived()
	return nil
}

// SetIRData extracts infrared edges. It must be called before SetZData.
func (o *Optimizer) SetIRData(ir []byte) error {
	data, err := o.processIR(ir)
	if err != nil {
		return err
	}
	o.ir = data
	o.z = nil
	o.resetDerived()
	return nil
}

// SetZData extracts depth edges, corroborated by the infrared edges.
func (o *Optimizer) SetZData(depth []uint16) error {
	if o.ir == nil {
		return errors.Wrap(ErrNoData, "infrared data must be set before depth data")
	}
	z, err := o.processZ(depth, o.ir)
	if err != nil {
		return err
	}
	o.z = z
	o.resetDerived()
	return nil
}

func (o *Optimizer) processYUY(cur, prev []byte) (*YUYData, error) {
	w, h := o.info.RGB.Width, o.info.RGB.Height
	if len(cur) != 2*w*h {
		return nil, newInputShapeError("color", len(cur), w, h, 2)
	}
	if len(prev) != 2*w*h {
		return nil, newInputShapeError("previous color", len(prev), w, h, 2)
	}
	curImg, err := yuy2ToDense(cur, w, h)
	if err != nil {
		return nil, err
	}
	prevImg, err := yuy2ToDense(prev, w, h)
	if err != nil {
		return nil, err
	}
	yuy, err := extractColorEdges(curImg, prevImg, o.opts)
	if err != nil {
		return nil, err
	}
	o.logger.Debugw("color edges extracted",
		"logic_edges_per_section", yuy.LogicEdgesPerSection,
		"move_suspect", yuy.Motion.MoveSuspectCount)
	return yuy, nil
}

func yuy2ToDense(buf []byte, width, height int) (*mat.Dense, error) {
	lum, err := rimage.YUY2ToLuminance(buf, width, height)
	if err != nil {
		return nil, errors.Wrap(ErrInputShape, err.Error())
	}
	return rimage.GrayBufferToDense(lum, width, height)
}

func (o *Optimizer) processIR(ir []byte) (*IRData, error) {
	w, h := o.info.Z.Width, o.info.Z.Height
	if len(ir) != w*h {
		return nil, newInputShapeError("infrared", len(ir), w, h, 1)
	}
	img, err := rimage.GrayBufferToDense(ir, w, h)
	if err != nil {
		return nil, err
	}
	return extractIREdges(img), nil
}

func (o *Optimizer) processZ(depth []uint16, ir *IRData) (*ZData, error) {
	w, h := o.info.Z.Width, o.info.Z.Height
	if len(depth) != w*h {
		return nil, errors.Wrapf(ErrInputShape, "depth buffer has %d samples, expected %dx%d=%d", len(depth), w, h, w*h)
	}
	dm, err := rimage.NewDepthMapFromBuffer(depth, w, h)
	if err != nil {
		return nil, err
	}
	z := extractDepthEdges(dm, o.info.DepthScaleMM(), o.depthModel.PinholeCameraIntrinsics, ir.Edges, o.opts)
	o.logger.Debugw("depth edges extracted",
		"edges", z.NumEdges(),
		"weights_per_section", z.SumWeightsPerSection,
		"weights_per_direction", z.SumWeightsPerDirection)
	return z, nil
}

func (o *Optimizer) resetDerived() {
	o.scene = nil
	o.result = nil
	o.calib = o.initial
	o.cost = math.NaN()
	o.state = StateInitialized
	o.iterations = 0
}

// ZData returns the depth edge record, nil before SetZData.
func (o *Optimizer) ZData() *ZData {
	return o.z
}

// IRData returns the infrared edge record, nil before SetIRData.
func (o *Optimizer) IRData() *IRData {
	return o.ir
}

// YUYData returns the color edge record, nil before SetYUYData.
func (o *Optimizer) YUYData() *YUYData {
	return o.yuy
}

// SceneReport runs the scene checks once both color and depth data are set.
func (o *Optimizer) SceneReport() (*SceneReport, error) {
	if o.z == nil || o.yuy == nil {
		return nil, ErrNoData
	}
	if o.scene == nil {
		o.scene = evaluateScene(o.z, o.yuy, o.opts)
		if o.scene.Valid() {
			o.logger.Info("scene is valid for calibration")
		} else {
			o.logger.Warnw("scene is not valid for calibration", "reasons", o.scene.Err().Error())
		}
	}
	return o.scene, nil
}

// IsSceneValid is false when any scene check fails or data is missing.
func (o *Optimizer) IsSceneValid() bool {
	report, err := o.SceneReport()
	return err == nil && report.Valid()
}

func (o *Optimizer) costFunction() *costFunction {
	return &costFunction{
		z:              o.z,
		yuy:            o.yuy,
		distortion:     o.colorModel.Distortion,
		withIntrinsics: o.opts.OptimizeIntrinsics,
	}
}

// Optimize refines the calibration, starting from the camera info every time it is called.
// cb, when not nil, is invoked synchronously once per iteration. It returns the number of
// iterations executed.
func (o *Optimizer) Optimize(ctx context.Context, cb IterationCallback) (int, error) {
	report, err := o.SceneReport()
	if err != nil {
		return 0, err
	}
	if !report.Valid() {
		if o.opts.RefuseInvalidScene {
			return 0, report.Err()
		}
		o.logger.Warn("optimizing although the scene is not valid")
	}
	o.resetOptimization()
	logger := o.logger.Sublogger("optimizer")
	cf := o.costFunction()

	cur := cf.evaluate(o.initial)
	if !cur.finite() {
		return 0, o.diverge(logger, 0, "initial calibration has no usable projections", math.NaN())
	}
	o.cost = cur.cost
	damping := o.opts.InitialDamping
	for iter := 0; ; iter++ {
		if err := ctx.Err(); err != nil {
			o.state = StateCanceled
			logger.Infow("optimization canceled", "iterations", o.iterations, "cost", o.cost)
			return o.iterations, err
		}
		if iter == o.opts.MaxIterations {
			o.state = StateMaxIterationsReached
			break
		}
		next, newDamping, err := o.step(cf, cur, damping)
		if err != nil {
			return o.iterations, o.diverge(logger, iter, err.Error(), cur.cost)
		}
		accepted := next != nil
		record := IterationRecord{
			Iteration:    iter,
			Calibration:  cur.calib,
			Cost:         cur.cost,
			Gradient:     gradientCalibration(cur.calib.Width, cur.calib.Height, cur.gradient),
			UVMap:        cur.uv,
			DVals:        cur.dVals,
			DValsX:       cur.dValsX,
			DValsY:       cur.dValsY,
			Damping:      damping,
			StepAccepted: accepted,
		}
		o.iterations++
		if cb != nil {
			cb(record)
		}
		logger.Debugw("iteration", "iteration", iter, "cost", cur.cost, "damping", damping, "accepted", accepted)
		damping = newDamping
		if !accepted {
			o.state = StateConverged
			break
		}
		if !next.calib.IsFinite() {
			return o.iterations, o.diverge(logger, iter, "calibration became non-finite", cur.cost)
		}
		delta := cur.cost - next.cost
		cur = next
		o.calib, o.cost = cur.calib, cur.cost
		if delta < o.opts.MinCostDelta {
			o.state = StateConverged
			break
		}
	}
	logger.Infow("optimization done", "state", o.state.String(), "iterations", o.iterations, "cost", o.cost)
	return o.iterations, nil
}

func (o *Optimizer) resetOptimization() {
	o.calib = o.initial
	o.cost = math.NaN()
	o.state = StateIterating
	o.iterations = 0
	o.result = nil
}

func (o *Optimizer) diverge(logger logging.Logger, iter int, reason string, lastCost float64) error {
	o.state = StateDiverged
	err := &DivergenceError{Iteration: iter, Reason: reason, LastCalibration: o.calib, LastCost: lastCost}
	logger.Errorw("optimization diverged", "iteration", iter, "reason", reason)
	return err
}

// step looks for a damped Gauss-Newton update that lowers the cost. It returns a nil
// evaluation when no such step exists within the back track budget.
func (o *Optimizer) step(cf *costFunction, cur *evaluation, damping float64) (*evaluation, float64, error) {
	n := len(cur.gradient)
	maxDiag := 0.
	for k := 0; k < n; k++ {
		maxDiag = math.Max(maxDiag, cur.hessian.At(k, k))
	}
	if maxDiag <= 0 {
		// every projected edge samples flat color, so no direction changes the cost
		return nil, damping, nil
	}
	floor := 1e-12 * maxDiag
	theta := cur.calib.state(cf.withIntrinsics)
	rhs := mat.NewVecDense(n, nil)
	for k := 0; k < n; k++ {
		rhs.SetVec(k, -cur.gradient[k])
	}

	factorized := false
	for attempt := 0; attempt <= o.opts.MaxBackTrackIters; attempt++ {
		a := mat.NewSymDense(n, nil)
		a.CopySym(cur.hessian)
		for k := 0; k < n; k++ {
			diag := cur.hessian.At(k, k)
			a.SetSym(k, k, diag+damping*math.Max(diag, floor))
		}
		var chol mat.Cholesky
		if ok := chol.Factorize(a); !ok {
			damping *= o.opts.DampingUp
			continue
		}
		factorized = true
		var delta mat.VecDense
		if err := chol.SolveVecTo(&delta, rhs); err != nil {
			damping *= o.opts.DampingUp
			continue
		}
		candidate := make([]float64, n)
		for k := range candidate {
			candidate[k] = theta[k] + delta.AtVec(k)
		}
		if !utils.AllFinite(candidate...) {
			damping *= o.opts.DampingUp
			continue
		}
		trial := cf.evaluate(cur.calib.fromState(candidate))
		if trial.finite() && trial.cost < cur.cost {
			return trial, damping / o.opts.DampingDown, nil
		}
		damping *= o.opts.DampingUp
	}
	if !factorized {
		return nil, damping, errors.New("singular system")
	}
	return nil, damping, nil
}

// Calibration returns the current calibration: the initial one before Optimize, the last
// committed one after.
func (o *Optimizer) Calibration() Calibration {
	return o.calib
}

// InitialCalibration returns the calibration built from the camera info.
func (o *Optimizer) InitialCalibration() Calibration {
	return o.initial
}

// Cost returns the cost of Calibration, NaN before Optimize.
func (o *Optimizer) Cost() float64 {
	return o.cost
}

// State returns the optimizer state.
func (o *Optimizer) State() State {
	return o.state
}

// Iterations returns the number of iterations of the last Optimize call.
func (o *Optimizer) Iterations() int {
	return o.iterations
}

// SortedCopy returns the values in ascending order with NaNs last.
func SortedCopy(values []float64) []float64 {
	out := append([]float64(nil), values...)
	sort.SliceStable(out, func(i, j int) bool {
		if math.IsNaN(out[i]) {
			return false
		}
		return math.IsNaN(out[j]) || out[i] < out[j]
	})
	return out
}

// SortedUVCopy returns the points ordered by X then Y, NaNs last.
func SortedUVCopy(uv []r2.Point) []r2.Point {
	out := append([]r2.Point(nil), uv...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if math.IsNaN(a.X) {
			return false
		}
		if math.IsNaN(b.X) {
			return true
		}
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Y < b.Y
	})
	return out
}
