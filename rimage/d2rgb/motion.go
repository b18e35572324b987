package d2rgb

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/w407022008/librealsense-2.55.1/rimage"
)

// MotionData is the motion guard output. Every image is the size of the color frame.
type MotionData struct {
	PrevLogicEdges     []bool
	DilatedImage       *mat.Dense
	Diff               *mat.Dense
	GaussianFiltered   *mat.Dense
	GaussianDiffMasked *mat.Dense
	MoveSuspect        []bool
	MoveSuspectCount   int
	MoveThreshPixNum   float64
}

// MovementDetected reports whether too many pixels away from known edges changed.
func (m *MotionData) MovementDetected() bool {
	return float64(m.MoveSuspectCount) > m.MoveThreshPixNum
}

// detectMotion compares two consecutive color frames. Differences next to the previous
// frame's edges are tolerated as jitter.
func detectMotion(cur, prev *mat.Dense, opts Options) (*MotionData, error) {
	h, w := cur.Dims()
	prevLogic := logicEdges(rimage.SobelMagnitude(prev), opts.EdgeThresh4LogicLum)
	dilated, err := rimage.DilateMask(prevLogic, w, h, opts.DilationSize)
	if err != nil {
		return nil, err
	}

	diff := mat.NewDense(h, w, nil)
	diff.Sub(cur, prev)
	filtered, err := rimage.GaussianFilter(diff, opts.GaussSigma, opts.GaussKernelSize)
	if err != nil {
		return nil, err
	}

	masked := mat.NewDense(h, w, nil)
	masked.Apply(func(i, j int, v float64) float64 {
		if dilated[i*w+j] {
			return 0
		}
		return math.Abs(v)
	}, filtered)

	suspect := make([]bool, w*h)
	count := 0
	raw := masked.RawMatrix()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if raw.Data[y*raw.Stride+x] > opts.MoveThreshPixVal {
				suspect[y*w+x] = true
				count++
			}
		}
	}
	return &MotionData{
		PrevLogicEdges:     prevLogic,
		DilatedImage:       rimage.MaskToDense(dilated, w, h),
		Diff:               diff,
		GaussianFiltered:   filtered,
		GaussianDiffMasked: masked,
		MoveSuspect:        suspect,
		MoveSuspectCount:   count,
		MoveThreshPixNum:   opts.moveThreshPixNum(w * h),
	}, nil
}
