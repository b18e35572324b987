package d2rgb

import (
	"math"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"
)

// SceneReport is the outcome of the pre-optimization checks.
type SceneReport struct {
	NumEdges               int
	EdgeDistributionRatio  float64
	DepthSectionsWithEdges int
	ColorSectionsWithEdges int
	DirectionRatio         float64
	DirectionRatioPerp     float64
	MoveSuspectCount       int
	MovementDetected       bool
	Reasons                []error
}

// Valid reports whether every check passed.
func (r *SceneReport) Valid() bool {
	return len(r.Reasons) == 0
}

// Err returns the combined reasons the scene was rejected, or nil.
func (r *SceneReport) Err() error {
	if r.Valid() {
		return nil
	}
	return multierr.Combine(append([]error{ErrSceneInvalid}, r.Reasons...)...)
}

// ratioOrInf is a/b, +Inf when b is zero and a is not.
func ratioOrInf(a, b float64) float64 {
	if b == 0 {
		if a == 0 {
			return math.NaN()
		}
		return math.Inf(1)
	}
	return a / b
}

// directionBalance compares the strongest direction to its perpendicular, then the two
// diagonals to each other.
func directionBalance(perDirection []float64) (ratio, ratioPerp float64) {
	strongest := 0
	for d, v := range perDirection {
		if v > perDirection[strongest] {
			strongest = d
		}
	}
	ratio = ratioOrInf(perDirection[strongest], perDirection[(strongest+2)%numDirections])
	a, b := perDirection[(strongest+1)%numDirections], perDirection[(strongest+3)%numDirections]
	ratioPerp = ratioOrInf(math.Max(a, b), math.Min(a, b))
	return ratio, ratioPerp
}

func evaluateScene(z *ZData, yuy *YUYData, opts Options) *SceneReport {
	report := &SceneReport{NumEdges: z.NumEdges()}
	fail := func(format string, args ...interface{}) {
		report.Reasons = append(report.Reasons, errors.Errorf(format, args...))
	}

	if report.NumEdges < opts.MinEdges {
		fail("only %d depth edges, need %d", report.NumEdges, opts.MinEdges)
	}

	report.EdgeDistributionRatio = minMaxRatio(z.SumWeightsPerSection)
	if report.EdgeDistributionRatio < opts.EdgeDistributionMinMaxRatio {
		fail("depth edge weight per section min/max ratio %v is below %v",
			report.EdgeDistributionRatio, opts.EdgeDistributionMinMaxRatio)
	}
	report.DepthSectionsWithEdges = lo.CountBy(z.SumWeightsPerSection, func(w float64) bool {
		return w >= opts.MinWeightedEdgePerSection
	})
	if report.DepthSectionsWithEdges < opts.MinSectionsWithEnoughEdges {
		fail("only %d depth sections have enough edge weight, need %d",
			report.DepthSectionsWithEdges, opts.MinSectionsWithEnoughEdges)
	}

	for s, n := range yuy.LogicEdgesPerSection {
		if yuy.PixelsPerSection[s] > 0 &&
			float64(n)/float64(yuy.PixelsPerSection[s]) >= opts.PixPerSectionRGBThreshold {
			report.ColorSectionsWithEdges++
		}
	}
	if report.ColorSectionsWithEdges < opts.MinSectionsWithEnoughEdges {
		fail("only %d color sections have enough edge pixels, need %d",
			report.ColorSectionsWithEdges, opts.MinSectionsWithEnoughEdges)
	}

	report.DirectionRatio, report.DirectionRatioPerp = directionBalance(z.SumWeightsPerDirection)
	if !(report.DirectionRatio <= opts.GradDirRatio) && !(report.DirectionRatioPerp <= opts.GradDirRatioPerp) {
		fail("gradient directions are not balanced (ratio %v, perpendicular ratio %v)",
			report.DirectionRatio, report.DirectionRatioPerp)
	}

	report.MoveSuspectCount = yuy.Motion.MoveSuspectCount
	report.MovementDetected = yuy.Motion.MovementDetected()
	if report.MovementDetected {
		fail("movement detected: %d suspect pixels, allowed %v",
			report.MoveSuspectCount, yuy.Motion.MoveThreshPixNum)
	}
	return report
}
