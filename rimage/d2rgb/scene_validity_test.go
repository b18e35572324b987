package d2rgb

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/test"
)

func TestDirectionBalance(t *testing.T) {
	ratio, perp := directionBalance([]float64{10, 1, 2, 4})
	test.That(t, ratio, test.ShouldEqual, 5.)
	test.That(t, perp, test.ShouldEqual, 4.)

	ratio, perp = directionBalance([]float64{1, 3, 2, 3})
	test.That(t, ratio, test.ShouldEqual, 1.)
	test.That(t, perp, test.ShouldEqual, 2.)

	ratio, perp = directionBalance([]float64{5, 0, 0, 0})
	test.That(t, math.IsInf(ratio, 1), test.ShouldBeTrue)
	test.That(t, math.IsNaN(perp), test.ShouldBeTrue)

	ratio, perp = directionBalance([]float64{0, 0, 0, 0})
	test.That(t, math.IsNaN(ratio), test.ShouldBeTrue)
	test.That(t, math.IsNaN(perp), test.ShouldBeTrue)
}

// handMadeScene is a scene record that passes every check with DefaultOptions.
func handMadeScene() (*ZData, *YUYData) {
	z := &ZData{
		Weights:                make([]float64, 1200),
		SumWeightsPerSection:   []float64{300, 200, 400, 300},
		SumWeightsPerDirection: []float64{400, 200, 350, 250},
	}
	yuy := &YUYData{
		LogicEdgesPerSection: []int{50, 40, 60, 55},
		PixelsPerSection:     []int{1000, 1000, 1000, 1000},
		Motion:               &MotionData{MoveSuspectCount: 3, MoveThreshPixNum: 12},
	}
	return z, yuy
}

func TestEvaluateScene(t *testing.T) {
	opts := DefaultOptions()

	t.Run("valid", func(t *testing.T) {
		z, yuy := handMadeScene()
		report := evaluateScene(z, yuy, opts)
		test.That(t, report.Valid(), test.ShouldBeTrue)
		test.That(t, report.Err(), test.ShouldBeNil)
		test.That(t, report.NumEdges, test.ShouldEqual, 1200)
		test.That(t, report.EdgeDistributionRatio, test.ShouldEqual, 0.5)
		test.That(t, report.DepthSectionsWithEdges, test.ShouldEqual, 4)
		test.That(t, report.ColorSectionsWithEdges, test.ShouldEqual, 4)
		test.That(t, report.DirectionRatio, test.ShouldAlmostEqual, 400./350.)
		test.That(t, report.MovementDetected, test.ShouldBeFalse)
	})

	t.Run("every failing check is reported", func(t *testing.T) {
		z, yuy := handMadeScene()
		z.Weights = z.Weights[:10]
		z.SumWeightsPerSection = []float64{1000, 0, 0, 1}
		z.SumWeightsPerDirection = []float64{1000, 10, 1, 1}
		yuy.LogicEdgesPerSection = []int{50, 0, 0, 0}
		yuy.Motion.MoveSuspectCount = 100

		report := evaluateScene(z, yuy, opts)
		test.That(t, report.Valid(), test.ShouldBeFalse)
		test.That(t, report.Reasons, test.ShouldHaveLength, 6)
		test.That(t, report.DepthSectionsWithEdges, test.ShouldEqual, 1)
		test.That(t, report.ColorSectionsWithEdges, test.ShouldEqual, 1)
		test.That(t, report.MovementDetected, test.ShouldBeTrue)

		err := report.Err()
		test.That(t, errors.Is(err, ErrSceneInvalid), test.ShouldBeTrue)
		test.That(t, multierr.Errors(err), test.ShouldHaveLength, 7)
		test.That(t, err.Error(), test.ShouldContainSubstring, "only 10 depth edges")
		test.That(t, err.Error(), test.ShouldContainSubstring, "movement detected")
	})

	t.Run("one balanced direction pair is enough", func(t *testing.T) {
		z, yuy := handMadeScene()
		// horizontal against vertical is badly skewed but the diagonals agree
		z.SumWeightsPerDirection = []float64{1000, 20, 10, 18}
		report := evaluateScene(z, yuy, opts)
		test.That(t, report.DirectionRatio, test.ShouldEqual, 100.)
		test.That(t, report.Valid(), test.ShouldBeTrue)

		z.SumWeightsPerDirection = []float64{1000, 40, 10, 18}
		report = evaluateScene(z, yuy, opts)
		test.That(t, report.Valid(), test.ShouldBeFalse)
		test.That(t, report.Err().Error(), test.ShouldContainSubstring, "not balanced")
	})
}

func TestSyntheticSceneValidity(t *testing.T) {
	scene := newSyntheticScene(nil)

	o := newTestOptimizer(t, scene, testOptions())
	report, err := o.SceneReport()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, report.Err(), test.ShouldBeNil)
	test.That(t, o.IsSceneValid(), test.ShouldBeTrue)
	test.That(t, report.DepthSectionsWithEdges, test.ShouldEqual, 4)
	test.That(t, report.ColorSectionsWithEdges, test.ShouldEqual, 4)

	// cached until new frames arrive
	again, err := o.SceneReport()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, again, test.ShouldEqual, report)

	strict := newTestOptimizer(t, scene, DefaultOptions())
	test.That(t, strict.IsSceneValid(), test.ShouldBeFalse)
	report, err = strict.SceneReport()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, errors.Is(report.Err(), ErrSceneInvalid), test.ShouldBeTrue)
	test.That(t, report.Err().Error(), test.ShouldContainSubstring, "depth edges, need 1000")
}
