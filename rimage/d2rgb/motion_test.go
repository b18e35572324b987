package d2rgb

import (
	"testing"

	"github.com/samber/lo"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
)

func TestMotionGuardIdenticalFrames(t *testing.T) {
	scene := newSyntheticScene(nil)
	o := newTestOptimizer(t, scene, testOptions())
	motion := o.YUYData().Motion

	test.That(t, mat.Max(motion.Diff), test.ShouldEqual, 0.)
	test.That(t, mat.Min(motion.Diff), test.ShouldEqual, 0.)
	test.That(t, mat.Max(motion.GaussianDiffMasked), test.ShouldEqual, 0.)
	test.That(t, motion.MoveSuspectCount, test.ShouldEqual, 0)
	test.That(t, motion.MovementDetected(), test.ShouldBeFalse)
	test.That(t, lo.Count(motion.MoveSuspect, true), test.ShouldEqual, 0)
	test.That(t, motion.PrevLogicEdges, test.ShouldResemble, o.YUYData().LogicEdges)
	test.That(t, motion.MoveThreshPixNum, test.ShouldAlmostEqual, 3e-3*200*150)
}

func TestMotionGuardDetectsMovedBox(t *testing.T) {
	scene := newSyntheticScene(nil)
	moved := append([]depthRect(nil), sceneRects...)
	moved[0].x0 += 8
	moved[0].x1 += 8
	scene.frames.PrevColor = renderColor(scene.truth, scene.truth.Extrinsics.Translation, moved)

	o := newTestOptimizer(t, scene, testOptions())
	motion := o.YUYData().Motion
	test.That(t, motion.MovementDetected(), test.ShouldBeTrue)
	test.That(t, motion.MoveSuspectCount, test.ShouldBeGreaterThan, int(motion.MoveThreshPixNum))

	w := o.YUYData().Width
	for i, s := range motion.MoveSuspect {
		if s {
			test.That(t, motion.DilatedImage.At(i/w, i%w), test.ShouldEqual, 0.)
			test.That(t, motion.GaussianDiffMasked.At(i/w, i%w), test.ShouldBeGreaterThan, testOptions().MoveThreshPixVal)
		}
	}

	report, err := o.SceneReport()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, report.MovementDetected, test.ShouldBeTrue)
	test.That(t, report.Valid(), test.ShouldBeFalse)
}

func TestMotionGuardToleratesJitterNextToEdges(t *testing.T) {
	scene := newSyntheticScene(nil)
	moved := append([]depthRect(nil), sceneRects...)
	// under one pixel of motion every change stays inside the dilated edge band
	moved[0].x0 += 0.6
	moved[0].x1 += 0.6
	scene.frames.PrevColor = renderColor(scene.truth, scene.truth.Extrinsics.Translation, moved)

	o := newTestOptimizer(t, scene, testOptions())
	test.That(t, o.YUYData().Motion.MovementDetected(), test.ShouldBeFalse)
}
