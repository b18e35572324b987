package d2rgb

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/stat"
)

// ResultReport is the outcome of the post-optimization checks.
type ResultReport struct {
	// CostDiffPerSection is each section's score under the final calibration minus its score
	// under the initial one. Positive means edges moved onto stronger color edges.
	CostDiffPerSection []float64
	CorrectionInPixels float64
	Reasons            []error
}

// Valid reports whether the calibration is usable.
func (r *ResultReport) Valid() bool {
	return len(r.Reasons) == 0
}

// Err returns the combined reasons the result was rejected, or nil.
func (r *ResultReport) Err() error {
	return multierr.Combine(r.Reasons...)
}

// ResultReport checks the calibration of the last Optimize call.
func (o *Optimizer) ResultReport() (*ResultReport, error) {
	if o.iterations == 0 || o.z == nil || o.yuy == nil {
		return nil, errors.Wrap(ErrNoData, "optimize has not run")
	}
	if o.result != nil {
		return o.result, nil
	}
	cf := o.costFunction()
	report := &ResultReport{}

	initial := cf.evaluate(o.initial)
	final := cf.evaluate(o.calib)
	before := cf.sectionScores(initial, o.opts.NumSections())
	after := cf.sectionScores(final, o.opts.NumSections())
	report.CostDiffPerSection = make([]float64, len(before))
	for s := range before {
		report.CostDiffPerSection[s] = after[s] - before[s]
		if report.CostDiffPerSection[s] < 0 {
			report.Reasons = append(report.Reasons,
				errors.Errorf("section %d got worse by %v", s, -report.CostDiffPerSection[s]))
		}
	}

	report.CorrectionInPixels = correctionInPixels(initial, final)
	if !(report.CorrectionInPixels <= o.opts.MaxPixelCorrection) {
		report.Reasons = append(report.Reasons, errors.Errorf("pixel correction %v exceeds %v",
			report.CorrectionInPixels, o.opts.MaxPixelCorrection))
	}
	if !o.calib.IsFinite() {
		report.Reasons = append(report.Reasons, errors.New("calibration is not finite"))
	}
	if report.Valid() {
		o.logger.Infow("calibration result is valid", "correction_in_pixels", report.CorrectionInPixels)
	} else {
		o.logger.Warnw("calibration result is not valid", "reasons", report.Err().Error())
	}
	o.result = report
	return report, nil
}

// correctionInPixels is the mean displacement of the edges that project into the color
// image under both calibrations.
func correctionInPixels(initial, final *evaluation) float64 {
	var dists []float64
	for i := range initial.uv {
		if initial.valid[i] && final.valid[i] {
			dists = append(dists, final.uv[i].Sub(initial.uv[i]).Norm())
		}
	}
	if len(dists) == 0 {
		return 0
	}
	return stat.Mean(dists, nil)
}

// IsValidResults is false when any result check fails or Optimize has not run.
func (o *Optimizer) IsValidResults() bool {
	report, err := o.ResultReport()
	return err == nil && report.Valid()
}

// CalcCorrectionInPixels returns the mean pixel displacement, 0 before Optimize.
func (o *Optimizer) CalcCorrectionInPixels() float64 {
	report, err := o.ResultReport()
	if err != nil {
		return 0
	}
	return report.CorrectionInPixels
}

// CostDiffPerSection returns the per-section score change, nil before Optimize.
func (o *Optimizer) CostDiffPerSection() []float64 {
	report, err := o.ResultReport()
	if err != nil {
		return nil
	}
	return report.CostDiffPerSection
}
