package cli

import (
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// writeCostPlot charts the cost of every iteration. The format follows the file extension.
func writeCostPlot(path string, costs []float64) error {
	if len(costs) == 0 {
		return errors.New("no costs to plot")
	}
	p := plot.New()
	p.Title.Text = "Calibration cost"
	p.X.Label.Text = "Iteration"
	p.Y.Label.Text = "Cost"

	pts := make(plotter.XYs, len(costs))
	for i, c := range costs {
		pts[i] = plotter.XY{X: float64(i), Y: c}
	}
	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return err
	}
	line.Width = vg.Points(1)
	points.GlyphStyle.Radius = vg.Points(2)
	p.Add(line, points, plotter.NewGrid())

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "could not save plot %q", path)
	}
	return nil
}
