package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/w407022008/librealsense-2.55.1/logging"
	"github.com/w407022008/librealsense-2.55.1/rimage"
	"github.com/w407022008/librealsense-2.55.1/rimage/d2rgb"
)

func newLogger(c *cli.Context) logging.Logger {
	if c.Bool(flagDebug) {
		return logging.NewDebugLogger("d2rgb")
	}
	return logging.NewLogger("d2rgb")
}

func loadCameraInfo(c *cli.Context) (*d2rgb.CameraInfo, error) {
	if path := c.Path(flagCameraInfo); path != "" {
		return d2rgb.LoadCameraInfoFromJSONFile(path)
	}
	if path := c.Path(flagCameraParams); path != "" {
		params, err := d2rgb.ReadCameraParamsFile(path)
		if err != nil {
			return nil, err
		}
		info := d2rgb.CameraInfoFromParams(params)
		if err := info.Validate(); err != nil {
			return nil, err
		}
		return &info, nil
	}
	return nil, errors.Errorf("one of --%s or --%s is required", flagCameraInfo, flagCameraParams)
}

func loadOptions(c *cli.Context) (d2rgb.Options, error) {
	opts := d2rgb.DefaultOptions()
	if path := c.Path(flagOptions); path != "" {
		var err error
		if opts, err = d2rgb.LoadOptionsFromJSONFile(path); err != nil {
			return opts, err
		}
	}
	if c.IsSet(flagRefuse) {
		opts.RefuseInvalidScene = c.Bool(flagRefuse)
	}
	return opts, nil
}

func readFrames(c *cli.Context, info *d2rgb.CameraInfo) (d2rgb.Frames, error) {
	var frames d2rgb.Frames
	var err error
	if frames.Color, err = rimage.ReadRawFile(c.Path(flagRGB), info.RGB.Width, info.RGB.Height, 2); err != nil {
		return frames, err
	}
	if frames.PrevColor, err = rimage.ReadRawFile(c.Path(flagRGBPrev), info.RGB.Width, info.RGB.Height, 2); err != nil {
		return frames, err
	}
	if frames.IR, err = rimage.ReadRawFile(c.Path(flagIR), info.Z.Width, info.Z.Height, 1); err != nil {
		return frames, err
	}
	depth, err := rimage.ReadRawDepthFile(c.Path(flagDepth), info.Z.Width, info.Z.Height)
	if err != nil {
		return frames, err
	}
	frames.Depth = depth.Samples()
	return frames, nil
}

// RunAction is the corresponding Action for 'run'.
func RunAction(c *cli.Context) error {
	logger := newLogger(c)
	info, err := loadCameraInfo(c)
	if err != nil {
		return errors.Wrap(err, "could not load camera info")
	}
	opts, err := loadOptions(c)
	if err != nil {
		return errors.Wrap(err, "could not load options")
	}
	frames, err := readFrames(c, info)
	if err != nil {
		return err
	}

	o, err := d2rgb.NewOptimizer(*info, opts, logger)
	if err != nil {
		return err
	}
	if err := o.SetFrames(c.Context, frames); err != nil {
		return err
	}
	scene, err := o.SceneReport()
	if err != nil {
		return err
	}
	printf(c.App.Writer, "depth edges: %d", scene.NumEdges)
	if scene.Valid() {
		printf(c.App.Writer, "scene is valid")
	} else {
		printf(c.App.Writer, "scene is not valid: %v", scene.Err())
	}

	if dir := c.Path(flagDebugImages); dir != "" {
		if err := writeDebugImages(c.Context, dir, o); err != nil {
			return err
		}
	}

	var costs []float64
	n, err := o.Optimize(c.Context, func(r d2rgb.IterationRecord) {
		costs = append(costs, r.Cost)
	})
	if err != nil {
		return errors.Wrapf(err, "optimization stopped after %d iterations", n)
	}
	costs = append(costs, o.Cost())
	printf(c.App.Writer, "%d iterations, %s, cost %v", n, o.State(), o.Cost())

	calib, err := json.MarshalIndent(o.Calibration(), "", "  ")
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s", calib)

	result, err := o.ResultReport()
	if err != nil {
		return err
	}
	printf(c.App.Writer, "correction: %v pixels", result.CorrectionInPixels)
	if result.Valid() {
		printf(c.App.Writer, "calibration is valid")
	} else {
		printf(c.App.Writer, "calibration is not valid: %v", result.Err())
	}

	printf(c.App.Writer, "%s", sectionTable(scene, o.ZData(), o.YUYData(), result))

	if dir := c.Path(flagDebugImages); dir != "" {
		aligned, err := o.AlignedDepth()
		if err != nil {
			return err
		}
		if err := rimage.WriteDensePNG(aligned.ToDense(1), filepath.Join(dir, "aligned_depth.png")); err != nil {
			return err
		}
		if err := writeProjectionOverlay(filepath.Join(dir, "projections.png"), o); err != nil {
			return err
		}
	}
	if path := c.Path(flagPlot); path != "" {
		if err := writeCostPlot(path, costs); err != nil {
			return err
		}
	}
	if path := c.Path(flagDump); path != "" {
		if err := d2rgb.WriteCalibrationFile(path, o.Calibration(), o.Cost()); err != nil {
			return err
		}
	}
	return nil
}

func writeDebugImages(ctx context.Context, dir string, o *d2rgb.Optimizer) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return errors.Wrapf(err, "could not create %q", dir)
	}
	z, ir, yuy := o.ZData(), o.IRData(), o.YUYData()
	numBins := len(z.SumWeightsPerDirection)
	zMask := make([]bool, z.Width*z.Height)
	for _, p := range z.EdgePixels {
		zMask[p.Y*z.Width+p.X] = true
	}
	images := map[string]image.Image{
		"z_edges.png":         rimage.DenseToGray(z.Edges),
		"z_suppressed.png":    rimage.DenseToGray(z.SuppressedEdges),
		"z_directions.png":    rimage.DirectionsToImage(z.Directions, zMask, z.Width, z.Height, numBins),
		"ir_edges.png":        rimage.DenseToGray(ir.Edges),
		"yuy_edges.png":       rimage.DenseToGray(yuy.Edges),
		"yuy_idt.png":         rimage.DenseToGray(yuy.EdgesIDT),
		"yuy_logic_edges.png": rimage.DenseToGray(rimage.MaskToDense(yuy.LogicEdges, yuy.Width, yuy.Height)),
		"yuy_directions.png":  rimage.DirectionsToImage(yuy.Directions, yuy.LogicEdges, yuy.Width, yuy.Height, numBins),
		"move_suspect.png":    rimage.DenseToGray(rimage.MaskToDense(yuy.Motion.MoveSuspect, yuy.Width, yuy.Height)),
	}
	return writeImages(ctx, dir, images)
}

// writeProjectionOverlay draws the depth edges projected with the initial (red) and the final
// (green) calibration over the color frame.
func writeProjectionOverlay(path string, o *d2rgb.Optimizer) error {
	initial, err := o.ProjectedEdges(o.InitialCalibration())
	if err != nil {
		return err
	}
	final, err := o.ProjectedEdges(o.Calibration())
	if err != nil {
		return err
	}
	img := rimage.DrawPointSets(o.YUYData().Image, []rimage.PointSet{
		{Points: initial, Color: color.RGBA{R: 255, A: 255}},
		{Points: final, Color: color.RGBA{G: 255, A: 255}},
	}, fmt.Sprintf("%s, cost %.4f", o.State(), o.Cost()))
	return rimage.WriteImagePNG(img, path)
}

func writeImages(ctx context.Context, dir string, images map[string]image.Image) error {
	errs, ctx := errgroup.WithContext(ctx)
	for name, img := range images {
		name, img := name, img
		errs.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return rimage.WriteImagePNG(img, filepath.Join(dir, name))
		})
	}
	return errs.Wait()
}

func sectionTable(scene *d2rgb.SceneReport, z *d2rgb.ZData, yuy *d2rgb.YUYData, result *d2rgb.ResultReport) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Section", "Depth weight", "Color weight", "Logic edges", "Cost diff"})
	for s := range z.SumWeightsPerSection {
		diff := ""
		if result != nil && s < len(result.CostDiffPerSection) {
			diff = fmt.Sprintf("%.5f", result.CostDiffPerSection[s])
		}
		t.AppendRow(table.Row{
			s,
			fmt.Sprintf("%.1f", z.SumWeightsPerSection[s]),
			fmt.Sprintf("%.1f", yuy.SumWeightsPerSection[s]),
			yuy.LogicEdgesPerSection[s],
			diff,
		})
	}
	t.AppendFooter(table.Row{"", "", "", "moved", scene.MoveSuspectCount})
	return t.Render()
}

// ConvertParamsAction is the corresponding Action for 'convert-params'.
func ConvertParamsAction(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return errors.New("a camera params file is required")
	}
	params, err := d2rgb.ReadCameraParamsFile(path)
	if err != nil {
		return err
	}
	info := d2rgb.CameraInfoFromParams(params)
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	if out := c.Path(flagOut); out != "" {
		return errors.Wrapf(os.WriteFile(out, data, 0o600), "could not write %q", out)
	}
	printf(c.App.Writer, "%s", data)
	return nil
}
