package d2rgb

import (
	"encoding/json"
	"io"
	"math"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// Options holds every threshold and constant of the calibration pipeline.
type Options struct {
	// edge extraction
	GradIRThreshold     float64 `json:"grad_ir_threshold"`
	GradZThreshold      float64 `json:"grad_z_threshold"`
	GradZMax            float64 `json:"grad_z_max"`
	EdgeThresh4LogicLum float64 `json:"edge_thresh4_logic_lum"`
	Gamma               float64 `json:"gamma"`
	Alpha               float64 `json:"alpha"`
	NumSectionsX        int     `json:"num_sections_x"`
	NumSectionsY        int     `json:"num_sections_y"`

	// motion guard
	DilationSize     int     `json:"dilation_size"`
	GaussSigma       float64 `json:"gauss_sigma"`
	GaussKernelSize  int     `json:"gauss_kernel_size"`
	MoveThreshPixVal float64 `json:"move_thresh_pix_val"`
	// MoveThreshPixNum of 0 means 3e-3 of the color pixel count.
	MoveThreshPixNum float64 `json:"move_thresh_pix_num"`

	// scene validity
	MinEdges                    int     `json:"min_edges"`
	EdgeDistributionMinMaxRatio float64 `json:"edge_distribution_min_max_ratio"`
	MinWeightedEdgePerSection   float64 `json:"min_weighted_edge_per_section"`
	PixPerSectionRGBThreshold   float64 `json:"pix_per_section_rgb_threshold"`
	MinSectionsWithEnoughEdges  int     `json:"min_sections_with_enough_edges"`
	GradDirRatio                float64 `json:"grad_dir_ratio"`
	GradDirRatioPerp            float64 `json:"grad_dir_ratio_perp"`
	RefuseInvalidScene          bool    `json:"refuse_invalid_scene"`

	// optimizer
	MaxIterations      int     `json:"max_iterations"`
	MinCostDelta       float64 `json:"min_cost_delta"`
	InitialDamping     float64 `json:"initial_damping"`
	DampingUp          float64 `json:"damping_up"`
	DampingDown        float64 `json:"damping_down"`
	MaxBackTrackIters  int     `json:"max_back_track_iters"`
	OptimizeIntrinsics bool    `json:"optimize_intrinsics"`

	// result validity
	MaxPixelCorrection float64 `json:"max_pixel_correction"`
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		GradIRThreshold:     3.5,
		GradZThreshold:      25,
		GradZMax:            1000,
		EdgeThresh4LogicLum: 0.1,
		Gamma:               0.98,
		Alpha:               1. / 3.,
		NumSectionsX:        2,
		NumSectionsY:        2,

		DilationSize:     1,
		GaussSigma:       1,
		GaussKernelSize:  5,
		MoveThreshPixVal: 20,

		MinEdges:                    1000,
		EdgeDistributionMinMaxRatio: 0.005,
		MinWeightedEdgePerSection:   50,
		PixPerSectionRGBThreshold:   0.01,
		MinSectionsWithEnoughEdges:  2,
		GradDirRatio:                10,
		GradDirRatioPerp:            1.5,

		MaxIterations:      50,
		MinCostDelta:       1e-5,
		InitialDamping:     1e-3,
		DampingUp:          10,
		DampingDown:        10,
		MaxBackTrackIters:  20,
		OptimizeIntrinsics: true,

		MaxPixelCorrection: 10,
	}
}

// NumSections is the number of cells in the section grid.
func (o Options) NumSections() int {
	return o.NumSectionsX * o.NumSectionsY
}

func (o Options) moveThreshPixNum(colorPixels int) float64 {
	if o.MoveThreshPixNum > 0 {
		return o.MoveThreshPixNum
	}
	return 3e-3 * float64(colorPixels)
}

// Validate returns every problem with the options at once.
func (o Options) Validate() error {
	var errs error
	check := func(ok bool, format string, args ...interface{}) {
		if !ok {
			errs = multierr.Append(errs, errors.Errorf(format, args...))
		}
	}
	check(o.NumSectionsX > 0 && o.NumSectionsY > 0,
		"section grid must be positive, got %dx%d", o.NumSectionsX, o.NumSectionsY)
	check(o.NumSections() <= math.MaxUint8, "too many sections: %d", o.NumSections())
	check(o.GradZMax > 0, "grad_z_max must be positive, got %v", o.GradZMax)
	check(o.EdgeThresh4LogicLum >= 0 && o.EdgeThresh4LogicLum < 1,
		"edge_thresh4_logic_lum must be in [0, 1), got %v", o.EdgeThresh4LogicLum)
	check(o.Gamma >= 0 && o.Gamma < 1, "gamma must be in [0, 1), got %v", o.Gamma)
	check(o.Alpha >= 0 && o.Alpha <= 1, "alpha must be in [0, 1], got %v", o.Alpha)
	check(o.DilationSize >= 0, "dilation_size must not be negative, got %d", o.DilationSize)
	check(o.GaussKernelSize > 0 && o.GaussKernelSize%2 == 1,
		"gauss_kernel_size must be odd and positive, got %d", o.GaussKernelSize)
	check(o.MaxIterations > 0, "max_iterations must be positive, got %d", o.MaxIterations)
	check(o.MinCostDelta >= 0, "min_cost_delta must not be negative, got %v", o.MinCostDelta)
	check(o.InitialDamping > 0, "initial_damping must be positive, got %v", o.InitialDamping)
	check(o.DampingUp > 1, "damping_up must be greater than 1, got %v", o.DampingUp)
	check(o.DampingDown >= 1, "damping_down must be at least 1, got %v", o.DampingDown)
	check(o.MaxBackTrackIters >= 0, "max_back_track_iters must not be negative, got %d", o.MaxBackTrackIters)
	check(o.MaxPixelCorrection > 0, "max_pixel_correction must be positive, got %v", o.MaxPixelCorrection)
	return errs
}

// LoadOptionsFromJSONFile reads a JSON file and overlays it on DefaultOptions.
func LoadOptionsFromJSONFile(jsonPath string) (Options, error) {
	opts := DefaultOptions()
	//nolint:gosec
	jsonFile, err := os.Open(jsonPath)
	if err != nil {
		return opts, errors.Wrap(err, "error opening JSON file")
	}
	defer utils.UncheckedErrorFunc(jsonFile.Close)
	byteValue, err := io.ReadAll(jsonFile)
	if err != nil {
		return opts, errors.Wrap(err, "error reading JSON data")
	}
	if err := json.Unmarshal(byteValue, &opts); err != nil {
		return opts, errors.Wrap(err, "error parsing JSON string")
	}
	return opts, opts.Validate()
}
