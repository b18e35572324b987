// Package cli contains the d2rgb command line tool.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"
)

// Flags.
const (
	flagDebug        = "debug"
	flagCameraInfo   = "camera-info"
	flagCameraParams = "camera-params"
	flagOptions      = "options"
	flagRGB          = "rgb"
	flagRGBPrev      = "rgb-prev"
	flagIR           = "ir"
	flagDepth        = "depth"
	flagPlot         = "plot"
	flagDump         = "dump"
	flagDebugImages  = "debug-images"
	flagRefuse       = "refuse-invalid-scene"
	flagOut          = "out"
)

var app = &cli.App{
	Name:            "d2rgb",
	Usage:           "align a depth sensor with a color sensor from one set of frames",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    flagDebug,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
	},
	Commands: []*cli.Command{
		{
			Name:      "run",
			Usage:     "run the calibration on raw frames",
			UsageText: "d2rgb run --camera-info <FILE> --rgb <FILE> --rgb-prev <FILE> --ir <FILE> --depth <FILE> [other options]",
			Flags: []cli.Flag{
				&cli.PathFlag{
					Name:  flagCameraInfo,
					Usage: "camera info JSON `FILE`",
				},
				&cli.PathFlag{
					Name:  flagCameraParams,
					Usage: "binary camera params `FILE`, used when no camera info is given",
				},
				&cli.PathFlag{
					Name:  flagOptions,
					Usage: "options JSON `FILE` overriding the defaults",
				},
				&cli.PathFlag{
					Name:     flagRGB,
					Required: true,
					Usage:    "YUY2 color frame",
				},
				&cli.PathFlag{
					Name:     flagRGBPrev,
					Required: true,
					Usage:    "YUY2 color frame captured just before the color frame",
				},
				&cli.PathFlag{
					Name:     flagIR,
					Required: true,
					Usage:    "8 bit infrared frame",
				},
				&cli.PathFlag{
					Name:     flagDepth,
					Required: true,
					Usage:    "16 bit little-endian depth frame",
				},
				&cli.PathFlag{
					Name:  flagPlot,
					Usage: "write a cost per iteration chart to `FILE` (png, svg or pdf)",
				},
				&cli.PathFlag{
					Name:  flagDump,
					Usage: "write the final calibration dump to `FILE`",
				},
				&cli.PathFlag{
					Name:  flagDebugImages,
					Usage: "write edge images into `DIR`",
				},
				&cli.BoolFlag{
					Name:  flagRefuse,
					Usage: "do not optimize when the scene is not valid",
				},
			},
			Action: RunAction,
		},
		{
			Name:      "convert-params",
			Usage:     "convert a binary camera params record to camera info JSON",
			ArgsUsage: "<params file>",
			Flags: []cli.Flag{
				&cli.PathFlag{
					Name:  flagOut,
					Usage: "write the JSON to `FILE` instead of stdout",
				},
			},
			Action: ConvertParamsAction,
		},
	},
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
