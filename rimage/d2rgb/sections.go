package d2rgb

import (
	"image"
	"math"

	"github.com/samber/lo"

	"github.com/w407022008/librealsense-2.55.1/utils"
)

// numDirections is the number of gradient direction bins: 0, 45, 90 and 135 degrees.
const numDirections = 4

// directionSteps is the pixel step along each direction bin.
var directionSteps = [numDirections]image.Point{{1, 0}, {1, 1}, {0, 1}, {-1, 1}}

// quantizeDirection maps a gradient to the nearest 45 degree bin, folded modulo 180 degrees.
func quantizeDirection(gx, gy float64) uint8 {
	deg := utils.RadToDeg(math.Atan2(gy, gx))
	bin := int(math.Round(deg/45)) % numDirections
	if bin < 0 {
		bin += numDirections
	}
	return uint8(bin)
}

// sectionID returns the grid cell of (x, y). Cells are numbered column by column.
func sectionID(x, y, width, height, nx, ny int) uint8 {
	sx := x * nx / width
	sy := y * ny / height
	return uint8(sx*ny + sy)
}

// buildSectionMap assigns every pixel of a width x height image to its grid cell.
func buildSectionMap(width, height, nx, ny int) []uint8 {
	sections := make([]uint8, width*height)
	utils.ParallelForEachPixel(image.Point{width, height}, func(x, y int) {
		sections[y*width+x] = sectionID(x, y, width, height, nx, ny)
	})
	return sections
}

// sumByBin adds up weights grouped by bin, in index order.
func sumByBin(bins []uint8, weights []float64, numBins int) []float64 {
	sums := make([]float64, numBins)
	for i, b := range bins {
		sums[b] += weights[i]
	}
	return sums
}

// countByBin counts the set entries of mask per bin.
func countByBin(bins []uint8, mask []bool, numBins int) []int {
	counts := make([]int, numBins)
	for i, b := range bins {
		if mask[i] {
			counts[b]++
		}
	}
	return counts
}

// minMaxRatio is min/max of the values, 0 when the maximum is not positive.
func minMaxRatio(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	maxVal := lo.Max(values)
	if maxVal <= 0 {
		return 0
	}
	return lo.Min(values) / maxVal
}
