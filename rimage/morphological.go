package rimage

import (
	"image"

	"github.com/pkg/errors"

	"github.com/w407022008/librealsense-2.55.1/utils"
)

// DilateMask dilates a binary mask with a square of the given radius.
func DilateMask(mask []bool, width, height, radius int) ([]bool, error) {
	if len(mask) != width*height {
		return nil, errors.Errorf("mask has %d pixels, expected %dx%d", len(mask), width, height)
	}
	if radius < 0 {
		return nil, errors.Errorf("dilation radius must not be negative, got %d", radius)
	}
	out := make([]bool, len(mask))
	utils.ParallelForEachPixel(image.Point{width, height}, func(x, y int) {
		for yy := utils.MaxInt(0, y-radius); yy <= utils.MinInt(height-1, y+radius); yy++ {
			for xx := utils.MaxInt(0, x-radius); xx <= utils.MinInt(width-1, x+radius); xx++ {
				if mask[yy*width+xx] {
					out[y*width+x] = true
					return
				}
			}
		}
	})
	return out, nil
}
