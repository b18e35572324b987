package rimage

import (
	"image"
	"image/color"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// GrayBufferToDense converts a row-major 8 bit luminance buffer to floats.
func GrayBufferToDense(buf []byte, width, height int) (*mat.Dense, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid image size (%d, %d)", width, height)
	}
	if len(buf) != width*height {
		return nil, errors.Errorf("gray buffer has %d pixels, expected %dx%d=%d",
			len(buf), width, height, width*height)
	}
	data := make([]float64, len(buf))
	for i, v := range buf {
		data[i] = float64(v)
	}
	return mat.NewDense(height, width, data), nil
}

// YUY2ToLuminance extracts the Y channel of a packed YUY2 (Y0 U Y1 V) frame.
func YUY2ToLuminance(buf []byte, width, height int) ([]byte, error) {
	if len(buf) != 2*width*height {
		return nil, errors.Errorf("YUY2 buffer has %d bytes, expected %d for %dx%d",
			len(buf), 2*width*height, width, height)
	}
	lum := make([]byte, width*height)
	for i := range lum {
		lum[i] = buf[2*i]
	}
	return lum, nil
}

// DenseToGray renders m as an 8 bit image, linearly mapping [min, max] to [0, 255].
// It is meant for debug output.
func DenseToGray(m *mat.Dense) *image.Gray {
	h, w := m.Dims()
	img := image.NewGray(image.Rect(0, 0, w, h))
	lo, hi := mat.Min(m), mat.Max(m)
	scale := 0.
	if hi > lo {
		scale = 255 / (hi - lo)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{uint8(math.Round((m.At(y, x) - lo) * scale))})
		}
	}
	return img
}

// MaskToDense converts a boolean mask to a 0/1 float image.
func MaskToDense(mask []bool, width, height int) *mat.Dense {
	data := make([]float64, width*height)
	for i, v := range mask {
		if v {
			data[i] = 1
		}
	}
	return mat.NewDense(height, width, data)
}
