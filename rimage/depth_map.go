package rimage

import (
	"image"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Depth is the raw value of a depth sample, in the sensor's depth units.
type Depth uint16

// MaxDepth is the max allowed value for a Depth.
const MaxDepth = Depth(65535)

// DepthMap is a row-major buffer of depth samples. A zero sample means "no depth".
type DepthMap struct {
	width  int
	height int

	data []Depth
}

// NewEmptyDepthMap returns an all-zero depth map.
func NewEmptyDepthMap(width, height int) *DepthMap {
	return &DepthMap{width, height, make([]Depth, width*height)}
}

// NewDepthMapFromBuffer wraps raw 16 bit samples. The buffer length must equal width*height.
func NewDepthMapFromBuffer(buf []uint16, width, height int) (*DepthMap, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid depth map size (%d, %d)", width, height)
	}
	if len(buf) != width*height {
		return nil, errors.Errorf("depth buffer has %d samples, expected %dx%d=%d",
			len(buf), width, height, width*height)
	}
	dm := NewEmptyDepthMap(width, height)
	for i, v := range buf {
		dm.data[i] = Depth(v)
	}
	return dm, nil
}

// Width returns the width of the depth map.
func (dm *DepthMap) Width() int {
	return dm.width
}

// Height returns the height of the depth map.
func (dm *DepthMap) Height() int {
	return dm.height
}

// Bounds returns the rectangle dimensions of the image.
func (dm *DepthMap) Bounds() image.Rectangle {
	return image.Rect(0, 0, dm.width, dm.height)
}

// In reports whether (x, y) is inside the map.
func (dm *DepthMap) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < dm.width && y < dm.height
}

// GetDepth returns the sample at (x, y).
func (dm *DepthMap) GetDepth(x, y int) Depth {
	return dm.data[y*dm.width+x]
}

// Set stores a sample at (x, y).
func (dm *DepthMap) Set(x, y int, val Depth) {
	dm.data[y*dm.width+x] = val
}

// ToDense scales every sample by scale (e.g. depth units to millimetres).
func (dm *DepthMap) ToDense(scale float64) *mat.Dense {
	out := make([]float64, len(dm.data))
	for i, v := range dm.data {
		out[i] = float64(v) * scale
	}
	return mat.NewDense(dm.height, dm.width, out)
}

// Samples returns a copy of the raw samples in row-major order.
func (dm *DepthMap) Samples() []uint16 {
	out := make([]uint16, len(dm.data))
	for i, v := range dm.data {
		out[i] = uint16(v)
	}
	return out
}
