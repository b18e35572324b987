package d2rgb

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/w407022008/librealsense-2.55.1/rimage"
)

// AlignedDepth registers the depth frame into the color image with the current calibration.
// Samples are millimetres along the color camera axis. A color pixel hit by several depth
// pixels keeps the closest sample; pixels hit by none stay zero.
func (o *Optimizer) AlignedDepth() (*rimage.DepthMap, error) {
	if o.z == nil {
		return nil, errors.Wrap(ErrNoData, "depth data must be set")
	}
	model := o.costFunction().model(o.calib)
	ext := o.calib.Extrinsics()
	depthIntrinsics := o.depthModel.PinholeCameraIntrinsics

	out := rimage.NewEmptyDepthMap(o.calib.Width, o.calib.Height)
	for y := 0; y < o.z.Height; y++ {
		for x := 0; x < o.z.Width; x++ {
			d := o.z.Depth.At(y, x)
			if d <= 0 {
				continue
			}
			px, py, pz := depthIntrinsics.PixelToPoint(float64(x), float64(y), d)
			pc := ext.Apply(r3.Vector{X: px, Y: py, Z: pz})
			uv, ok := model.ProjectPoint(pc)
			if !ok || pc.Z > float64(rimage.MaxDepth) {
				continue
			}
			u, v := int(math.Round(uv.X)), int(math.Round(uv.Y))
			if !out.In(u, v) {
				continue
			}
			val := rimage.Depth(math.Round(pc.Z))
			if cur := out.GetDepth(u, v); cur == 0 || val < cur {
				out.Set(u, v, val)
			}
		}
	}
	return out, nil
}

// ProjectedEdges returns the color pixel of every depth edge that c projects inside the color
// image, in edge order.
func (o *Optimizer) ProjectedEdges(c Calibration) ([]r2.Point, error) {
	if o.z == nil {
		return nil, errors.Wrap(ErrNoData, "depth data must be set")
	}
	uv, valid := o.costFunction().project(c)
	out := make([]r2.Point, 0, len(uv))
	for i, ok := range valid {
		if ok {
			out = append(out, uv[i])
		}
	}
	return out, nil
}
