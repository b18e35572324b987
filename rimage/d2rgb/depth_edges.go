package d2rgb

import (
	"image"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"

	"github.com/w407022008/librealsense-2.55.1/rimage"
	"github.com/w407022008/librealsense-2.55.1/rimage/transform"
	"github.com/w407022008/librealsense-2.55.1/utils"
)

// ZData is the depth edge record. Dense images are Height x Width; the per-edge slices all
// have one entry per classified edge, ordered by pixel index.
type ZData struct {
	Width  int
	Height int

	// Depth is in millimetres.
	Depth           *mat.Dense
	Edges           *mat.Dense
	SuppressedEdges *mat.Dense
	Directions      []uint8
	SectionMap      []uint8

	EdgePixels     []image.Point
	EdgeDirections []uint8
	EdgeSections   []uint8
	SubpixelsX     []float64
	SubpixelsY     []float64
	Weights        []float64
	Closest        []float64
	Vertices       []r3.Vector

	SumWeightsPerSection   []float64
	SumWeightsPerDirection []float64
}

// NumEdges is the number of classified depth edges.
func (z *ZData) NumEdges() int {
	return len(z.Weights)
}

// IRData is the infrared edge record.
type IRData struct {
	Width  int
	Height int
	Image  *mat.Dense
	Edges  *mat.Dense
}

func extractIREdges(ir *mat.Dense) *IRData {
	h, w := ir.Dims()
	return &IRData{Width: w, Height: h, Image: ir, Edges: rimage.SobelMagnitude(ir)}
}

// parabolaOffset is the vertex of the parabola through (-1, em), (0, e0), (1, ep).
func parabolaOffset(em, e0, ep float64) float64 {
	denom := em - 2*e0 + ep
	if denom == 0 {
		return 0
	}
	return utils.ClampF64(0.5*(em-ep)/denom, -0.5, 0.5)
}

type depthEdgeCandidate struct {
	isEdge  bool
	offset  float64
	weight  float64
	closest float64
}

func extractDepthEdges(
	dm *rimage.DepthMap,
	depthScaleMM float64,
	intrinsics *transform.PinholeCameraIntrinsics,
	irEdges *mat.Dense,
	opts Options,
) *ZData {
	w, h := dm.Width(), dm.Height()
	depth := dm.ToDense(depthScaleMM)
	gx, gy := rimage.SobelGradients(depth)
	edges := rimage.GradientMagnitude(gx, gy)

	z := depth.RawMatrix()
	e := edges.RawMatrix()
	ir := irEdges.RawMatrix()
	rawGx, rawGy := gx.RawMatrix(), gy.RawMatrix()
	at := func(m blas64.General, p image.Point) float64 { return m.Data[p.Y*m.Stride+p.X] }

	directions := make([]uint8, w*h)
	candidates := make([]depthEdgeCandidate, w*h)
	utils.ParallelForEachPixel(image.Point{w, h}, func(x, y int) {
		i := y*w + x
		p := image.Point{x, y}
		dir := quantizeDirection(at(rawGx, p), at(rawGy, p))
		directions[i] = dir
		if x < 2 || y < 2 || x >= w-2 || y >= h-2 {
			return
		}
		step := directionSteps[dir]
		prev, next := p.Sub(step), p.Add(step)
		zPrev, z0, zNext := at(z, prev), at(z, p), at(z, next)
		if z0 <= 0 || zPrev <= 0 || zNext <= 0 {
			return
		}
		e0 := at(e, p)
		if e0 <= opts.GradZThreshold {
			return
		}
		em, ep := at(e, prev), at(e, next)
		if e0 < em || e0 <= ep {
			return
		}
		if math.Max(at(ir, prev), math.Max(at(ir, p), at(ir, next))) <= opts.GradIRThreshold {
			return
		}
		valid := 0
		for yy := y - 1; yy <= y+1; yy++ {
			for xx := x - 1; xx <= x+1; xx++ {
				if at(z, image.Point{xx, yy}) > 0 {
					valid++
				}
			}
		}
		candidates[i] = depthEdgeCandidate{
			isEdge:  true,
			offset:  parabolaOffset(em, e0, ep),
			weight:  math.Min(e0, opts.GradZMax) * float64(valid) / 9,
			closest: math.Min(zPrev, zNext),
		}
	})

	sectionMap := buildSectionMap(w, h, opts.NumSectionsX, opts.NumSectionsY)
	zd := &ZData{
		Width:           w,
		Height:          h,
		Depth:           depth,
		Edges:           edges,
		SuppressedEdges: mat.NewDense(h, w, nil),
		Directions:      directions,
		SectionMap:      sectionMap,
	}
	suppressed := zd.SuppressedEdges.RawMatrix()
	for i, c := range candidates {
		if !c.isEdge {
			continue
		}
		x, y := i%w, i/w
		dir := directions[i]
		step := directionSteps[dir]
		xs := float64(x) + c.offset*float64(step.X)
		ys := float64(y) + c.offset*float64(step.Y)
		vx, vy, vz := intrinsics.PixelToPoint(xs, ys, c.closest)

		suppressed.Data[y*suppressed.Stride+x] = e.Data[y*e.Stride+x]
		zd.EdgePixels = append(zd.EdgePixels, image.Point{x, y})
		zd.EdgeDirections = append(zd.EdgeDirections, dir)
		zd.EdgeSections = append(zd.EdgeSections, sectionMap[i])
		zd.SubpixelsX = append(zd.SubpixelsX, xs)
		zd.SubpixelsY = append(zd.SubpixelsY, ys)
		zd.Weights = append(zd.Weights, c.weight)
		zd.Closest = append(zd.Closest, c.closest)
		zd.Vertices = append(zd.Vertices, r3.Vector{X: vx, Y: vy, Z: vz})
	}
	zd.SumWeightsPerSection = sumByBin(zd.EdgeSections, zd.Weights, opts.NumSections())
	zd.SumWeightsPerDirection = sumByBin(zd.EdgeDirections, zd.Weights, numDirections)
	return zd
}
