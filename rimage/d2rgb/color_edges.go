package d2rgb

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/w407022008/librealsense-2.55.1/rimage"
	"github.com/w407022008/librealsense-2.55.1/utils"
)

// YUYData is the color edge record of the current frame plus the motion guard output.
type YUYData struct {
	Width  int
	Height int

	Image     *mat.Dense
	PrevImage *mat.Dense

	Edges     *mat.Dense
	EdgesIDT  *mat.Dense
	EdgesIDTx *mat.Dense
	EdgesIDTy *mat.Dense

	Directions []uint8
	SectionMap []uint8
	LogicEdges []bool

	SumWeightsPerSection   []float64
	SumWeightsPerDirection []float64
	LogicEdgesPerSection   []int
	PixelsPerSection       []int

	Motion *MotionData
}

// logicEdges marks the pixels whose edge value exceeds ratio times the strongest edge.
func logicEdges(edges *mat.Dense, ratio float64) []bool {
	raw := edges.RawMatrix()
	h, w := edges.Dims()
	mask := make([]bool, w*h)
	maxVal := mat.Max(edges)
	if maxVal <= 0 {
		return mask
	}
	thresh := ratio * maxVal
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			mask[y*w+x] = raw.Data[y*raw.Stride+x] > thresh
		}
	}
	return mask
}

// propagateLine spreads decaying maxima forward then backward along one line.
func propagateLine(get func(i int) float64, set func(i int, v float64), n int, gamma float64) {
	for i := 1; i < n; i++ {
		set(i, math.Max(get(i), gamma*get(i-1)))
	}
	for i := n - 2; i >= 0; i-- {
		set(i, math.Max(get(i), gamma*get(i+1)))
	}
}

// inverseDistanceTransform blends the edge image with its decayed max propagation,
// row by row and then column by column.
func inverseDistanceTransform(edges *mat.Dense, alpha, gamma float64) *mat.Dense {
	h, w := edges.Dims()
	spread := mat.DenseCopyOf(edges)
	raw := spread.RawMatrix()
	utils.ParallelForEachIndex(h, func(y int) {
		row := raw.Data[y*raw.Stride : y*raw.Stride+w]
		propagateLine(func(i int) float64 { return row[i] }, func(i int, v float64) { row[i] = v }, w, gamma)
	})
	utils.ParallelForEachIndex(w, func(x int) {
		propagateLine(
			func(i int) float64 { return raw.Data[i*raw.Stride+x] },
			func(i int, v float64) { raw.Data[i*raw.Stride+x] = v },
			h, gamma)
	})
	idt := mat.NewDense(h, w, nil)
	idt.Apply(func(i, j int, e float64) float64 {
		return alpha*e + (1-alpha)*raw.Data[i*raw.Stride+j]
	}, edges)
	return idt
}

func extractColorEdges(cur, prev *mat.Dense, opts Options) (*YUYData, error) {
	h, w := cur.Dims()
	gx, gy := rimage.SobelGradients(cur)
	edges := rimage.GradientMagnitude(gx, gy)
	idt := inverseDistanceTransform(edges, opts.Alpha, opts.Gamma)
	idtx, idty := rimage.CentralDifferences(idt)

	directions := make([]uint8, w*h)
	rawGx, rawGy := gx.RawMatrix(), gy.RawMatrix()
	utils.ParallelForEachIndex(w*h, func(i int) {
		x, y := i%w, i/w
		directions[i] = quantizeDirection(rawGx.Data[y*rawGx.Stride+x], rawGy.Data[y*rawGy.Stride+x])
	})

	sectionMap := buildSectionMap(w, h, opts.NumSectionsX, opts.NumSectionsY)
	logic := logicEdges(edges, opts.EdgeThresh4LogicLum)
	logicWeights := make([]float64, w*h)
	rawEdges := edges.RawMatrix()
	for i, isEdge := range logic {
		if isEdge {
			logicWeights[i] = rawEdges.Data[(i/w)*rawEdges.Stride+i%w]
		}
	}
	all := make([]bool, w*h)
	for i := range all {
		all[i] = true
	}

	motion, err := detectMotion(cur, prev, opts)
	if err != nil {
		return nil, err
	}
	return &YUYData{
		Width:                  w,
		Height:                 h,
		Image:                  cur,
		PrevImage:              prev,
		Edges:                  edges,
		EdgesIDT:               idt,
		EdgesIDTx:              idtx,
		EdgesIDTy:              idty,
		Directions:             directions,
		SectionMap:             sectionMap,
		LogicEdges:             logic,
		SumWeightsPerSection:   sumByBin(sectionMap, logicWeights, opts.NumSections()),
		SumWeightsPerDirection: sumByBin(directions, logicWeights, numDirections),
		LogicEdgesPerSection:   countByBin(sectionMap, logic, opts.NumSections()),
		PixelsPerSection:       countByBin(sectionMap, all, opts.NumSections()),
		Motion:                 motion,
	}, nil
}
