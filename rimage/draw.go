package rimage

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/golang/geo/r2"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font/gofont/goregular"
	"gonum.org/v1/gonum/mat"
)

var font *truetype.Font

// init sets up the fonts we want to use.
func init() {
	var err error
	font, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

// Font returns the font we use for drawing.
func Font() *truetype.Font {
	return font
}

// DrawString writes a string to the given context at a particular point.
func DrawString(dc *gg.Context, text string, p image.Point, c color.Color, size float64) {
	dc.SetFontFace(truetype.NewFace(Font(), &truetype.Options{Size: size}))
	dc.SetColor(c)
	dc.DrawStringWrapped(text, float64(p.X), float64(p.Y), 0, 0, float64(dc.Width()), 1, 0)
}

// DirectionColor returns the color of direction bin dir when numBins bins cover all orientations.
func DirectionColor(dir uint8, numBins int) color.Color {
	if numBins <= 0 {
		return color.White
	}
	return colorful.Hsv(360*float64(dir)/float64(numBins), 1, 1)
}

// DirectionsToImage paints every pixel set in mask with the color of its direction bin.
// The rest of the image is black.
func DirectionsToImage(dirs []uint8, mask []bool, width, height, numBins int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.Black, image.Point{}, draw.Src)
	for i, on := range mask {
		if on {
			img.Set(i%width, i/width, DirectionColor(dirs[i], numBins))
		}
	}
	return img
}

// PointSet is a group of image points drawn with one color.
type PointSet struct {
	Points []r2.Point
	Color  color.Color
}

// DrawPointSets renders background as gray and draws each set of points on top of it in order,
// followed by an optional label in the top left corner.
func DrawPointSets(background *mat.Dense, sets []PointSet, label string) image.Image {
	dc := gg.NewContextForImage(DenseToGray(background))
	for _, set := range sets {
		dc.SetColor(set.Color)
		for _, p := range set.Points {
			dc.DrawPoint(p.X, p.Y, 1)
		}
		dc.Fill()
	}
	if label != "" {
		DrawString(dc, label, image.Point{X: 4, Y: 4}, color.White, 12)
	}
	return dc.Image()
}
