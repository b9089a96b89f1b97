package imageio

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const annotationMargin = 6

// Annotation is burned into the bottom left corner of an image
type Annotation struct {
	Label     string // Text under the scale bar, empty for none
	BarPixels int    // Scale bar length in pixels, 0 for none
}

// Annotate returns an RGBA copy of img with a scale bar and label drawn in white
func Annotate(img image.Image, a Annotation) *image.RGBA {
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, img, bounds.Min, draw.Src)

	face := basicfont.Face7x13
	baseline := bounds.Max.Y - annotationMargin - face.Descent
	if a.Label != "" {
		drawer := &font.Drawer{
			Dst:  out,
			Src:  image.NewUniform(color.White),
			Face: face,
			Dot:  fixed.P(bounds.Min.X+annotationMargin, baseline),
		}
		drawer.DrawString(a.Label)
		baseline -= face.Ascent + face.Descent
	}

	if a.BarPixels > 0 {
		bar := image.Rect(
			bounds.Min.X+annotationMargin, baseline-3,
			bounds.Min.X+annotationMargin+a.BarPixels, baseline,
		).Intersect(bounds)
		draw.Draw(out, bar, image.NewUniform(color.White), image.Point{}, draw.Src)
	}

	return out
}
