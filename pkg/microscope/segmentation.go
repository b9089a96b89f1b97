package microscope

import (
	"context"
	"image/color"

	"github.com/neuroscope/go-neuroscope/pkg/core"
	"github.com/neuroscope/go-neuroscope/pkg/renderer"
	"github.com/neuroscope/go-neuroscope/pkg/scene"
	"github.com/neuroscope/go-neuroscope/pkg/tissue"
)

// Segmentation label colors
var (
	BackgroundColor = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	SomaColor       = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	NeuriteColor    = color.RGBA{R: 0, G: 255, B: 0, A: 255}
)

const segmentationSamples = 16

// Segmentation labels every pixel as background, soma or neurite
type Segmentation struct {
	*base
}

func newSegmentation(opts Options) *Segmentation {
	return &Segmentation{base: newBase(KindSegmentation, opts, 3)}
}

// Capture renders the label image. Tissue plays no part in segmentation.
func (s *Segmentation) Capture(ctx context.Context, model scene.Morphology, _ *tissue.Tissue, tr core.Transform) error {
	return s.capture(ctx, model, tr, func(sc *scene.Scene) (renderer.PixelFunc, error) {
		return s.pixelFunc(sc), nil
	})
}

// pixelFunc casts up to 16 jittered rays straight down from the elevation.
// The first ray that hits anything decides the label, regardless of which
// surface is nearer across samples.
func (s *Segmentation) pixelFunc(sc *scene.Scene) renderer.PixelFunc {
	z0 := s.opts.Elevation
	return func(x, y int) renderer.PixelResult {
		rng := core.NewLCG(core.PixelSeed(x, y, s.opts.Width))
		label := BackgroundColor

		samples := 0
		hit := false
		for samples < segmentationSamples && !hit {
			samples++
			p := s.camera.PlanePoint(x, y, rng.Get2D())
			h := sc.Intersect(core.NewVec3(p.X, p.Y, z0), core.Down)
			if !h.IsHit() {
				continue
			}
			hit = true
			if sc.IsNeurite(h.GeomID) {
				label = NeuriteColor
			} else {
				label = SomaColor
			}
		}

		s.sensor.setRGB(x, y, label)
		return renderer.PixelResult{Samples: samples, Hit: hit}
	}
}
