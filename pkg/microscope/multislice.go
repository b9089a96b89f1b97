package microscope

import (
	"context"
	"fmt"

	"github.com/chewxy/math32"

	"github.com/neuroscope/go-neuroscope/pkg/core"
	"github.com/neuroscope/go-neuroscope/pkg/renderer"
	"github.com/neuroscope/go-neuroscope/pkg/scene"
	"github.com/neuroscope/go-neuroscope/pkg/tissue"
)

const sliceSamples = 32

// MaxSlices bounds the focal planes of one capture
const MaxSlices = 4096

// fwhmToSigma converts a Gaussian full width at half maximum to sigma
var fwhmToSigma = 1 / (2 * math32.Sqrt(2*math32.Log(2)))

// MultiSlice steps a focal plane down through the scene and keeps, per
// pixel, the brightest slice. Surfaces are weighted by a Gaussian axial
// point spread function around each focal plane.
type MultiSlice struct {
	*base
}

func newMultiSlice(opts Options) *MultiSlice {
	return &MultiSlice{base: newBase(KindMultiSliceFluorescence, opts, 1)}
}

// Capture renders the maximum intensity projection of all slices.
// Tissue plays no part in this variant.
func (m *MultiSlice) Capture(ctx context.Context, model scene.Morphology, _ *tissue.Tissue, tr core.Transform) error {
	return m.capture(ctx, model, tr, func(sc *scene.Scene) (renderer.PixelFunc, error) {
		return m.pixelFunc(ctx, sc)
	})
}

// NumSlices returns how many focal planes fit in a scene of the given bounds
func (m *MultiSlice) NumSlices(bounds core.AABB) int {
	extent := bounds.Max.Z - bounds.Min.Z
	if extent <= 0 {
		return 0
	}
	return int(min(math32.Floor(extent/m.opts.DistancePerSlice), 1<<30))
}

// pixelFunc runs one LCG stream per pixel across all slices. A pixel stops
// at the next slice once ctx is done.
func (m *MultiSlice) pixelFunc(ctx context.Context, sc *scene.Scene) (renderer.PixelFunc, error) {
	bounds := sc.Bounds()
	numSlices := m.NumSlices(bounds)
	if numSlices > MaxSlices {
		return nil, fmt.Errorf("%w: %g units of depth at %g per slice needs %d slices, limit is %d",
			ErrInvalidOptions, bounds.Max.Z-bounds.Min.Z, m.opts.DistancePerSlice, numSlices, MaxSlices)
	}
	sigma := m.opts.AxialFWHM * fwhmToSigma
	invTwoSigma2 := 1 / (2 * sigma * sigma)
	m.logger.Debugf("multislice: %d slices of %g, sigma %g", numSlices, m.opts.DistancePerSlice, sigma)

	return func(x, y int) renderer.PixelResult {
		rng := core.NewLCG(core.PixelSeed(x, y, m.opts.Width))

		var brightest float32
		hit := false
		for i := 0; i < numSlices; i++ {
			if ctx.Err() != nil {
				break
			}
			elevation := bounds.Max.Z - float32(i)*m.opts.DistancePerSlice

			var sum float32
			for s := 0; s < sliceSamples; s++ {
				p := m.camera.PlanePoint(x, y, rng.Get2D())
				h := sc.Intersect(core.NewVec3(p.X, p.Y, elevation), core.Down)
				if !h.IsHit() {
					continue
				}
				hit = true
				dz := (elevation - h.Distance) - elevation
				sum += math32.Exp(-dz * dz * invTwoSigma2)
			}
			brightest = max(brightest, sum/sliceSamples)
		}

		m.sensor.setGray(x, y, core.ToByte(brightest))
		return renderer.PixelResult{Samples: numSlices * sliceSamples, Hit: hit}
	}, nil
}
