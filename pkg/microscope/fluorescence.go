package microscope

import (
	"context"

	"github.com/neuroscope/go-neuroscope/pkg/core"
	"github.com/neuroscope/go-neuroscope/pkg/noise"
	"github.com/neuroscope/go-neuroscope/pkg/renderer"
	"github.com/neuroscope/go-neuroscope/pkg/scene"
	"github.com/neuroscope/go-neuroscope/pkg/tissue"
)

const fluorescenceSamples = 16

// emissionNoiseConfig shapes the patchy labelling of the cell surface
func emissionNoiseConfig(seed int) noise.Config {
	return noise.Config{
		Seed:       seed,
		Frequency:  0.05,
		Octaves:    3,
		Lacunarity: 2.0,
		Gain:       0.5,
		Fractal:    noise.FractalFBm,
	}
}

// Fluorescence images a single focal plane: geometry glows with a noisy
// emission that fades with depth, and misses pick up the tissue background.
type Fluorescence struct {
	*base
	config   FluorescenceConfig
	emission *noise.Field
}

func newFluorescence(opts Options) *Fluorescence {
	return &Fluorescence{
		base:     newBase(KindFluorescence, opts, 1),
		config:   opts.Fluorescence,
		emission: noise.New(emissionNoiseConfig(opts.Fluorescence.Seed)),
	}
}

// Config returns the emission configuration
func (f *Fluorescence) Config() FluorescenceConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.config
}

// SetConfig replaces the emission configuration and reseeds the emission
// field. An inverted emission range is rejected and leaves the config as is.
func (f *Fluorescence) SetConfig(config FluorescenceConfig) error {
	if err := config.validate(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.config = config
	f.emission.SetSeed(config.Seed)
	return nil
}

// Capture renders the fluorescence image. A nil tissue adds no background.
func (f *Fluorescence) Capture(ctx context.Context, model scene.Morphology, t *tissue.Tissue, tr core.Transform) error {
	return f.capture(ctx, model, tr, func(sc *scene.Scene) (renderer.PixelFunc, error) {
		return f.pixelFunc(sc, t), nil
	})
}

// pixelFunc averages 16 jittered rays cast from the top of the scene
func (f *Fluorescence) pixelFunc(sc *scene.Scene, t *tissue.Tissue) renderer.PixelFunc {
	bounds := sc.Bounds()
	z0 := bounds.Max.Z
	var zScale float32
	if extent := bounds.Max.Z - bounds.Min.Z; extent > 0 {
		zScale = 1 / extent
	}
	config := f.config

	return func(x, y int) renderer.PixelResult {
		rng := core.NewLCG(core.PixelSeed(x, y, f.opts.Width))

		var accum float32
		hit := false
		for i := 0; i < fluorescenceSamples; i++ {
			p := f.camera.PlanePoint(x, y, rng.Get2D())
			h := sc.Intersect(core.NewVec3(p.X, p.Y, z0), core.Down)
			if !h.IsHit() {
				if t != nil {
					accum += t.Density(p)
				}
				continue
			}

			hit = true
			distanceIntensity := max(0, 1-h.Distance*zScale)
			n := f.emission.Noise3(p.X, p.Y, z0-h.Distance)
			emission := core.Clamp(n*0.5+0.5, config.MinEmission, config.MaxEmission)
			accum += distanceIntensity * emission
		}

		f.sensor.setGray(x, y, core.ToByte(accum/fluorescenceSamples))
		return renderer.PixelResult{Samples: fluorescenceSamples, Hit: hit}
	}
}
