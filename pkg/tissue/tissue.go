// Package tissue models the background signal of the tissue surrounding a
// neuron as a patchy, bounded density field.
package tissue

import (
	"context"
	"image"
	"runtime"

	"github.com/chewxy/math32"
	"golang.org/x/sync/errgroup"

	"github.com/neuroscope/go-neuroscope/pkg/core"
	"github.com/neuroscope/go-neuroscope/pkg/noise"
	"github.com/neuroscope/go-neuroscope/pkg/renderer"
)

// densityFalloff shapes the saturating curve of the density transform
const densityFalloff = 6.28 * 2.0

// Config controls the density field
type Config struct {
	Seed       int     // Noise seed
	Coverage   float32 // Bias added to the raw noise, may be negative
	MaxDensity float32 // Upper bound of the returned density
}

// DefaultConfig returns the default tissue parameters
func DefaultConfig() Config {
	return Config{
		Seed:       1337,
		MaxDensity: 0.1,
		Coverage:   0.9,
	}
}

// Tissue evaluates the density field. Density and Render only read state, so a
// configured Tissue may be shared by concurrent renders.
type Tissue struct {
	noise  *noise.Field
	config Config
}

// New creates a tissue model with the default config
func New() *Tissue {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a tissue model with the given config
func NewWithConfig(config Config) *Tissue {
	t := &Tissue{
		noise: noise.New(noise.Config{
			Seed:       config.Seed,
			Frequency:  0.001,
			Octaves:    8,
			Lacunarity: 2.0,
			Gain:       0.5,
			Fractal:    noise.FractalFBm,
		}),
		config: config,
	}
	return t
}

// Config returns the active configuration
func (t *Tissue) Config() Config {
	return t.config
}

// SetConfig reseeds the density field
func (t *Tissue) SetConfig(config Config) {
	t.noise.SetSeed(config.Seed)
	t.config = config
}

// Density returns the tissue density at a position on the imaging plane, in [0, MaxDensity]
func (t *Tissue) Density(position core.Vec2) float32 {
	x := t.noise.Noise2(position.X, position.Y) + t.config.Coverage
	if x < 0 {
		return 0
	}

	x = x * x
	return t.config.MaxDensity * (1 - math32.Exp(-x*densityFalloff))
}

// Render evaluates the density at every pixel centre of a width x height grid
// spanning verticalFOV units vertically and returns one byte per pixel, row-major.
// Cancelling ctx stops the remaining rows and Render returns ctx.Err().
func (t *Tissue) Render(ctx context.Context, width, height int, verticalFOV float32) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, nil
	}
	buffer := make([]byte, width*height)
	camera := renderer.NewCamera(width, height, verticalFOV)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for y := 0; y < height; y++ {
		y := y
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			row := buffer[y*width : (y+1)*width]
			for x := range row {
				row[x] = core.ToByte(t.Density(camera.PlanePoint(x, y, renderer.PixelCenter)))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return buffer, nil
}

// Image renders the density map as a grayscale image
func (t *Tissue) Image(ctx context.Context, width, height int, verticalFOV float32) (*image.Gray, error) {
	pix, err := t.Render(ctx, width, height, verticalFOV)
	if err != nil {
		return nil, err
	}
	return &image.Gray{
		Pix:    pix,
		Stride: width,
		Rect:   image.Rect(0, 0, width, height),
	}, nil
}
