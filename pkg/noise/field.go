// Package noise provides seeded coherent noise fields with fractal layering.
//
// A Field is an owned value: each consumer configures its own instance and
// may reconfigure it between renders. Evaluation never mutates the field, so
// a configured Field is safe for concurrent readers.
package noise

import (
	"github.com/chewxy/math32"
	"github.com/ojrac/opensimplex-go"
)

// FractalType selects how octaves are combined
type FractalType int

const (
	FractalNone FractalType = iota // single octave
	FractalFBm                     // fractal Brownian motion
)

// Config describes a noise field
type Config struct {
	Seed       int
	Frequency  float32     // Scale applied to input coordinates
	Octaves    int         // Number of layers for fractal types
	Lacunarity float32     // Frequency multiplier between octaves
	Gain       float32     // Amplitude multiplier between octaves
	Fractal    FractalType // Octave combination
}

// DefaultConfig mirrors the usual FastNoise defaults
func DefaultConfig() Config {
	return Config{
		Seed:       1337,
		Frequency:  0.01,
		Octaves:    3,
		Lacunarity: 2.0,
		Gain:       0.5,
		Fractal:    FractalNone,
	}
}

// Field is a configured OpenSimplex noise field
type Field struct {
	config   Config
	octaves  []opensimplex.Noise32
	bounding float32
}

// New creates a field from a config
func New(config Config) *Field {
	f := &Field{}
	f.SetConfig(config)
	return f
}

// Config returns the active configuration
func (f *Field) Config() Config {
	return f.config
}

// SetConfig rebuilds the per-octave generators. Not safe to call while the field is being sampled.
func (f *Field) SetConfig(config Config) {
	if config.Octaves < 1 {
		config.Octaves = 1
	}

	layers := 1
	if config.Fractal == FractalFBm {
		layers = config.Octaves
	}

	// each octave uses the next seed, as FastNoise does
	f.octaves = make([]opensimplex.Noise32, layers)
	for i := range f.octaves {
		f.octaves[i] = opensimplex.New32(int64(config.Seed + i))
	}

	f.config = config
	f.bounding = fractalBounding(config.Gain, layers)
}

// SetSeed changes only the seed
func (f *Field) SetSeed(seed int) {
	config := f.config
	config.Seed = seed
	f.SetConfig(config)
}

// fractalBounding normalises the octave sum back to roughly [-1, 1]
func fractalBounding(gain float32, layers int) float32 {
	gain = math32.Abs(gain)
	amp := gain
	ampFractal := float32(1)
	for i := 1; i < layers; i++ {
		ampFractal += amp
		amp *= gain
	}
	return 1 / ampFractal
}

// Noise2 samples the field at (x, y); the result is roughly in [-1, 1]
func (f *Field) Noise2(x, y float32) float32 {
	x *= f.config.Frequency
	y *= f.config.Frequency

	sum := float32(0)
	amp := f.bounding
	for _, octave := range f.octaves {
		sum += octave.Eval2(x, y) * amp
		x *= f.config.Lacunarity
		y *= f.config.Lacunarity
		amp *= f.config.Gain
	}
	return sum
}

// Noise3 samples the field at (x, y, z); the result is roughly in [-1, 1]
func (f *Field) Noise3(x, y, z float32) float32 {
	x *= f.config.Frequency
	y *= f.config.Frequency
	z *= f.config.Frequency

	sum := float32(0)
	amp := f.bounding
	for _, octave := range f.octaves {
		sum += octave.Eval3(x, y, z) * amp
		x *= f.config.Lacunarity
		y *= f.config.Lacunarity
		z *= f.config.Lacunarity
		amp *= f.config.Gain
	}
	return sum
}
