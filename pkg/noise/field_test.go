package noise

import (
	"math"
	"testing"
)

func fbmConfig(seed int) Config {
	cfg := DefaultConfig()
	cfg.Seed = seed
	cfg.Frequency = 0.001
	cfg.Octaves = 8
	cfg.Fractal = FractalFBm
	return cfg
}

func TestField_Deterministic(t *testing.T) {
	a := New(fbmConfig(42))
	b := New(fbmConfig(42))

	for i := 0; i < 100; i++ {
		x := float32(i) * 13.7
		y := float32(i) * -7.3
		if a.Noise2(x, y) != b.Noise2(x, y) {
			t.Fatalf("Expected identical noise at (%f, %f)", x, y)
		}
		if a.Noise3(x, y, x+y) != b.Noise3(x, y, x+y) {
			t.Fatalf("Expected identical 3D noise at (%f, %f, %f)", x, y, x+y)
		}
	}
}

func TestField_SeedChangesOutput(t *testing.T) {
	a := New(fbmConfig(1))
	b := New(fbmConfig(2))

	differs := false
	for i := 0; i < 50; i++ {
		x := float32(i) * 101.0
		if a.Noise2(x, 37) != b.Noise2(x, 37) {
			differs = true
			break
		}
	}
	if !differs {
		t.Error("Expected different seeds to produce different fields")
	}
}

func TestField_SetSeedMatchesNew(t *testing.T) {
	f := New(fbmConfig(1))
	f.SetSeed(99)
	g := New(fbmConfig(99))

	if f.Noise2(500, 250) != g.Noise2(500, 250) {
		t.Error("Expected reseeded field to match a freshly built one")
	}
	if f.Config().Seed != 99 {
		t.Errorf("Expected seed 99, got %d", f.Config().Seed)
	}
}

func TestField_Bounded(t *testing.T) {
	f := New(fbmConfig(7))

	for i := 0; i < 2000; i++ {
		x := float32(i%50) * 211.0
		y := float32(i/50) * 173.0
		n := f.Noise2(x, y)
		if math.IsNaN(float64(n)) || n < -1.5 || n > 1.5 {
			t.Fatalf("Noise out of expected range at (%f, %f): %f", x, y, n)
		}
	}
}

func TestField_Continuous(t *testing.T) {
	f := New(fbmConfig(3))

	const step = 0.01
	for i := 0; i < 200; i++ {
		x := float32(i) * 97.0
		y := float32(i) * 31.0
		d := f.Noise2(x+step, y) - f.Noise2(x, y)
		if math.Abs(float64(d)) > 0.01 {
			t.Fatalf("Expected small change for small step at (%f, %f), got %f", x, y, d)
		}
	}
}

func TestFractalBounding(t *testing.T) {
	tests := []struct {
		gain     float32
		layers   int
		expected float32
	}{
		{0.5, 1, 1},
		{0.5, 2, 1 / 1.5},
		{0.5, 3, 1 / 1.75},
	}

	for _, tt := range tests {
		got := fractalBounding(tt.gain, tt.layers)
		if math.Abs(float64(got-tt.expected)) > 1e-6 {
			t.Errorf("fractalBounding(%v, %d): expected %f, got %f", tt.gain, tt.layers, tt.expected, got)
		}
	}
}

func TestField_ZeroOctavesTreatedAsOne(t *testing.T) {
	cfg := fbmConfig(5)
	cfg.Octaves = 0
	f := New(cfg)

	if got := f.Config().Octaves; got != 1 {
		t.Errorf("Expected octaves clamped to 1, got %d", got)
	}
}
