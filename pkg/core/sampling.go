package core

// Parameters of the MINSTD linear congruential generator
const (
	lcgMultiplier = 48271
	lcgModulus    = 2147483647 // 2^31 - 1

	// largest float32 below one
	oneMinusEpsilon float32 = 0x1.fffffep-1
)

// LCG is a minimal-standard linear congruential generator (multiplier 48271,
// modulus 2^31-1, no increment). It is a value type: every pixel builds its own
// stream from PixelSeed so results do not depend on scheduling.
type LCG struct {
	state uint32
}

// NewLCG seeds a generator. The seed is reduced into [1, 2^31-1); zero maps to one.
func NewLCG(seed uint32) LCG {
	state := seed % lcgModulus
	if state == 0 {
		state = 1
	}
	return LCG{state: state}
}

// Next advances the generator and returns the new state in [1, 2^31-1)
func (g *LCG) Next() uint32 {
	g.state = uint32(uint64(g.state) * lcgMultiplier % lcgModulus)
	return g.state
}

// Float32 returns a value in [0, 1)
func (g *LCG) Float32() float32 {
	// states close to the modulus round up to 1.0 in float32
	return min(float32(float64(g.Next())/lcgModulus), oneMinusEpsilon)
}

// Get1D returns a random float32 in [0, 1)
func (g *LCG) Get1D() float32 {
	return g.Float32()
}

// Get2D returns two random float32 values in [0, 1); X is drawn first
func (g *LCG) Get2D() Vec2 {
	x := g.Float32()
	y := g.Float32()
	return Vec2{X: x, Y: y}
}

// PixelSeed derives the stream seed of pixel (x, y) in an image of the given width
func PixelSeed(x, y, width int) uint32 {
	return uint32(y*width + x)
}
