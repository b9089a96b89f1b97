package geometry

import (
	"math"

	"github.com/neuroscope/go-neuroscope/pkg/core"
)

// vec64 is the double precision scratch vector used by the intersection
// kernels. Scene coordinates are float32, but rays start far above the
// sample (z0 around 1000) and the quadratics lose too much in float32.
type vec64 struct {
	x, y, z float64
}

func widen(v core.Vec3) vec64 {
	return vec64{float64(v.X), float64(v.Y), float64(v.Z)}
}

func (a vec64) sub(b vec64) vec64 {
	return vec64{a.x - b.x, a.y - b.y, a.z - b.z}
}

func (a vec64) dot(b vec64) float64 {
	return a.x*b.x + a.y*b.y + a.z*b.z
}

// unitRay returns origin and normalized direction of ray together with the
// length of the original direction, used to convert t back to ray units.
func unitRay(ray core.Ray) (origin, dir vec64, length float64, ok bool) {
	dir = widen(ray.Direction)
	length = math.Sqrt(dir.dot(dir))
	if length == 0 {
		return vec64{}, vec64{}, 0, false
	}
	dir = vec64{dir.x / length, dir.y / length, dir.z / length}
	return widen(ray.Origin), dir, length, true
}

// solveQuadratic solves a*t^2 + 2*halfB*t + c = 0 and returns the roots in
// ascending order. A vanishing a degrades to the linear equation, which then
// yields a single (repeated) root.
func solveQuadratic(a, halfB, c float64) (t0, t1 float64, ok bool) {
	if a == 0 {
		if halfB == 0 {
			return 0, 0, false
		}
		t := -c / (2 * halfB)
		return t, t, true
	}

	discriminant := halfB*halfB - a*c
	if discriminant < 0 {
		return 0, 0, false
	}

	// Numerically stable form: avoid subtracting nearly equal values
	q := -(halfB + math.Copysign(math.Sqrt(discriminant), halfB))
	if q == 0 {
		// halfB and the discriminant are both zero, so c is too
		return 0, 0, true
	}
	t0, t1 = q/a, c/q
	if t0 > t1 {
		t0, t1 = t1, t0
	}
	return t0, t1, true
}

// firstInRange picks the nearer of entry and exit that lies in [tMin, tMax]
func firstInRange(entry, exit, tMin, tMax float64) (float64, bool) {
	if entry >= tMin && entry <= tMax {
		return entry, true
	}
	if exit >= tMin && exit <= tMax {
		return exit, true
	}
	return 0, false
}
