package geometry

import (
	"math"

	"github.com/neuroscope/go-neuroscope/pkg/core"
)

// RoundSegment is a round linear curve segment: the convex hull of a sphere
// at each end, i.e. the union of spheres whose center and radius are
// linearly interpolated between the two endpoints.
type RoundSegment struct {
	A      core.Vec4 // Start point, W is the radius
	B      core.Vec4 // End point, W is the radius
	GeomID uint32
	PrimID uint32
}

// NewRoundSegment creates a new segment from two radius-carrying vertices
func NewRoundSegment(a, b core.Vec4) *RoundSegment {
	return &RoundSegment{A: a, B: b}
}

// Hit tests if a ray intersects the segment surface. The surface is convex,
// so a ray crosses it at most twice; the entry is reported when it lies in
// range, otherwise the exit (a ray starting inside sees the exit).
func (s *RoundSegment) Hit(ray core.Ray, tMin, tMax float32, rec *HitRecord) bool {
	origin, dir, length, ok := unitRay(ray)
	if !ok {
		return false
	}

	entry, exit, ok := s.intersect(origin, dir)
	if !ok {
		return false
	}

	root, ok := firstInRange(entry/length, exit/length, float64(tMin), float64(tMax))
	if !ok {
		return false
	}

	rec.T = float32(root)
	rec.Point = ray.At(rec.T)
	rec.GeomID = s.GeomID
	rec.PrimID = s.PrimID
	return true
}

// intersect returns the entry and exit distances along the unit ray
func (s *RoundSegment) intersect(origin, dir vec64) (entry, exit float64, ok bool) {
	pa, pb := widen(s.A.XYZ()), widen(s.B.XYZ())
	ra, rb := float64(s.A.W), float64(s.B.W)

	ba := pb.sub(pa)
	oa := origin.sub(pa)
	ob := origin.sub(pb)

	rr := ra - rb
	m0 := ba.dot(ba)
	d2 := m0 - rr*rr

	// One end sphere contains the other: the hull is the larger sphere
	if m0 == 0 || d2 <= 0 {
		if ra >= rb {
			return sphereRoots(oa, dir, ra)
		}
		return sphereRoots(ob, dir, rb)
	}

	m1 := ba.dot(oa)
	m2 := ba.dot(dir)
	m3 := dir.dot(oa)
	m5 := oa.dot(oa)

	entry, exit = math.Inf(1), math.Inf(-1)
	accept := func(t float64) {
		entry = min(entry, t)
		exit = max(exit, t)
	}

	// axial returns the position of the point at t relative to the two
	// tangent circles: [0, d2] is the conical body, below 0 the cap of
	// sphere A, above d2 the cap of sphere B.
	axial := func(t float64) float64 {
		return m1 + t*m2 - ra*rr
	}

	// Conical body tangent to both spheres
	k2 := d2 - m2*m2
	k1 := d2*m3 - m1*m2 + m2*rr*ra
	k0 := d2*m5 - m1*m1 + 2*m1*rr*ra - m0*ra*ra
	if t0, t1, found := solveQuadratic(k2, k1, k0); found {
		for _, t := range [2]float64{t0, t1} {
			if y := axial(t); y >= 0 && y <= d2 {
				accept(t)
			}
		}
	}

	// End caps
	if t0, t1, found := sphereRoots(oa, dir, ra); found {
		for _, t := range [2]float64{t0, t1} {
			if axial(t) < 0 {
				accept(t)
			}
		}
	}
	if t0, t1, found := sphereRoots(ob, dir, rb); found {
		for _, t := range [2]float64{t0, t1} {
			if axial(t) > d2 {
				accept(t)
			}
		}
	}

	if entry > exit {
		return 0, 0, false
	}
	return entry, exit, true
}

// sphereRoots intersects a unit ray with a sphere, oc being the ray origin
// relative to the sphere center
func sphereRoots(oc, dir vec64, radius float64) (float64, float64, bool) {
	return solveQuadratic(1, oc.dot(dir), oc.dot(oc)-radius*radius)
}

// BoundingBox returns the box enclosing both end spheres
func (s *RoundSegment) BoundingBox() core.AABB {
	return sphereBox(s.A).Union(sphereBox(s.B))
}

func sphereBox(v core.Vec4) core.AABB {
	center := v.XYZ()
	radius := core.NewVec3(v.W, v.W, v.W)
	return core.NewAABB(center.Subtract(radius), center.Add(radius))
}
