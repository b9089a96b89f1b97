package geometry

import "github.com/neuroscope/go-neuroscope/pkg/core"

// Sphere represents a sphere primitive
type Sphere struct {
	Center core.Vec3
	Radius float32
	GeomID uint32
	PrimID uint32
}

// NewSphere creates a new sphere
func NewSphere(center core.Vec3, radius float32) *Sphere {
	return &Sphere{
		Center: center,
		Radius: radius,
	}
}

// Hit tests if a ray intersects with the sphere
func (s *Sphere) Hit(ray core.Ray, tMin, tMax float32, rec *HitRecord) bool {
	origin, dir, length, ok := unitRay(ray)
	if !ok {
		return false
	}

	// Vector from sphere center to ray origin
	oc := origin.sub(widen(s.Center))
	r := float64(s.Radius)

	// Unit direction: a = 1
	t0, t1, ok := solveQuadratic(1, oc.dot(dir), oc.dot(oc)-r*r)
	if !ok {
		return false
	}

	// Try the closer intersection point first
	root, ok := firstInRange(t0/length, t1/length, float64(tMin), float64(tMax))
	if !ok {
		return false
	}

	rec.T = float32(root)
	rec.Point = ray.At(rec.T)
	rec.GeomID = s.GeomID
	rec.PrimID = s.PrimID
	return true
}

// BoundingBox returns the axis-aligned bounding box for this sphere
func (s *Sphere) BoundingBox() core.AABB {
	radius := core.NewVec3(s.Radius, s.Radius, s.Radius)
	return core.NewAABB(
		s.Center.Subtract(radius),
		s.Center.Add(radius),
	)
}
