package geometry

import "github.com/neuroscope/go-neuroscope/pkg/core"

// HitRecord contains information about a ray-primitive intersection
type HitRecord struct {
	T      float32   // Parameter t along the (normalized) ray
	Point  core.Vec3 // Point of intersection
	GeomID uint32    // Geometry the primitive belongs to
	PrimID uint32    // Primitive index within its geometry
}

// Shape interface for primitives that can be hit by rays.
// Hit fills rec and reports true only for hits with tMin <= t <= tMax.
type Shape interface {
	Hit(ray core.Ray, tMin, tMax float32, rec *HitRecord) bool
	BoundingBox() core.AABB
}
