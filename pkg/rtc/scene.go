package rtc

import (
	"github.com/chewxy/math32"

	"github.com/neuroscope/go-neuroscope/pkg/core"
	"github.com/neuroscope/go-neuroscope/pkg/geometry"
)

// InvalidGeometryID marks a ray that hit nothing
const InvalidGeometryID = ^uint32(0)

// Hit is the result of a nearest-hit query
type Hit struct {
	GeomID   uint32  // InvalidGeometryID on a miss
	PrimID   uint32  // Primitive index within the geometry
	Distance float32 // Distance along the normalized ray direction
}

// IsHit reports whether the query hit any primitive
func (h Hit) IsHit() bool {
	return h.GeomID != InvalidGeometryID
}

var miss = Hit{GeomID: InvalidGeometryID, PrimID: InvalidGeometryID}

// Scene holds attached geometries. After Commit it is read-only and safe
// for concurrent Intersect calls.
type Scene struct {
	device     *Device
	geometries []*Geometry
	bvh        *geometry.BVH
	primitives int
}

// Attach adds a committed geometry and returns its geometry id
func (s *Scene) Attach(g *Geometry) (uint32, error) {
	if g == nil || g.device != s.device {
		return InvalidGeometryID, s.device.report(ErrorInvalidArgument, "geometry belongs to another device")
	}
	if !g.committed {
		return InvalidGeometryID, s.device.report(ErrorInvalidOperation, "attaching uncommitted %s geometry", g.kind)
	}

	id := uint32(len(s.geometries))
	s.geometries = append(s.geometries, g)
	s.bvh = nil
	return id, nil
}

// Commit builds the acceleration structure over all attached geometries
func (s *Scene) Commit() error {
	var shapes []geometry.Shape
	for id, g := range s.geometries {
		if !g.committed {
			return s.device.report(ErrorInvalidOperation, "geometry %d was modified after attach", id)
		}
		shapes = append(shapes, g.shapes(uint32(id))...)
	}

	s.bvh = geometry.NewBVH(shapes)
	s.primitives = len(shapes)

	stats := s.bvh.Stats()
	s.device.logger.Debugf("BVH: %d primitives in %d geometries, %d nodes, %d leaves, max depth %d",
		len(shapes), len(s.geometries), stats.TotalNodes, stats.LeafNodes, stats.MaxDepth)
	return nil
}

// Committed reports whether the scene can be intersected
func (s *Scene) Committed() bool {
	return s.bvh != nil
}

// GeometryCount returns the number of attached geometries
func (s *Scene) GeometryCount() int {
	return len(s.geometries)
}

// PrimitiveCount returns the primitive count of geometry geomID
func (s *Scene) PrimitiveCount(geomID uint32) int {
	if int(geomID) >= len(s.geometries) {
		return 0
	}
	return s.geometries[geomID].PrimitiveCount()
}

// Intersect finds the nearest primitive along the ray from org in direction dir
func (s *Scene) Intersect(org, dir core.Vec3) Hit {
	if s.bvh == nil {
		s.device.report(ErrorInvalidOperation, "intersecting uncommitted scene")
		return miss
	}

	ray := core.NewRay(org, dir.Normalize())
	var rec geometry.HitRecord
	if !s.bvh.Hit(ray, 0, math32.Inf(1), &rec) {
		return miss
	}
	return Hit{GeomID: rec.GeomID, PrimID: rec.PrimID, Distance: rec.T}
}

// Bounds returns the bounding box of the committed scene, zero when empty
func (s *Scene) Bounds() core.AABB {
	if s.bvh == nil {
		return core.AABB{}
	}
	return s.bvh.BoundingBox()
}
