package rtc

import (
	"github.com/neuroscope/go-neuroscope/pkg/core"
	"github.com/neuroscope/go-neuroscope/pkg/geometry"
)

// GeometryType selects how a geometry interprets its buffers
type GeometryType int

const (
	// GeometrySphere: one sphere per vertex, W is the radius. Indices are ignored.
	GeometrySphere GeometryType = iota
	// GeometryRoundLinearCurve: index i starts a segment from vertex i to vertex i+1
	GeometryRoundLinearCurve
)

func (t GeometryType) String() string {
	switch t {
	case GeometrySphere:
		return "sphere"
	case GeometryRoundLinearCurve:
		return "round linear curve"
	default:
		return "unknown"
	}
}

// Geometry is a group of primitives sharing one geometry id
type Geometry struct {
	device    *Device
	kind      GeometryType
	vertices  []core.Vec4
	indices   []uint32
	committed bool
}

// Type returns the geometry type
func (g *Geometry) Type() GeometryType {
	return g.kind
}

// SetVertexBuffer binds the vertex buffer; the geometry must be committed again
func (g *Geometry) SetVertexBuffer(vertices []core.Vec4) {
	g.vertices = vertices
	g.committed = false
}

// SetIndexBuffer binds the index buffer; the geometry must be committed again
func (g *Geometry) SetIndexBuffer(indices []uint32) {
	g.indices = indices
	g.committed = false
}

// PrimitiveCount returns the number of primitives the bound buffers describe
func (g *Geometry) PrimitiveCount() int {
	if g.kind == GeometrySphere {
		return len(g.vertices)
	}
	return len(g.indices)
}

// Commit validates the bound buffers
func (g *Geometry) Commit() error {
	switch g.kind {
	case GeometrySphere:
	case GeometryRoundLinearCurve:
		for i, index := range g.indices {
			if int(index)+1 >= len(g.vertices) {
				return g.device.report(ErrorInvalidArgument,
					"curve index %d at position %d references a segment past %d vertices", index, i, len(g.vertices))
			}
		}
	default:
		return g.device.report(ErrorInvalidArgument, "unknown geometry type %d", int(g.kind))
	}

	if err := g.device.reserve(g.PrimitiveCount(), g.kind.String()+" geometry"); err != nil {
		return err
	}
	for i, v := range g.vertices {
		if v.W < 0 {
			return g.device.report(ErrorInvalidArgument, "vertex %d has negative radius %g", i, v.W)
		}
	}

	g.committed = true
	return nil
}

// shapes builds the primitive kernels for the committed buffers
func (g *Geometry) shapes(geomID uint32) []geometry.Shape {
	shapes := make([]geometry.Shape, 0, g.PrimitiveCount())
	switch g.kind {
	case GeometrySphere:
		for i, v := range g.vertices {
			shapes = append(shapes, &geometry.Sphere{
				Center: v.XYZ(),
				Radius: v.W,
				GeomID: geomID,
				PrimID: uint32(i),
			})
		}
	case GeometryRoundLinearCurve:
		for i, index := range g.indices {
			shapes = append(shapes, &geometry.RoundSegment{
				A:      g.vertices[index],
				B:      g.vertices[index+1],
				GeomID: geomID,
				PrimID: uint32(i),
			})
		}
	}
	return shapes
}
