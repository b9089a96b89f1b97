// Package scene turns a neuron morphology into committed ray-casting
// geometry: the soma as a sphere or a chain of round segments, and every
// neurite branch as round segments tagged with their neurite type.
package scene

import (
	"fmt"

	"github.com/neuroscope/go-neuroscope/pkg/core"
	"github.com/neuroscope/go-neuroscope/pkg/rtc"
	"github.com/neuroscope/go-neuroscope/pkg/swc"
)

// Morphology is the read-only node lookup the builder needs.
// *swc.Model satisfies it.
type Morphology interface {
	NodeCount() int
	FindNode(id int32) (swc.Node, bool)
}

// SomaShape describes how the soma was represented
type SomaShape int

const (
	SomaNone     SomaShape = iota // No soma geometry
	SomaSphere                    // Exactly one soma node, drawn as a sphere
	SomaSegments                  // Soma nodes connected by round segments
)

func (s SomaShape) String() string {
	switch s {
	case SomaSphere:
		return "sphere"
	case SomaSegments:
		return "segments"
	default:
		return "none"
	}
}

// Counts are the node tallies of the first build pass
type Counts struct {
	Somas        int // Soma nodes
	SomaSegments int // Soma nodes whose parent resolves
	Neurites     int // Neurite nodes whose parent resolves
}

// Scene is a committed ray-casting scene for one morphology
type Scene struct {
	scene         *rtc.Scene
	counts        Counts
	somaShape     SomaShape
	somaGeomID    uint32
	neuriteGeomID uint32
	neuriteTypes  []swc.Type // Indexed by neurite primitive id
}

// buffers holds everything allocated before any geometry is created
type buffers struct {
	somaVertices    []core.Vec4
	somaIndices     []uint32
	neuriteVertices []core.Vec4
	neuriteIndices  []uint32
	neuriteTypes    []swc.Type
}

// Build creates primitives for every soma and neurite node of model, with
// positions mapped through t, and commits them on device. Node ids are
// visited from 1 to NodeCount; missing ids are skipped.
func Build(device *rtc.Device, model Morphology, t core.Transform) (*Scene, error) {
	counts := countNodes(model)

	bufs, err := allocate(device, counts)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate scene buffers: %w", err)
	}

	transform := t.Applier()
	s := &Scene{
		scene:         device.NewScene(),
		counts:        counts,
		somaGeomID:    rtc.InvalidGeometryID,
		neuriteGeomID: rtc.InvalidGeometryID,
		neuriteTypes:  bufs.neuriteTypes,
	}

	somaIndex, neuriteIndex := 0, 0
	forEachNode(model, func(node swc.Node) {
		switch {
		case node.Type == swc.Soma && counts.Somas == 1:
			bufs.somaVertices[0] = core.NewVertex(transform.Apply(node.Position), node.Radius)
		case node.Type == swc.Soma:
			if parent, ok := findParent(model, node); ok {
				setSegment(bufs.somaVertices, bufs.somaIndices, somaIndex, transform, parent, node)
				somaIndex++
			}
		case node.Type.IsNeurite():
			if parent, ok := findParent(model, node); ok {
				setSegment(bufs.neuriteVertices, bufs.neuriteIndices, neuriteIndex, transform, parent, node)
				bufs.neuriteTypes[neuriteIndex] = node.Type
				neuriteIndex++
			}
		}
	})

	switch {
	case counts.Somas == 1:
		s.somaShape = SomaSphere
		s.somaGeomID, err = attach(device, s.scene, rtc.GeometrySphere, bufs.somaVertices, nil)
	case counts.SomaSegments > 0:
		s.somaShape = SomaSegments
		s.somaGeomID, err = attach(device, s.scene, rtc.GeometryRoundLinearCurve, bufs.somaVertices, bufs.somaIndices)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build soma geometry: %w", err)
	}

	if counts.Neurites > 0 {
		s.neuriteGeomID, err = attach(device, s.scene, rtc.GeometryRoundLinearCurve, bufs.neuriteVertices, bufs.neuriteIndices)
		if err != nil {
			return nil, fmt.Errorf("failed to build neurite geometry: %w", err)
		}
	}

	if err := s.scene.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit scene: %w", err)
	}
	return s, nil
}

func forEachNode(model Morphology, fn func(swc.Node)) {
	count := int32(model.NodeCount())
	for id := int32(1); id <= count; id++ {
		if node, ok := model.FindNode(id); ok {
			fn(node)
		}
	}
}

func findParent(model Morphology, node swc.Node) (swc.Node, bool) {
	return model.FindNode(node.Parent)
}

func countNodes(model Morphology) Counts {
	var counts Counts
	forEachNode(model, func(node swc.Node) {
		_, hasParent := findParent(model, node)
		switch {
		case node.Type == swc.Soma:
			counts.Somas++
			if hasParent {
				counts.SomaSegments++
			}
		case node.Type.IsNeurite() && hasParent:
			counts.Neurites++
		}
	})
	return counts
}

func allocate(device *rtc.Device, counts Counts) (buffers, error) {
	var bufs buffers
	var err error

	switch {
	case counts.Somas == 1:
		if bufs.somaVertices, err = device.NewVertexBuffer(1); err != nil {
			return bufs, err
		}
	case counts.SomaSegments > 0:
		if bufs.somaVertices, err = device.NewVertexBuffer(2 * counts.SomaSegments); err != nil {
			return bufs, err
		}
		if bufs.somaIndices, err = device.NewIndexBuffer(counts.SomaSegments); err != nil {
			return bufs, err
		}
	}

	if counts.Neurites > 0 {
		if bufs.neuriteVertices, err = device.NewVertexBuffer(2 * counts.Neurites); err != nil {
			return bufs, err
		}
		if bufs.neuriteIndices, err = device.NewIndexBuffer(counts.Neurites); err != nil {
			return bufs, err
		}
		bufs.neuriteTypes = make([]swc.Type, counts.Neurites)
	}
	return bufs, nil
}

// setSegment writes segment i as the vertex pair (parent, node)
func setSegment(vertices []core.Vec4, indices []uint32, i int, transform core.Applier, parent, node swc.Node) {
	vertices[2*i] = core.NewVertex(transform.Apply(parent.Position), parent.Radius)
	vertices[2*i+1] = core.NewVertex(transform.Apply(node.Position), node.Radius)
	indices[i] = uint32(2 * i)
}

func attach(device *rtc.Device, scene *rtc.Scene, kind rtc.GeometryType, vertices []core.Vec4, indices []uint32) (uint32, error) {
	g := device.NewGeometry(kind)
	g.SetVertexBuffer(vertices)
	if indices != nil {
		g.SetIndexBuffer(indices)
	}
	if err := g.Commit(); err != nil {
		return rtc.InvalidGeometryID, err
	}
	return scene.Attach(g)
}

// Intersect finds the nearest primitive along a ray
func (s *Scene) Intersect(org, dir core.Vec3) rtc.Hit {
	return s.scene.Intersect(org, dir)
}

// Bounds returns the world-space bounds of all primitives, zero when empty
func (s *Scene) Bounds() core.AABB {
	return s.scene.Bounds()
}

// IsNeurite reports whether geomID is the neurite geometry
func (s *Scene) IsNeurite(geomID uint32) bool {
	return geomID != rtc.InvalidGeometryID && geomID == s.neuriteGeomID
}

// NeuriteType returns the node type of neurite primitive primID
func (s *Scene) NeuriteType(primID uint32) swc.Type {
	if int(primID) >= len(s.neuriteTypes) {
		return swc.Undefined
	}
	return s.neuriteTypes[primID]
}

// Counts returns the node tallies the scene was built from
func (s *Scene) Counts() Counts {
	return s.counts
}

// SomaShape returns how the soma is represented
func (s *Scene) SomaShape() SomaShape {
	return s.somaShape
}

// NeuritePrimitives returns the number of committed neurite primitives
func (s *Scene) NeuritePrimitives() int {
	if s.neuriteGeomID == rtc.InvalidGeometryID {
		return 0
	}
	return s.scene.PrimitiveCount(s.neuriteGeomID)
}
