package swc

import "github.com/neuroscope/go-neuroscope/pkg/core"

// Summary describes the structure of a morphology
type Summary struct {
	Nodes    int
	Counts   map[Type]int // Nodes per type
	Roots    int          // Nodes whose parent is 0 or -1
	Dangling int          // Nodes whose parent id is set but not present
	Bounds   core.AABB    // Bounds of node centres
}

// Summarize walks the model once and collects counts
func (m *Model) Summarize() Summary {
	s := Summary{
		Nodes:  len(m.nodes),
		Counts: make(map[Type]int),
	}

	points := make([]core.Vec3, 0, len(m.nodes))
	for _, n := range m.nodes {
		s.Counts[n.Type]++
		points = append(points, n.Position)

		switch {
		case n.Parent == 0 || n.Parent == -1:
			s.Roots++
		default:
			if _, ok := m.FindNode(n.Parent); !ok {
				s.Dangling++
			}
		}
	}
	s.Bounds = core.NewAABBFromPoints(points...)

	return s
}
