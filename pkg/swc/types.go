// Package swc loads neuron morphologies stored in the SWC text format.
//
// Each data line holds seven whitespace-separated fields:
//
//	id type x y z radius parent
//
// Lines starting with '#' and blank lines are ignored. Nodes are kept sorted
// by id so lookups are a binary search.
package swc

import (
	"fmt"

	"github.com/neuroscope/go-neuroscope/pkg/core"
)

// Type classifies a morphology node
type Type uint8

const (
	Undefined          Type = 0
	Soma               Type = 1
	Axon               Type = 2
	BasalDendrite      Type = 3
	ApicalDendrite     Type = 4
	Custom             Type = 5
	UnspecifiedNeurite Type = 6
	GliaProcesses      Type = 7
)

var typeNames = [...]string{
	Undefined:          "undefined",
	Soma:               "soma",
	Axon:               "axon",
	BasalDendrite:      "basal_dendrite",
	ApicalDendrite:     "apical_dendrite",
	Custom:             "custom",
	UnspecifiedNeurite: "unspecified_neurite",
	GliaProcesses:      "glia_processes",
}

// String returns the snake_case name of the type
func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// IsNeurite reports whether nodes of this type are rendered as neurite segments
func (t Type) IsNeurite() bool {
	switch t {
	case Axon, BasalDendrite, ApicalDendrite, UnspecifiedNeurite:
		return true
	default:
		return false
	}
}

// Node is a single SWC sample point
type Node struct {
	ID       int32
	Type     Type
	Position core.Vec3
	Radius   float32
	Parent   int32 // 0, -1 or an unknown id mean the node is a root
}
