package scene

import (
	"errors"
	"testing"

	"github.com/neuroscope/go-neuroscope/pkg/core"
	"github.com/neuroscope/go-neuroscope/pkg/rtc"
	"github.com/neuroscope/go-neuroscope/pkg/swc"
)

func node(id int32, typ swc.Type, x, y, z, r float32, parent int32) swc.Node {
	return swc.Node{ID: id, Type: typ, Position: core.NewVec3(x, y, z), Radius: r, Parent: parent}
}

// somaWithAxon: one soma at the origin and an axon running down -Z
func somaWithAxon() *swc.Model {
	return swc.NewModel([]swc.Node{
		node(1, swc.Soma, 0, 0, 0, 5, -1),
		node(2, swc.Axon, 0, 0, -20, 1, 1),
	})
}

func TestBuild_SomaSphereAndAxon(t *testing.T) {
	s, err := Build(rtc.NewDevice(), somaWithAxon(), core.Transform{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if s.SomaShape() != SomaSphere {
		t.Errorf("Expected sphere soma, got %s", s.SomaShape())
	}
	if s.Counts() != (Counts{Somas: 1, Neurites: 1}) {
		t.Errorf("Unexpected counts %+v", s.Counts())
	}

	// The axon starts with the soma radius, so the top of the soma is shared
	hit := s.Intersect(core.NewVec3(0, 0, 100), core.Down)
	if !hit.IsHit() {
		t.Fatal("Expected hit on the soma")
	}
	if hit.Distance < 94.999 || hit.Distance > 95.001 {
		t.Errorf("Expected soma top at distance 95, got %f", hit.Distance)
	}

	bounds := s.Bounds()
	if bounds.Max.Z != 5 || bounds.Min.Z != -21 {
		t.Errorf("Expected Z extent [-21, 5], got [%f, %f]", bounds.Min.Z, bounds.Max.Z)
	}
}

func TestBuild_NeuriteTags(t *testing.T) {
	model := swc.NewModel([]swc.Node{
		node(1, swc.Soma, 0, 0, 0, 2, -1),
		node(2, swc.Axon, 10, 0, 0, 1, 1),
		node(3, swc.BasalDendrite, -10, 0, 0, 1, 1),
		node(4, swc.ApicalDendrite, 0, 10, 0, 1, 1),
		node(5, swc.UnspecifiedNeurite, 0, -10, 0, 1, 1),
		node(6, swc.GliaProcesses, 0, 0, 10, 1, 1),
		node(7, swc.Custom, 0, 0, -10, 1, 1),
		node(8, swc.Axon, 30, 30, 0, 1, 42),
	})

	s, err := Build(rtc.NewDevice(), model, core.Transform{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if s.Counts().Neurites != 4 {
		t.Errorf("Expected 4 neurite segments, got %d", s.Counts().Neurites)
	}
	if s.NeuritePrimitives() != s.Counts().Neurites {
		t.Errorf("Expected %d committed neurite primitives, got %d", s.Counts().Neurites, s.NeuritePrimitives())
	}

	expected := []swc.Type{swc.Axon, swc.BasalDendrite, swc.ApicalDendrite, swc.UnspecifiedNeurite}
	for i, typ := range expected {
		if got := s.NeuriteType(uint32(i)); got != typ {
			t.Errorf("Primitive %d: expected %s, got %s", i, typ, got)
		}
	}
	if s.NeuriteType(uint32(len(expected))) != swc.Undefined {
		t.Error("Expected out-of-range primitive to be undefined")
	}

	tests := []struct {
		name    string
		x, y    float32
		neurite bool
		primID  uint32
	}{
		{"axon", 7, 0, true, 0},
		{"basal dendrite", -7, 0, true, 1},
		{"apical dendrite", 0, 7, true, 2},
		{"unspecified neurite", 0, -7, true, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit := s.Intersect(core.NewVec3(tt.x, tt.y, 100), core.Down)
			if !hit.IsHit() {
				t.Fatal("Expected hit")
			}
			if s.IsNeurite(hit.GeomID) != tt.neurite {
				t.Errorf("Expected neurite=%t", tt.neurite)
			}
			if tt.neurite && hit.PrimID != tt.primID {
				t.Errorf("Expected primitive %d, got %d", tt.primID, hit.PrimID)
			}
		})
	}

	// Glia above the soma contributes nothing: the ray reaches the soma top at z=2
	if hit := s.Intersect(core.NewVec3(0, 0, 100), core.Down); hit.Distance < 97.999 || hit.Distance > 98.001 {
		t.Errorf("Expected distance 98 past the glia process, got %f", hit.Distance)
	}

	// Dangling nodes contribute nothing
	if hit := s.Intersect(core.NewVec3(30, 30, 100), core.Down); hit.IsHit() {
		t.Errorf("Expected miss at the dangling axon, got %+v", hit)
	}
}

func TestBuild_SomaSegments(t *testing.T) {
	model := swc.NewModel([]swc.Node{
		node(1, swc.Soma, 0, 0, 0, 3, -1),
		node(2, swc.Soma, 4, 0, 0, 3, 1),
		node(3, swc.Soma, 8, 0, 0, 2, 2),
	})

	s, err := Build(rtc.NewDevice(), model, core.Transform{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if s.SomaShape() != SomaSegments {
		t.Errorf("Expected segment soma, got %s", s.SomaShape())
	}
	if s.Counts() != (Counts{Somas: 3, SomaSegments: 2}) {
		t.Errorf("Unexpected counts %+v", s.Counts())
	}
	if hit := s.Intersect(core.NewVec3(6, 0, 100), core.Down); !hit.IsHit() || s.IsNeurite(hit.GeomID) {
		t.Errorf("Expected soma hit, got %+v", hit)
	}
}

func TestBuild_Empty(t *testing.T) {
	s, err := Build(rtc.NewDevice(), swc.NewModel(nil), core.Transform{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if s.SomaShape() != SomaNone {
		t.Errorf("Expected no soma, got %s", s.SomaShape())
	}
	if s.Bounds() != (core.AABB{}) {
		t.Errorf("Expected zero bounds, got %v", s.Bounds())
	}
	if s.Intersect(core.NewVec3(0, 0, 10), core.Down).IsHit() {
		t.Error("Expected miss in empty scene")
	}
	if s.IsNeurite(rtc.InvalidGeometryID) {
		t.Error("Invalid geometry id must not be a neurite")
	}
}

func TestBuild_AppliesTransform(t *testing.T) {
	tr := core.NewTransform(core.NewVec3(100, 0, 0), core.Vec3{})
	s, err := Build(rtc.NewDevice(), somaWithAxon(), tr)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if s.Intersect(core.NewVec3(0, 0, 100), core.Down).IsHit() {
		t.Error("Expected miss at the untransformed soma position")
	}
	if !s.Intersect(core.NewVec3(100, 0, 100), core.Down).IsHit() {
		t.Error("Expected hit at the translated soma position")
	}
}

func TestBuild_AllocationFailure(t *testing.T) {
	var reported []rtc.ErrorCode
	device := rtc.NewDevice(
		rtc.WithMaxPrimitives(1),
		rtc.WithErrorFunc(func(code rtc.ErrorCode, _ string) {
			reported = append(reported, code)
		}),
	)

	s, err := Build(device, somaWithAxon(), core.Transform{})
	if !errors.Is(err, rtc.ErrAllocation) {
		t.Fatalf("Expected ErrAllocation, got %v", err)
	}
	if s != nil {
		t.Error("Expected no partial scene")
	}
	if len(reported) == 0 || reported[0] != rtc.ErrorOutOfMemory {
		t.Errorf("Expected out of memory report, got %v", reported)
	}
}

func TestBuild_SkipsIDHoles(t *testing.T) {
	model := swc.NewModel([]swc.Node{
		node(1, swc.Soma, 0, 0, 0, 2, -1),
		node(3, swc.Axon, 10, 0, 0, 1, 1),
		node(4, swc.Axon, 20, 0, 0, 1, 3),
	})

	s, err := Build(rtc.NewDevice(), model, core.Transform{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	// NodeCount is 3, so id 4 is never visited
	if s.Counts().Neurites != 1 {
		t.Errorf("Expected 1 neurite segment, got %d", s.Counts().Neurites)
	}
}
