package core

import "github.com/chewxy/math32"

// Transform is a rigid transform: rotation by Euler angles followed by translation.
// The rotation is applied as R = Rz·Ry·Rx, i.e. about X first, then Y, then Z.
// The zero value is the identity.
type Transform struct {
	Position Vec3 // Translation added after rotation
	Rotation Vec3 // Euler angles in radians
}

// NewTransform creates a transform from a translation and Euler angles
func NewTransform(position, rotation Vec3) Transform {
	return Transform{Position: position, Rotation: rotation}
}

// Matrix returns the row-major rotation matrix Rz·Ry·Rx
func (t Transform) Matrix() [3][3]float32 {
	sx, cx := math32.Sincos(t.Rotation.X)
	sy, cy := math32.Sincos(t.Rotation.Y)
	sz, cz := math32.Sincos(t.Rotation.Z)

	return [3][3]float32{
		{cz * cy, cz*sy*sx - sz*cx, cz*sy*cx + sz*sx},
		{sz * cy, sz*sy*sx + cz*cx, sz*sy*cx - cz*sx},
		{-sy, cy * sx, cy * cx},
	}
}

// Apply rotates p and then translates it
func (t Transform) Apply(p Vec3) Vec3 {
	m := t.Matrix()
	r := Vec3{
		X: m[0][0]*p.X + m[0][1]*p.Y + m[0][2]*p.Z,
		Y: m[1][0]*p.X + m[1][1]*p.Y + m[1][2]*p.Z,
		Z: m[2][0]*p.X + m[2][1]*p.Y + m[2][2]*p.Z,
	}
	return r.Add(t.Position)
}

// Applier caches the rotation matrix so a transform can be applied to many points
type Applier struct {
	m        [3][3]float32
	position Vec3
}

// Applier precomputes the rotation matrix of t
func (t Transform) Applier() Applier {
	return Applier{m: t.Matrix(), position: t.Position}
}

// Apply rotates p and then translates it
func (a Applier) Apply(p Vec3) Vec3 {
	m := &a.m
	return Vec3{
		X: m[0][0]*p.X + m[0][1]*p.Y + m[0][2]*p.Z + a.position.X,
		Y: m[1][0]*p.X + m[1][1]*p.Y + m[1][2]*p.Z + a.position.Y,
		Z: m[2][0]*p.X + m[2][1]*p.Y + m[2][2]*p.Z + a.position.Z,
	}
}
