package renderer

import "github.com/neuroscope/go-neuroscope/pkg/core"

// Camera maps pixel coordinates to points on an orthographic image plane
// centered on the optical axis. The plane spans verticalFOV units
// vertically and keeps the pixel aspect ratio horizontally.
type Camera struct {
	width   float32
	height  float32
	aspect  float32
	halfFOV float32
}

// NewCamera creates a camera for a width x height sensor
func NewCamera(width, height int, verticalFOV float32) Camera {
	return Camera{
		width:   float32(width),
		height:  float32(height),
		aspect:  float32(width) / float32(height),
		halfFOV: verticalFOV * 0.5,
	}
}

// PlanePoint returns the plane position of pixel (x, y) offset by jitter,
// where jitter (0.5, 0.5) is the pixel centre
func (c Camera) PlanePoint(x, y int, jitter core.Vec2) core.Vec2 {
	u := (float32(x) + jitter.X) / c.width
	v := (float32(y) + jitter.Y) / c.height
	return core.Vec2{
		X: (u*2 - 1) * c.aspect * c.halfFOV,
		Y: (v*2 - 1) * c.halfFOV,
	}
}

// PixelCenter is the jitter that samples the middle of a pixel
var PixelCenter = core.Vec2{X: 0.5, Y: 0.5}
