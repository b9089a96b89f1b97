package microscope

import (
	"image"
	"image/color"
)

// Sensor is the pixel buffer a microscope renders into: width x height
// pixels of 1 (gray) or 3 (RGB) byte channels, row-major.
type Sensor struct {
	width    int
	height   int
	channels int
	pixels   []byte
}

// NewSensor allocates a zeroed sensor
func NewSensor(width, height, channels int) *Sensor {
	return &Sensor{
		width:    width,
		height:   height,
		channels: channels,
		pixels:   make([]byte, width*height*channels),
	}
}

// Width returns the sensor width in pixels
func (s *Sensor) Width() int { return s.width }

// Height returns the sensor height in pixels
func (s *Sensor) Height() int { return s.height }

// Channels returns the number of bytes per pixel
func (s *Sensor) Channels() int { return s.channels }

// Pixels returns the underlying buffer without copying
func (s *Sensor) Pixels() []byte { return s.pixels }

// CopyPixels returns a copy of the buffer
func (s *Sensor) CopyPixels() []byte {
	out := make([]byte, len(s.pixels))
	copy(out, s.pixels)
	return out
}

// Pixel returns the channel values of pixel (x, y)
func (s *Sensor) Pixel(x, y int) []byte {
	i := (y*s.width + x) * s.channels
	return s.pixels[i : i+s.channels]
}

// setGray writes a single channel pixel
func (s *Sensor) setGray(x, y int, value byte) {
	s.pixels[y*s.width+x] = value
}

// setRGB writes a three channel pixel
func (s *Sensor) setRGB(x, y int, c color.RGBA) {
	i := (y*s.width + x) * 3
	s.pixels[i] = c.R
	s.pixels[i+1] = c.G
	s.pixels[i+2] = c.B
}

// Image returns a copy of the sensor as *image.Gray or *image.RGBA
func (s *Sensor) Image() image.Image {
	rect := image.Rect(0, 0, s.width, s.height)
	if s.channels == 1 {
		return &image.Gray{Pix: s.CopyPixels(), Stride: s.width, Rect: rect}
	}

	img := image.NewRGBA(rect)
	for p := 0; p < s.width*s.height; p++ {
		copy(img.Pix[4*p:4*p+3], s.pixels[s.channels*p:s.channels*p+3])
		img.Pix[4*p+3] = 0xff
	}
	return img
}
