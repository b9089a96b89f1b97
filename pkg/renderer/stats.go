package renderer

import (
	"image"
	"time"
)

// RenderStats contains statistics about one capture
type RenderStats struct {
	TotalPixels  int64         // Pixels rendered
	TotalSamples int64         // Rays cast
	Hits         int64         // Pixels where at least one ray hit geometry
	Misses       int64         // Pixels where every ray missed
	Tiles        int           // Tiles rendered
	Elapsed      time.Duration // Wall time of the render
}

// PixelResult is what a pixel function reports back for statistics
type PixelResult struct {
	Samples int  // Rays cast for this pixel
	Hit     bool // Whether any of them hit geometry
}

// add accumulates a single pixel
func (s *RenderStats) add(p PixelResult) {
	s.TotalPixels++
	s.TotalSamples += int64(p.Samples)
	if p.Hit {
		s.Hits++
	} else {
		s.Misses++
	}
}

// Merge adds the counters of other into s. Elapsed is left alone.
func (s *RenderStats) Merge(other RenderStats) {
	s.TotalPixels += other.TotalPixels
	s.TotalSamples += other.TotalSamples
	s.Hits += other.Hits
	s.Misses += other.Misses
	s.Tiles += other.Tiles
}

// AverageSamples returns the mean number of rays per pixel
func (s RenderStats) AverageSamples() float64 {
	if s.TotalPixels == 0 {
		return 0
	}
	return float64(s.TotalSamples) / float64(s.TotalPixels)
}

// Coverage returns the fraction of pixels that hit geometry
func (s RenderStats) Coverage() float64 {
	if s.TotalPixels == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.TotalPixels)
}

// CalculateAverageLuminance returns the mean Rec. 709 luminance of img in [0, 1]
func CalculateAverageLuminance(img image.Image) float64 {
	bounds := img.Bounds()
	if bounds.Empty() {
		return 0
	}

	var total float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			total += (0.2126*float64(r) + 0.7152*float64(g) + 0.0722*float64(b)) / 0xffff
		}
	}
	return total / float64(bounds.Dx()*bounds.Dy())
}
