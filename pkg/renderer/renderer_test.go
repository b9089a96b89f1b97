package renderer

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync/atomic"
	"testing"

	"github.com/neuroscope/go-neuroscope/pkg/core"
)

func TestNewTileGrid(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		tileSize      int
		expectedTiles int
	}{
		{"exact fit", 64, 64, 32, 4},
		{"partial edge tiles", 70, 33, 32, 6},
		{"single tile", 10, 10, 32, 1},
		{"empty image", 0, 10, 32, 0},
		{"invalid tile size", 10, 10, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tiles := NewTileGrid(tt.width, tt.height, tt.tileSize)
			if len(tiles) != tt.expectedTiles {
				t.Fatalf("Expected %d tiles, got %d", tt.expectedTiles, len(tiles))
			}

			// Tiles must cover every pixel exactly once
			area := 0
			for i, tile := range tiles {
				if tile.ID != i {
					t.Errorf("Expected tile id %d, got %d", i, tile.ID)
				}
				if !tile.Bounds.In(image.Rect(0, 0, tt.width, tt.height)) {
					t.Errorf("Tile %d bounds %v exceed the image", i, tile.Bounds)
				}
				area += tile.Bounds.Dx() * tile.Bounds.Dy()
			}
			if len(tiles) > 0 && area != tt.width*tt.height {
				t.Errorf("Expected tiles to cover %d pixels, got %d", tt.width*tt.height, area)
			}
		})
	}
}

func TestWorkerPool_RendersEveryPixelOnce(t *testing.T) {
	const width, height = 45, 37

	for _, workers := range []int{1, 3, 16} {
		counts := make([]int32, width*height)
		pool := NewWorkerPool(workers, 8)

		stats, err := pool.Render(context.Background(), width, height, func(x, y int) PixelResult {
			atomic.AddInt32(&counts[y*width+x], 1)
			return PixelResult{Samples: 4, Hit: x < 10}
		})
		if err != nil {
			t.Fatalf("Render with %d workers failed: %v", workers, err)
		}

		for i, count := range counts {
			if count != 1 {
				t.Fatalf("%d workers: pixel %d rendered %d times", workers, i, count)
			}
		}
		if stats.TotalPixels != width*height {
			t.Errorf("Expected %d pixels, got %d", width*height, stats.TotalPixels)
		}
		if stats.TotalSamples != 4*width*height {
			t.Errorf("Expected %d samples, got %d", 4*width*height, stats.TotalSamples)
		}
		if stats.Hits != 10*height || stats.Misses != (width-10)*height {
			t.Errorf("Expected %d hits and %d misses, got %d and %d", 10*height, (width-10)*height, stats.Hits, stats.Misses)
		}
		if stats.Tiles != len(NewTileGrid(width, height, 8)) {
			t.Errorf("Expected %d tiles, got %d", len(NewTileGrid(width, height, 8)), stats.Tiles)
		}
	}
}

func TestWorkerPool_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewWorkerPool(2, 4).Render(ctx, 16, 16, func(x, y int) PixelResult {
		return PixelResult{}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestWorkerPool_CancelledMidTile(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// One worker, one 64x64 tile; cancel after the first pixel
	var calls atomic.Int64
	_, err := NewWorkerPool(1, 64).Render(ctx, 64, 64, func(x, y int) PixelResult {
		if calls.Add(1) == 1 {
			cancel()
		}
		return PixelResult{}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if got := calls.Load(); got != 64 {
		t.Errorf("Expected rendering to stop after the first row (64 pixels), got %d", got)
	}
}

func TestWorkerPool_Defaults(t *testing.T) {
	pool := NewWorkerPool(0, 0)
	if pool.GetNumWorkers() < 1 {
		t.Errorf("Expected at least one worker, got %d", pool.GetNumWorkers())
	}
	if pool.GetTileSize() != DefaultTileSize {
		t.Errorf("Expected tile size %d, got %d", DefaultTileSize, pool.GetTileSize())
	}

	stats, err := pool.Render(context.Background(), 0, 0, func(x, y int) PixelResult {
		t.Error("Pixel function called for an empty image")
		return PixelResult{}
	})
	if err != nil || stats.TotalPixels != 0 {
		t.Errorf("Expected empty render, got %+v, %v", stats, err)
	}
}

func TestRenderStats(t *testing.T) {
	var stats RenderStats
	if stats.AverageSamples() != 0 || stats.Coverage() != 0 {
		t.Error("Expected zero ratios for empty stats")
	}

	stats.Merge(RenderStats{TotalPixels: 4, TotalSamples: 64, Hits: 1, Misses: 3, Tiles: 1})
	stats.Merge(RenderStats{TotalPixels: 4, TotalSamples: 64, Hits: 3, Misses: 1, Tiles: 1})

	if stats.AverageSamples() != 16 {
		t.Errorf("Expected 16 samples per pixel, got %f", stats.AverageSamples())
	}
	if stats.Coverage() != 0.5 {
		t.Errorf("Expected coverage 0.5, got %f", stats.Coverage())
	}
	if stats.Tiles != 2 {
		t.Errorf("Expected 2 tiles, got %d", stats.Tiles)
	}
}

func TestCalculateAverageLuminance(t *testing.T) {
	// Red 0.2126 + green 0.7152 + blue 0.0722 + black 0 = 1.0 over 4 pixels
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	img.Set(1, 0, color.RGBA{0, 255, 0, 255})
	img.Set(0, 1, color.RGBA{0, 0, 255, 255})
	img.Set(1, 1, color.RGBA{0, 0, 0, 255})

	avgLum := CalculateAverageLuminance(img)
	expected := 0.25
	tolerance := 0.0001

	if avgLum < expected-tolerance || avgLum > expected+tolerance {
		t.Errorf("Expected average luminosity %f, got %f", expected, avgLum)
	}

	gray := image.NewGray(image.Rect(0, 0, 1, 1))
	gray.Pix[0] = 255
	if lum := CalculateAverageLuminance(gray); lum < 1-tolerance || lum > 1+tolerance {
		t.Errorf("Expected white luminosity 1, got %f", lum)
	}
}

func TestCamera_PlanePoint(t *testing.T) {
	camera := NewCamera(200, 100, 50)

	tests := []struct {
		name     string
		x, y     int
		jitter   core.Vec2
		expected core.Vec2
	}{
		{"top left corner", 0, 0, core.Vec2{}, core.NewVec2(-50, -25)},
		{"center", 100, 50, core.Vec2{}, core.NewVec2(0, 0)},
		{"far corner", 199, 99, core.NewVec2(1, 1), core.NewVec2(50, 25)},
		{"pixel center", 0, 0, PixelCenter, core.NewVec2(-49.75, -24.75)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := camera.PlanePoint(tt.x, tt.y, tt.jitter)
			if core.NewVec2(got.X-tt.expected.X, got.Y-tt.expected.Y).Length() > 1e-4 {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}
