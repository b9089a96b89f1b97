package renderer

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

// PixelFunc renders the pixel at (x, y). It must write only that pixel's
// output and must be safe to call from several goroutines at once.
type PixelFunc func(x, y int) PixelResult

// TileTask represents a tile rendering task for the worker pool
type TileTask struct {
	Tile   *Tile
	TaskID int // Index into the result slots, for deterministic merging
}

// TileResult contains the result from rendering a tile
type TileResult struct {
	TaskID int
	Stats  RenderStats
}

// WorkerPool renders tiles on a fixed number of worker goroutines
type WorkerPool struct {
	numWorkers int
	tileSize   int
}

// DefaultTileSize is used when the pool is created with a non-positive tile size
const DefaultTileSize = 32

// NewWorkerPool creates a worker pool with the specified number of workers.
// numWorkers <= 0 uses one worker per CPU.
func NewWorkerPool(numWorkers, tileSize int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if tileSize <= 0 {
		tileSize = DefaultTileSize
	}
	return &WorkerPool{numWorkers: numWorkers, tileSize: tileSize}
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// GetTileSize returns the tile edge length in pixels
func (wp *WorkerPool) GetTileSize() int {
	return wp.tileSize
}

// Render calls pixel exactly once for every pixel of a width x height image.
// Workers pull tiles from a shared queue; stats are merged in tile order
// after all workers finish. Cancelling ctx stops workers at the next row and
// Render returns ctx.Err().
func (wp *WorkerPool) Render(ctx context.Context, width, height int, pixel PixelFunc) (RenderStats, error) {
	start := time.Now()
	tiles := NewTileGrid(width, height, wp.tileSize)

	taskQueue := make(chan TileTask, len(tiles))
	for i, tile := range tiles {
		taskQueue <- TileTask{Tile: tile, TaskID: i}
	}
	close(taskQueue)

	results := make([]TileResult, len(tiles))
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < min(wp.numWorkers, max(len(tiles), 1)); i++ {
		g.Go(func() error {
			for task := range taskQueue {
				// Each task owns its result slot, no locking needed
				result, err := renderTile(gctx, task, pixel)
				if err != nil {
					return err
				}
				results[task.TaskID] = result
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return RenderStats{}, err
	}
	// A pixel function may bail out early on cancellation without failing
	if err := ctx.Err(); err != nil {
		return RenderStats{}, err
	}

	var stats RenderStats
	for _, result := range results {
		stats.Merge(result.Stats)
	}
	stats.Elapsed = time.Since(start)
	return stats, nil
}

// renderTile renders every pixel of one tile, checking ctx once per row
func renderTile(ctx context.Context, task TileTask, pixel PixelFunc) (TileResult, error) {
	bounds := task.Tile.Bounds
	stats := RenderStats{Tiles: 1}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		if err := ctx.Err(); err != nil {
			return TileResult{}, err
		}
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			stats.add(pixel(x, y))
		}
	}
	return TileResult{TaskID: task.TaskID, Stats: stats}, nil
}
