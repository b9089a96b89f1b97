package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chewxy/math32"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/neuroscope/go-neuroscope/pkg/config"
	"github.com/neuroscope/go-neuroscope/pkg/core"
	"github.com/neuroscope/go-neuroscope/pkg/imageio"
	"github.com/neuroscope/go-neuroscope/pkg/swc"
	"github.com/neuroscope/go-neuroscope/pkg/tissue"
)

const manifestName = "manifest.toml"

// batchOpts holds the flags of the batch command
type batchOpts struct {
	count  int    // captures per morphology
	seed   uint32 // rotation LCG seed
	outDir string // directory for images and manifest
	format string // image format of every capture
}

func newBatchCmd() *cobra.Command {
	job := config.Default()
	var configPath string
	opts := batchOpts{count: 8, seed: 1, outDir: "captures", format: "png"}

	cmd := &cobra.Command{
		Use:   "batch <file.swc|dir>",
		Short: "Capture many randomly rotated images of one or more morphologies",
		Long: `Batch renders --count captures per morphology, each under a rotation drawn
from a seeded generator, and writes <uuid>.<format> images plus a manifest.toml
recording the job and the transform of every image. A directory argument
captures every .swc file in it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadJob(cmd.Flags(), &job, configPath); err != nil {
				return err
			}
			if opts.count <= 0 {
				return fmt.Errorf("count must be positive, got %d", opts.count)
			}
			if _, err := imageio.ParseFormat(opts.format); err != nil {
				return err
			}

			paths, err := morphologyPaths(args[0])
			if err != nil {
				return err
			}
			manifest, err := runBatch(cmd.Context(), job, paths, opts)
			if err != nil {
				return err
			}
			return config.WriteManifest(filepath.Join(opts.outDir, manifestName), manifest)
		},
	}

	addJobFlags(cmd.Flags(), &job)
	cmd.Flags().StringVar(&configPath, "config", "", "TOML job file")
	cmd.Flags().IntVarP(&opts.count, "count", "n", opts.count, "captures per morphology")
	cmd.Flags().Uint32Var(&opts.seed, "seed", opts.seed, "rotation generator seed")
	cmd.Flags().StringVarP(&opts.outDir, "out-dir", "o", opts.outDir, "output directory")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "image format: png, tif, bmp")

	return cmd
}

// morphologyPaths returns path itself, or every .swc file when path is a directory
func morphologyPaths(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	infos, err := swc.Discover(path)
	if err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		return nil, fmt.Errorf("no .swc files in %s", path)
	}
	paths := make([]string, len(infos))
	for i, info := range infos {
		paths[i] = info.Path
	}
	return paths, nil
}

// runBatch captures every morphology opts.count times with one microscope.
// Rotations come from a single generator stream so a seed reproduces the batch.
func runBatch(ctx context.Context, job config.Job, paths []string, opts batchOpts) (config.Manifest, error) {
	logger := loggerFromContext(ctx)

	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return config.Manifest{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	scope, err := newMicroscope(job, logger)
	if err != nil {
		return config.Manifest{}, err
	}
	t := tissue.NewWithConfig(job.TissueConfig())
	rng := core.NewLCG(opts.seed)
	position := job.RigidTransform().Position

	manifest := config.Manifest{Job: job}
	prog := newProgress(logger)
	for _, path := range paths {
		model, err := swc.Load(path)
		if err != nil {
			return config.Manifest{}, err
		}

		for i := 0; i < opts.count; i++ {
			tr := core.NewTransform(position, randomRotation(&rng))
			if err := scope.Capture(ctx, model, t, tr); err != nil {
				return config.Manifest{}, fmt.Errorf("%s: %w", path, err)
			}

			capture := config.Capture{
				ID:         uuid.NewString(),
				Morphology: path,
			}
			capture.File = capture.ID + "." + opts.format
			if err := imageio.Save(filepath.Join(opts.outDir, capture.File), scope.Sensor().Image()); err != nil {
				return config.Manifest{}, err
			}

			captureJob := job
			captureJob.SetRigidTransform(tr)
			capture.Transform = captureJob.Transform
			manifest.Captures = append(manifest.Captures, capture)
			logger.Debug("captured", "morphology", path, "file", capture.File)
		}
	}

	prog.done(fmt.Sprintf("Captured %d images into %s", len(manifest.Captures), opts.outDir))
	return manifest, nil
}

// randomRotation draws Euler angles uniformly from [0, 2π)
func randomRotation(rng *core.LCG) core.Vec3 {
	return core.NewVec3(
		rng.Float32()*2*math32.Pi,
		rng.Float32()*2*math32.Pi,
		rng.Float32()*2*math32.Pi,
	)
}
