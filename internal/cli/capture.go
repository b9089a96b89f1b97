package cli

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/neuroscope/go-neuroscope/pkg/config"
	"github.com/neuroscope/go-neuroscope/pkg/imageio"
	"github.com/neuroscope/go-neuroscope/pkg/microscope"
	"github.com/neuroscope/go-neuroscope/pkg/swc"
	"github.com/neuroscope/go-neuroscope/pkg/tissue"
)

func newCaptureCmd() *cobra.Command {
	job := config.Default()
	var configPath string
	var annotate annotateOpts

	cmd := &cobra.Command{
		Use:   "capture [file.swc]",
		Short: "Capture one synthetic microscopy image of a morphology",
		Long: `Capture renders a morphology through the selected microscope and writes the
sensor image. Settings come from flags, a TOML job file (--config), or both;
flags override the file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadJob(cmd.Flags(), &job, configPath); err != nil {
				return err
			}
			if len(args) == 1 {
				job.Morphology = args[0]
			}
			if job.Morphology == "" {
				return errNoMorphology
			}
			return runCapture(cmd.Context(), job, annotate)
		},
	}

	addJobFlags(cmd.Flags(), &job)
	addAnnotateFlags(cmd.Flags(), &annotate)
	cmd.Flags().StringVar(&configPath, "config", "", "TOML job file")
	cmd.Flags().StringVarP(&job.Output, "output", "o", job.Output, "output image (.png, .tif, .bmp)")

	return cmd
}

// runCapture renders job once and writes the image to job.Output
func runCapture(ctx context.Context, job config.Job, annotate annotateOpts) error {
	logger := loggerFromContext(ctx)

	if _, err := imageio.FormatFromPath(job.Output); err != nil {
		return err
	}

	model, err := swc.Load(job.Morphology)
	if err != nil {
		return err
	}
	logger.Debug("loaded morphology", "path", job.Morphology, "nodes", model.NodeCount())

	scope, err := newMicroscope(job, logger)
	if err != nil {
		return err
	}

	prog := newProgress(logger)
	if err := scope.Capture(ctx, model, tissue.NewWithConfig(job.TissueConfig()), job.RigidTransform()); err != nil {
		return err
	}

	if err := writeImage(job.Output, scope.Sensor().Image(), annotate, job.Microscope.VerticalFOV); err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Captured %s", job.Output))
	return nil
}

// newMicroscope creates the microscope the job asks for, logging to logger
func newMicroscope(job config.Job, logger *log.Logger) (microscope.Microscope, error) {
	kind, err := job.Kind()
	if err != nil {
		return nil, err
	}
	opts := job.MicroscopeOptions()
	opts.Logger = logger
	return microscope.New(kind, opts)
}

// writeImage annotates img if requested and saves it, creating parent directories
func writeImage(path string, img image.Image, annotate annotateOpts, verticalFOV float32) error {
	if annotate.enabled() {
		img = imageio.Annotate(img, annotate.annotation(img.Bounds().Dy(), verticalFOV))
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	return imageio.Save(path, img)
}

