package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/neuroscope/go-neuroscope/pkg/config"
	"github.com/neuroscope/go-neuroscope/pkg/imageio"
	"github.com/neuroscope/go-neuroscope/pkg/tissue"
)

func newTissueCmd() *cobra.Command {
	job := config.Default()
	job.Output = "tissue.png"
	var annotate annotateOpts

	cmd := &cobra.Command{
		Use:   "tissue",
		Short: "Render the tissue background density map",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := job.Microscope
			if err := job.Validate(); err != nil {
				return err
			}
			if _, err := imageio.FormatFromPath(job.Output); err != nil {
				return err
			}

			logger := loggerFromContext(cmd.Context())
			prog := newProgress(logger)
			t := tissue.NewWithConfig(job.TissueConfig())
			logger.Debug("tissue config", "seed", job.Tissue.Seed, "coverage", job.Tissue.Coverage, "maxDensity", job.Tissue.MaxDensity)

			img, err := t.Image(cmd.Context(), m.Width, m.Height, m.VerticalFOV)
			if err != nil {
				return err
			}
			if err := writeImage(job.Output, img, annotate, m.VerticalFOV); err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Rendered tissue map %s", job.Output))
			return nil
		},
	}

	m := &job.Microscope
	cmd.Flags().IntVar(&m.Width, "width", m.Width, "image width in pixels")
	cmd.Flags().IntVar(&m.Height, "height", m.Height, "image height in pixels")
	cmd.Flags().Float32Var(&m.VerticalFOV, "fov", m.VerticalFOV, "vertical field of view in scene units")
	addTissueFlags(cmd.Flags(), &job.Tissue)
	addAnnotateFlags(cmd.Flags(), &annotate)
	cmd.Flags().StringVarP(&job.Output, "output", "o", job.Output, "output image (.png, .tif, .bmp)")

	return cmd
}
