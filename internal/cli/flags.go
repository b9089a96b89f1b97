package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/chewxy/math32"
	"github.com/spf13/pflag"

	"github.com/neuroscope/go-neuroscope/pkg/config"
	"github.com/neuroscope/go-neuroscope/pkg/imageio"
)

// vec3Value is a pflag.Value reading "x,y,z" into a [3]float32
type vec3Value struct {
	v *[3]float32
}

func (v vec3Value) String() string {
	if v.v == nil {
		return ""
	}
	return fmt.Sprintf("%g,%g,%g", v.v[0], v.v[1], v.v[2])
}

func (v vec3Value) Set(s string) error {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return fmt.Errorf("expected x,y,z, got %q", s)
	}
	var out [3]float32
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return fmt.Errorf("invalid component %q: %w", part, err)
		}
		out[i] = float32(f)
	}
	*v.v = out
	return nil
}

func (v vec3Value) Type() string {
	return "x,y,z"
}

// addJobFlags binds the microscope, transform, tissue and fluorescence
// settings of job to flags. Current job values become the flag defaults.
func addJobFlags(fs *pflag.FlagSet, job *config.Job) {
	m := &job.Microscope
	fs.StringVar(&m.Kind, "kind", m.Kind, "microscope: segmentation, fluorescence, multislice")
	fs.IntVar(&m.Width, "width", m.Width, "sensor width in pixels")
	fs.IntVar(&m.Height, "height", m.Height, "sensor height in pixels")
	fs.Float32Var(&m.VerticalFOV, "fov", m.VerticalFOV, "vertical field of view in scene units")
	fs.Float32Var(&m.Elevation, "elevation", m.Elevation, "ray start height of the segmentation microscope")
	fs.Float32Var(&m.DistancePerSlice, "slice-distance", m.DistancePerSlice, "slice spacing of the multislice microscope")
	fs.Float32Var(&m.AxialFWHM, "fwhm", m.AxialFWHM, "axial PSF full width at half maximum")
	fs.IntVar(&m.Workers, "workers", m.Workers, "render workers (0 = one per CPU)")
	fs.IntVar(&m.TileSize, "tile-size", m.TileSize, "tile edge in pixels")

	fs.Var(vec3Value{&job.Transform.Position}, "position", "morphology translation")
	fs.Var(vec3Value{&job.Transform.Rotation}, "rotation", "morphology rotation in radians, applied X then Y then Z")

	addTissueFlags(fs, &job.Tissue)

	f := &job.Fluorescence
	fs.IntVar(&f.Seed, "fluo-seed", f.Seed, "emission noise seed")
	fs.Float32Var(&f.MinEmission, "min-emission", f.MinEmission, "lower emission bound")
	fs.Float32Var(&f.MaxEmission, "max-emission", f.MaxEmission, "upper emission bound")
}

func addTissueFlags(fs *pflag.FlagSet, t *config.Tissue) {
	fs.IntVar(&t.Seed, "tissue-seed", t.Seed, "tissue noise seed")
	fs.Float32Var(&t.Coverage, "coverage", t.Coverage, "tissue coverage bias")
	fs.Float32Var(&t.MaxDensity, "max-density", t.MaxDensity, "upper tissue density bound")
}

// loadJob replaces job with the file at path, then reapplies every flag the
// user set so that flags win over the file. With an empty path job is only
// validated.
func loadJob(fs *pflag.FlagSet, job *config.Job, path string) error {
	if path != "" {
		changed := make(map[string]string)
		fs.Visit(func(f *pflag.Flag) {
			changed[f.Name] = f.Value.String()
		})

		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		*job = loaded

		for name, value := range changed {
			if err := fs.Set(name, value); err != nil {
				return fmt.Errorf("failed to reapply --%s: %w", name, err)
			}
		}
	}
	return job.Validate()
}

var errNoMorphology = errors.New("no morphology given")

// annotateOpts controls the optional label and scale bar of an output image
type annotateOpts struct {
	label    string
	scaleBar float32 // bar length in scene units
}

func addAnnotateFlags(fs *pflag.FlagSet, a *annotateOpts) {
	fs.StringVar(&a.label, "label", "", "text burned into the bottom left corner")
	fs.Float32Var(&a.scaleBar, "scale-bar", 0, "draw a scale bar of this length in scene units")
}

func (a annotateOpts) enabled() bool {
	return a.label != "" || a.scaleBar > 0
}

// annotation converts the options for an image of the given height
// covering verticalFOV scene units
func (a annotateOpts) annotation(height int, verticalFOV float32) imageio.Annotation {
	out := imageio.Annotation{Label: a.label}
	if a.scaleBar > 0 && verticalFOV > 0 {
		out.BarPixels = int(math32.Round(a.scaleBar * float32(height) / verticalFOV))
		if out.Label == "" {
			out.Label = fmt.Sprintf("%g um", a.scaleBar)
		}
	}
	return out
}
