// Package config reads capture jobs from TOML files and turns them into
// microscope, tissue and transform settings.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/neuroscope/go-neuroscope/pkg/core"
	"github.com/neuroscope/go-neuroscope/pkg/microscope"
	"github.com/neuroscope/go-neuroscope/pkg/tissue"
)

// Job describes one capture: what to image, how, and where to write it
type Job struct {
	Morphology   string       `toml:"morphology"`
	Output       string       `toml:"output"`
	Microscope   Microscope   `toml:"microscope"`
	Transform    Transform    `toml:"transform"`
	Tissue       Tissue       `toml:"tissue"`
	Fluorescence Fluorescence `toml:"fluorescence"`
}

// Microscope is the [microscope] table
type Microscope struct {
	Kind             string  `toml:"kind"`
	Width            int     `toml:"width"`
	Height           int     `toml:"height"`
	VerticalFOV      float32 `toml:"vertical_fov"`
	Elevation        float32 `toml:"elevation"`
	DistancePerSlice float32 `toml:"distance_per_slice"`
	AxialFWHM        float32 `toml:"axial_fwhm"`
	Workers          int     `toml:"workers"`
	TileSize         int     `toml:"tile_size"`
}

// Transform is the [transform] table; rotation is in radians
type Transform struct {
	Position [3]float32 `toml:"position"`
	Rotation [3]float32 `toml:"rotation"`
}

// Tissue is the [tissue] table
type Tissue struct {
	Seed       int     `toml:"seed"`
	Coverage   float32 `toml:"coverage"`
	MaxDensity float32 `toml:"max_density"`
}

// Fluorescence is the [fluorescence] table
type Fluorescence struct {
	Seed        int     `toml:"seed"`
	MinEmission float32 `toml:"min_emission"`
	MaxEmission float32 `toml:"max_emission"`
}

// Default returns a fluorescence job with every package default applied
func Default() Job {
	opts := microscope.DefaultOptions()
	tis := tissue.DefaultConfig()
	return Job{
		Output: "out.png",
		Microscope: Microscope{
			Kind:             microscope.KindFluorescence.String(),
			Width:            opts.Width,
			Height:           opts.Height,
			VerticalFOV:      opts.VerticalFOV,
			Elevation:        opts.Elevation,
			DistancePerSlice: opts.DistancePerSlice,
			AxialFWHM:        opts.AxialFWHM,
			Workers:          opts.Workers,
			TileSize:         opts.TileSize,
		},
		Tissue: Tissue{
			Seed:       tis.Seed,
			Coverage:   tis.Coverage,
			MaxDensity: tis.MaxDensity,
		},
		Fluorescence: Fluorescence{
			Seed:        opts.Fluorescence.Seed,
			MinEmission: opts.Fluorescence.MinEmission,
			MaxEmission: opts.Fluorescence.MaxEmission,
		},
	}
}

// ValidationError reports the first offending field of a job
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ErrUnknownKey is returned when a job file contains keys no field accepts
var ErrUnknownKey = errors.New("unknown key")

// Decode reads a job from r on top of Default()
func Decode(r io.Reader) (Job, error) {
	job := Default()
	md, err := toml.NewDecoder(r).Decode(&job)
	if err != nil {
		return Job{}, fmt.Errorf("failed to parse job: %w", err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return Job{}, fmt.Errorf("%w: %s", ErrUnknownKey, strings.Join(keys, ", "))
	}
	return job, nil
}

// Load reads and validates a job file. Relative morphology and output paths
// are resolved against the directory of the job file.
func Load(path string) (Job, error) {
	file, err := os.Open(path)
	if err != nil {
		return Job{}, fmt.Errorf("failed to open job file: %w", err)
	}
	defer file.Close()

	job, err := Decode(file)
	if err != nil {
		return Job{}, fmt.Errorf("%s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if job.Morphology != "" && !filepath.IsAbs(job.Morphology) {
		job.Morphology = filepath.Join(dir, job.Morphology)
	}
	if job.Output != "" && !filepath.IsAbs(job.Output) {
		job.Output = filepath.Join(dir, job.Output)
	}

	if err := job.Validate(); err != nil {
		return Job{}, fmt.Errorf("%s: %w", path, err)
	}
	return job, nil
}

// Encode writes the job as TOML
func (j Job) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(j)
}

// Validate checks the fields New and the capture pipeline would reject
func (j Job) Validate() error {
	kind, err := microscope.ParseKind(j.Microscope.Kind)
	if err != nil {
		return &ValidationError{Field: "microscope.kind", Reason: err.Error()}
	}

	m := j.Microscope
	switch {
	case m.Width <= 0:
		return &ValidationError{Field: "microscope.width", Reason: fmt.Sprintf("must be positive, got %d", m.Width)}
	case m.Height <= 0:
		return &ValidationError{Field: "microscope.height", Reason: fmt.Sprintf("must be positive, got %d", m.Height)}
	case m.VerticalFOV <= 0:
		return &ValidationError{Field: "microscope.vertical_fov", Reason: fmt.Sprintf("must be positive, got %g", m.VerticalFOV)}
	case m.Workers < 0:
		return &ValidationError{Field: "microscope.workers", Reason: fmt.Sprintf("must not be negative, got %d", m.Workers)}
	case m.TileSize < 0:
		return &ValidationError{Field: "microscope.tile_size", Reason: fmt.Sprintf("must not be negative, got %d", m.TileSize)}
	}

	if kind == microscope.KindMultiSliceFluorescence {
		if m.DistancePerSlice <= 0 {
			return &ValidationError{Field: "microscope.distance_per_slice", Reason: fmt.Sprintf("must be positive, got %g", m.DistancePerSlice)}
		}
		if m.AxialFWHM <= 0 {
			return &ValidationError{Field: "microscope.axial_fwhm", Reason: fmt.Sprintf("must be positive, got %g", m.AxialFWHM)}
		}
	}

	if !(j.Tissue.MaxDensity >= 0) {
		return &ValidationError{Field: "tissue.max_density", Reason: fmt.Sprintf("must not be negative, got %g", j.Tissue.MaxDensity)}
	}

	if j.Fluorescence.MinEmission > j.Fluorescence.MaxEmission {
		return &ValidationError{
			Field:  "fluorescence.min_emission",
			Reason: fmt.Sprintf("%g exceeds max_emission %g", j.Fluorescence.MinEmission, j.Fluorescence.MaxEmission),
		}
	}
	return nil
}

// Kind returns the parsed microscope kind
func (j Job) Kind() (microscope.Kind, error) {
	return microscope.ParseKind(j.Microscope.Kind)
}

// MicroscopeOptions converts the job into microscope options. Device and
// Logger are left for the caller.
func (j Job) MicroscopeOptions() microscope.Options {
	m := j.Microscope
	return microscope.Options{
		Width:            m.Width,
		Height:           m.Height,
		VerticalFOV:      m.VerticalFOV,
		Elevation:        m.Elevation,
		DistancePerSlice: m.DistancePerSlice,
		AxialFWHM:        m.AxialFWHM,
		Fluorescence: microscope.FluorescenceConfig{
			Seed:        j.Fluorescence.Seed,
			MinEmission: j.Fluorescence.MinEmission,
			MaxEmission: j.Fluorescence.MaxEmission,
		},
		Workers:  m.Workers,
		TileSize: m.TileSize,
	}
}

// TissueConfig converts the [tissue] table
func (j Job) TissueConfig() tissue.Config {
	return tissue.Config{
		Seed:       j.Tissue.Seed,
		Coverage:   j.Tissue.Coverage,
		MaxDensity: j.Tissue.MaxDensity,
	}
}

// RigidTransform converts the [transform] table
func (j Job) RigidTransform() core.Transform {
	p, r := j.Transform.Position, j.Transform.Rotation
	return core.NewTransform(core.NewVec3(p[0], p[1], p[2]), core.NewVec3(r[0], r[1], r[2]))
}

// SetRigidTransform stores t in the [transform] table
func (j *Job) SetRigidTransform(t core.Transform) {
	j.Transform = Transform{
		Position: [3]float32{t.Position.X, t.Position.Y, t.Position.Z},
		Rotation: [3]float32{t.Rotation.X, t.Rotation.Y, t.Rotation.Z},
	}
}
