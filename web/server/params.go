package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/chewxy/math32"

	"github.com/neuroscope/go-neuroscope/pkg/config"
	"github.com/neuroscope/go-neuroscope/pkg/imageio"
	"github.com/neuroscope/go-neuroscope/pkg/microscope"
	"github.com/neuroscope/go-neuroscope/pkg/swc"
)

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("%w %s: %s", errInvalidParam, key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%w: %s must be between %d and %d, got: %d", errInvalidParam, key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseFloatParam parses a float parameter from URL query with validation
func parseFloatParam(values url.Values, key string, defaultValue, min, max float32) (float32, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 32)
		if err != nil {
			return 0, fmt.Errorf("%w %s: %s", errInvalidParam, key, value)
		}
		f := float32(parsed)
		if math32.IsNaN(f) || math32.IsInf(f, 0) || f < min || f > max {
			return 0, fmt.Errorf("%w: %s must be between %g and %g, got: %g", errInvalidParam, key, min, max, f)
		}
		return f, nil
	}
	return defaultValue, nil
}

type floatParam struct {
	key      string
	dst      *float32
	min, max float32
}

func parseFloatParams(values url.Values, params []floatParam) error {
	for _, p := range params {
		v, err := parseFloatParam(values, p.key, *p.dst, p.min, p.max)
		if err != nil {
			return err
		}
		*p.dst = v
	}
	return nil
}

// parseImageParams reads width, height and fov into job
func parseImageParams(values url.Values, job *config.Job) error {
	m := &job.Microscope
	var err error
	if m.Width, err = parseIntParam(values, "width", m.Width, 1, maxImageSize); err != nil {
		return err
	}
	if m.Height, err = parseIntParam(values, "height", m.Height, 1, maxImageSize); err != nil {
		return err
	}
	return parseFloatParams(values, []floatParam{
		{"fov", &m.VerticalFOV, 1e-3, 1e6},
	})
}

// parseTissueParams reads seed, coverage and maxDensity into job
func parseTissueParams(values url.Values, job *config.Job) error {
	t := &job.Tissue
	var err error
	if t.Seed, err = parseIntParam(values, "seed", t.Seed, -1<<31, 1<<31-1); err != nil {
		return err
	}
	return parseFloatParams(values, []floatParam{
		{"coverage", &t.Coverage, -10, 10},
		{"maxDensity", &t.MaxDensity, 0, 1},
	})
}

// parseCaptureRequest builds a capture job and output format from the query
func parseCaptureRequest(values url.Values, workers int) (config.Job, imageio.Format, error) {
	job := config.Default()
	job.Microscope.Workers = workers
	if kind := values.Get("kind"); kind != "" {
		job.Microscope.Kind = kind
	}

	format := imageio.FormatPNG
	if name := values.Get("format"); name != "" {
		f, err := imageio.ParseFormat(name)
		if err != nil {
			return config.Job{}, 0, err
		}
		format = f
	}

	if err := parseImageParams(values, &job); err != nil {
		return config.Job{}, 0, err
	}
	if err := parseTissueParams(values, &job); err != nil {
		return config.Job{}, 0, err
	}

	m := &job.Microscope
	f := &job.Fluorescence
	p := &job.Transform.Position
	rot := &job.Transform.Rotation
	var err error
	if f.Seed, err = parseIntParam(values, "fluoSeed", f.Seed, -1<<31, 1<<31-1); err != nil {
		return config.Job{}, 0, err
	}
	err = parseFloatParams(values, []floatParam{
		{"elevation", &m.Elevation, -1e6, 1e6},
		{"sliceDistance", &m.DistancePerSlice, 1e-3, 1e6},
		{"fwhm", &m.AxialFWHM, 1e-3, 1e6},
		{"px", &p[0], -1e6, 1e6},
		{"py", &p[1], -1e6, 1e6},
		{"pz", &p[2], -1e6, 1e6},
		{"rx", &rot[0], -1e3, 1e3},
		{"ry", &rot[1], -1e3, 1e3},
		{"rz", &rot[2], -1e3, 1e3},
		{"minEmission", &f.MinEmission, 0, 1},
		{"maxEmission", &f.MaxEmission, 0, 1},
	})
	if err != nil {
		return config.Job{}, 0, err
	}

	if err := job.Validate(); err != nil {
		return config.Job{}, 0, err
	}
	return job, format, nil
}

// statusFor maps an error onto the HTTP status reported to the client
func statusFor(err error) int {
	var (
		validationErr *config.ValidationError
		parseErr      *swc.ParseError
		maxBytesErr   *http.MaxBytesError
	)
	switch {
	case errors.Is(err, errInvalidParam),
		errors.Is(err, imageio.ErrUnsupportedFormat),
		errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.Is(err, errNotFound):
		return http.StatusNotFound
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &parseErr),
		errors.Is(err, errEmptyBody),
		errors.Is(err, microscope.ErrInvalidOptions):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
