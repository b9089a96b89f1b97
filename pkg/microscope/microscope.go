// Package microscope renders synthetic microscopy images of a neuron
// morphology. Three variants share one capture pipeline: a segmentation
// microscope labelling soma and neurites, a single-plane fluorescence
// microscope, and a multi-slice fluorescence microscope with an axial
// point spread function.
package microscope

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/neuroscope/go-neuroscope/pkg/core"
	"github.com/neuroscope/go-neuroscope/pkg/renderer"
	"github.com/neuroscope/go-neuroscope/pkg/rtc"
	"github.com/neuroscope/go-neuroscope/pkg/scene"
	"github.com/neuroscope/go-neuroscope/pkg/tissue"
)

// Kind selects a microscope variant
type Kind int

const (
	KindSegmentation Kind = iota
	KindFluorescence
	KindMultiSliceFluorescence
)

var kindNames = map[Kind]string{
	KindSegmentation:           "segmentation",
	KindFluorescence:           "fluorescence",
	KindMultiSliceFluorescence: "multislice",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

var (
	// ErrUnknownKind is returned for a kind outside the closed variant set
	ErrUnknownKind = errors.New("unknown microscope kind")
	// ErrInvalidOptions is returned for unusable options, by New or by a
	// capture whose scene needs more than MaxSlices focal planes
	ErrInvalidOptions = errors.New("invalid microscope options")
)

// ParseKind parses "segmentation", "fluorescence" or "multislice"
func ParseKind(s string) (Kind, error) {
	for kind, name := range kindNames {
		if name == s {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Kinds lists every variant in declaration order
func Kinds() []Kind {
	return []Kind{KindSegmentation, KindFluorescence, KindMultiSliceFluorescence}
}

// FluorescenceConfig bounds the emission factor of fluorescent geometry
type FluorescenceConfig struct {
	Seed        int
	MinEmission float32
	MaxEmission float32
}

// DefaultFluorescenceConfig returns the full emission range
func DefaultFluorescenceConfig() FluorescenceConfig {
	return FluorescenceConfig{
		Seed:        1337,
		MinEmission: 0.0,
		MaxEmission: 1.0,
	}
}

func (c FluorescenceConfig) validate() error {
	if c.MinEmission > c.MaxEmission {
		return fmt.Errorf("%w: min emission %g exceeds max emission %g", ErrInvalidOptions, c.MinEmission, c.MaxEmission)
	}
	return nil
}

// Options configures a microscope
type Options struct {
	Width            int                // Sensor width in pixels
	Height           int                // Sensor height in pixels
	VerticalFOV      float32            // Field of view along Y in scene units
	Elevation        float32            // Ray start height of the segmentation variant
	DistancePerSlice float32            // Slice spacing of the multi-slice variant
	AxialFWHM        float32            // Axial PSF width of the multi-slice variant
	Fluorescence     FluorescenceConfig // Emission range of the fluorescence variant
	Workers          int                // Render workers, 0 for one per CPU
	TileSize         int                // Tile edge in pixels, 0 for the default
	Device           *rtc.Device        // Ray-casting device, nil for a private one
	Logger           core.Logger        // nil discards log output
}

// DefaultOptions returns the standard microscope setup
func DefaultOptions() Options {
	return Options{
		Width:            640,
		Height:           480,
		VerticalFOV:      500,
		Elevation:        1000,
		DistancePerSlice: 2.5,
		AxialFWHM:        2.0,
		Fluorescence:     DefaultFluorescenceConfig(),
		TileSize:         renderer.DefaultTileSize,
	}
}

// Microscope captures an image of a morphology embedded in tissue
type Microscope interface {
	Kind() Kind
	// Capture renders model, placed by tr, into the sensor. On error the
	// sensor keeps its previous content, except after cancellation of ctx,
	// which leaves it partially rendered.
	Capture(ctx context.Context, model scene.Morphology, t *tissue.Tissue, tr core.Transform) error
	ImageSize() (width, height int)
	CopyPixels() []byte
	Sensor() *Sensor
	Stats() renderer.RenderStats
}

// New creates a microscope of the given kind
func New(kind Kind, opts Options) (Microscope, error) {
	if err := opts.validate(kind); err != nil {
		return nil, err
	}

	switch kind {
	case KindSegmentation:
		return newSegmentation(opts), nil
	case KindFluorescence:
		return newFluorescence(opts), nil
	case KindMultiSliceFluorescence:
		return newMultiSlice(opts), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
	}
}

func (o Options) validate(kind Kind) error {
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("%w: sensor size must be positive, got %dx%d", ErrInvalidOptions, o.Width, o.Height)
	}
	if kind == KindFluorescence {
		if err := o.Fluorescence.validate(); err != nil {
			return err
		}
	}
	if kind == KindMultiSliceFluorescence {
		if o.DistancePerSlice <= 0 {
			return fmt.Errorf("%w: distance per slice must be positive, got %g", ErrInvalidOptions, o.DistancePerSlice)
		}
		if o.AxialFWHM <= 0 {
			return fmt.Errorf("%w: axial FWHM must be positive, got %g", ErrInvalidOptions, o.AxialFWHM)
		}
	}
	return nil
}

// base holds what every variant shares: sensor, camera, device and pool
type base struct {
	mu     sync.Mutex
	kind   Kind
	opts   Options
	sensor *Sensor
	camera renderer.Camera
	device *rtc.Device
	pool   *renderer.WorkerPool
	logger core.Logger
	stats  renderer.RenderStats
}

func newBase(kind Kind, opts Options, channels int) *base {
	logger := opts.Logger
	if logger == nil {
		logger = core.DiscardLogger()
	}

	device := opts.Device
	if device == nil {
		device = rtc.NewDevice(
			rtc.WithLogger(logger),
			rtc.WithErrorFunc(func(code rtc.ErrorCode, message string) {
				logger.Warnf("ray caster error (%s): %s", code, message)
			}),
		)
	}

	return &base{
		kind:   kind,
		opts:   opts,
		sensor: NewSensor(opts.Width, opts.Height, channels),
		camera: renderer.NewCamera(opts.Width, opts.Height, opts.VerticalFOV),
		device: device,
		pool:   renderer.NewWorkerPool(opts.Workers, opts.TileSize),
		logger: logger,
	}
}

// capture builds the scene and renders every pixel once through the pool
func (b *base) capture(ctx context.Context, model scene.Morphology, tr core.Transform, pixel func(*scene.Scene) (renderer.PixelFunc, error)) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	sc, err := scene.Build(b.device, model, tr)
	if err != nil {
		return fmt.Errorf("%s capture: %w", b.kind, err)
	}
	counts := sc.Counts()
	b.logger.Debugf("%s scene: %d soma nodes (%s), %d neurite segments, bounds %v",
		b.kind, counts.Somas, sc.SomaShape(), counts.Neurites, sc.Bounds())

	pixelFunc, err := pixel(sc)
	if err != nil {
		return fmt.Errorf("%s capture: %w", b.kind, err)
	}
	stats, err := b.pool.Render(ctx, b.opts.Width, b.opts.Height, pixelFunc)
	if err != nil {
		return err
	}

	b.stats = stats
	b.logger.Infof("%s: %dx%d in %v, %d tiles, %.1f rays/pixel, %.1f%% coverage",
		b.kind, b.opts.Width, b.opts.Height, stats.Elapsed, stats.Tiles,
		stats.AverageSamples(), stats.Coverage()*100)
	return nil
}

// Kind returns the microscope variant
func (b *base) Kind() Kind {
	return b.kind
}

// ImageSize returns the sensor dimensions
func (b *base) ImageSize() (width, height int) {
	return b.sensor.Width(), b.sensor.Height()
}

// CopyPixels returns a copy of the sensor buffer
func (b *base) CopyPixels() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sensor.CopyPixels()
}

// Sensor returns the sensor; its content is only stable between captures
func (b *base) Sensor() *Sensor {
	return b.sensor
}

// Stats returns the statistics of the last successful capture
func (b *base) Stats() renderer.RenderStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}
