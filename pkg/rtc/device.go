// Package rtc is a small ray-casting device in the shape of a hardware ray
// tracing API: a device hands out buffers and geometries, geometries are
// committed and attached to a scene, and a committed scene answers
// nearest-hit queries through a BVH.
package rtc

import (
	"errors"
	"fmt"

	"github.com/neuroscope/go-neuroscope/pkg/core"
)

// ErrorCode classifies errors reported through the device error callback
type ErrorCode int

const (
	ErrorNone ErrorCode = iota
	ErrorUnknown
	ErrorInvalidArgument
	ErrorInvalidOperation
	ErrorOutOfMemory
)

func (c ErrorCode) String() string {
	switch c {
	case ErrorNone:
		return "none"
	case ErrorInvalidArgument:
		return "invalid argument"
	case ErrorInvalidOperation:
		return "invalid operation"
	case ErrorOutOfMemory:
		return "out of memory"
	default:
		return "unknown"
	}
}

var (
	// ErrAllocation is returned when a buffer or geometry exceeds the device primitive limit
	ErrAllocation = errors.New("rtc: allocation failed")
	// ErrInvalidArgument is returned for malformed buffers or arguments
	ErrInvalidArgument = errors.New("rtc: invalid argument")
	// ErrInvalidOperation is returned for calls made in the wrong state
	ErrInvalidOperation = errors.New("rtc: invalid operation")
)

func (c ErrorCode) sentinel() error {
	switch c {
	case ErrorOutOfMemory:
		return ErrAllocation
	case ErrorInvalidArgument:
		return ErrInvalidArgument
	case ErrorInvalidOperation:
		return ErrInvalidOperation
	default:
		return errors.New("rtc: unknown error")
	}
}

// ErrorFunc receives every error the device reports. It may be called from
// several goroutines when scenes are intersected concurrently.
type ErrorFunc func(code ErrorCode, message string)

// Device creates buffers, geometries and scenes
type Device struct {
	maxPrimitives int // 0 means unlimited
	errorFunc     ErrorFunc
	logger        core.Logger
}

// DeviceOption configures a Device
type DeviceOption func(*Device)

// WithMaxPrimitives limits the size of any buffer or geometry the device allocates
func WithMaxPrimitives(n int) DeviceOption {
	return func(d *Device) {
		d.maxPrimitives = n
	}
}

// WithErrorFunc installs the device error callback
func WithErrorFunc(fn ErrorFunc) DeviceOption {
	return func(d *Device) {
		d.errorFunc = fn
	}
}

// WithLogger sets the logger used for scene build diagnostics
func WithLogger(logger core.Logger) DeviceOption {
	return func(d *Device) {
		d.logger = logger
	}
}

// NewDevice creates a new device
func NewDevice(opts ...DeviceOption) *Device {
	d := &Device{logger: core.DiscardLogger()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// MaxPrimitives returns the allocation limit, 0 if unlimited
func (d *Device) MaxPrimitives() int {
	return d.maxPrimitives
}

// report sends an error to the callback and returns it wrapped in its sentinel
func (d *Device) report(code ErrorCode, format string, args ...interface{}) error {
	message := fmt.Sprintf(format, args...)
	if d.errorFunc != nil {
		d.errorFunc(code, message)
	}
	return fmt.Errorf("%w: %s", code.sentinel(), message)
}

// reserve checks that n elements may be allocated
func (d *Device) reserve(n int, what string) error {
	if n < 0 {
		return d.report(ErrorInvalidArgument, "negative %s size %d", what, n)
	}
	if d.maxPrimitives > 0 && n > d.maxPrimitives {
		return d.report(ErrorOutOfMemory, "%s of %d elements exceeds device limit %d", what, n, d.maxPrimitives)
	}
	return nil
}

// NewVertexBuffer allocates a buffer of n radius-carrying vertices
func (d *Device) NewVertexBuffer(n int) ([]core.Vec4, error) {
	if err := d.reserve(n, "vertex buffer"); err != nil {
		return nil, err
	}
	return make([]core.Vec4, n), nil
}

// NewIndexBuffer allocates a buffer of n indices
func (d *Device) NewIndexBuffer(n int) ([]uint32, error) {
	if err := d.reserve(n, "index buffer"); err != nil {
		return nil, err
	}
	return make([]uint32, n), nil
}

// NewScene creates an empty scene
func (d *Device) NewScene() *Scene {
	return &Scene{device: d}
}

// NewGeometry creates an empty geometry of the given type
func (d *Device) NewGeometry(kind GeometryType) *Geometry {
	return &Geometry{device: d, kind: kind}
}
