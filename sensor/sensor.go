// Package sensor defines the contracts between the SDK core and the
// platform sensor implementations supplied by the host: push-style inertial
// and environmental adapters, pull-style position and activity providers,
// and the device context sources.
//
// The SDK never talks to hardware. Hosts implement these interfaces on top
// of their platform sensor APIs and hand them to the client; the per-session
// coordinator starts and stops them and consumes their readings.
package sensor

import "github.com/desmolabs/desmo-go/telemetry"

// Kind identifies a push-style sensor modality.
type Kind int

const (
	Accelerometer Kind = iota
	Gyroscope
	Gravity
	RotationVector
	Barometer
	Magnetometer
)

func (k Kind) String() string {
	switch k {
	case Accelerometer:
		return "accelerometer"
	case Gyroscope:
		return "gyroscope"
	case Gravity:
		return "gravity"
	case RotationVector:
		return "rotation-vector"
	case Barometer:
		return "barometer"
	case Magnetometer:
		return "magnetometer"
	default:
		return "unknown"
	}
}

// Reading is one event pushed by a sensor adapter.
//
// MonoNanos is the platform sensor clock: a steady, non-decreasing count of
// nanoseconds, typically since boot. It is never wall time.
//
// Values is kind-specific:
//   - Accelerometer, Gyroscope, Gravity, Magnetometer: x, y, z
//   - RotationVector: unit quaternion x, y, z, w
//   - Barometer: pressure in hPa, optionally followed by relative altitude
//     in meters
type Reading struct {
	Kind      Kind
	MonoNanos int64
	Values    []float64
}

// Sink receives pushed readings. Implementations return promptly; the SDK
// hands the reading off to its own worker before doing any real work.
type Sink func(Reading)

// Adapter is the uniform lifecycle every physical source implements.
type Adapter interface {
	// Start begins delivery of readings. Calling Start on a started
	// adapter restarts it; the platform may have throttled a long-running
	// registration while the app was backgrounded.
	Start() error

	// Stop halts delivery. Stopping a stopped adapter is a no-op.
	Stop()

	// Available reports whether the underlying physical source exists on
	// this device.
	Available() bool

	Kind() Kind
}

// PushAdapter is an Adapter that delivers readings through an injected
// sink. SetSink must be called before Start; the sink must not be swapped
// while the adapter is running.
type PushAdapter interface {
	Adapter
	SetSink(Sink)
}

// PositionAdapter is a pull-style location source. Latest never blocks
// waiting for a fix.
type PositionAdapter interface {
	Start() error
	Stop()
	Available() bool
	Latest() (telemetry.Position, bool)
}

// ActivityAdapter exposes the platform's motion-activity recognition, when
// present.
type ActivityAdapter interface {
	Start() error
	Stop()
	Available() bool
	Latest() (string, bool)
}
