package sensor

import (
	"errors"
	"fmt"

	"github.com/desmolabs/desmo-go/telemetry"
)

// Set groups the adapters serving one session: at most one push adapter per
// modality plus the optional position and activity providers. A nil Set
// behaves like a device with no sensors.
type Set struct {
	Push     []PushAdapter
	Position PositionAdapter
	Activity ActivityAdapter
}

// Availability computes the availability bitset sent in the session start
// request.
func (s *Set) Availability() telemetry.SensorAvailability {
	var a telemetry.SensorAvailability
	if s == nil {
		return a
	}
	for _, p := range s.Push {
		if !p.Available() {
			continue
		}
		switch p.Kind() {
		case Accelerometer:
			a.HasAccelerometer = true
		case Gyroscope:
			a.HasGyroscope = true
		case Gravity:
			a.HasGravity = true
		case RotationVector:
			a.HasRotationVector = true
		case Barometer:
			a.HasBarometer = true
		case Magnetometer:
			a.HasMagnetometer = true
		}
	}
	if s.Position != nil && s.Position.Available() {
		a.HasGps = true
	}
	return a
}

// Bind injects the sink into every push adapter. Must precede StartAll.
func (s *Set) Bind(sink Sink) {
	if s == nil {
		return
	}
	for _, p := range s.Push {
		p.SetSink(sink)
	}
}

// StartAll starts every available adapter. Unavailable adapters are skipped;
// individual start failures are joined so the caller can log them, but a
// partial set still collects.
func (s *Set) StartAll() error {
	if s == nil {
		return nil
	}
	var errs []error
	for _, p := range s.Push {
		if !p.Available() {
			continue
		}
		if err := p.Start(); err != nil {
			errs = append(errs, fmt.Errorf("starting %s: %w", p.Kind(), err))
		}
	}
	if s.Position != nil && s.Position.Available() {
		if err := s.Position.Start(); err != nil {
			errs = append(errs, fmt.Errorf("starting position: %w", err))
		}
	}
	if s.Activity != nil && s.Activity.Available() {
		if err := s.Activity.Start(); err != nil {
			errs = append(errs, fmt.Errorf("starting activity: %w", err))
		}
	}
	return errors.Join(errs...)
}

// StopAll stops every adapter.
func (s *Set) StopAll() {
	if s == nil {
		return
	}
	for _, p := range s.Push {
		p.Stop()
	}
	if s.Position != nil {
		s.Position.Stop()
	}
	if s.Activity != nil {
		s.Activity.Stop()
	}
}

// Restart re-starts the push and activity adapters after the app returns to
// the foreground; the platform may have throttled their delivery while
// backgrounded. The position provider is left alone.
func (s *Set) Restart() error {
	if s == nil {
		return nil
	}
	var errs []error
	for _, p := range s.Push {
		if !p.Available() {
			continue
		}
		if err := p.Start(); err != nil {
			errs = append(errs, fmt.Errorf("restarting %s: %w", p.Kind(), err))
		}
	}
	if s.Activity != nil && s.Activity.Available() {
		if err := s.Activity.Start(); err != nil {
			errs = append(errs, fmt.Errorf("restarting activity: %w", err))
		}
	}
	return errors.Join(errs...)
}

// LastKnownPosition returns the most recent cached fix, if any.
func (s *Set) LastKnownPosition() (telemetry.Position, bool) {
	if s == nil || s.Position == nil {
		return telemetry.Position{}, false
	}
	return s.Position.Latest()
}

// LatestActivity returns the most recently observed motion activity, if an
// activity adapter is running.
func (s *Set) LatestActivity() (string, bool) {
	if s == nil || s.Activity == nil || !s.Activity.Available() {
		return "", false
	}
	return s.Activity.Latest()
}
