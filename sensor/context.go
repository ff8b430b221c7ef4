package sensor

import (
	"sync"
	"time"

	"github.com/desmolabs/desmo-go/telemetry"
)

// batteryTTL bounds how often the battery sources are consulted. The
// underlying system broadcast is costly and battery level moves slowly.
const batteryTTL = 30 * time.Second

// ContextSources are the host callbacks the snapshotter reads device
// context from. Any field may be nil; the corresponding context field is
// then omitted from samples.
type ContextSources struct {
	// Screen reports whether the screen is on. ok is false when the state
	// cannot be determined.
	Screen func() (on, ok bool)

	// Network reports the current transport class. A nil func yields
	// NetworkUnknown.
	Network func() telemetry.Network

	// Battery reports the charge level in 0..1 and the charging state.
	Battery func() (level float64, charging, ok bool)
}

// ContextSnapshotter produces device context records on demand. Screen and
// network are sampled live on every call; battery is cached and refreshed
// at most every 30 seconds.
type ContextSnapshotter struct {
	src ContextSources
	now func() time.Time

	mu        sync.Mutex
	level     *float64
	charging  *bool
	batteryAt time.Time
}

// ContextSnapshotterOption configures a ContextSnapshotter.
type ContextSnapshotterOption func(*ContextSnapshotter)

func withContextClock(now func() time.Time) ContextSnapshotterOption {
	return func(s *ContextSnapshotter) {
		s.now = now
	}
}

// NewContextSnapshotter creates a snapshotter over the given sources.
func NewContextSnapshotter(src ContextSources, opts ...ContextSnapshotterOption) *ContextSnapshotter {
	s := &ContextSnapshotter{src: src, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a fresh context record. foreground is the lifecycle
// adapter's best-known state; activity is the latest observed motion
// activity ("" when no activity adapter runs).
func (s *ContextSnapshotter) Snapshot(foreground bool, activity string) *telemetry.Context {
	ctx := telemetry.Context{
		AppForeground:  &foreground,
		Network:        telemetry.NetworkUnknown,
		MotionActivity: activity,
	}

	if s.src.Screen != nil {
		if on, ok := s.src.Screen(); ok {
			ctx.ScreenOn = &on
		}
	}
	if s.src.Network != nil {
		ctx.Network = s.src.Network()
	}

	level, charging := s.battery()
	ctx.BatteryLevel = level
	ctx.Charging = charging

	return &ctx
}

func (s *ContextSnapshotter) battery() (*float64, *bool) {
	if s.src.Battery == nil {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.batteryAt.IsZero() || now.Sub(s.batteryAt) >= batteryTTL {
		if level, charging, ok := s.src.Battery(); ok {
			s.level = &level
			s.charging = &charging
		} else {
			s.level = nil
			s.charging = nil
		}
		s.batteryAt = now
	}
	return s.level, s.charging
}
