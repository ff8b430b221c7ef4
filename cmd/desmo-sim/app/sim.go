package app

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/desmolabs/desmo-go/sensor"
	"github.com/desmolabs/desmo-go/telemetry"
)

// monoBase anchors the simulated monotonic clock.
var monoBase = time.Now()

func monoNanos() int64 {
	return time.Since(monoBase).Nanoseconds()
}

// simSensor is a push adapter emitting synthetic readings on a ticker. The
// generator receives elapsed seconds so waveforms are continuous across
// readings.
type simSensor struct {
	kind     sensor.Kind
	interval time.Duration
	gen      func(t float64) []float64

	mu   sync.Mutex
	sink sensor.Sink
	stop chan struct{}
}

func newSimSensor(kind sensor.Kind, interval time.Duration, gen func(t float64) []float64) *simSensor {
	return &simSensor{kind: kind, interval: interval, gen: gen}
}

func (s *simSensor) Kind() sensor.Kind { return s.kind }
func (s *simSensor) Available() bool   { return true }

func (s *simSensor) SetSink(sink sensor.Sink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = sink
}

func (s *simSensor) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop != nil {
		return nil
	}
	s.stop = make(chan struct{})

	go func(stop chan struct{}) {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				now := monoNanos()

				s.mu.Lock()
				sink := s.sink
				s.mu.Unlock()
				if sink == nil {
					continue
				}

				sink(sensor.Reading{
					Kind:      s.kind,
					MonoNanos: now,
					Values:    s.gen(float64(now) / float64(time.Second)),
				})
			}
		}
	}(s.stop)

	return nil
}

func (s *simSensor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}

// newSimSet builds a full synthetic sensor set: a rider walking with the
// phone in a pocket, rendered as sinusoids over a gravity baseline.
func newSimSet() *sensor.Set {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	return &sensor.Set{
		Push: []sensor.PushAdapter{
			newSimSensor(sensor.Accelerometer, 10*time.Millisecond, func(t float64) []float64 {
				return []float64{
					0.8 * math.Sin(2*math.Pi*1.8*t),
					0.5 * math.Cos(2*math.Pi*1.8*t),
					9.81 + 0.3*math.Sin(2*math.Pi*3.6*t),
				}
			}),
			newSimSensor(sensor.Gyroscope, 10*time.Millisecond, func(t float64) []float64 {
				return []float64{
					0.05 * math.Sin(2*math.Pi*0.9*t),
					0.08 * math.Cos(2*math.Pi*0.9*t),
					0.02 * math.Sin(2*math.Pi*0.4*t),
				}
			}),
			newSimSensor(sensor.Gravity, 20*time.Millisecond, func(t float64) []float64 {
				return []float64{
					0.2 * math.Sin(2*math.Pi*0.2*t),
					0.2 * math.Cos(2*math.Pi*0.2*t),
					9.80,
				}
			}),
			newSimSensor(sensor.RotationVector, 20*time.Millisecond, func(t float64) []float64 {
				half := 0.05 * math.Sin(2*math.Pi*0.3*t)
				return []float64{math.Sin(half), 0, 0, math.Cos(half)}
			}),
			newSimSensor(sensor.Barometer, 500*time.Millisecond, func(t float64) []float64 {
				return []float64{
					1013.25 + 0.4*math.Sin(2*math.Pi*0.01*t),
					0.5 * math.Sin(2*math.Pi*0.02*t),
				}
			}),
			newSimSensor(sensor.Magnetometer, 100*time.Millisecond, func(t float64) []float64 {
				heading := 2 * math.Pi * 0.05 * t
				return []float64{
					22 * math.Cos(heading),
					22 * math.Sin(heading),
					-41 + rng.Float64(),
				}
			}),
		},
	}
}

// gpsWalk feeds a jittered pedestrian track into the position cache until
// stop is closed.
func gpsWalk(cache *sensor.PositionCache, lat, lng float64, interval time.Duration, stop <-chan struct{}) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + 1))
	heading := rng.Float64() * 2 * math.Pi

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			// Roughly 1.4 m/s with a slowly drifting heading.
			heading += (rng.Float64() - 0.5) * 0.3
			stepMeters := 1.4 * interval.Seconds()

			lat += stepMeters * math.Cos(heading) / 111_000
			lng += stepMeters * math.Sin(heading) / (111_000 * math.Cos(lat*math.Pi/180))

			acc := 3 + rng.Float64()*5
			cache.Update(telemetry.Position{
				Lat:       lat,
				Lng:       lng,
				AccuracyM: &acc,
				Source:    "gps",
			})
		}
	}
}

// simBattery returns a battery source draining from full at a constant rate.
func simBattery() func() (float64, bool, bool) {
	start := time.Now()
	return func() (float64, bool, bool) {
		level := 1.0 - time.Since(start).Hours()*0.08
		if level < 0 {
			level = 0
		}
		return level, false, true
	}
}
