package sensor

import (
	"testing"

	"github.com/desmolabs/desmo-go/telemetry"
)

type fakePush struct {
	kind      Kind
	available bool
	sink      Sink
	starts    int
	stops     int
}

func (f *fakePush) Start() error    { f.starts++; return nil }
func (f *fakePush) Stop()           { f.stops++ }
func (f *fakePush) Available() bool { return f.available }
func (f *fakePush) Kind() Kind      { return f.kind }
func (f *fakePush) SetSink(s Sink)  { f.sink = s }

func TestSet_Availability(t *testing.T) {
	s := &Set{
		Push: []PushAdapter{
			&fakePush{kind: Accelerometer, available: true},
			&fakePush{kind: Gyroscope, available: true},
			&fakePush{kind: Barometer, available: false},
			&fakePush{kind: RotationVector, available: true},
		},
		Position: NewPositionCache(),
	}

	got := s.Availability()
	want := telemetry.SensorAvailability{
		HasAccelerometer:  true,
		HasGyroscope:      true,
		HasRotationVector: true,
		HasGps:            true,
	}
	if got != want {
		t.Errorf("availability = %+v, want %+v", got, want)
	}
}

func TestSet_NilSafe(t *testing.T) {
	var s *Set

	if got := s.Availability(); got != (telemetry.SensorAvailability{}) {
		t.Errorf("nil set availability = %+v", got)
	}
	if err := s.StartAll(); err != nil {
		t.Errorf("nil set StartAll: %v", err)
	}
	s.StopAll()
	if _, ok := s.LastKnownPosition(); ok {
		t.Error("nil set should have no position")
	}
	if _, ok := s.LatestActivity(); ok {
		t.Error("nil set should have no activity")
	}
}

func TestSet_StartSkipsUnavailable(t *testing.T) {
	unavailable := &fakePush{kind: Barometer}
	available := &fakePush{kind: Accelerometer, available: true}
	s := &Set{Push: []PushAdapter{unavailable, available}}

	if err := s.StartAll(); err != nil {
		t.Fatalf("StartAll: %v", err)
	}
	if unavailable.starts != 0 {
		t.Error("unavailable adapter should not be started")
	}
	if available.starts != 1 {
		t.Error("available adapter should be started once")
	}

	s.StopAll()
	if available.stops != 1 || unavailable.stops != 1 {
		t.Error("StopAll should stop every adapter")
	}
}

func TestSet_RestartLeavesPositionAlone(t *testing.T) {
	push := &fakePush{kind: Accelerometer, available: true}
	pos := NewPositionCache()
	s := &Set{Push: []PushAdapter{push}, Position: pos}

	if err := s.StartAll(); err != nil {
		t.Fatalf("StartAll: %v", err)
	}
	if err := pos.Start(); err != nil {
		t.Fatalf("position Start: %v", err)
	}
	if err := s.Restart(); err != nil {
		t.Fatalf("Restart: %v", err)
	}
	if push.starts != 2 {
		t.Errorf("push adapter started %d times, want 2", push.starts)
	}

	// The position cache must still be running after a restart.
	pos.Update(telemetry.Position{Lat: 1, Lng: 2})
	if _, ok := pos.Latest(); !ok {
		t.Error("position cache stopped by Restart")
	}
}
