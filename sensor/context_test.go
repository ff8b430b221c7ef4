package sensor

import (
	"testing"
	"time"

	"github.com/desmolabs/desmo-go/telemetry"
)

func TestContextSnapshotter_LiveFields(t *testing.T) {
	screenOn := true
	network := telemetry.NetworkWiFi

	s := NewContextSnapshotter(ContextSources{
		Screen:  func() (bool, bool) { return screenOn, true },
		Network: func() telemetry.Network { return network },
	})

	ctx := s.Snapshot(true, "walking")
	if ctx.ScreenOn == nil || !*ctx.ScreenOn {
		t.Error("screenOn should be true")
	}
	if ctx.Network != telemetry.NetworkWiFi {
		t.Errorf("network = %q, want wifi", ctx.Network)
	}
	if ctx.AppForeground == nil || !*ctx.AppForeground {
		t.Error("appForeground should be true")
	}
	if ctx.MotionActivity != "walking" {
		t.Errorf("motionActivity = %q", ctx.MotionActivity)
	}

	screenOn = false
	network = telemetry.NetworkCellular

	ctx = s.Snapshot(false, "")
	if *ctx.ScreenOn {
		t.Error("screen change must be observed live")
	}
	if ctx.Network != telemetry.NetworkCellular {
		t.Error("network change must be observed live")
	}
	if *ctx.AppForeground {
		t.Error("appForeground should be false")
	}
}

func TestContextSnapshotter_BatteryCached(t *testing.T) {
	calls := 0
	level := 0.80

	now := time.Unix(1_700_000_000, 0)
	s := NewContextSnapshotter(ContextSources{
		Battery: func() (float64, bool, bool) {
			calls++
			return level, false, true
		},
	}, withContextClock(func() time.Time { return now }))

	for i := 0; i < 5; i++ {
		ctx := s.Snapshot(true, "")
		if ctx.BatteryLevel == nil || *ctx.BatteryLevel != 0.80 {
			t.Fatalf("batteryLevel = %v", ctx.BatteryLevel)
		}
	}
	if calls != 1 {
		t.Fatalf("battery source called %d times within TTL, want 1", calls)
	}

	level = 0.75
	now = now.Add(batteryTTL)

	ctx := s.Snapshot(true, "")
	if *ctx.BatteryLevel != 0.75 {
		t.Errorf("batteryLevel = %v after TTL, want 0.75", *ctx.BatteryLevel)
	}
	if calls != 2 {
		t.Errorf("battery source called %d times, want 2", calls)
	}
}

func TestContextSnapshotter_MissingSources(t *testing.T) {
	s := NewContextSnapshotter(ContextSources{})

	ctx := s.Snapshot(true, "")
	if ctx.ScreenOn != nil {
		t.Error("screenOn should be absent without a source")
	}
	if ctx.BatteryLevel != nil || ctx.Charging != nil {
		t.Error("battery fields should be absent without a source")
	}
	if ctx.Network != telemetry.NetworkUnknown {
		t.Errorf("network = %q, want unknown", ctx.Network)
	}
}
