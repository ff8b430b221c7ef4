package sensor

import (
	"math"
	"testing"
	"time"

	"github.com/desmolabs/desmo-go/telemetry"
)

func TestPositionCache_FirstFix(t *testing.T) {
	c := NewPositionCache()
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if _, ok := c.Latest(); ok {
		t.Fatal("empty cache should report no fix")
	}

	c.Update(telemetry.Position{Lat: -33.8688, Lng: 151.2093})

	got, ok := c.Latest()
	if !ok {
		t.Fatal("expected a fix after Update")
	}
	if got.Lat != -33.8688 || got.Lng != 151.2093 {
		t.Errorf("got fix %v,%v", got.Lat, got.Lng)
	}
}

func TestPositionCache_JitterFiltered(t *testing.T) {
	c := NewPositionCache(WithMinMove(5))
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	c.Update(telemetry.Position{Lat: -33.8688, Lng: 151.2093})

	// ~1m north: below the 5m floor, coordinates must not move.
	acc := 3.0
	c.Update(telemetry.Position{Lat: -33.86879, Lng: 151.2093, AccuracyM: &acc})

	got, _ := c.Latest()
	if got.Lat != -33.8688 {
		t.Errorf("jitter fix replaced held coordinates: lat = %v", got.Lat)
	}
	if got.AccuracyM == nil || *got.AccuracyM != 3.0 {
		t.Error("fresher accuracy should be adopted from the jitter fix")
	}
}

func TestPositionCache_DerivesSpeedAndBearing(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	now := base
	c := NewPositionCache(withClock(func() time.Time { return now }))
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	c.Update(telemetry.Position{Lat: 0, Lng: 0})

	// ~111m due north over 10s: roughly 11 m/s heading 0.
	now = base.Add(10 * time.Second)
	c.Update(telemetry.Position{Lat: 0.001, Lng: 0})

	got, _ := c.Latest()
	if got.SpeedMPS == nil {
		t.Fatal("speed should be derived")
	}
	if math.Abs(*got.SpeedMPS-11.1) > 0.5 {
		t.Errorf("speed = %v m/s, want ~11.1", *got.SpeedMPS)
	}
	if got.BearingDeg == nil {
		t.Fatal("bearing should be derived")
	}
	if math.Abs(*got.BearingDeg) > 0.5 && math.Abs(*got.BearingDeg-360) > 0.5 {
		t.Errorf("bearing = %v°, want ~0", *got.BearingDeg)
	}
}

func TestPositionCache_PlatformFieldsKept(t *testing.T) {
	c := NewPositionCache()
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	c.Update(telemetry.Position{Lat: 0, Lng: 0})

	speed, bearing := 4.2, 90.0
	c.Update(telemetry.Position{Lat: 0.01, Lng: 0, SpeedMPS: &speed, BearingDeg: &bearing})

	got, _ := c.Latest()
	if *got.SpeedMPS != 4.2 || *got.BearingDeg != 90.0 {
		t.Errorf("platform-provided speed/bearing overwritten: %v, %v", *got.SpeedMPS, *got.BearingDeg)
	}
}

func TestPositionCache_IgnoresWhenStopped(t *testing.T) {
	c := NewPositionCache()
	c.Update(telemetry.Position{Lat: 1, Lng: 1})
	if _, ok := c.Latest(); ok {
		t.Fatal("updates before Start should be dropped")
	}
}

func TestDistanceMeters(t *testing.T) {
	// One degree of latitude is ~111.2 km.
	d := distanceMeters(0, 0, 1, 0)
	if math.Abs(d-111_195) > 200 {
		t.Errorf("distance = %v m, want ~111195", d)
	}
}
