package telemetry

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func f64(v float64) *float64 { return &v }

func TestSample_RoundTrip(t *testing.T) {
	on := true
	fg := false
	charging := true

	full := Sample{
		TS: 1_724_659_200.123456,
		IMU: &IMU{
			Accel:    &[3]float64{0.12, -0.03, 9.79},
			Gyro:     &[3]float64{0.001, 0.002, -0.003},
			Gravity:  &[3]float64{0, 0, 9.81},
			Attitude: &[4]float64{0.01, 0.02, 0.03, 0.999},
		},
		Barometer:    &Barometer{PressureHPa: 1011.25, RelativeAltitudeM: f64(3.5)},
		Magnetometer: &Magnetometer{X: 21.4, Y: -3.1, Z: 44.0},
		Position: &Position{
			Lat:        -33.8688,
			Lng:        151.2093,
			AccuracyM:  f64(4.2),
			AltitudeM:  f64(18),
			SpeedMPS:   f64(1.4),
			BearingDeg: f64(271.5),
			Source:     "gps",
		},
		Context: &Context{
			ScreenOn:       &on,
			AppForeground:  &fg,
			BatteryLevel:   f64(0.72),
			Charging:       &charging,
			Network:        NetworkWiFi,
			MotionActivity: "walking",
		},
	}

	minimal := Sample{TS: 1_724_659_200.5}

	for name, s := range map[string]Sample{"full": full, "minimal": minimal} {
		t.Run(name, func(t *testing.T) {
			data, err := json.Marshal(s)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}

			var back Sample
			if err = json.Unmarshal(data, &back); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if !reflect.DeepEqual(s, back) {
				t.Errorf("round trip changed the sample:\n in: %+v\nout: %+v", s, back)
			}
		})
	}
}

func TestSample_AbsentPayloadsOmitted(t *testing.T) {
	data, err := json.Marshal(Sample{TS: 1})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var m map[string]any
	if err = json.Unmarshal(data, &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(m) != 1 {
		t.Errorf("minimal sample serialized extra fields: %s", data)
	}
	if _, ok := m["ts"]; !ok {
		t.Errorf("ts missing from %s", data)
	}
}

func TestSample_PartialIMUOmitsMissingAxes(t *testing.T) {
	s := Sample{
		TS:  2,
		IMU: &IMU{Accel: &[3]float64{1, 2, 3}},
	}
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	for _, absent := range []string{"gyro", "gravity", "attitude", "barometer", "position"} {
		if strings.Contains(string(data), `"`+absent+`"`) {
			t.Errorf("%q serialized despite being absent: %s", absent, data)
		}
	}
	if !strings.Contains(string(data), `"accel":[1,2,3]`) {
		t.Errorf("accel missing: %s", data)
	}
}

func TestSample_WireNames(t *testing.T) {
	alt := 1.5
	s := Sample{
		TS:        3,
		Barometer: &Barometer{PressureHPa: 1000, RelativeAltitudeM: &alt},
		Position:  &Position{Lat: 1, Lng: 2, SpeedMPS: f64(0.5)},
	}
	data, _ := json.Marshal(s)

	for _, want := range []string{`"pressureHpa"`, `"relativeAltitudeM"`, `"lat"`, `"lng"`, `"speedMps"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("wire name %s missing from %s", want, data)
		}
	}
}

func TestNewTelemetryRequest(t *testing.T) {
	req, err := NewTelemetryRequest("sess-1", []Sample{{TS: 1}, {TS: 2}})
	if err != nil {
		t.Fatalf("NewTelemetryRequest: %v", err)
	}

	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded struct {
		SessionID string   `json:"sessionId"`
		Events    []Sample `json:"events"`
	}
	if err = json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.SessionID != "sess-1" || len(decoded.Events) != 2 {
		t.Errorf("decoded = %+v", decoded)
	}
}
