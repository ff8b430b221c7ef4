// Package telemetry defines the on-device and on-wire record formats used
// by the SDK: the Sample unit of recording, its nested sensor payloads and
// the session API request and response bodies.
package telemetry

// Network is the transport class the device is currently using.
type Network string

const (
	NetworkWiFi     Network = "wifi"
	NetworkCellular Network = "cellular"
	NetworkNone     Network = "none"
	NetworkUnknown  Network = "unknown"
)

// Sample is a single on-device record. Every sample carries a timestamp;
// any nested payload the device could not provide is absent, never
// zero-filled.
type Sample struct {
	// TS is seconds since epoch with fractional precision. It is derived
	// from the sensor monotonic clock plus a wall-clock offset captured at
	// session start, so it is strictly increasing within a session.
	TS float64 `json:"ts"`

	IMU          *IMU          `json:"imu,omitempty"`
	Barometer    *Barometer    `json:"barometer,omitempty"`
	Magnetometer *Magnetometer `json:"magnetometer,omitempty"`
	Position     *Position     `json:"position,omitempty"`
	Context      *Context      `json:"context,omitempty"`
}

// IMU groups the inertial readings present at emission time.
type IMU struct {
	Accel   *[3]float64 `json:"accel,omitempty"`   // m/s², device axes
	Gyro    *[3]float64 `json:"gyro,omitempty"`    // rad/s
	Gravity *[3]float64 `json:"gravity,omitempty"` // m/s²

	// Attitude is a unit quaternion in x, y, z, w order, derived from the
	// rotation-vector sensor.
	Attitude *[4]float64 `json:"attitude,omitempty"`
}

type Barometer struct {
	PressureHPa       float64  `json:"pressureHpa"`
	RelativeAltitudeM *float64 `json:"relativeAltitudeM,omitempty"`
}

// Magnetometer is the ambient magnetic field in µT on device axes.
type Magnetometer struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type Position struct {
	Lat        float64  `json:"lat"`
	Lng        float64  `json:"lng"`
	AccuracyM  *float64 `json:"accuracyM,omitempty"`
	AltitudeM  *float64 `json:"altitudeM,omitempty"`
	SpeedMPS   *float64 `json:"speedMps,omitempty"`
	BearingDeg *float64 `json:"bearingDeg,omitempty"`
	Source     string   `json:"source,omitempty"`
}

// Context is a snapshot of slow-moving device state attached to a sample.
type Context struct {
	ScreenOn       *bool    `json:"screenOn,omitempty"`
	AppForeground  *bool    `json:"appForeground,omitempty"`
	BatteryLevel   *float64 `json:"batteryLevel,omitempty"` // 0..1
	Charging       *bool    `json:"charging,omitempty"`
	Network        Network  `json:"network,omitempty"`
	MotionActivity string   `json:"motionActivity,omitempty"`
}

// SensorAvailability reports which physical sources the device exposes.
// It is computed once at session start and sent in the start request so the
// backend knows which sample fields to expect.
type SensorAvailability struct {
	HasAccelerometer  bool `json:"hasAccelerometer"`
	HasGyroscope      bool `json:"hasGyroscope"`
	HasGravity        bool `json:"hasGravity"`
	HasRotationVector bool `json:"hasRotationVector"`
	HasBarometer      bool `json:"hasBarometer"`
	HasGps            bool `json:"hasGps"`
	HasMagnetometer   bool `json:"hasMagnetometer"`
}

// Device describes the host platform recording the session.
type Device struct {
	Platform   string `json:"platform"`
	SDKVersion string `json:"sdkVersion"`
	Model      string `json:"model,omitempty"`
	OSVersion  string `json:"osVersion,omitempty"`
	AppVersion string `json:"appVersion,omitempty"`
}

// Address is the delivery address attached to a session start request.
type Address struct {
	Line1    string `json:"line1,omitempty"`
	Line2    string `json:"line2,omitempty"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
	Postcode string `json:"postcode,omitempty"`
	Country  string `json:"country,omitempty"`
}

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
