package telemetry

import "encoding/json"

// SessionType is the delivery leg a session records.
type SessionType string

const (
	SessionTypePickup  SessionType = "pickup"
	SessionTypeDrop    SessionType = "drop"
	SessionTypeTransit SessionType = "transit"
)

// SessionStatus is the remote lifecycle state of a session.
type SessionStatus string

const (
	SessionStatusRecording SessionStatus = "recording"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusFailed    SessionStatus = "failed"
)

// Session is the remote identity of a recording interval.
type Session struct {
	SessionID string        `json:"sessionId"`
	Status    SessionStatus `json:"status"`
}

// StartSessionRequest is the body of POST /v1/sessions/start.
type StartSessionRequest struct {
	DeliveryID         string              `json:"deliveryId"`
	SessionType        SessionType         `json:"sessionType"`
	ExternalRiderID    string              `json:"externalRiderId,omitempty"`
	Address            *Address            `json:"address,omitempty"`
	Device             *Device             `json:"device,omitempty"`
	StartLocation      *LatLng             `json:"startLocation,omitempty"`
	SensorAvailability *SensorAvailability `json:"sensorAvailability,omitempty"`
}

// StopSessionRequest is the body of POST /v1/sessions/stop.
type StopSessionRequest struct {
	SessionID string `json:"sessionId"`
}

// TelemetryRequest is the body of POST /v1/telemetry. Events holds the
// serialized sample array; keeping it raw lets the retry path re-send a
// persisted batch byte for byte without decoding it first.
type TelemetryRequest struct {
	SessionID string          `json:"sessionId"`
	Events    json.RawMessage `json:"events"`
}

// NewTelemetryRequest serializes samples into a telemetry upload body.
func NewTelemetryRequest(sessionID string, samples []Sample) (TelemetryRequest, error) {
	events, err := json.Marshal(samples)
	if err != nil {
		return TelemetryRequest{}, err
	}
	return TelemetryRequest{SessionID: sessionID, Events: events}, nil
}
