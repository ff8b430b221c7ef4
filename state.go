package desmo

// State is the client's local session state. Transitions are driven only by
// StartSession and StopSession: idle → starting → recording → stopping →
// idle, with failed remote calls rolling back to the state they left.
type State int

const (
	StateIdle State = iota
	StateStarting
	StateRecording
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRecording:
		return "recording"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}
