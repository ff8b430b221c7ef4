package desmo

import (
	"errors"
	"fmt"

	"github.com/desmolabs/desmo-go/internal/transport"
)

var (
	// ErrInvalidAPIKey is returned by New when the configured API key does
	// not carry the expected prefix.
	ErrInvalidAPIKey = errors.New("desmo: API key must start with pk_")

	// ErrNoActiveSession is returned by operations that require a recording
	// session when none is active.
	ErrNoActiveSession = errors.New("desmo: no active session")
)

// InvalidStateError reports a session operation attempted from the wrong
// state, e.g. StartSession while already recording.
type InvalidStateError struct {
	Expected State
	Actual   State
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("desmo: invalid state %s, operation requires %s", e.Actual, e.Expected)
}

// Transport errors surface unchanged so hosts can inspect them with
// errors.As without importing internal packages.
type (
	// StatusError is an HTTP exchange that completed with a non-2xx status.
	StatusError = transport.StatusError

	// NetworkError is an HTTP exchange that failed before a status was
	// received.
	NetworkError = transport.NetworkError

	// DecodeError is a response body that could not be parsed.
	DecodeError = transport.DecodeError
)
