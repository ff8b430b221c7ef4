package transport

import "fmt"

// StatusError is a completed HTTP exchange that returned a non-2xx status.
type StatusError struct {
	Code        int
	URL         string
	BodyPreview string
}

func (e *StatusError) Error() string {
	if e.BodyPreview == "" {
		return fmt.Sprintf("unexpected status %d from %s", e.Code, e.URL)
	}
	return fmt.Sprintf("unexpected status %d from %s: %s", e.Code, e.URL, e.BodyPreview)
}

// NetworkError is an exchange that produced no HTTP status at all: DNS
// failure, timeout, connection reset, TLS failure.
type NetworkError struct {
	URL   string
	Cause error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("request to %s failed: %s", e.URL, e.Cause)
}

func (e *NetworkError) Unwrap() error { return e.Cause }

// DecodeError is a 2xx response whose body could not be parsed.
type DecodeError struct {
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding response: %s", e.Cause)
}

func (e *DecodeError) Unwrap() error { return e.Cause }
