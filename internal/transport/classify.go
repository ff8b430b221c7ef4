package transport

import "errors"

// Outcome is the retry-policy classification of one upload attempt.
type Outcome int

const (
	// Success: the backend acknowledged the payload.
	Success Outcome = iota

	// Retryable: the attempt may succeed later; keep the batch.
	Retryable

	// Permanent: the backend rejected the payload; retrying the same
	// bytes cannot succeed. The batch is discarded.
	Permanent
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Retryable:
		return "retryable"
	case Permanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// Classify maps an upload result to its outcome:
//
//   - nil, and HTTP 2xx: Success
//   - HTTP 4xx: Permanent. This includes 429: by policy the SDK does not
//     add load while the backend is rate limiting.
//   - HTTP 1xx, 3xx, 5xx: Retryable
//   - any error without a status (DNS, timeout, reset, TLS) and any
//     malformed response: Retryable
func Classify(err error) Outcome {
	if err == nil {
		return Success
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.Code >= 200 && statusErr.Code < 300:
			return Success
		case statusErr.Code >= 400 && statusErr.Code < 500:
			return Permanent
		default:
			return Retryable
		}
	}

	return Retryable
}
