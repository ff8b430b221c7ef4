package transport

import (
	"context"
	"errors"
	"net"
	"testing"
)

func TestClassify_Totality(t *testing.T) {
	for code := 100; code < 600; code++ {
		var want Outcome
		switch {
		case code >= 200 && code < 300:
			want = Success
		case code >= 400 && code < 500:
			want = Permanent
		default:
			want = Retryable
		}

		got := Classify(&StatusError{Code: code, URL: "https://api.example/v1/telemetry"})
		if got != want {
			t.Errorf("status %d: classified %s, want %s", code, got, want)
		}
	}
}

func TestClassify_Success(t *testing.T) {
	if got := Classify(nil); got != Success {
		t.Errorf("nil error classified %s, want success", got)
	}
}

func TestClassify_RateLimitIsPermanent(t *testing.T) {
	// 429 is deliberately not retried: the SDK must not add load while
	// the backend is shedding it.
	if got := Classify(&StatusError{Code: 429}); got != Permanent {
		t.Errorf("429 classified %s, want permanent", got)
	}
}

func TestClassify_TransportErrorsRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"network", &NetworkError{URL: "https://api.example", Cause: &net.OpError{Op: "dial", Err: errors.New("connection refused")}}},
		{"timeout", &NetworkError{Cause: context.DeadlineExceeded}},
		{"decode", &DecodeError{Cause: errors.New("unexpected end of JSON input")}},
		{"wrapped network", errors.Join(errors.New("uploading"), &NetworkError{Cause: errors.New("reset")})},
		{"plain", errors.New("something else")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.err); got != Retryable {
				t.Errorf("classified %s, want retryable", got)
			}
		})
	}
}
