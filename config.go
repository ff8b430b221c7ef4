package desmo

import (
	"fmt"
	"strings"
	"time"
)

// Environment selects the ingestion endpoint a client talks to.
type Environment string

const (
	EnvironmentSandbox Environment = "sandbox"
	EnvironmentLive    Environment = "live"
)

const (
	sandboxBaseURL = "https://api.sandbox.desmo.dev"
	liveBaseURL    = "https://api.desmo.dev"
)

const (
	// DefaultSampleRateHz is the emission rate when the config leaves it
	// unset.
	DefaultSampleRateHz = 50

	// DefaultLocationUpdateMS is the recommended interval between platform
	// location fixes.
	DefaultLocationUpdateMS = 2000

	// DefaultUploadIntervalMS is the periodic flush interval.
	DefaultUploadIntervalMS = 5000

	// DefaultRetryIntervalMS is the pending-batch sweep interval.
	DefaultRetryIntervalMS = 30_000
)

// TelemetryConfig tunes collection and upload cadence. Zero values take the
// defaults.
type TelemetryConfig struct {
	// SampleRateHz is the target emission rate, 1..100.
	SampleRateHz int `yaml:"sampleRateHz"`

	// LocationUpdateMS is the interval the host should request platform
	// location fixes at. The SDK does not poll; this value is surfaced so
	// the host and backend agree on the expected fix cadence.
	LocationUpdateMS int `yaml:"locationUpdateMs"`

	// UploadIntervalMS is how often the buffer is flushed to the upload
	// queue while recording.
	UploadIntervalMS int `yaml:"uploadIntervalMs"`

	// RetryIntervalMS is how often persisted batches are re-attempted.
	RetryIntervalMS int `yaml:"retryIntervalMs"`
}

// Config is the client configuration. It carries yaml tags so host tooling
// can load it from a file.
type Config struct {
	// APIKey authenticates every request. Must start with "pk_".
	APIKey string `yaml:"apiKey"`

	// Environment selects sandbox or live ingestion. Defaults to sandbox.
	Environment Environment `yaml:"environment"`

	// BaseURL overrides the environment's endpoint when set. Intended for
	// self-hosted ingestion and tests.
	BaseURL string `yaml:"baseUrl,omitempty"`

	// LoggingEnabled routes SDK logs to the process default logger. When
	// false the SDK is silent unless WithLogger is supplied.
	LoggingEnabled bool `yaml:"loggingEnabled"`

	Telemetry TelemetryConfig `yaml:"telemetry"`
}

func (c *Config) validate() error {
	if !strings.HasPrefix(c.APIKey, "pk_") {
		return ErrInvalidAPIKey
	}

	switch c.Environment {
	case "":
		c.Environment = EnvironmentSandbox
	case EnvironmentSandbox, EnvironmentLive:
	default:
		return fmt.Errorf("desmo: unknown environment %q", c.Environment)
	}

	t := &c.Telemetry
	switch {
	case t.SampleRateHz == 0:
		t.SampleRateHz = DefaultSampleRateHz
	case t.SampleRateHz < 1 || t.SampleRateHz > 100:
		return fmt.Errorf("desmo: sample rate %dHz out of range 1..100", t.SampleRateHz)
	}

	switch {
	case t.LocationUpdateMS == 0:
		t.LocationUpdateMS = DefaultLocationUpdateMS
	case t.LocationUpdateMS < 500:
		return fmt.Errorf("desmo: location update interval %dms below minimum 500ms", t.LocationUpdateMS)
	}

	switch {
	case t.UploadIntervalMS == 0:
		t.UploadIntervalMS = DefaultUploadIntervalMS
	case t.UploadIntervalMS < 1000:
		return fmt.Errorf("desmo: upload interval %dms below minimum 1000ms", t.UploadIntervalMS)
	}

	if t.RetryIntervalMS == 0 {
		t.RetryIntervalMS = DefaultRetryIntervalMS
	}

	return nil
}

func (c *Config) baseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	if c.Environment == EnvironmentLive {
		return liveBaseURL
	}
	return sandboxBaseURL
}

// UploadInterval returns the flush period as a duration.
func (t TelemetryConfig) UploadInterval() time.Duration {
	return time.Duration(t.UploadIntervalMS) * time.Millisecond
}

// RetryInterval returns the sweep period as a duration.
func (t TelemetryConfig) RetryInterval() time.Duration {
	return time.Duration(t.RetryIntervalMS) * time.Millisecond
}
