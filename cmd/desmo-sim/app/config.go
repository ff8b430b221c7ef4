package app

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/desmolabs/desmo-go"
)

// Config is the simulator configuration.
type Config struct {
	Settings Settings       `yaml:"settings"`
	Client   desmo.Config   `yaml:"client"`
	Delivery DeliveryConfig `yaml:"delivery"`
}

// Settings holds global simulator settings.
type Settings struct {
	LogLevel  string `yaml:"logLevel"`
	StorePath string `yaml:"storePath"`
}

// Level parses the configured log level, defaulting to info.
func (s Settings) Level() (slog.Level, error) {
	if s.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s.LogLevel, err)
	}
	return level, nil
}

// DeliveryConfig describes the simulated delivery leg.
type DeliveryConfig struct {
	SessionType     string  `yaml:"sessionType"`
	ExternalRiderID string  `yaml:"externalRiderId"`
	DurationSec     int     `yaml:"durationSec"`
	StartLat        float64 `yaml:"startLat"`
	StartLng        float64 `yaml:"startLng"`
}

func (d *DeliveryConfig) withDefaults() {
	if d.SessionType == "" {
		d.SessionType = string(desmo.SessionTypeDrop)
	}
	if d.DurationSec <= 0 {
		d.DurationSec = 60
	}
	if d.StartLat == 0 && d.StartLng == 0 {
		// Sydney CBD, an arbitrary but plausible start point.
		d.StartLat, d.StartLng = -33.8688, 151.2093
	}
}

// LoadConfig reads and parses the simulator configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var config Config
	if err = yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	config.Delivery.withDefaults()
	return &config, nil
}
