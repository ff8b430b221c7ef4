package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/desmolabs/desmo-go"
	"github.com/desmolabs/desmo-go/sensor"
	"github.com/desmolabs/desmo-go/telemetry"
)

// stopTimeout bounds the final flush and session close after the run ends.
const stopTimeout = 30 * time.Second

// Run records one simulated delivery session and exits.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	set := newSimSet()

	position := sensor.NewPositionCache()
	set.Position = position

	options := []desmo.Option{
		desmo.WithLogger(logger),
		desmo.WithAdapters(set),
		desmo.WithContextSources(sensor.ContextSources{
			Screen:  func() (bool, bool) { return true, true },
			Network: func() telemetry.Network { return telemetry.NetworkWiFi },
			Battery: simBattery(),
		}),
		desmo.WithDeviceInfo(desmo.Device{
			Model:      "simulator",
			OSVersion:  "0",
			AppVersion: "desmo-sim",
		}),
	}
	if config.Settings.StorePath != "" {
		options = append(options, desmo.WithStorePath(config.Settings.StorePath))
	}

	client, err := desmo.New(config.Client, options...)
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}
	defer client.Close()

	// The walk feeds the cache before and during the session so the start
	// request carries a plausible location.
	walkDone := make(chan struct{})
	defer close(walkDone)
	if err = position.Start(); err != nil {
		return fmt.Errorf("starting position cache: %w", err)
	}
	interval := time.Duration(config.Client.Telemetry.LocationUpdateMS) * time.Millisecond
	if interval <= 0 {
		interval = desmo.DefaultLocationUpdateMS * time.Millisecond
	}
	go gpsWalk(position, config.Delivery.StartLat, config.Delivery.StartLng, interval, walkDone)

	deliveryID := uuid.NewString()
	session, err := client.StartSession(ctx, desmo.StartOptions{
		DeliveryID:      deliveryID,
		SessionType:     desmo.SessionType(config.Delivery.SessionType),
		ExternalRiderID: config.Delivery.ExternalRiderID,
		StartLocation:   &desmo.LatLng{Lat: config.Delivery.StartLat, Lng: config.Delivery.StartLng},
	})
	if err != nil {
		return fmt.Errorf("starting session: %w", err)
	}

	logger.Info("recording simulated delivery",
		slog.String("sessionID", session.SessionID),
		slog.String("deliveryID", deliveryID),
		slog.Int("durationSec", config.Delivery.DurationSec))

	select {
	case <-ctx.Done():
		logger.Info("interrupted, closing session")
	case <-time.After(time.Duration(config.Delivery.DurationSec) * time.Second):
	}

	// Stop on a fresh context: the run context is likely already cancelled
	// and the final flush still has to reach the backend.
	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	if err = client.StopSession(stopCtx); err != nil {
		return fmt.Errorf("stopping session: %w", err)
	}

	logger.Info("session completed", slog.String("sessionID", session.SessionID))
	return nil
}
