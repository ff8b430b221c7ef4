// Package desmo is the Desmo delivery-tracking telemetry SDK. A Client
// records one sensor session at a time: the host starts a session for a
// delivery leg, platform adapters feed sensor readings into a bounded
// buffer, and batches are persisted and uploaded in the background until the
// session is stopped. Batches that outlive the process are re-uploaded under
// their original session the next time a client runs.
package desmo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime"
	"sync"

	"github.com/desmolabs/desmo-go/internal/collector"
	"github.com/desmolabs/desmo-go/internal/lifecycle"
	"github.com/desmolabs/desmo-go/internal/store"
	"github.com/desmolabs/desmo-go/internal/transport"
	"github.com/desmolabs/desmo-go/internal/uploader"
	"github.com/desmolabs/desmo-go/sensor"
	"github.com/desmolabs/desmo-go/telemetry"
)

const (
	sessionStartPath = "/v1/sessions/start"
	sessionStopPath  = "/v1/sessions/stop"

	// DefaultStorePath is the SQLite file pending batches persist to when
	// WithStorePath is not supplied. Relative to the process working
	// directory; mobile hosts pass their app data directory instead.
	DefaultStorePath = "desmo-telemetry.db"
)

// Session, SessionType and friends are re-exported so hosts rarely need to
// import the telemetry package directly.
type (
	Session     = telemetry.Session
	SessionType = telemetry.SessionType
	Address     = telemetry.Address
	LatLng      = telemetry.LatLng
	Device      = telemetry.Device
)

const (
	SessionTypePickup  = telemetry.SessionTypePickup
	SessionTypeDrop    = telemetry.SessionTypeDrop
	SessionTypeTransit = telemetry.SessionTypeTransit
)

// ForegroundKeeper is the host's foreground-execution primitive: a wake lock
// on Android, a background task assertion on iOS. Acquired for the lifetime
// of a recording session.
type ForegroundKeeper interface {
	Acquire()
	Release()
}

type noopKeeper struct{}

func (noopKeeper) Acquire() {}
func (noopKeeper) Release() {}

// StartOptions describe the delivery leg a session records.
type StartOptions struct {
	// DeliveryID is the host's identifier for the delivery. Required.
	DeliveryID string

	// SessionType is the leg being recorded. Required.
	SessionType SessionType

	ExternalRiderID string
	Address         *Address

	// StartLocation overrides the recorded start point. When nil, the last
	// known position from the position adapter is used if one exists.
	StartLocation *LatLng
}

// Client is the SDK entry point. All public methods are safe for concurrent
// use; session operations serialize on one mutex held through the remote
// call, so concurrent starts resolve to one winner and the rest fail with
// InvalidStateError.
type Client struct {
	cfg    Config
	logger *slog.Logger

	httpClient *http.Client
	storePath  string
	sensors    *sensor.Set
	snapSrc    sensor.ContextSources
	hasSnap    bool
	keeper     ForegroundKeeper
	device     Device

	api    *transport.Client
	store  *store.Store
	queue  *uploader.Queue
	binder *lifecycle.Binder

	mu        sync.Mutex
	state     State
	sessionID string
	coord     *collector.Coordinator
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger for the client and everything under it.
// Overrides Config.LoggingEnabled.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithAdapters supplies the platform sensor adapters. Without it the client
// records context-only sessions.
func WithAdapters(set *sensor.Set) Option {
	return func(c *Client) {
		c.sensors = set
	}
}

// WithStorePath places the pending-batch database at path.
func WithStorePath(path string) Option {
	return func(c *Client) {
		c.storePath = path
	}
}

// WithForegroundKeeper supplies the host's foreground-execution primitive.
func WithForegroundKeeper(k ForegroundKeeper) Option {
	return func(c *Client) {
		c.keeper = k
	}
}

// WithContextSources supplies the device-context callbacks sampled into each
// telemetry record.
func WithContextSources(src sensor.ContextSources) Option {
	return func(c *Client) {
		c.snapSrc = src
		c.hasSnap = true
	}
}

// WithDeviceInfo overrides the device descriptor sent at session start.
// Platform and SDK version are filled in when left empty.
func WithDeviceInfo(d Device) Option {
	return func(c *Client) {
		c.device = d
	}
}

// New validates cfg and builds a client. The pending-batch store is opened
// lazily on first use, so New does not touch the filesystem.
func New(cfg Config, options ...Option) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	c := Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: transport.DefaultTimeout},
		storePath:  DefaultStorePath,
		keeper:     noopKeeper{},
		binder:     lifecycle.NewBinder(),
		state:      StateIdle,
	}
	if cfg.LoggingEnabled {
		c.logger = slog.Default()
	} else {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	for _, option := range options {
		option(&c)
	}

	if c.device.Platform == "" {
		c.device.Platform = runtime.GOOS
	}
	if c.device.SDKVersion == "" {
		c.device.SDKVersion = Version
	}

	c.api = transport.New(cfg.baseURL(), cfg.APIKey,
		transport.WithHTTPClient(c.httpClient),
		transport.WithLogger(c.logger))
	c.store = store.New(c.storePath)
	c.queue = uploader.New(c.store, c.api, uploader.WithLogger(c.logger))

	return &c, nil
}

// State reports the current session state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// StartSession registers a session with the backend and starts collection.
// Exactly one session records at a time: callers racing StartSession get one
// winner and InvalidStateError for the rest. The first successful start also
// kicks a recovery sweep that re-uploads batches persisted by a previous
// process, each under its original session.
func (c *Client) StartSession(ctx context.Context, opts StartOptions) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateIdle {
		return nil, &InvalidStateError{Expected: StateIdle, Actual: c.state}
	}
	if opts.DeliveryID == "" {
		return nil, fmt.Errorf("desmo: delivery id is required")
	}
	if opts.SessionType == "" {
		return nil, fmt.Errorf("desmo: session type is required")
	}

	c.state = StateStarting

	req := telemetry.StartSessionRequest{
		DeliveryID:      opts.DeliveryID,
		SessionType:     opts.SessionType,
		ExternalRiderID: opts.ExternalRiderID,
		Address:         opts.Address,
		Device:          &c.device,
		StartLocation:   opts.StartLocation,
	}
	avail := c.sensors.Availability()
	req.SensorAvailability = &avail
	if req.StartLocation == nil {
		if pos, ok := c.sensors.LastKnownPosition(); ok {
			req.StartLocation = &LatLng{Lat: pos.Lat, Lng: pos.Lng}
		}
	}

	body, err := c.api.Post(ctx, sessionStartPath, req)
	if err != nil {
		c.state = StateIdle
		return nil, fmt.Errorf("starting session: %w", err)
	}

	var sess Session
	if err = transport.DecodeJSON(body, &sess); err != nil {
		c.state = StateIdle
		return nil, fmt.Errorf("decoding session response: %w", err)
	}
	if sess.SessionID == "" {
		c.state = StateIdle
		return nil, fmt.Errorf("starting session: response carried no session id")
	}

	var snap *sensor.ContextSnapshotter
	if c.hasSnap {
		snap = sensor.NewContextSnapshotter(c.snapSrc)
	}

	coord := collector.New(sess.SessionID, collector.Config{
		SampleRateHz:   c.cfg.Telemetry.SampleRateHz,
		UploadInterval: c.cfg.Telemetry.UploadInterval(),
		RetryInterval:  c.cfg.Telemetry.RetryInterval(),
	}, c.queue, c.sensors, snap, collector.WithLogger(c.logger))

	// Collection outlives the caller's context: it stops only via
	// StopSession.
	if err = coord.Start(context.Background()); err != nil {
		c.state = StateIdle
		return nil, fmt.Errorf("starting collection: %w", err)
	}

	c.keeper.Acquire()
	c.binder.Bind(lifecycle.Hooks{
		OnForeground: coord.OnForeground,
		OnBackground: coord.OnBackground,
	})
	if !c.binder.Foreground() {
		coord.OnBackground()
	}

	// Batches a previous process left behind are retried now rather than
	// waiting for the first sweep tick.
	go func() {
		if err := c.queue.ProcessPending(context.Background()); err != nil {
			c.logger.Warn("recovery sweep failed", slog.String("error", err.Error()))
		}
	}()

	c.coord = coord
	c.sessionID = sess.SessionID
	c.state = StateRecording

	c.logger.Info("session started",
		slog.String("sessionID", sess.SessionID),
		slog.String("deliveryID", opts.DeliveryID),
		slog.String("type", string(opts.SessionType)))

	return &sess, nil
}

// StopSession flushes remaining samples, stops collection and closes the
// session with the backend. When the close call fails the client returns to
// recording so the caller can retry; the final batch was already persisted,
// so no telemetry is lost either way.
func (c *Client) StopSession(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateRecording {
		return &InvalidStateError{Expected: StateRecording, Actual: c.state}
	}
	c.state = StateStopping

	if err := c.coord.FlushAndStop(ctx); err != nil {
		// The batch is persisted; the retry sweep will deliver it.
		c.logger.Warn("final flush failed", slog.String("error", err.Error()))
	}

	req := telemetry.StopSessionRequest{SessionID: c.sessionID}
	if _, err := c.api.Post(ctx, sessionStopPath, req); err != nil {
		c.state = StateRecording
		return fmt.Errorf("stopping session: %w", err)
	}

	c.logger.Info("session stopped", slog.String("sessionID", c.sessionID))

	c.binder.Unbind()
	c.keeper.Release()
	c.coord = nil
	c.sessionID = ""
	c.state = StateIdle
	return nil
}

// Flush uploads the buffered samples immediately instead of waiting for the
// next periodic flush.
func (c *Client) Flush(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateRecording {
		return ErrNoActiveSession
	}
	return c.coord.Flush(ctx)
}

// OnForeground must be called when the host app enters the foreground.
func (c *Client) OnForeground() {
	c.binder.HandleForeground()
}

// OnBackground must be called when the host app enters the background.
// Collection continues; the foreground keeper holds the process alive.
func (c *Client) OnBackground() {
	c.binder.HandleBackground()
}

// Close releases the pending-batch store. The client must be idle.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateIdle {
		return &InvalidStateError{Expected: StateIdle, Actual: c.state}
	}
	return c.store.Close()
}
