// Package collector implements the per-session telemetry coordinator: it
// owns the sample buffer, throttles and assembles sensor readings, and runs
// the periodic flush and retry loops. A coordinator serves exactly one
// session and is never reused.
package collector

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/desmolabs/desmo-go/internal/buffer"
	"github.com/desmolabs/desmo-go/internal/uploader"
	"github.com/desmolabs/desmo-go/sensor"
	"github.com/desmolabs/desmo-go/telemetry"
)

const (
	// DefaultSampleRateHz throttles emission to one sample per 20ms.
	DefaultSampleRateHz = 50

	// DefaultUploadInterval is the flush loop period.
	DefaultUploadInterval = 5 * time.Second

	// DefaultRetryInterval is the store sweep period.
	DefaultRetryInterval = 30 * time.Second

	// readingQueueSize bounds the channel between sensor callbacks and
	// the assembly worker. Callbacks never block: when the worker falls
	// behind, readings are dropped and counted.
	readingQueueSize = 256
)

// Config holds the per-session collection parameters.
type Config struct {
	SampleRateHz   int
	UploadInterval time.Duration
	RetryInterval  time.Duration
	BufferCapacity int
}

func (c Config) withDefaults() Config {
	if c.SampleRateHz <= 0 {
		c.SampleRateHz = DefaultSampleRateHz
	}
	if c.UploadInterval <= 0 {
		c.UploadInterval = DefaultUploadInterval
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = DefaultRetryInterval
	}
	return c
}

// WithLogger sets the logger for the coordinator.
func WithLogger(logger *slog.Logger) func(*Coordinator) {
	return func(c *Coordinator) {
		c.logger = logger.With(
			slog.String("component", "collector"),
			slog.String("sessionID", c.sessionID))
	}
}

// Coordinator drives collection for one session.
type Coordinator struct {
	sessionID string
	cfg       Config

	buf     *buffer.Buffer
	queue   *uploader.Queue
	sensors *sensor.Set
	snap    *sensor.ContextSnapshotter
	logger  *slog.Logger

	readings chan sensor.Reading
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	running    atomic.Bool
	foreground atomic.Bool
	dropped    atomic.Uint64

	// Assembly state, owned by the worker goroutine. Read by FlushAndStop
	// only after the worker has exited.
	minGapNanos int64
	lastEmit    int64
	emittedOnce bool
	bootOffset  int64
	offsetSet   bool
	latestAccel *[3]float64
	latestGyro  *[3]float64
	latestGrav  *[3]float64
	latestQuat  *[4]float64
	latestBaro  *telemetry.Barometer
	latestMag   *telemetry.Magnetometer
}

// New creates a coordinator for sessionID. The snapshotter may be nil when
// the host supplies no context sources.
func New(sessionID string, cfg Config, queue *uploader.Queue, sensors *sensor.Set, snap *sensor.ContextSnapshotter, options ...func(*Coordinator)) *Coordinator {
	cfg = cfg.withDefaults()

	c := Coordinator{
		sessionID:   sessionID,
		cfg:         cfg,
		buf:         buffer.New(cfg.BufferCapacity),
		queue:       queue,
		sensors:     sensors,
		snap:        snap,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		readings:    make(chan sensor.Reading, readingQueueSize),
		minGapNanos: int64(time.Second) / int64(cfg.SampleRateHz),
	}
	c.foreground.Store(true)

	for _, option := range options {
		option(&c)
	}

	return &c
}

// Start purges any stale buffer residue, activates the sensor adapters and
// launches the assembly worker and the flush and retry loops.
func (c *Coordinator) Start(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return fmt.Errorf("coordinator is already running")
	}

	// A process that died while recording can leave samples behind; they
	// belong to no live session and are discarded.
	c.buf.Clear()

	ctx, c.cancel = context.WithCancel(ctx)

	c.sensors.Bind(c.push)
	if err := c.sensors.StartAll(); err != nil {
		// Partial sensor sets still record; unavailable adapters were
		// already reported in the availability bitset.
		c.logger.Warn("some sensor adapters failed to start", slog.String("error", err.Error()))
	}

	c.wg.Add(3)
	go c.assemblyWorker(ctx)
	go c.flushLoop(ctx)
	go c.retryLoop(ctx)

	c.logger.Info("collection started", slog.Int("sampleRateHz", c.cfg.SampleRateHz))
	return nil
}

// push is the sink injected into every push adapter. It must return
// promptly: the reading is handed to the assembly worker, or dropped and
// counted when the worker is behind. A panicking adapter must not take the
// host down.
func (c *Coordinator) push(r sensor.Reading) {
	defer func() {
		if rec := recover(); rec != nil {
			c.logger.Error("sensor callback panicked", slog.Any("panic", rec))
		}
	}()

	select {
	case c.readings <- r:
	default:
		c.dropped.Add(1)
	}
}

func (c *Coordinator) assemblyWorker(ctx context.Context) {
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case r := <-c.readings:
			c.handle(r)
		}
	}
}

// handle folds one reading into the assembly state and emits a sample when
// the throttle allows. A malformed reading is dropped, never fatal.
func (c *Coordinator) handle(r sensor.Reading) {
	defer func() {
		if rec := recover(); rec != nil {
			c.logger.Error("dropping reading after panic", slog.Any("panic", rec))
			c.dropped.Add(1)
		}
	}()

	qualifying := false
	switch r.Kind {
	case sensor.Accelerometer:
		if len(r.Values) >= 3 {
			c.latestAccel = &[3]float64{r.Values[0], r.Values[1], r.Values[2]}
			qualifying = true
		}
	case sensor.Gyroscope:
		if len(r.Values) >= 3 {
			c.latestGyro = &[3]float64{r.Values[0], r.Values[1], r.Values[2]}
			qualifying = true
		}
	case sensor.Gravity:
		if len(r.Values) >= 3 {
			c.latestGrav = &[3]float64{r.Values[0], r.Values[1], r.Values[2]}
			qualifying = true
		}
	case sensor.RotationVector:
		if len(r.Values) >= 4 {
			c.latestQuat = &[4]float64{r.Values[0], r.Values[1], r.Values[2], r.Values[3]}
			qualifying = true
		}
	case sensor.Barometer:
		if len(r.Values) >= 1 {
			b := telemetry.Barometer{PressureHPa: r.Values[0]}
			if len(r.Values) >= 2 {
				alt := r.Values[1]
				b.RelativeAltitudeM = &alt
			}
			c.latestBaro = &b
		}
	case sensor.Magnetometer:
		if len(r.Values) >= 3 {
			c.latestMag = &telemetry.Magnetometer{X: r.Values[0], Y: r.Values[1], Z: r.Values[2]}
		}
	}

	if !qualifying {
		return
	}

	// The wall-clock anchor is captured against the first reading's
	// monotonic timestamp; every emitted ts is monotonic plus this fixed
	// offset, so timestamps cannot jump with wall-clock changes mid
	// session.
	if !c.offsetSet {
		c.bootOffset = time.Now().UnixNano() - r.MonoNanos
		c.offsetSet = true
	}

	// Throttle on the sensor's own clock. The first reading of the
	// session always emits.
	if c.emittedOnce && r.MonoNanos-c.lastEmit < c.minGapNanos {
		return
	}
	c.lastEmit = r.MonoNanos
	c.emittedOnce = true

	c.buf.Add(c.assemble(r.MonoNanos))
}

func (c *Coordinator) assemble(monoNanos int64) telemetry.Sample {
	s := telemetry.Sample{
		TS: float64(monoNanos+c.bootOffset) / float64(time.Second),
	}

	if c.latestAccel != nil || c.latestGyro != nil || c.latestGrav != nil || c.latestQuat != nil {
		s.IMU = &telemetry.IMU{
			Accel:    c.latestAccel,
			Gyro:     c.latestGyro,
			Gravity:  c.latestGrav,
			Attitude: c.latestQuat,
		}
	}
	s.Barometer = c.latestBaro
	s.Magnetometer = c.latestMag

	if pos, ok := c.sensors.LastKnownPosition(); ok {
		s.Position = &pos
	}
	if c.snap != nil {
		activity, _ := c.sensors.LatestActivity()
		s.Context = c.snap.Snapshot(c.foreground.Load(), activity)
	}

	return s
}

func (c *Coordinator) flushLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.UploadInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Flush(ctx); err != nil {
				c.logger.Error("flush failed", slog.String("error", err.Error()))
			}
		}
	}
}

func (c *Coordinator) retryLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.RetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.queue.ProcessPending(ctx); err != nil && ctx.Err() == nil {
				c.logger.Error("retry sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}

// Flush drains the buffer and hands the batch to the upload queue.
func (c *Coordinator) Flush(ctx context.Context) error {
	batch := c.buf.Drain()
	if len(batch) == 0 {
		return nil
	}
	return c.queue.Enqueue(ctx, c.sessionID, batch)
}

// OnForeground re-starts the push and activity adapters; the platform may
// have throttled their delivery while the app was backgrounded.
func (c *Coordinator) OnForeground() {
	c.foreground.Store(true)
	if !c.running.Load() {
		return
	}
	c.logger.Debug("app foregrounded, restarting sensor adapters")
	if err := c.sensors.Restart(); err != nil {
		c.logger.Warn("restarting sensor adapters", slog.String("error", err.Error()))
	}
}

// OnBackground records the transition. Collection continues; the
// foreground-execution primitive owned by the host keeps the process alive.
func (c *Coordinator) OnBackground() {
	c.foreground.Store(false)
	c.logger.Debug("app backgrounded, collection continues")
}

// FlushAndStop halts collection, cancels the loops, assembles any readings
// still queued and delivers the final batch. The final upload runs to
// completion on the caller's context; the batch is persisted first, so a
// mid-flight cancellation merely defers delivery to the next retry sweep.
// Safe to call more than once.
func (c *Coordinator) FlushAndStop(ctx context.Context) error {
	if !c.running.CompareAndSwap(true, false) {
		return nil
	}

	c.sensors.StopAll()
	c.cancel()
	c.wg.Wait()

	// Readings the worker never got to are assembled now rather than
	// lost; the adapters are stopped, so the channel cannot refill.
	for {
		select {
		case r := <-c.readings:
			c.handle(r)
			continue
		default:
		}
		break
	}

	if n := c.dropped.Load(); n > 0 {
		c.logger.Warn("readings dropped during session", slog.Uint64("count", n))
	}

	err := c.Flush(ctx)
	c.logger.Info("collection stopped")
	return err
}
