// Package uploader implements the store-and-forward queue between the
// sample buffer and the HTTP transport. Batches are persisted before the
// first upload attempt, so delivery is at-least-once across process death:
// rows leave the store only on acknowledgement, permanent rejection, or the
// retry ceiling.
package uploader

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/desmolabs/desmo-go/internal/store"
	"github.com/desmolabs/desmo-go/internal/transport"
	"github.com/desmolabs/desmo-go/telemetry"
)

const (
	// DefaultMaxAttempts is the retry ceiling after which a batch is
	// evicted unsent.
	DefaultMaxAttempts = 10

	telemetryPath = "/v1/telemetry"
)

// Queue accepts batches, persists them, and uploads them. The live path and
// the retry sweep share the same upload and classification code, so
// crash-recovered batches inherit the full policy.
type Queue struct {
	store       *store.Store
	client      *transport.Client
	logger      *slog.Logger
	maxAttempts int
}

// Option configures a Queue.
type Option func(*Queue)

// WithLogger sets the logger for the queue.
func WithLogger(logger *slog.Logger) Option {
	return func(q *Queue) {
		q.logger = logger.With(slog.String("component", "uploader"))
	}
}

// WithMaxAttempts overrides the retry ceiling.
func WithMaxAttempts(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.maxAttempts = n
		}
	}
}

// New creates a queue over the given store and transport.
func New(st *store.Store, client *transport.Client, options ...Option) *Queue {
	q := Queue{
		store:       st,
		client:      client,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxAttempts: DefaultMaxAttempts,
	}

	for _, option := range options {
		option(&q)
	}

	return &q
}

// Enqueue persists a batch for sessionID and attempts one upload. Transport
// failures are not returned: a retryable failure leaves the row for the next
// sweep, a permanent rejection discards it. Only serialization failures
// propagate, since nothing was persisted.
func (q *Queue) Enqueue(ctx context.Context, sessionID string, samples []telemetry.Sample) error {
	if len(samples) == 0 {
		return nil
	}

	payload, err := json.Marshal(samples)
	if err != nil {
		return fmt.Errorf("encoding batch: %w", err)
	}

	id, err := q.store.Insert(ctx, sessionID, payload, len(samples))
	if err != nil {
		// The batch cannot be retried after process death, but this
		// attempt can still deliver it.
		q.logger.Warn("persisting batch failed, attempting direct upload",
			slog.String("sessionID", sessionID),
			slog.String("error", err.Error()))
		id = 0
	}

	q.logger.Debug("batch enqueued",
		slog.String("sessionID", sessionID),
		slog.String("samples", humanize.Comma(int64(len(samples)))),
		slog.String("size", humanize.Bytes(uint64(len(payload)))))

	q.upload(ctx, id, sessionID, payload)
	return nil
}

// ProcessPending sweeps the store: stale rows are evicted, the rest are
// re-uploaded oldest first, each under the session it was recorded for.
func (q *Queue) ProcessPending(ctx context.Context) error {
	if evicted, err := q.store.EvictStale(ctx, q.maxAttempts); err != nil {
		return fmt.Errorf("evicting stale batches: %w", err)
	} else if evicted > 0 {
		q.logger.Warn("evicted batches past the retry ceiling", slog.Int64("count", evicted))
	}

	rows, err := q.store.AllPending(ctx)
	if err != nil {
		return fmt.Errorf("reading pending batches: %w", err)
	}

	return q.processRows(ctx, rows)
}

// ProcessPendingFor is ProcessPending scoped to a single session.
func (q *Queue) ProcessPendingFor(ctx context.Context, sessionID string) error {
	if _, err := q.store.EvictStale(ctx, q.maxAttempts); err != nil {
		return fmt.Errorf("evicting stale batches: %w", err)
	}

	rows, err := q.store.PendingFor(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("reading pending batches: %w", err)
	}

	return q.processRows(ctx, rows)
}

func (q *Queue) processRows(ctx context.Context, rows []store.PendingBatch) error {
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		// The row's own session, never the currently active one: batches
		// recorded during session A are delivered under session A even if
		// session B is live when the network recovers.
		q.upload(ctx, row.ID, row.SessionID, row.PayloadJSON)
	}
	return nil
}

// upload attempts one delivery and applies the classification to the stored
// row. id 0 means the batch was never persisted and there is no row to act
// on.
func (q *Queue) upload(ctx context.Context, id int64, sessionID string, events []byte) {
	req := telemetry.TelemetryRequest{SessionID: sessionID, Events: events}
	_, err := q.client.Post(ctx, telemetryPath, req)

	switch outcome := transport.Classify(err); outcome {
	case transport.Success:
		if id != 0 {
			if dErr := q.store.Delete(ctx, id); dErr != nil {
				q.logger.Error("deleting delivered batch", slog.Int64("id", id), slog.String("error", dErr.Error()))
			}
		}

	case transport.Retryable:
		q.logger.Warn("upload failed, batch retained",
			slog.Int64("id", id),
			slog.String("sessionID", sessionID),
			slog.String("error", err.Error()))
		if id != 0 {
			if iErr := q.store.IncrementAttempts(ctx, id); iErr != nil {
				q.logger.Error("incrementing attempts", slog.Int64("id", id), slog.String("error", iErr.Error()))
			}
		}

	case transport.Permanent:
		q.logger.Warn("batch permanently rejected, dropping",
			slog.Int64("id", id),
			slog.String("sessionID", sessionID),
			slog.String("error", err.Error()))
		if id != 0 {
			if dErr := q.store.Delete(ctx, id); dErr != nil {
				q.logger.Error("deleting rejected batch", slog.Int64("id", id), slog.String("error", dErr.Error()))
			}
		}

	default:
		q.logger.Error("unhandled upload outcome", slog.String("outcome", outcome.String()))
	}
}
