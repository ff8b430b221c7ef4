// Package buffer implements the bounded, thread-safe sample buffer sitting
// between the sensor assembly path and the upload queue.
package buffer

import (
	"sync"

	"github.com/desmolabs/desmo-go/telemetry"
)

// DefaultCapacity is the maximum number of samples retained before the
// oldest are dropped.
const DefaultCapacity = 10_000

// Buffer is a FIFO sample buffer with oldest-drop overflow. Producers call
// Add concurrently; a single drain observes samples in the order their adds
// won the mutex.
type Buffer struct {
	capacity int

	mu      sync.Mutex
	samples []telemetry.Sample
	head    int
}

// New creates a buffer holding up to capacity samples. A non-positive
// capacity selects DefaultCapacity.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{capacity: capacity}
}

// Add appends a sample, dropping from the front when the buffer would
// exceed its capacity. Amortised O(1): dropped samples advance a head index
// and the backing slice is compacted only once it is mostly dead.
func (b *Buffer) Add(s telemetry.Sample) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.samples = append(b.samples, s)
	for len(b.samples)-b.head > b.capacity {
		b.head++
	}
	if b.head > 0 && b.head >= len(b.samples)/2 {
		n := copy(b.samples, b.samples[b.head:])
		b.samples = b.samples[:n]
		b.head = 0
	}
}

// Drain atomically removes and returns the whole contents in order.
// Returns nil if the buffer is empty.
func (b *Buffer) Drain() []telemetry.Sample {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.samples)-b.head == 0 {
		return nil
	}

	out := b.samples[b.head:]
	b.samples = nil
	b.head = 0
	return out
}

// Clear discards all contents.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.samples = nil
	b.head = 0
}

// Len returns the current number of buffered samples.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.samples) - b.head
}

// IsEmpty reports whether the buffer holds no samples.
func (b *Buffer) IsEmpty() bool {
	return b.Len() == 0
}
