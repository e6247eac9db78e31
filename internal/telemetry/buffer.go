package telemetry

import (
	"sync"
	"time"

	"github.com/speedwagon-io/stepsmon/internal/model"
)

const (
	DefaultCapacity = 60
	SeedSpacing     = time.Second
)

// Source produces samples; *Generator implements it.
type Source interface {
	Generate(ts time.Time) model.Sample
}

// Buffer is a fixed-capacity FIFO of the most recent samples. Appending to a
// full buffer evicts the oldest sample. Order of insertion is preserved.
type Buffer struct {
	mu       sync.RWMutex
	values   []model.Sample
	capacity int
	next     int
	count    int
}

func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		values:   make([]model.Sample, capacity),
		capacity: capacity,
	}
}

func (b *Buffer) Append(s model.Sample) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.appendLocked(s)
}

func (b *Buffer) appendLocked(s model.Sample) {
	b.values[b.next] = s
	b.next = (b.next + 1) % b.capacity
	if b.count < b.capacity {
		b.count++
	}
}

// SeedTimestamps returns n instants spaced SeedSpacing apart, the last one
// SeedSpacing before now.
func SeedTimestamps(now time.Time, n int) []time.Time {
	out := make([]time.Time, 0, n)
	for i := n; i > 0; i-- {
		out = append(out, now.Add(-time.Duration(i)*SeedSpacing))
	}
	return out
}

// Seed generates one sample per timestamp and appends it. The source's walk
// advances for every timestamp, so live ticks continue from the seeded state.
func (b *Buffer) Seed(src Source, timestamps []time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ts := range timestamps {
		b.appendLocked(src.Generate(ts))
	}
}

func (b *Buffer) at(i int) model.Sample {
	return b.values[(b.next-b.count+i+b.capacity)%b.capacity]
}

// Snapshot returns a copy of the retained samples, oldest first.
func (b *Buffer) Snapshot() []model.Sample {
	return b.Tail(b.capacity)
}

// Tail returns a copy of the newest min(n, Len()) samples, oldest first.
func (b *Buffer) Tail(n int) []model.Sample {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n > b.count {
		n = b.count
	}
	if n <= 0 {
		return []model.Sample{}
	}

	out := make([]model.Sample, n)
	start := b.count - n
	for i := range out {
		out[i] = b.at(start + i)
	}
	return out
}

func (b *Buffer) Latest() (model.Sample, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.count == 0 {
		return model.Sample{}, false
	}
	return b.at(b.count - 1), true
}

func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

func (b *Buffer) Cap() int {
	return b.capacity
}
