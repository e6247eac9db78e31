package telemetry

import (
	"math/rand"
	"testing"
	"time"

	"github.com/speedwagon-io/stepsmon/internal/model"
)

func sampleAt(ms int64) model.Sample {
	return model.Sample{Timestamp: ms}
}

func TestBufferEvictsOldest(t *testing.T) {
	buf := NewBuffer(3)

	for i := int64(1); i <= 5; i++ {
		buf.Append(sampleAt(i))
		if buf.Len() > buf.Cap() {
			t.Fatalf("len %d exceeds capacity %d", buf.Len(), buf.Cap())
		}
	}

	got := buf.Snapshot()
	if len(got) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(got))
	}
	for i, want := range []int64{3, 4, 5} {
		if got[i].Timestamp != want {
			t.Fatalf("position %d: expected %d, got %d", i, want, got[i].Timestamp)
		}
	}
}

func TestBufferSteadyStateLength(t *testing.T) {
	buf := NewBuffer(DefaultCapacity)

	for i := int64(0); i < 500; i++ {
		buf.Append(sampleAt(i))
		want := int(i) + 1
		if want > DefaultCapacity {
			want = DefaultCapacity
		}
		if buf.Len() != want {
			t.Fatalf("after %d appends expected len %d, got %d", i+1, want, buf.Len())
		}
	}

	latest, ok := buf.Latest()
	if !ok || latest.Timestamp != 499 {
		t.Fatalf("expected latest 499, got %+v (ok=%v)", latest, ok)
	}
	if first := buf.Snapshot()[0]; first.Timestamp != 440 {
		t.Fatalf("expected oldest 440, got %d", first.Timestamp)
	}
}

func TestBufferPreservesChronologicalOrder(t *testing.T) {
	gen := NewGenerator(rand.New(rand.NewSource(3)))
	buf := NewBuffer(DefaultCapacity)
	start := time.Now()

	for i := 0; i < 150; i++ {
		buf.Append(gen.Generate(start.Add(time.Duration(i) * time.Second)))
	}

	snap := buf.Snapshot()
	for i := 1; i < len(snap); i++ {
		if snap[i-1].Timestamp > snap[i].Timestamp {
			t.Fatalf("order broken at %d: %d > %d", i, snap[i-1].Timestamp, snap[i].Timestamp)
		}
	}
}

func TestBufferTail(t *testing.T) {
	buf := NewBuffer(5)

	if tail := buf.Tail(3); len(tail) != 0 {
		t.Fatalf("expected empty tail, got %d", len(tail))
	}

	for i := int64(1); i <= 7; i++ {
		buf.Append(sampleAt(i))
	}

	tail := buf.Tail(2)
	if len(tail) != 2 || tail[0].Timestamp != 6 || tail[1].Timestamp != 7 {
		t.Fatalf("unexpected tail: %+v", tail)
	}

	if all := buf.Tail(20); len(all) != 5 || all[0].Timestamp != 3 {
		t.Fatalf("expected 5 samples starting at 3, got %+v", all)
	}
}

func TestBufferSnapshotIsCopy(t *testing.T) {
	buf := NewBuffer(2)
	buf.Append(sampleAt(1))

	snap := buf.Snapshot()
	snap[0].Timestamp = 99

	if latest, _ := buf.Latest(); latest.Timestamp != 1 {
		t.Fatalf("snapshot mutation leaked into buffer: %d", latest.Timestamp)
	}
}

func TestSeedTimestamps(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	ts := SeedTimestamps(now, DefaultCapacity)

	if len(ts) != DefaultCapacity {
		t.Fatalf("expected %d timestamps, got %d", DefaultCapacity, len(ts))
	}
	for i := 1; i < len(ts); i++ {
		if d := ts[i].Sub(ts[i-1]); d != time.Second {
			t.Fatalf("spacing at %d is %v", i, d)
		}
	}
	if last := ts[len(ts)-1]; !last.Before(now) || now.Sub(last) != time.Second {
		t.Fatalf("last timestamp %v should be one second before %v", last, now)
	}
}

func TestSeedFillsBufferAndKeepsWalkContinuous(t *testing.T) {
	now := time.Now()
	timestamps := SeedTimestamps(now, DefaultCapacity)

	seeded := NewGenerator(rand.New(rand.NewSource(11)))
	buf := NewBuffer(DefaultCapacity)
	buf.Seed(seeded, timestamps)

	if buf.Len() != DefaultCapacity {
		t.Fatalf("expected %d seeded samples, got %d", DefaultCapacity, buf.Len())
	}

	reference := NewGenerator(rand.New(rand.NewSource(11)))
	var want model.Sample
	for _, ts := range timestamps {
		want = reference.Generate(ts)
	}
	if latest, _ := buf.Latest(); latest != want {
		t.Fatalf("seeded tail %+v differs from sequential %+v", latest, want)
	}

	next := seeded.Generate(now)
	if next != reference.Generate(now) {
		t.Fatal("live tick after seeding did not continue the walk")
	}
}

func BenchmarkBufferAppend(b *testing.B) {
	buf := NewBuffer(DefaultCapacity)
	s := sampleAt(1)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf.Append(s)
	}
}
