package telemetry

import (
	"math/rand"
	"testing"
	"time"
)

type seqRand struct {
	values []float64
	i      int
}

func (s *seqRand) Float64() float64 {
	v := s.values[s.i%len(s.values)]
	s.i++
	return v
}

func constRand(v float64) *seqRand {
	return &seqRand{values: []float64{v}}
}

func TestGeneratorFullStepPerturbation(t *testing.T) {
	// 1.5 is outside [0,1) on purpose: (1.5-0.5)*step yields a full +step.
	gen := NewGenerator(constRand(1.5), WithLocation(time.UTC))

	s := gen.Generate(time.UnixMilli(0))

	if s.ProtonFluxLow != 1550 {
		t.Fatalf("expected low 1550, got %v", s.ProtonFluxLow)
	}
	if s.ProtonFluxHigh != 420 {
		t.Fatalf("expected high 420, got %v", s.ProtonFluxHigh)
	}
	if s.AlphaParticles != 55 {
		t.Fatalf("expected alpha 55, got %v", s.AlphaParticles)
	}
	if s.ElectronFlux != 2325 {
		t.Fatalf("expected electron 2325, got %v", s.ElectronFlux)
	}
}

func TestGeneratorNeutralDrawKeepsState(t *testing.T) {
	gen := NewGenerator(constRand(0.5))

	for i := 0; i < 10; i++ {
		gen.Generate(time.Now())
	}

	if got := gen.State(); got != DefaultWalkState() {
		t.Fatalf("expected state unchanged, got %+v", got)
	}
}

func TestGeneratorClampsAtEdges(t *testing.T) {
	tests := []struct {
		name  string
		draw  float64
		start WalkState
		want  WalkState
	}{
		{
			name:  "upper",
			draw:  0.99,
			start: WalkState{ProtonLow: 1995, ProtonHigh: 798, Alpha: 99.5},
			want:  WalkState{ProtonLow: 2000, ProtonHigh: 800, Alpha: 100},
		},
		{
			name:  "lower",
			draw:  0,
			start: WalkState{ProtonLow: 1010, ProtonHigh: 205, Alpha: 11},
			want:  WalkState{ProtonLow: 1000, ProtonHigh: 200, Alpha: 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := NewGenerator(constRand(tt.draw), WithState(tt.start))
			gen.Generate(time.Now())
			if got := gen.State(); got != tt.want {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestGeneratorLeavesEdgeWhenDrawReverses(t *testing.T) {
	rnd := &seqRand{values: []float64{1, 1, 1, 0, 0, 0}}
	gen := NewGenerator(rnd, WithState(WalkState{ProtonLow: 2000, ProtonHigh: 800, Alpha: 100}))

	gen.Generate(time.Now())
	s := gen.Generate(time.Now())

	if s.ProtonFluxLow != 1975 || s.ProtonFluxHigh != 790 || s.AlphaParticles != 97.5 {
		t.Fatalf("expected walk to move off the edge, got %+v", s)
	}
}

func TestGeneratorBoundsAndCorrelationHold(t *testing.T) {
	gen := NewGenerator(rand.New(rand.NewSource(7)))
	ts := time.Now()

	for i := 0; i < 20000; i++ {
		s := gen.Generate(ts.Add(time.Duration(i) * time.Second))

		if !ProtonLow.Bounds.Contains(s.ProtonFluxLow) {
			t.Fatalf("tick %d: low out of bounds: %v", i, s.ProtonFluxLow)
		}
		if !ProtonHigh.Bounds.Contains(s.ProtonFluxHigh) {
			t.Fatalf("tick %d: high out of bounds: %v", i, s.ProtonFluxHigh)
		}
		if !Alpha.Bounds.Contains(s.AlphaParticles) {
			t.Fatalf("tick %d: alpha out of bounds: %v", i, s.AlphaParticles)
		}
		if s.ElectronFlux != ElectronCorrelation*s.ProtonFluxLow {
			t.Fatalf("tick %d: electron %v != 1.5 * %v", i, s.ElectronFlux, s.ProtonFluxLow)
		}
	}
}

func TestGeneratorDisplayTime(t *testing.T) {
	gen := NewGenerator(constRand(0.5), WithLocation(time.UTC))
	ts := time.Date(2024, 1, 6, 21, 4, 9, 500_000_000, time.UTC)

	s := gen.Generate(ts)

	if s.DisplayTime != "21:04:09" {
		t.Fatalf("expected 21:04:09, got %q", s.DisplayTime)
	}
	if s.Timestamp != ts.UnixMilli() {
		t.Fatalf("expected timestamp %d, got %d", ts.UnixMilli(), s.Timestamp)
	}
}

func BenchmarkGenerate(b *testing.B) {
	gen := NewGenerator(rand.New(rand.NewSource(1)))
	ts := time.Now()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		gen.Generate(ts)
	}
}
