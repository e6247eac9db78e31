// Package telemetry simulates the STEPS particle detector: a bounded random
// walk over three flux channels, a derived electron channel, the instrument
// health readings and the fixed-capacity sample buffer the dashboard reads.
package telemetry

import (
	"time"

	"github.com/speedwagon-io/stepsmon/internal/model"
)

// Rand is the random source driving the walk. *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

type Bounds struct {
	Min float64
	Max float64
}

func (b Bounds) Clamp(v float64) float64 {
	return max(b.Min, min(b.Max, v))
}

func (b Bounds) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// Channel describes one walked flux channel. Each tick adds
// (rand()-0.5)*Step and clamps the result into Bounds.
type Channel struct {
	Name   string
	Step   float64
	Bounds Bounds
}

func (c Channel) Walk(current, r float64) float64 {
	return c.Bounds.Clamp(current + (r-0.5)*c.Step)
}

var (
	ProtonLow  = Channel{Name: "proton_flux_low", Step: 50, Bounds: Bounds{Min: 1000, Max: 2000}}
	ProtonHigh = Channel{Name: "proton_flux_high", Step: 20, Bounds: Bounds{Min: 200, Max: 800}}
	Alpha      = Channel{Name: "alpha_particles", Step: 5, Bounds: Bounds{Min: 10, Max: 100}}
)

// ElectronCorrelation scales the low-energy proton flux into the electron channel.
const ElectronCorrelation = 1.5

const DisplayTimeLayout = "15:04:05"

// WalkState holds the running value of every walked channel.
type WalkState struct {
	ProtonLow  float64
	ProtonHigh float64
	Alpha      float64
}

func DefaultWalkState() WalkState {
	return WalkState{ProtonLow: 1500, ProtonHigh: 400, Alpha: 50}
}

// Generator produces one Sample per call and carries the walk across calls.
// It is not safe for concurrent use; the collector drives it from a single
// goroutine.
type Generator struct {
	rnd   Rand
	state WalkState
	loc   *time.Location
}

type Option func(*Generator)

func WithState(s WalkState) Option {
	return func(g *Generator) {
		g.state = s
	}
}

// WithLocation sets the zone DisplayTime is rendered in. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(g *Generator) {
		if loc != nil {
			g.loc = loc
		}
	}
}

func NewGenerator(rnd Rand, opts ...Option) *Generator {
	g := &Generator{
		rnd:   rnd,
		state: DefaultWalkState(),
		loc:   time.Local,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Generator) Generate(ts time.Time) model.Sample {
	// Draw order is low, high, alpha; deterministic stubs rely on it.
	g.state.ProtonLow = ProtonLow.Walk(g.state.ProtonLow, g.rnd.Float64())
	g.state.ProtonHigh = ProtonHigh.Walk(g.state.ProtonHigh, g.rnd.Float64())
	g.state.Alpha = Alpha.Walk(g.state.Alpha, g.rnd.Float64())

	return model.Sample{
		Timestamp:      ts.UnixMilli(),
		DisplayTime:    ts.In(g.loc).Format(DisplayTimeLayout),
		ProtonFluxLow:  g.state.ProtonLow,
		ProtonFluxHigh: g.state.ProtonHigh,
		AlphaParticles: g.state.Alpha,
		ElectronFlux:   g.state.ProtonLow * ElectronCorrelation,
	}
}

func (g *Generator) State() WalkState {
	return g.state
}
