package collector

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/speedwagon-io/stepsmon/internal/config"
	"github.com/speedwagon-io/stepsmon/internal/metrics"
	"github.com/speedwagon-io/stepsmon/internal/model"
	"github.com/speedwagon-io/stepsmon/internal/telemetry"
)

// Manager drives the simulation: a tick loop that generates and buffers one
// sample per interval, and a slower analysis loop that summarizes the newest
// window. At most one analysis is in flight; firings during a request are
// skipped, not queued.
type Manager struct {
	log       *slog.Logger
	cfg       *config.Config
	source    SampleSource
	health    HealthSource
	buffer    *telemetry.Buffer
	analyzer  Analyzer
	publisher Publisher
	metrics   *metrics.Metrics
	now       func() time.Time

	analyzing atomic.Bool

	mu       sync.RWMutex
	status   model.DataStatus
	snapshot model.HealthSnapshot
	result   *model.AnalysisResult
	lastTick time.Time

	stopCh   chan struct{}
	stopOnce sync.Once
	inflight sync.WaitGroup
}

func NewManager(
	log *slog.Logger,
	cfg *config.Config,
	source SampleSource,
	health HealthSource,
	buffer *telemetry.Buffer,
	analyzer Analyzer,
	publisher Publisher,
	m *metrics.Metrics,
) *Manager {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &Manager{
		log:       log,
		cfg:       cfg,
		source:    source,
		health:    health,
		buffer:    buffer,
		analyzer:  analyzer,
		publisher: publisher,
		metrics:   m,
		now:       time.Now,
		status:    model.StatusConnecting,
		snapshot:  telemetry.InitialHealth(),
		stopCh:    make(chan struct{}),
	}
}

// Seed backfills the buffer to capacity with samples one second apart ending
// just before now, then marks the feed live.
func (m *Manager) Seed() {
	now := m.now()
	m.buffer.Seed(m.source, telemetry.SeedTimestamps(now, m.buffer.Cap()))

	m.metrics.SamplesGenerated.Add(float64(m.buffer.Len()))
	m.metrics.BufferLength.Set(float64(m.buffer.Len()))
	if latest, ok := m.buffer.Latest(); ok {
		m.metrics.SetChannels(latest)
	}

	m.mu.Lock()
	m.lastTick = now
	m.mu.Unlock()

	m.log.Info("buffer seeded", slog.Int("samples", m.buffer.Len()))
	m.setStatus(model.StatusLive)
}

// Start seeds the buffer and blocks running both loops until ctx is
// cancelled or Stop is called. Tickers are stopped and in-flight analyses
// drained before it returns.
func (m *Manager) Start(ctx context.Context) error {
	m.log.Info("starting collector manager",
		slog.Duration("tick_interval", m.cfg.Simulation.TickInterval),
		slog.Duration("analysis_interval", m.cfg.Analysis.Interval),
		slog.Bool("analysis_enabled", m.cfg.Analysis.Enabled),
	)

	m.Seed()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-m.stopCh:
			m.log.Info("stop signal received, stopping manager")
			cancel()
		case <-ctx.Done():
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return m.runTickLoop(gctx)
	})
	if m.cfg.Analysis.Enabled {
		g.Go(func() error {
			return m.runAnalysisLoop(gctx)
		})
	}

	err := g.Wait()
	m.inflight.Wait()
	m.setStatus(model.StatusOffline)
	m.log.Info("collector manager stopped")
	return err
}

func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

func (m *Manager) runTickLoop(ctx context.Context) error {
	ticker := time.NewTicker(m.cfg.Simulation.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Tick(m.now())
		}
	}
}

func (m *Manager) runAnalysisLoop(ctx context.Context) error {
	ticker := time.NewTicker(m.cfg.Analysis.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.TriggerAnalysis(ctx)
		}
	}
}

// Tick generates one sample at now, appends it and refreshes the instrument
// health readings. Not safe to call concurrently with itself or Seed.
func (m *Manager) Tick(now time.Time) {
	sample := m.source.Generate(now)
	m.buffer.Append(sample)
	snapshot := m.health.Next()

	m.mu.Lock()
	m.snapshot = snapshot
	m.lastTick = now
	m.mu.Unlock()

	m.metrics.ObserveSample(sample)
	m.metrics.ObserveHealth(snapshot)
	m.metrics.BufferLength.Set(float64(m.buffer.Len()))

	m.publisher.Publish(model.NewEnvelope(model.EnvelopeSample, sample))
	m.publisher.Publish(model.NewEnvelope(model.EnvelopeHealth, snapshot))
}

// TriggerAnalysis starts an analysis in the background and returns
// immediately, so a slow backend never delays ticks. It reports false when
// the firing was skipped.
func (m *Manager) TriggerAnalysis(ctx context.Context) bool {
	window, ok := m.beginAnalysis()
	if !ok {
		return false
	}

	m.inflight.Add(1)
	go func() {
		defer m.inflight.Done()
		m.finishAnalysis(ctx, window)
	}()
	return true
}

// RunAnalysis is the synchronous form of TriggerAnalysis.
func (m *Manager) RunAnalysis(ctx context.Context) bool {
	window, ok := m.beginAnalysis()
	if !ok {
		return false
	}
	m.finishAnalysis(ctx, window)
	return true
}

func (m *Manager) beginAnalysis() ([]model.Sample, bool) {
	if !m.analyzing.CompareAndSwap(false, true) {
		m.metrics.AnalysisSkipped.Inc()
		m.log.Debug("analysis still in flight, skipping cycle")
		return nil, false
	}

	// The tail is copied now; ticks keep mutating the buffer while the
	// request is out.
	window := m.buffer.Tail(m.cfg.Analysis.Window)
	if len(window) == 0 {
		m.analyzing.Store(false)
		return nil, false
	}
	return window, true
}

func (m *Manager) finishAnalysis(ctx context.Context, window []model.Sample) {
	defer m.analyzing.Store(false)

	start := time.Now()
	result, outcome := m.analyzer.Analyze(ctx, window)
	m.metrics.AnalysisLatency.Observe(time.Since(start).Seconds())
	m.metrics.AnalysisCycles.WithLabelValues(string(outcome)).Inc()

	m.mu.Lock()
	m.result = &result
	m.mu.Unlock()

	m.log.Info("analysis updated",
		slog.String("analysis_id", result.ID),
		slog.String("hazard_level", string(result.HazardLevel)),
		slog.String("outcome", string(outcome)),
	)
	m.publisher.Publish(model.NewEnvelope(model.EnvelopeAnalysis, result))
}

func (m *Manager) setStatus(s model.DataStatus) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()
	m.publisher.Publish(model.NewEnvelope(model.EnvelopeStatus, s))
}

func (m *Manager) Samples() []model.Sample {
	return m.buffer.Snapshot()
}

func (m *Manager) Latest() (model.Sample, bool) {
	return m.buffer.Latest()
}

func (m *Manager) BufferCapacity() int {
	return m.buffer.Cap()
}

func (m *Manager) Health() model.HealthSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

func (m *Manager) Analysis() (model.AnalysisResult, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.result == nil {
		return model.AnalysisResult{}, false
	}
	return *m.result, true
}

func (m *Manager) Analyzing() bool {
	return m.analyzing.Load()
}

func (m *Manager) Status() model.DataStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) LastTick() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastTick
}

// Greeting is the frame set a newly connected stream client receives.
func (m *Manager) Greeting() []*model.Envelope {
	frames := []*model.Envelope{
		model.NewEnvelope(model.EnvelopeStatus, m.Status()),
		model.NewEnvelope(model.EnvelopeHealth, m.Health()),
	}
	if res, ok := m.Analysis(); ok {
		frames = append(frames, model.NewEnvelope(model.EnvelopeAnalysis, res))
	}
	return frames
}
