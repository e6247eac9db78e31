// Package api serves the simulated telemetry feed over HTTP: JSON snapshots,
// the WebSocket stream, Prometheus metrics and health probes.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/speedwagon-io/stepsmon/internal/config"
	"github.com/speedwagon-io/stepsmon/internal/health"
	"github.com/speedwagon-io/stepsmon/internal/lib/logger/sl"
	"github.com/speedwagon-io/stepsmon/internal/model"
	"github.com/speedwagon-io/stepsmon/internal/telemetry"
)

// Monitor is the read side of the simulation the handlers render.
type Monitor interface {
	Samples() []model.Sample
	BufferCapacity() int
	Health() model.HealthSnapshot
	Analysis() (model.AnalysisResult, bool)
	Analyzing() bool
	Status() model.DataStatus
}

type TelemetryResponse struct {
	Status   model.DataStatus `json:"status"`
	Capacity int              `json:"capacity"`
	Samples  []model.Sample   `json:"samples"`
}

type LatestResponse struct {
	Sample model.Sample `json:"sample"`
	Trend  model.Trend  `json:"trend"`
}

type InstrumentResponse struct {
	Mission   string               `json:"mission"`
	Payload   string               `json:"payload"`
	Mode      string               `json:"mode"`
	Direction string               `json:"direction"`
	BiasLevel string               `json:"biasLevel"`
	Formats   string               `json:"formats"`
	Health    model.HealthSnapshot `json:"health"`
}

type AnalysisResponse struct {
	model.AnalysisResult
	Analyzing bool `json:"analyzing"`
}

type Server struct {
	log      *slog.Logger
	cfg      config.HTTPConfig
	info     config.InstrumentConfig
	monitor  Monitor
	health   *health.Handler
	stream   http.Handler
	gatherer prometheus.Gatherer
	server   *http.Server
}

func NewServer(
	log *slog.Logger,
	cfg *config.Config,
	monitor Monitor,
	healthHandler *health.Handler,
	stream http.Handler,
	gatherer prometheus.Gatherer,
) *Server {
	return &Server{
		log:      log,
		cfg:      cfg.HTTP,
		info:     cfg.Instrument,
		monitor:  monitor,
		health:   healthHandler,
		stream:   stream,
		gatherer: gatherer,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	if s.health != nil {
		s.health.Mount(r)
	}
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/telemetry", s.handleTelemetry)
		r.Get("/telemetry/latest", s.handleLatest)
		r.Get("/instrument", s.handleInstrument)
		r.Get("/analysis", s.handleAnalysis)
		if s.stream != nil {
			r.Handle("/stream", s.stream)
		}
	})

	return r
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Address,
		Handler:      s.Router(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	s.log.Info("starting http server", slog.String("address", s.cfg.Address))

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("http server error", sl.Err(err))
		}
	}()

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, TelemetryResponse{
		Status:   s.monitor.Status(),
		Capacity: s.monitor.BufferCapacity(),
		Samples:  s.monitor.Samples(),
	})
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	// One snapshot feeds both fields so the trend always describes the
	// returned sample.
	samples := s.monitor.Samples()
	if len(samples) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no samples buffered"})
		return
	}
	writeJSON(w, http.StatusOK, LatestResponse{
		Sample: samples[len(samples)-1],
		Trend:  telemetry.LowEnergyTrend(samples, telemetry.TrendLookback),
	})
}

func (s *Server) handleInstrument(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, InstrumentResponse{
		Mission:   s.info.Mission,
		Payload:   s.info.Payload,
		Mode:      s.info.Mode,
		Direction: s.info.Direction,
		BiasLevel: s.info.BiasLevel,
		Formats:   s.info.Formats,
		Health:    s.monitor.Health(),
	})
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	res, ok := s.monitor.Analysis()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, AnalysisResponse{AnalysisResult: res, Analyzing: s.monitor.Analyzing()})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
