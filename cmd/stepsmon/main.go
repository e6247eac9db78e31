package main

import (
	"context"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/speedwagon-io/stepsmon/internal/analysis"
	"github.com/speedwagon-io/stepsmon/internal/api"
	"github.com/speedwagon-io/stepsmon/internal/collector"
	"github.com/speedwagon-io/stepsmon/internal/config"
	"github.com/speedwagon-io/stepsmon/internal/health"
	"github.com/speedwagon-io/stepsmon/internal/lib/logger/sl"
	"github.com/speedwagon-io/stepsmon/internal/metrics"
	"github.com/speedwagon-io/stepsmon/internal/model"
	"github.com/speedwagon-io/stepsmon/internal/stream"
	"github.com/speedwagon-io/stepsmon/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	dryRun := flag.Bool("dry-run", false, "grade flux locally instead of calling Gemini")
	flag.Parse()

	cfg := config.MustLoad(*configPath)

	log := sl.SetupLogger(cfg.Log)

	log.Info("starting STEPS telemetry simulator",
		slog.String("env", cfg.Env),
		slog.String("mission", cfg.Instrument.Mission),
		slog.String("payload", cfg.Instrument.Payload),
		slog.Bool("dry_run", *dryRun),
	)

	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	log.Debug("random source seeded", slog.Int64("seed", seed))

	generator := telemetry.NewGenerator(rand.New(rand.NewSource(seed)))
	healthSim := telemetry.NewHealthSimulator(rand.New(rand.NewSource(seed+1)), telemetry.DefaultHealthLimits())
	buf := telemetry.NewBuffer(cfg.Simulation.BufferCapacity)

	var client analysis.Client
	if *dryRun {
		client = analysis.NewLogClient(log)
		log.Info("dry-run mode: hazard graded locally")
	} else {
		gemini, err := analysis.NewGeminiClient(context.Background(), log, &cfg.Gemini, rand.New(rand.NewSource(seed+2)))
		if err != nil {
			log.Error("failed to create gemini client", sl.Err(err))
			os.Exit(1)
		}
		client = gemini
		if !client.HasCredential() {
			log.Warn("no Gemini API key configured, analysis will report the missing credential")
		}
	}
	analyzer := analysis.NewAnalyzer(log, client)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	hub := stream.NewHub(log, m, cfg.HTTP.Stream.OriginPatterns)

	manager := collector.NewManager(log, cfg, generator, healthSim, buf, analyzer, hub, m)
	hub.Greeting = manager.Greeting

	healthHandler := health.NewHandler(func() bool {
		return manager.Status() == model.StatusLive
	})
	healthHandler.AddChecker(health.NewTelemetryHealthChecker(manager, 3*cfg.Simulation.TickInterval))
	healthHandler.AddChecker(health.NewAnalysisHealthChecker(manager))

	server := api.NewServer(log, cfg, manager, healthHandler, hub, reg)
	if err := server.Start(); err != nil {
		log.Error("failed to start http server", sl.Err(err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received signal, shutting down", slog.String("signal", sig.String()))
		cancel()
	}()

	if err := manager.Start(ctx); err != nil && ctx.Err() == nil {
		log.Error("manager stopped with error", sl.Err(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	manager.Stop()
	hub.Close()

	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("failed to stop http server", sl.Err(err))
	}

	log.Info("simulator stopped")
}
