// Package analysis turns a window of recent samples into a hazard
// assessment. Backends are pluggable; every failure degrades to an UNKNOWN
// result instead of an error.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/speedwagon-io/stepsmon/internal/lib/logger/sl"
	"github.com/speedwagon-io/stepsmon/internal/model"
)

const (
	MissingCredentialSummary = "API Key missing. Unable to perform AI analysis on solar wind telemetry."
	UnavailableSummary       = "Automated analysis temporarily unavailable due to telemetry link latency."

	lastUpdatedLayout = "15:04:05"
)

type Outcome string

const (
	OutcomeOK           Outcome = "ok"
	OutcomeFallback     Outcome = "fallback"
	OutcomeNoCredential Outcome = "no_credential"
)

type Analyzer struct {
	log    *slog.Logger
	client Client
	now    func() time.Time
}

func NewAnalyzer(log *slog.Logger, client Client) *Analyzer {
	return &Analyzer{
		log:    log,
		client: client,
		now:    time.Now,
	}
}

// Analyze never returns an error: missing credentials and backend failures
// both produce an UNKNOWN result. The Outcome tells them apart.
func (a *Analyzer) Analyze(ctx context.Context, samples []model.Sample) (model.AnalysisResult, Outcome) {
	id := uuid.New().String()
	log := a.log.With(
		slog.String("analysis_id", id),
		slog.String("backend", a.client.Name()),
		slog.Int("window", len(samples)),
	)

	if !a.client.HasCredential() {
		log.Warn("no credential configured, skipping analysis call")
		return a.result(id, len(samples), MissingCredentialSummary, model.HazardUnknown), OutcomeNoCredential
	}

	if len(samples) == 0 {
		log.Warn("no samples to analyze")
		return a.result(id, 0, UnavailableSummary, model.HazardUnknown), OutcomeFallback
	}

	summary, err := a.client.Summarize(ctx, samples)
	if err == nil && !summary.HazardLevel.Assessed() {
		err = fmt.Errorf("%w: %q", ErrInvalidHazard, summary.HazardLevel)
	}
	if err != nil {
		log.Error("analysis failed", sl.Err(err))
		return a.result(id, len(samples), UnavailableSummary, model.HazardUnknown), OutcomeFallback
	}

	log.Debug("analysis completed", slog.String("hazard_level", string(summary.HazardLevel)))
	return a.result(id, len(samples), summary.Summary, summary.HazardLevel), OutcomeOK
}

func (a *Analyzer) result(id string, window int, summary string, hazard model.HazardLevel) model.AnalysisResult {
	return model.AnalysisResult{
		ID:          id,
		Summary:     summary,
		HazardLevel: hazard,
		LastUpdated: a.now().Format(lastUpdatedLayout),
		Window:      window,
	}
}
