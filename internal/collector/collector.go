package collector

import (
	"context"
	"time"

	"github.com/speedwagon-io/stepsmon/internal/analysis"
	"github.com/speedwagon-io/stepsmon/internal/model"
)

type SampleSource interface {
	Generate(ts time.Time) model.Sample
}

type HealthSource interface {
	Next() model.HealthSnapshot
}

type Analyzer interface {
	Analyze(ctx context.Context, samples []model.Sample) (model.AnalysisResult, analysis.Outcome)
}

type Publisher interface {
	Publish(env *model.Envelope)
}

type nopPublisher struct{}

func (nopPublisher) Publish(*model.Envelope) {}
