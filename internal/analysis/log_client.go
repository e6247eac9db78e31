package analysis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/speedwagon-io/stepsmon/internal/model"
)

const (
	moderateFluxThreshold = 500
	highFluxThreshold     = 700
)

// LogClient logs the prompt a model would receive and grades the window
// locally from the average high-energy flux. Used for dry runs.
type LogClient struct {
	log *slog.Logger
}

func NewLogClient(log *slog.Logger) *LogClient {
	return &LogClient{log: log}
}

func (c *LogClient) Name() string {
	return "log"
}

func (c *LogClient) HasCredential() bool {
	return true
}

func (c *LogClient) Summarize(ctx context.Context, samples []model.Sample) (Summary, error) {
	if len(samples) == 0 {
		return Summary{}, ErrEmptyWindow
	}
	c.log.Info("SUMMARIZE", slog.String("prompt", BuildPrompt(samples)))
	return GradeFlux(AverageHighFlux(samples)), nil
}

func GradeFlux(avgHighFlux float64) Summary {
	switch {
	case avgHighFlux >= highFluxThreshold:
		return Summary{
			Summary:     fmt.Sprintf("High energy proton flux averaging %.2f counts/s indicates a possible SEP event.", avgHighFlux),
			HazardLevel: model.HazardHigh,
		}
	case avgHighFlux >= moderateFluxThreshold:
		return Summary{
			Summary:     fmt.Sprintf("Elevated high energy proton flux (%.2f counts/s) suggests a mild disturbance.", avgHighFlux),
			HazardLevel: model.HazardModerate,
		}
	default:
		return Summary{
			Summary:     fmt.Sprintf("High energy proton flux of %.2f counts/s is consistent with ambient solar wind.", avgHighFlux),
			HazardLevel: model.HazardLow,
		}
	}
}
