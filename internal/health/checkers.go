package health

import (
	"context"
	"fmt"
	"time"

	"github.com/speedwagon-io/stepsmon/internal/model"
)

// TelemetrySource is the read side of the collector the telemetry checker needs.
type TelemetrySource interface {
	Status() model.DataStatus
	LastTick() time.Time
}

type TelemetryHealthChecker struct {
	source   TelemetrySource
	maxStale time.Duration
	now      func() time.Time
}

// NewTelemetryHealthChecker reports degraded once the newest sample is older
// than maxStale.
func NewTelemetryHealthChecker(source TelemetrySource, maxStale time.Duration) *TelemetryHealthChecker {
	return &TelemetryHealthChecker{source: source, maxStale: maxStale, now: time.Now}
}

func (c *TelemetryHealthChecker) Name() string {
	return "telemetry"
}

func (c *TelemetryHealthChecker) Check(ctx context.Context) (Status, string) {
	status := c.source.Status()
	if status != model.StatusLive {
		return StatusUnhealthy, fmt.Sprintf("feed is %s", status)
	}

	if age := c.now().Sub(c.source.LastTick()); age > c.maxStale {
		return StatusDegraded, fmt.Sprintf("last sample %s ago", age.Round(time.Millisecond))
	}
	return StatusHealthy, ""
}

type AnalysisSource interface {
	Analysis() (model.AnalysisResult, bool)
}

type AnalysisHealthChecker struct {
	source AnalysisSource
}

func NewAnalysisHealthChecker(source AnalysisSource) *AnalysisHealthChecker {
	return &AnalysisHealthChecker{source: source}
}

func (c *AnalysisHealthChecker) Name() string {
	return "analysis"
}

func (c *AnalysisHealthChecker) Check(ctx context.Context) (Status, string) {
	res, ok := c.source.Analysis()
	if !ok {
		return StatusHealthy, "no analysis yet"
	}
	if res.HazardLevel == model.HazardUnknown {
		return StatusDegraded, res.Summary
	}
	return StatusHealthy, ""
}
