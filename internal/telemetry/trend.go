package telemetry

import "github.com/speedwagon-io/stepsmon/internal/model"

const TrendLookback = 5

// LowEnergyTrend compares the newest low-energy proton flux with the value
// lookback positions from the end of samples.
func LowEnergyTrend(samples []model.Sample, lookback int) model.Trend {
	if lookback < 2 || len(samples) < lookback {
		return model.TrendStable
	}

	latest := samples[len(samples)-1].ProtonFluxLow
	ref := samples[len(samples)-lookback].ProtonFluxLow

	switch {
	case latest > ref:
		return model.TrendUp
	case latest < ref:
		return model.TrendDown
	default:
		return model.TrendStable
	}
}
