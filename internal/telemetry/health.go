package telemetry

import "github.com/speedwagon-io/stepsmon/internal/model"

const (
	NominalTemp     = -12.4
	NominalVoltage  = 28.1
	IntegrationTime = 1000

	tempJitter    = 1.0
	voltageJitter = 0.1
)

// HealthLimits are the inclusive bands outside of which a reading escalates
// the instrument status.
type HealthLimits struct {
	TempWarn     Bounds
	TempCritical Bounds
	VoltWarn     Bounds
	VoltCritical Bounds
}

func DefaultHealthLimits() HealthLimits {
	return HealthLimits{
		TempWarn:     Bounds{Min: -20, Max: 0},
		TempCritical: Bounds{Min: -30, Max: 10},
		VoltWarn:     Bounds{Min: 27.5, Max: 28.7},
		VoltCritical: Bounds{Min: 26.5, Max: 29.5},
	}
}

func (l HealthLimits) Classify(temp, voltage float64) model.InstrumentStatus {
	switch {
	case !l.TempCritical.Contains(temp) || !l.VoltCritical.Contains(voltage):
		return model.InstrumentCritical
	case !l.TempWarn.Contains(temp) || !l.VoltWarn.Contains(voltage):
		return model.InstrumentWarning
	default:
		return model.InstrumentNominal
	}
}

// HealthSimulator jitters detector temperature and bus voltage around their
// nominal values. It shares nothing with the flux walk.
type HealthSimulator struct {
	rnd    Rand
	limits HealthLimits
}

func NewHealthSimulator(rnd Rand, limits HealthLimits) *HealthSimulator {
	return &HealthSimulator{rnd: rnd, limits: limits}
}

func InitialHealth() model.HealthSnapshot {
	return model.HealthSnapshot{
		InstrumentTemp:  NominalTemp,
		Voltage:         NominalVoltage,
		IntegrationTime: IntegrationTime,
		Status:          model.InstrumentNominal,
	}
}

func (h *HealthSimulator) Next() model.HealthSnapshot {
	temp := NominalTemp + (h.rnd.Float64()-0.5)*tempJitter
	voltage := NominalVoltage + (h.rnd.Float64()-0.5)*voltageJitter

	return model.HealthSnapshot{
		InstrumentTemp:  temp,
		Voltage:         voltage,
		IntegrationTime: IntegrationTime,
		Status:          h.limits.Classify(temp, voltage),
	}
}
