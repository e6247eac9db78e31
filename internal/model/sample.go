package model

// Sample is one tick of STEPS detector telemetry. Flux values are counts/s.
type Sample struct {
	Timestamp      int64   `json:"timestamp"`
	DisplayTime    string  `json:"displayTime"`
	ProtonFluxLow  float64 `json:"protonFluxLow"`
	ProtonFluxHigh float64 `json:"protonFluxHigh"`
	AlphaParticles float64 `json:"alphaParticles"`
	ElectronFlux   float64 `json:"electronFlux"`
}

type DataStatus string

const (
	StatusConnecting DataStatus = "CONNECTING"
	StatusLive       DataStatus = "LIVE"
	StatusBuffering  DataStatus = "BUFFERING"
	StatusOffline    DataStatus = "OFFLINE"
)

type InstrumentStatus string

const (
	InstrumentNominal  InstrumentStatus = "NOMINAL"
	InstrumentWarning  InstrumentStatus = "WARNING"
	InstrumentCritical InstrumentStatus = "CRITICAL"
)

type HealthSnapshot struct {
	InstrumentTemp  float64          `json:"instrumentTemp"`
	Voltage         float64          `json:"voltage"`
	IntegrationTime int              `json:"integrationTime"`
	Status          InstrumentStatus `json:"status"`
}

type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)
