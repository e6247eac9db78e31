package model

type HazardLevel string

const (
	HazardLow      HazardLevel = "LOW"
	HazardModerate HazardLevel = "MODERATE"
	HazardHigh     HazardLevel = "HIGH"
	HazardUnknown  HazardLevel = "UNKNOWN"
)

// Assessed reports whether the level came from an actual assessment.
// UNKNOWN is reserved for fallbacks and is never a valid collaborator answer.
func (h HazardLevel) Assessed() bool {
	switch h {
	case HazardLow, HazardModerate, HazardHigh:
		return true
	default:
		return false
	}
}

type AnalysisResult struct {
	ID          string      `json:"id"`
	Summary     string      `json:"summary"`
	HazardLevel HazardLevel `json:"hazardLevel"`
	LastUpdated string      `json:"lastUpdated"`
	Window      int         `json:"window"`
}
