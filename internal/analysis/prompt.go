package analysis

import (
	"fmt"
	"strings"

	"github.com/speedwagon-io/stepsmon/internal/model"
)

// AverageHighFlux is the mean high-energy proton flux over samples.
func AverageHighFlux(samples []model.Sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s.ProtonFluxHigh
	}
	return sum / float64(len(samples))
}

// BuildPrompt embeds the newest sample and the window average. samples must
// not be empty.
func BuildPrompt(samples []model.Sample) string {
	last := samples[len(samples)-1]

	var b strings.Builder
	b.WriteString("You are an expert Solar Physicist analyzing telemetry from the ISRO Aditya-L1 ASPEX-STEPS instrument.\n\n")
	b.WriteString("Current Telemetry Snapshot (Supra Thermal Energetic Particle Spectrometer):\n")
	fmt.Fprintf(&b, "- Latest Time: %s\n", last.DisplayTime)
	fmt.Fprintf(&b, "- High Energy Proton Flux: %.2f counts/s\n", last.ProtonFluxHigh)
	fmt.Fprintf(&b, "- Low Energy Proton Flux: %.2f counts/s\n", last.ProtonFluxLow)
	fmt.Fprintf(&b, "- Alpha Particle Flux: %.2f counts/s\n", last.AlphaParticles)
	fmt.Fprintf(&b, "- Average High Energy Flux (last window): %.2f counts/s\n\n", AverageHighFlux(samples))
	b.WriteString("Analyze this data for potential Space Weather events (CMEs, Solar Flares, SEP events).\n")
	b.WriteString("Is the vehicle in a safe ambient solar wind stream or is there a disturbance?\n")
	b.WriteString("Keep the summary concise (max 2 sentences).\n")
	return b.String()
}
