// Package metrics exposes simulator and analysis counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/speedwagon-io/stepsmon/internal/model"
)

const namespace = "stepsmon"

type Metrics struct {
	SamplesGenerated prometheus.Counter
	BufferLength     prometheus.Gauge
	ChannelFlux      *prometheus.GaugeVec
	InstrumentTemp   prometheus.Gauge
	InstrumentVolt   prometheus.Gauge
	AnalysisCycles   *prometheus.CounterVec
	AnalysisSkipped  prometheus.Counter
	AnalysisLatency  prometheus.Histogram
	StreamClients    prometheus.Gauge
	StreamDropped    prometheus.Counter
}

// New registers all collectors on reg. Tests pass a fresh registry.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		SamplesGenerated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_generated_total",
			Help:      "Total number of telemetry samples generated, seed included.",
		}),
		BufferLength: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "buffer_length",
			Help:      "Number of samples currently retained in the buffer.",
		}),
		ChannelFlux: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "channel_flux_counts_per_second",
			Help:      "Latest value of each detector channel.",
		}, []string{"channel"}),
		InstrumentTemp: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "instrument_temperature_celsius",
			Help:      "Simulated detector temperature.",
		}),
		InstrumentVolt: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "instrument_voltage_volts",
			Help:      "Simulated input voltage.",
		}),
		AnalysisCycles: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_cycles_total",
			Help:      "Completed analysis cycles by outcome.",
		}, []string{"outcome"}),
		AnalysisSkipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_skipped_total",
			Help:      "Analysis timer firings skipped because a request was in flight.",
		}),
		AnalysisLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_latency_seconds",
			Help:      "Duration of an analysis cycle including the backend call.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		StreamClients: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stream_clients",
			Help:      "Connected dashboard stream clients.",
		}),
		StreamDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_dropped_frames_total",
			Help:      "Frames dropped because a stream client was too slow.",
		}),
	}
}

func (m *Metrics) ObserveSample(s model.Sample) {
	m.SamplesGenerated.Inc()
	m.SetChannels(s)
}

func (m *Metrics) SetChannels(s model.Sample) {
	m.ChannelFlux.WithLabelValues("proton_low").Set(s.ProtonFluxLow)
	m.ChannelFlux.WithLabelValues("proton_high").Set(s.ProtonFluxHigh)
	m.ChannelFlux.WithLabelValues("alpha").Set(s.AlphaParticles)
	m.ChannelFlux.WithLabelValues("electron").Set(s.ElectronFlux)
}

func (m *Metrics) ObserveHealth(h model.HealthSnapshot) {
	m.InstrumentTemp.Set(h.InstrumentTemp)
	m.InstrumentVolt.Set(h.Voltage)
}
