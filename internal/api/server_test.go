package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/speedwagon-io/stepsmon/internal/config"
	"github.com/speedwagon-io/stepsmon/internal/health"
	"github.com/speedwagon-io/stepsmon/internal/lib/logger/sl"
	"github.com/speedwagon-io/stepsmon/internal/metrics"
	"github.com/speedwagon-io/stepsmon/internal/model"
)

type fakeMonitor struct {
	samples   []model.Sample
	health    model.HealthSnapshot
	result    *model.AnalysisResult
	analyzing bool
	status    model.DataStatus
}

func (f *fakeMonitor) Samples() []model.Sample { return f.samples }

func (f *fakeMonitor) BufferCapacity() int           { return 60 }
func (f *fakeMonitor) Health() model.HealthSnapshot { return f.health }
func (f *fakeMonitor) Analyzing() bool              { return f.analyzing }
func (f *fakeMonitor) Status() model.DataStatus     { return f.status }

func (f *fakeMonitor) Analysis() (model.AnalysisResult, bool) {
	if f.result == nil {
		return model.AnalysisResult{}, false
	}
	return *f.result, true
}

func rising(n int) []model.Sample {
	base := time.Date(2024, 1, 6, 12, 0, 0, 0, time.UTC)
	out := make([]model.Sample, n)
	for i := range out {
		out[i] = model.Sample{
			Timestamp:     base.Add(time.Duration(i) * time.Second).UnixMilli(),
			ProtonFluxLow: 1500 + float64(i),
		}
	}
	return out
}

func newTestServer(t *testing.T, mon *fakeMonitor) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		Instrument: config.InstrumentConfig{
			Mission:   "ADITYA-L1",
			Payload:   "ASPEX-STEPS",
			Mode:      "Fine-Res Survey",
			Direction: "Sun-Pointing (L1)",
			BiasLevel: "Nominal",
			Formats:   "FITS / NetCDF4",
		},
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.SamplesGenerated.Inc()

	srv := NewServer(sl.Discard(), cfg, mon, health.NewHandler(nil), nil, reg)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestTelemetrySnapshot(t *testing.T) {
	ts := newTestServer(t, &fakeMonitor{samples: rising(3), status: model.StatusLive})

	resp := get(t, ts.URL+"/api/v1/telemetry")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body TelemetryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != model.StatusLive || body.Capacity != 60 || len(body.Samples) != 3 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestLatestWithTrend(t *testing.T) {
	ts := newTestServer(t, &fakeMonitor{samples: rising(10), status: model.StatusLive})

	resp := get(t, ts.URL+"/api/v1/telemetry/latest")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body LatestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Sample.ProtonFluxLow != 1509 {
		t.Errorf("expected newest sample, got %v", body.Sample.ProtonFluxLow)
	}
	if body.Trend != model.TrendUp {
		t.Errorf("expected rising trend, got %s", body.Trend)
	}
}

// tickingMonitor grows by one sample on every read, as if a tick landed
// between two reads of the buffer.
type tickingMonitor struct {
	fakeMonitor
	reads atomic.Int32
}

func (m *tickingMonitor) Samples() []model.Sample {
	return rising(6 + int(m.reads.Add(1)))
}

func TestLatestUsesSingleSnapshot(t *testing.T) {
	mon := &tickingMonitor{}
	ts := httptest.NewServer(NewServer(sl.Discard(), &config.Config{}, mon, nil, nil, nil).Router())
	defer ts.Close()

	var body LatestResponse
	if err := json.NewDecoder(get(t, ts.URL+"/api/v1/telemetry/latest").Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if n := mon.reads.Load(); n != 1 {
		t.Fatalf("expected one buffer read, got %d", n)
	}
	// rising(7): newest low flux is 1506, five back is 1502.
	if body.Sample.ProtonFluxLow != 1506 || body.Trend != model.TrendUp {
		t.Fatalf("unexpected latest: %+v", body)
	}
}

func TestLatestEmptyBuffer(t *testing.T) {
	ts := newTestServer(t, &fakeMonitor{status: model.StatusConnecting})

	if resp := get(t, ts.URL+"/api/v1/telemetry/latest"); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestInstrument(t *testing.T) {
	snap := model.HealthSnapshot{InstrumentTemp: -12.4, Voltage: 28.1, IntegrationTime: 1000, Status: model.InstrumentNominal}
	ts := newTestServer(t, &fakeMonitor{health: snap})

	var body InstrumentResponse
	if err := json.NewDecoder(get(t, ts.URL+"/api/v1/instrument").Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Mode != "Fine-Res Survey" || body.Formats != "FITS / NetCDF4" {
		t.Errorf("unexpected static info: %+v", body)
	}
	if body.Health != snap {
		t.Errorf("expected %+v, got %+v", snap, body.Health)
	}
}

func TestAnalysis(t *testing.T) {
	empty := newTestServer(t, &fakeMonitor{})
	if resp := get(t, empty.URL+"/api/v1/analysis"); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 before first result, got %d", resp.StatusCode)
	}

	ts := newTestServer(t, &fakeMonitor{
		result:    &model.AnalysisResult{ID: "a1", Summary: "quiet", HazardLevel: model.HazardLow, LastUpdated: "12:00:15", Window: 20},
		analyzing: true,
	})

	var body map[string]any
	if err := json.NewDecoder(get(t, ts.URL+"/api/v1/analysis").Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["summary"] != "quiet" || body["hazardLevel"] != "LOW" || body["analyzing"] != true {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestMetricsAndHealthMounted(t *testing.T) {
	ts := newTestServer(t, &fakeMonitor{})

	resp := get(t, ts.URL+"/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), "stepsmon_samples_generated_total 1") {
		t.Errorf("samples counter missing from exposition")
	}

	if resp := get(t, ts.URL+"/live"); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected live 200, got %d", resp.StatusCode)
	}
}
