package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dmsclient "github.com/MrEthical07/dmsclient"
	"github.com/MrEthical07/dmsclient/metrics/export/internaldefs"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeSource struct {
	snapshot dmsclient.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() dmsclient.MetricsSnapshot { return f.snapshot }
func (f fakeSource) EventsDropped() uint64                      { return f.dropped }

func populatedSource() fakeSource {
	return fakeSource{
		snapshot: dmsclient.MetricsSnapshot{
			Counters: map[dmsclient.MetricID]uint64{
				dmsclient.MetricLoginSuccess: 7,
			},
			Histograms: map[dmsclient.MetricID][]uint64{
				dmsclient.MetricRequestLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	}
}

func TestCollectCountsEveryMetric(t *testing.T) {
	exp := NewExporterFromSource(populatedSource())
	want := len(internaldefs.CounterDefs) + len(internaldefs.HistogramDefs) + 1
	if got := testutil.CollectAndCount(exp); got != want {
		t.Fatalf("expected %d metrics, got %d", want, got)
	}
}

func TestGatherCountersAndHistogram(t *testing.T) {
	exp := NewExporterFromSource(populatedSource())

	expected := `
# HELP dmsclient_login_success_total Successful logins.
# TYPE dmsclient_login_success_total counter
dmsclient_login_success_total 7
# HELP dmsclient_events_dropped_total Session events dropped due to dispatcher backpressure.
# TYPE dmsclient_events_dropped_total counter
dmsclient_events_dropped_total 2
# HELP dmsclient_request_latency_seconds Request latency histogram.
# TYPE dmsclient_request_latency_seconds histogram
dmsclient_request_latency_seconds_bucket{le="0.005"} 1
dmsclient_request_latency_seconds_bucket{le="0.01"} 3
dmsclient_request_latency_seconds_bucket{le="0.025"} 6
dmsclient_request_latency_seconds_bucket{le="0.05"} 10
dmsclient_request_latency_seconds_bucket{le="0.1"} 15
dmsclient_request_latency_seconds_bucket{le="0.25"} 21
dmsclient_request_latency_seconds_bucket{le="0.5"} 28
dmsclient_request_latency_seconds_bucket{le="+Inf"} 36
dmsclient_request_latency_seconds_sum 0
dmsclient_request_latency_seconds_count 36
`
	err := testutil.GatherAndCompare(exp.Registry(), strings.NewReader(expected),
		"dmsclient_login_success_total",
		"dmsclient_events_dropped_total",
		"dmsclient_request_latency_seconds",
	)
	if err != nil {
		t.Fatal(err)
	}
}

func TestDisabledMetricsExportZeros(t *testing.T) {
	exp := NewExporterFromSource(fakeSource{
		snapshot: dmsclient.MetricsSnapshot{
			Counters:   map[dmsclient.MetricID]uint64{},
			Histograms: map[dmsclient.MetricID][]uint64{},
		},
	})

	expected := `
# HELP dmsclient_logout_total Logouts.
# TYPE dmsclient_logout_total counter
dmsclient_logout_total 0
`
	if err := testutil.GatherAndCompare(exp.Registry(), strings.NewReader(expected), "dmsclient_logout_total"); err != nil {
		t.Fatal(err)
	}
}

func TestHandlerServesExposition(t *testing.T) {
	exp := NewExporterFromSource(populatedSource())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected text exposition content type, got %q", got)
	}
	if !strings.Contains(rec.Body.String(), "dmsclient_login_success_total 7") {
		t.Fatalf("expected login counter in body, got:\n%s", rec.Body.String())
	}
}

func TestExporterFromClient(t *testing.T) {
	client, err := dmsclient.New().WithMetricsEnabled(true).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer client.Close()

	exp := NewExporter(client)
	if got := testutil.CollectAndCount(exp, "dmsclient_request_success_total"); got != 1 {
		t.Fatalf("expected one request counter, got %d", got)
	}
}

func BenchmarkCollect(b *testing.B) {
	exp := NewExporterFromSource(populatedSource())
	reg := exp.Registry()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := reg.Gather(); err != nil {
			b.Fatal(err)
		}
	}
}
