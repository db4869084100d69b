package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	authcore "github.com/matchday/authcore"
)

type fakeSource struct {
	counters map[authcore.MetricID]uint64
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() authcore.MetricsSnapshot {
	return authcore.MetricsSnapshot{Counters: f.counters}
}

func (f *fakeSource) AuditDropped() uint64 {
	return f.dropped
}

func TestRender(t *testing.T) {
	exporter := NewPrometheusExporterFromSource(&fakeSource{
		counters: map[authcore.MetricID]uint64{
			authcore.MetricLoginSuccess: 7,
			authcore.MetricLoginFailure: 2,
		},
		dropped: 1,
	})

	out := exporter.Render()

	for _, want := range []string{
		"# HELP authcore_login_success_total Successful password logins.\n",
		"# TYPE authcore_login_success_total counter\n",
		"authcore_login_success_total 7\n",
		"authcore_login_failure_total 2\n",
		"authcore_register_success_total 0\n",
		"authcore_audit_dropped_total 1\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output", want)
		}
	}
}

func TestRenderEmpty(t *testing.T) {
	exporter := NewPrometheusExporterFromSource(&fakeSource{})
	if out := exporter.Render(); out != "" {
		t.Fatalf("expected empty output, got %q", out)
	}

	var nilExporter *PrometheusExporter
	if out := nilExporter.Render(); out != "" {
		t.Fatalf("nil exporter rendered %q", out)
	}
}

func TestHandler(t *testing.T) {
	exporter := NewPrometheusExporterFromSource(&fakeSource{
		counters: map[authcore.MetricID]uint64{authcore.MetricRefreshSuccess: 3},
	})

	rec := httptest.NewRecorder()
	exporter.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/plain") {
		t.Fatalf("content type: %q", got)
	}
	if !strings.Contains(rec.Body.String(), "authcore_refresh_success_total 3\n") {
		t.Fatalf("body missing counter: %s", rec.Body.String())
	}
}
