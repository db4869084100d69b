package otel

import (
	"testing"

	"go.opentelemetry.io/otel/metric/noop"

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

func TestNewOTelExporter(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")

	exporter, err := NewOTelExporterFromSource(meter, &fakeSource{
		counters: map[authcore.MetricID]uint64{authcore.MetricLoginSuccess: 1},
	})
	if err != nil {
		t.Fatalf("new exporter: %v", err)
	}
	if err := exporter.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestNewOTelExporterRejectsNilInputs(t *testing.T) {
	if _, err := NewOTelExporterFromSource(nil, &fakeSource{}); err != ErrNilMeter {
		t.Fatalf("expected ErrNilMeter, got %v", err)
	}

	meter := noop.NewMeterProvider().Meter("test")
	if _, err := NewOTelExporterFromSource(meter, nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource, got %v", err)
	}
}

func TestCloseNilExporter(t *testing.T) {
	var exporter *OTelExporter
	if err := exporter.Close(); err != nil {
		t.Fatalf("nil close: %v", err)
	}
}
