package trace

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/scribblerbot/scribbler/internal/trace"

type metrics struct {
	requests metric.Int64Counter
	failures metric.Int64Counter
	timeouts metric.Int64Counter
}

func newMetrics() *metrics {
	m := otel.Meter(instrumentationName)
	// Instrument errors only occur for invalid names; the returned no-op
	// instrument is still usable.
	requests, _ := m.Int64Counter("trace.sync.requests",
		metric.WithDescription("Trace sync requests issued"))
	failures, _ := m.Int64Counter("trace.sync.failures",
		metric.WithDescription("Trace sync requests that failed or returned malformed data"))
	timeouts, _ := m.Int64Counter("trace.sync.timeouts",
		metric.WithDescription("Trace sync requests that timed out"))
	return &metrics{requests: requests, failures: failures, timeouts: timeouts}
}
