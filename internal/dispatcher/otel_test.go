package dispatcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestNewLoopMetrics(t *testing.T) {
	lm, err := newLoopMetrics(noop.NewMeterProvider().Meter("test"), func() int { return 3 })
	require.NoError(t, err)
	require.NotNil(t, lm.processed)
	require.NotNil(t, lm.dropped)

	assert.NotPanics(t, func() {
		lm.ran("sync")
		lm.drop("trace.tick")
	})
}

func TestNew_UsesGlobalMeter(t *testing.T) {
	d, err := New(&testLogger{})
	require.NoError(t, err)
	defer d.Close()
	assert.NotNil(t, d.metrics)
}
