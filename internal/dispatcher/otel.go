package dispatcher

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/scribblerbot/scribbler/internal/dispatcher"

// loopMetrics counts tasks per name and observes the queue backlog.
type loopMetrics struct {
	processed metric.Int64Counter
	dropped   metric.Int64Counter
}

// newLoopMetrics registers the loop instruments on m. queueLen is read on
// every collection.
func newLoopMetrics(m metric.Meter, queueLen func() int) (*loopMetrics, error) {
	queueSize, err := m.Int64ObservableGauge("dispatcher.queue.size",
		metric.WithDescription("Current number of tasks waiting for the loop"))
	if err != nil {
		return nil, fmt.Errorf("creating queue size gauge: %w", err)
	}
	if _, err := m.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(queueSize, int64(queueLen()))
		return nil
	}, queueSize); err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}

	lm := &loopMetrics{}
	if lm.processed, err = m.Int64Counter("dispatcher.tasks.processed",
		metric.WithDescription("Total tasks executed on the loop")); err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}
	if lm.dropped, err = m.Int64Counter("dispatcher.tasks.dropped",
		metric.WithDescription("Total tasks dropped due to full queue or skipped ticks")); err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}
	return lm, nil
}

func (lm *loopMetrics) ran(name string) {
	lm.processed.Add(context.Background(), 1, metric.WithAttributes(attribute.String("task", name)))
}

func (lm *loopMetrics) drop(name string) {
	lm.dropped.Add(context.Background(), 1, metric.WithAttributes(attribute.String("task", name)))
}

// globalMeter is a no-op meter until an SDK provider is installed.
func globalMeter() metric.Meter {
	return otel.Meter(instrumentationName)
}
