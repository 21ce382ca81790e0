package observability

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type eventMetrics struct {
	emitted *prometheus.CounterVec
	dropped prometheus.Gauge
}

var (
	eventMetricsOnce sync.Once
	eventRegistry    *eventMetrics
)

// Events returns the metrics registry tracking structured events.
func Events() *eventMetrics {
	eventMetricsOnce.Do(func() {
		eventRegistry = &eventMetrics{
			emitted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "lottery",
				Subsystem: "events",
				Name:      "emitted_total",
				Help:      "Count of committed events segmented by type.",
			}, []string{"type"}),
			dropped: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "lottery",
				Subsystem: "events",
				Name:      "dropped",
				Help:      "Events dropped because a subscriber buffer was full.",
			}),
		}
		prometheus.MustRegister(eventRegistry.emitted, eventRegistry.dropped)
	})
	return eventRegistry
}

// RecordEvent increments the counter for the supplied event type.
func (m *eventMetrics) RecordEvent(eventType string) {
	if m == nil {
		return
	}
	label := strings.TrimSpace(eventType)
	if label == "" {
		label = "unknown"
	}
	m.emitted.WithLabelValues(label).Inc()
}

// SetDropped publishes the bus drop counter.
func (m *eventMetrics) SetDropped(n uint64) {
	if m == nil {
		return
	}
	m.dropped.Set(float64(n))
}
