package events

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the bus counters
type Metrics struct {
	Published *prometheus.CounterVec
	Dropped   prometheus.Counter
	Failed    *prometheus.CounterVec
}

// NewMetrics creates the bus counters and registers them with reg. A nil
// registerer leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Published: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cookbook",
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Events accepted by the bus, by event type.",
		}, []string{"event_type"}),
		Dropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "cookbook",
			Subsystem: "events",
			Name:      "dropped_total",
			Help:      "Events dropped because the queue was full or the bus closed.",
		}),
		Failed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cookbook",
			Subsystem: "events",
			Name:      "listener_failures_total",
			Help:      "Listener deliveries that returned an error or panicked.",
		}, []string{"listener"}),
	}
}
