package client

import "github.com/prometheus/client_golang/prometheus"

var (
	eventsApplied = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:      "events_applied",
		Subsystem: "timeline",
		Help:      "Number of transport events applied to the timeline, labelled by type.",
	}, []string{"type"})

	eventsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:      "events_dropped",
		Subsystem: "timeline",
		Help:      "Number of transport events dropped, labelled by reason.",
	}, []string{"reason"})

	timelineSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name:      "size",
		Subsystem: "timeline",
		Help:      "Number of messages held in the timeline.",
	})

	sendsAccepted = prometheus.NewCounter(prometheus.CounterOpts{
		Name:      "accepted",
		Subsystem: "sends",
		Help:      "Number of outgoing sends accepted by the governor.",
	})

	sendsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:      "rejected",
		Subsystem: "sends",
		Help:      "Number of outgoing sends rejected, labelled by reason.",
	}, []string{"reason"})

	cooldownWindow = prometheus.NewGauge(prometheus.GaugeOpts{
		Name:      "cooldown_window_seconds",
		Subsystem: "sends",
		Help:      "Current adaptive cooldown window between sends.",
	})
)

func init() {
	prometheus.MustRegister(eventsApplied)
	prometheus.MustRegister(eventsDropped)
	prometheus.MustRegister(timelineSize)
	prometheus.MustRegister(sendsAccepted)
	prometheus.MustRegister(sendsRejected)
	prometheus.MustRegister(cooldownWindow)
}
