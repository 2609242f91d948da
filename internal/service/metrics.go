package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	observersGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "aquamind_hub_observers",
		Help: "Observers currently subscribed to the broadcast hub.",
	})
	eventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aquamind_hub_events_published_total",
		Help: "Events fanned out by the broadcast hub.",
	}, []string{"type"})
	eventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aquamind_hub_events_dropped_total",
		Help: "Events discarded because an observer queue was full.",
	})
)
