package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricEventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chatpanel",
		Name:      "events_published_total",
		Help:      "Number of events broadcast to panel clients, by event kind.",
	}, []string{"kind"})
	metricEventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "chatpanel",
		Name:      "events_dropped_total",
		Help:      "Number of events dropped because a websocket client's queue was full.",
	})
	metricWSClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "chatpanel",
		Name:      "websocket_clients",
		Help:      "Number of currently connected websocket clients.",
	})
)
