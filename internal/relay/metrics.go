package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricStreamsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "chatpanel",
		Name:      "streams_active",
		Help:      "Number of model response streams currently in flight.",
	})
	metricStreamFragments = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "chatpanel",
		Name:      "stream_fragments_total",
		Help:      "Number of non-empty fragments received from the model backend.",
	})
	metricStreamFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "chatpanel",
		Name:      "stream_failures_total",
		Help:      "Number of streams that ended in a backend or validation failure.",
	})
	metricStreamDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "chatpanel",
		Name:      "stream_duration_seconds",
		Help:      "Wall-clock duration of model response streams.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
	})
)
