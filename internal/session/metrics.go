package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricSessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "chatpanel",
		Name:      "sessions_created_total",
		Help:      "Number of chat sessions created since process start.",
	})
	metricMessagesAppended = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chatpanel",
		Name:      "messages_appended_total",
		Help:      "Number of messages appended to session histories, by role.",
	}, []string{"role"})
)
