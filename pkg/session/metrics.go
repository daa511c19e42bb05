package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	activeRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "roomlist_active_rooms",
		Help: "Number of rooms with at least one connected session.",
	})
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "roomlist_active_sessions",
		Help: "Number of connected sessions across all rooms.",
	})
	mutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roomlist_mutations_total",
		Help: "Mutation commands applied, by event type and outcome.",
	}, []string{"event", "outcome"})
	broadcastsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "roomlist_broadcasts_total",
		Help: "Events broadcast to room members.",
	})
	droppedEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "roomlist_dropped_events_total",
		Help: "Events dropped because a subscriber's buffer was full.",
	})
	persistFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "roomlist_persist_failures_total",
		Help: "Room document saves that failed.",
	})
)
