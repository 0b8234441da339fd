package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pairing_polls_total",
			Help: "Visitor polls by reply",
		},
		[]string{"reply"},
	)

	pairingsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pairing_slots_claimed_total",
			Help: "Room slots claimed for visitors",
		},
	)

	sessionsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pairing_sessions_started_total",
			Help: "Pairing sessions started",
		},
	)

	sessionsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pairing_sessions_expired_total",
			Help: "Pairing sessions evicted after inactivity",
		},
	)

	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pairing_active_sessions",
			Help: "Sessions currently tracked",
		},
	)

	waitingSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pairing_waiting_sessions",
			Help: "Sessions currently waiting for a free slot",
		},
	)

	registryRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_requests_total",
			Help: "Operator registry calls by operation and outcome",
		},
		[]string{"op", "outcome"},
	)
)

func RecordPoll(reply string) {
	pollsTotal.WithLabelValues(reply).Inc()
}

func RecordPairing() {
	pairingsTotal.Inc()
}

func RecordSessionStarted() {
	sessionsStarted.Inc()
}

func RecordSessionsExpired(n int) {
	sessionsExpired.Add(float64(n))
}

func ObserveSessions(active, waiting int) {
	activeSessions.Set(float64(active))
	waitingSessions.Set(float64(waiting))
}

func RecordRegistryCall(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = errorOutcome(err)
	}
	registryRequests.WithLabelValues(op, outcome).Inc()
}
