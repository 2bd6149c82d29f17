package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	Turns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pamonha_turns_total",
			Help: "Inbound turns handled, by arm",
		},
		[]string{"arm"},
	)
	GenerativeAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pamonha_generative_attempts_total",
			Help: "Generative provider calls, by tier and outcome",
		},
		[]string{"tier", "outcome"},
	)
	GenerativeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pamonha_generative_duration_seconds",
			Help:    "Latency of generative provider calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tier"},
	)
	QuotaRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pamonha_quota_requests",
			Help: "Generative requests counted against today's quota",
		},
	)
	PersistenceFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pamonha_persistence_failures_total",
			Help: "Failed document writes, by document kind",
		},
		[]string{"kind"},
	)
	CyclesCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pamonha_cycles_completed_total",
			Help: "Engagement cycles ended by the exit command, by arm",
		},
		[]string{"arm"},
	)
)

func init() {
	prometheus.MustRegister(Turns, GenerativeAttempts, GenerativeDuration, QuotaRequests, PersistenceFailures, CyclesCompleted)
}
