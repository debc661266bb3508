package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// lockTransitions counts accepted lock and unlock transitions.
	// Labels: target (background, characters, macroChain, scene), transition (lock, unlock)
	lockTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dndbug",
		Subsystem: "campaign",
		Name:      "lock_transitions_total",
		Help:      "Accepted lock transitions by target",
	}, []string{"target", "transition"})

	// stalenessMarks counts artifacts moved to NeedsRegen by propagation.
	// Labels: kind (characters, macroChain, sceneDetail)
	stalenessMarks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dndbug",
		Subsystem: "campaign",
		Name:      "staleness_marks_total",
		Help:      "Artifacts found or marked stale after an upstream change",
	}, []string{"kind"})

	// rejectedTransitions counts operations refused by the engine.
	// Labels: kind (PRECONDITION_NOT_MET, VALIDATION_FAILED, ACCESS_DENIED, NOT_FOUND)
	rejectedTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dndbug",
		Subsystem: "campaign",
		Name:      "rejected_transitions_total",
		Help:      "Operations rejected by campaign rules",
	}, []string{"kind"})

	versionConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dndbug",
		Subsystem: "store",
		Name:      "version_conflicts_total",
		Help:      "Session writes refused because the stored version moved",
	})

	// generationLatency measures generator calls.
	// Labels: task, status (ok, error)
	generationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "dndbug",
		Subsystem: "generator",
		Name:      "latency_seconds",
		Help:      "Content generation latency in seconds",
		Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 20, 40, 60},
	}, []string{"task", "status"})

	// requestDuration measures HTTP handling time.
	// Labels: method, status
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "dndbug",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "status"})
)

func recordStaleness(chars, chain bool, scenes int) {
	if chars {
		stalenessMarks.WithLabelValues("characters").Inc()
	}
	if chain {
		stalenessMarks.WithLabelValues("macroChain").Inc()
	}
	if scenes > 0 {
		stalenessMarks.WithLabelValues("sceneDetail").Add(float64(scenes))
	}
}
