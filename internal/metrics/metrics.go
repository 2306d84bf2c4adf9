package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "navalha",
			Name:      "http_requests_total",
			Help:      "Count of HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	slotRequests = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "navalha",
			Name:      "slot_requests_total",
			Help:      "Count of slot generation computations.",
		},
	)

	conflictDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "navalha",
			Name:      "conflict_decisions_total",
			Help:      "Count of bookability decisions by outcome.",
		},
		[]string{"reason"},
	)

	availableNowRequests = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "navalha",
			Name:      "available_now_requests_total",
			Help:      "Count of available-now computations.",
		},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "navalha",
			Name:      "cache_lookups_total",
			Help:      "Count of availability cache lookups by result.",
		},
		[]string{"result"},
	)

	storeErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "navalha",
			Name:      "store_errors_total",
			Help:      "Count of schedule store read failures by operation.",
		},
		[]string{"op"},
	)

	computeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "navalha",
			Name:      "availability_compute_duration_seconds",
			Help:      "Time to load a day snapshot and compute availability.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1},
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			slotRequests,
			conflictDecisions,
			availableNowRequests,
			cacheLookups,
			storeErrors,
			computeDuration,
		)
	})
}

func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func IncSlotRequest() {
	slotRequests.Inc()
}

func IncConflictDecision(reason string) {
	conflictDecisions.WithLabelValues(reason).Inc()
}

func IncAvailableNow() {
	availableNowRequests.Inc()
}

func IncCacheHit() {
	cacheLookups.WithLabelValues("hit").Inc()
}

func IncCacheMiss() {
	cacheLookups.WithLabelValues("miss").Inc()
}

func IncStoreError(op string) {
	storeErrors.WithLabelValues(op).Inc()
}

func ObserveCompute(seconds float64) {
	computeDuration.Observe(seconds)
}
