// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	RankingRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ranking_requests_total",
			Help: "Ranking requests by scorer and outcome",
		},
		[]string{"scorer", "outcome"},
	)

	RankingEligibleStations = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ranking_eligible_stations",
			Help:    "Number of eligible stations per ranking request",
			Buckets: []float64{0, 1, 2, 3, 5, 10, 25, 50},
		},
	)

	RankingCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ranking_cache_lookups_total",
			Help: "Ranking cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	OracleCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "oracle_call_duration_seconds",
			Help: "Duration of generative oracle calls",
		},
		[]string{"operation", "outcome"},
	)

	AvailabilitySlots = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "availability_slots_returned",
			Help:    "Number of time slots returned per availability request",
			Buckets: prometheus.LinearBuckets(0, 1, 12),
		},
		[]string{"complexity"},
	)

	SessionTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_transitions_total",
			Help: "Booking session state transitions",
		},
		[]string{"from", "to"},
	)

	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sessions_active",
			Help: "Number of live booking sessions",
		},
	)

	BookingsConfirmed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookings_confirmed_total",
			Help: "Total number of confirmed bookings",
		},
	)
)
