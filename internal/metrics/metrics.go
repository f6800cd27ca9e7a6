package metrics

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PropagationsTotal counts finished propagations by outcome.
	PropagationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "traj_propagations_total",
			Help: "Total number of propagations by result.",
		},
		[]string{"result"},
	)

	// PropagationDuration is the wall clock duration of a propagation.
	PropagationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "traj_propagation_duration_seconds",
			Help:    "Propagation wall clock duration in seconds.",
			Buckets: prometheus.ExponentialBuckets(1e-3, 4, 10),
		},
	)

	IntegrationSteps = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "traj_integration_steps_total",
			Help: "Total number of integrator steps taken.",
		},
	)

	ManeuversExecuted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "traj_maneuvers_executed_total",
			Help: "Total number of maneuvers executed.",
		},
	)

	// CacheQueries counts ephemeris cache lookups by outcome: exact, hit, miss or out_of_range.
	CacheQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "traj_ephemeris_cache_queries_total",
			Help: "Total number of ephemeris cache queries by result.",
		},
		[]string{"result"},
	)

	CacheBuilds = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "traj_ephemeris_cache_builds_total",
			Help: "Total number of ephemeris caches built.",
		},
	)

	CacheSamples = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "traj_ephemeris_cache_samples_total",
			Help: "Total number of ephemeris samples stored in caches.",
		},
	)

	// EphemerisCalls counts direct ephemeris service evaluations by aberration correction.
	EphemerisCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "traj_ephemeris_calls_total",
			Help: "Total number of ephemeris evaluations by aberration correction.",
		},
		[]string{"aberration"},
	)
)

func init() {
	prometheus.MustRegister(PropagationsTotal)
	prometheus.MustRegister(PropagationDuration)
	prometheus.MustRegister(IntegrationSteps)
	prometheus.MustRegister(ManeuversExecuted)
	prometheus.MustRegister(CacheQueries)
	prometheus.MustRegister(CacheBuilds)
	prometheus.MustRegister(CacheSamples)
	prometheus.MustRegister(EphemerisCalls)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Result maps the error of a propagation to a bounded label value.
func Result(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "deadline"
	default:
		return "error"
	}
}
