// Package metrics exposes Prometheus collectors for the planning pipeline
// and the HTTP surface. A nil *Metrics is valid and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "basketwise"

// Metrics groups every collector the service records.
type Metrics struct {
	plansTotal        *prometheus.CounterVec   // by kind: plan, recompute
	planDuration      *prometheus.HistogramVec // by kind
	candidatesFetched prometheus.Histogram
	fetchErrors       prometheus.Counter
	emptyStages       prometheus.Counter
	rangeMisses       prometheus.Counter
	staleResults      prometheus.Counter
	httpRequests      *prometheus.CounterVec // by route and status code
	httpDuration      *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		plansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "computations_total",
			Help:      "Total number of plan computations",
		}, []string{"kind"}),

		planDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "computation_duration_seconds",
			Help:      "Plan computation duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"kind"}),

		candidatesFetched: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "candidate_pool_size",
			Help:      "Number of candidate products fetched per plan",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),

		fetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "candidate_fetch_errors_total",
			Help:      "Catalog lookups that failed and were treated as no matches",
		}),

		emptyStages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "empty_stages_total",
			Help:      "Desired items for which no candidate was found",
		}),

		rangeMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "range_misses_total",
			Help:      "Range searches where no path fell inside the window",
		}),

		staleResults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "stale_results_discarded_total",
			Help:      "Range recomputations discarded because a newer request arrived",
		}),

		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"route", "code"}),

		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	collectors := []prometheus.Collector{
		m.plansTotal, m.planDuration, m.candidatesFetched, m.fetchErrors,
		m.emptyStages, m.rangeMisses, m.staleResults, m.httpRequests, m.httpDuration,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObservePlan records one computation of the given kind.
func (m *Metrics) ObservePlan(kind string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.plansTotal.WithLabelValues(kind).Inc()
	m.planDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// ObservePool records how many candidates a plan fetched and how many
// desired items came back empty.
func (m *Metrics) ObservePool(size, emptyStages int) {
	if m == nil {
		return
	}
	m.candidatesFetched.Observe(float64(size))
	m.emptyStages.Add(float64(emptyStages))
}

func (m *Metrics) FetchFailed() {
	if m == nil {
		return
	}
	m.fetchErrors.Inc()
}

func (m *Metrics) RangeMissed() {
	if m == nil {
		return
	}
	m.rangeMisses.Inc()
}

func (m *Metrics) StaleDiscarded() {
	if m == nil {
		return
	}
	m.staleResults.Inc()
}

// ObserveRequest records a served HTTP request.
func (m *Metrics) ObserveRequest(route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}
