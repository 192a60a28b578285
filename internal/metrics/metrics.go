package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry served by the API.
	Registry = prometheus.NewRegistry()
	// Default is the solver instrumentation registered by RegisterDefault.
	Default = NewSolver()
)

// Solver groups the collectors the search core reports to. It is handed to
// components explicitly; every method is safe on a nil receiver so the core
// can run uninstrumented.
type Solver struct {
	ActivitiesCreated prometheus.Counter
	RuinCycles        *prometheus.CounterVec
	JobsRuined        *prometheus.CounterVec
	RouteUpdates      *prometheus.CounterVec
	Iterations        *prometheus.CounterVec
	SearchDuration    prometheus.Histogram
	BenchmarkRuns     *prometheus.CounterVec
}

func NewSolver() *Solver {
	return &Solver{
		ActivitiesCreated: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "vrp_activities_created_total", Help: "Tour activities created by insertion."},
		),
		RuinCycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "vrp_ruin_cycles_total", Help: "Ruin cycles by strategy."},
			[]string{"strategy"},
		),
		JobsRuined: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "vrp_jobs_ruined_total", Help: "Jobs placed in the unassigned pool by strategy."},
			[]string{"strategy"},
		),
		RouteUpdates: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "vrp_route_updates_total", Help: "Route state recomputations by feasibility outcome."},
			[]string{"feasible"},
		),
		Iterations: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "vrp_search_iterations_total", Help: "Search iterations by acceptance outcome."},
			[]string{"outcome"},
		),
		SearchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{Name: "vrp_search_duration_seconds", Help: "Wall time of complete searches.", Buckets: prometheus.ExponentialBuckets(0.01, 2, 14)},
		),
		BenchmarkRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "vrp_benchmark_runs_total", Help: "Benchmark runs by instance."},
			[]string{"instance"},
		),
	}
}

// Register adds all collectors to reg.
func (s *Solver) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{s.ActivitiesCreated, s.RuinCycles, s.JobsRuined, s.RouteUpdates, s.Iterations, s.SearchDuration, s.BenchmarkRuns} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// RegisterDefault registers Default and the Go/process collectors on Registry.
func RegisterDefault() {
	regOnce.Do(func() {
		_ = Default.Register(Registry)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once

func (s *Solver) ActivityCreated() {
	if s == nil {
		return
	}
	s.ActivitiesCreated.Inc()
}

func (s *Solver) Ruined(strategy string, jobs int) {
	if s == nil {
		return
	}
	s.RuinCycles.WithLabelValues(strategy).Inc()
	s.JobsRuined.WithLabelValues(strategy).Add(float64(jobs))
}

func (s *Solver) RouteUpdated(feasible bool) {
	if s == nil {
		return
	}
	s.RouteUpdates.WithLabelValues(strconv.FormatBool(feasible)).Inc()
}

func (s *Solver) Iteration(outcome string) {
	if s == nil {
		return
	}
	s.Iterations.WithLabelValues(outcome).Inc()
}

func (s *Solver) SearchFinished(seconds float64) {
	if s == nil {
		return
	}
	s.SearchDuration.Observe(seconds)
}

func (s *Solver) BenchmarkRun(instance string) {
	if s == nil {
		return
	}
	s.BenchmarkRuns.WithLabelValues(instance).Inc()
}
