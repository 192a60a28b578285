// Package bench runs repeated searches over a set of instances and reports
// cost, vehicle and timing statistics per instance.
package bench

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"vrpsearch/internal/config"
	"vrpsearch/internal/events"
	"vrpsearch/internal/metrics"
	"vrpsearch/internal/opt"
	"vrpsearch/internal/problem"
	"vrpsearch/internal/route"
	"vrpsearch/internal/store"
)

var ErrNoRuns = errors.New("bench: runs must be positive")

// Run is the outcome of one search.
type Run struct {
	Seed       int64
	Cost       float64
	Vehicles   int
	Unassigned int
	Elapsed    time.Duration
	Weights    map[string]float64
}

// Runner benchmarks instances concurrently, one goroutine per instance up to
// Parallelism. Runs of one instance execute sequentially, each with its own
// random source and solution.
type Runner struct {
	Algorithm   config.Algorithm
	Runs        int
	Parallelism int
	Writers     []store.Writer
	// Broker, when set, receives start and end events of every run.
	Broker  events.Broker
	Metrics *metrics.Solver
	Logger  log.FieldLogger
	// ProgressEvery throttles per-run progress logging. Zero means 10s.
	ProgressEvery time.Duration
}

func (r *Runner) logger() log.FieldLogger {
	if r.Logger == nil {
		return log.StandardLogger()
	}
	return r.Logger
}

// Run benchmarks every instance and hands each summary to all writers. The
// returned results are in instance order.
func (r *Runner) Run(ctx context.Context, instances []*problem.Instance) ([]store.Result, error) {
	if r.Runs <= 0 {
		return nil, ErrNoRuns
	}
	if err := r.Algorithm.Validate(); err != nil {
		return nil, err
	}
	results := make([]store.Result, len(instances))
	g, ctx := errgroup.WithContext(ctx)
	if r.Parallelism > 0 {
		g.SetLimit(r.Parallelism)
	}
	for i, inst := range instances {
		i, inst := i, inst
		g.Go(func() error {
			res, err := r.benchmark(ctx, inst)
			if err != nil {
				return fmt.Errorf("benchmark %s: %w", inst.Name, err)
			}
			for _, w := range r.Writers {
				if err := w.SaveResult(ctx, res); err != nil {
					return fmt.Errorf("benchmark %s: save result: %w", inst.Name, err)
				}
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Runner) benchmark(ctx context.Context, inst *problem.Instance) (store.Result, error) {
	logger := r.logger().WithField("instance", inst.Name)
	logger.WithField("runs", r.Runs).Info("benchmark started")
	base := r.Algorithm.Seed
	if base == 0 {
		base = time.Now().UnixNano()
	}
	runs := make([]Run, 0, r.Runs)
	for i := 0; i < r.Runs; i++ {
		if err := ctx.Err(); err != nil {
			return store.Result{}, err
		}
		_, run, err := r.Solve(ctx, inst, base+int64(i), logger.WithField("run", i))
		if err != nil {
			return store.Result{}, fmt.Errorf("run %d: %w", i, err)
		}
		runs = append(runs, run)
		r.Metrics.BenchmarkRun(inst.Name)
	}
	res := NewResult(inst, r.Algorithm, runs)
	f := log.Fields{"costMean": res.CostMean, "costMin": res.CostMin, "vehiclesMean": res.VehiclesMean, "timeMeanSec": res.TimeMeanSec}
	if res.DeltaPct != nil {
		f["deltaPct"] = *res.DeltaPct
	}
	logger.WithFields(f).Info("benchmark finished")
	return res, nil
}

// Solve performs a single search on inst with the given seed and returns the
// best solution together with its run figures.
func (r *Runner) Solve(ctx context.Context, inst *problem.Instance, seed int64, logger log.FieldLogger) (*route.Solution, Run, error) {
	if logger == nil {
		logger = r.logger()
	}
	s, err := opt.NewSearch(inst.Problem, r.Algorithm, rand.New(rand.NewSource(seed)), r.Metrics, logger)
	if err != nil {
		return nil, Run{}, err
	}
	sw := opt.NewStopWatch(logger)
	if err := s.Listeners.Add(sw, opt.PriorityHigh); err != nil {
		return nil, Run{}, err
	}
	every := r.ProgressEvery
	if every <= 0 {
		every = 10 * time.Second
	}
	if err := s.Listeners.Add(opt.NewProgressLogger(logger, every), opt.PriorityMedium); err != nil {
		return nil, Run{}, err
	}
	if r.Broker != nil {
		n := &events.Notifier{Broker: r.Broker, Instance: inst.Name, RunID: uuid.NewString(), Logger: logger}
		if err := s.Listeners.Add(n, opt.PriorityLow); err != nil {
			return nil, Run{}, err
		}
	}
	best, m, err := s.Run(ctx)
	if err != nil {
		return nil, Run{}, err
	}
	return best, Run{
		Seed:       seed,
		Cost:       best.Cost(),
		Vehicles:   best.ActiveRoutes(),
		Unassigned: len(best.Unassigned()),
		Elapsed:    sw.Elapsed(),
		Weights:    m.FinalWeights,
	}, nil
}

// NewResult summarizes runs and stamps the result with an id, the algorithm
// label and the creation time.
func NewResult(inst *problem.Instance, a config.Algorithm, runs []Run) store.Result {
	res := Summarize(inst, runs)
	res.ID = uuid.NewString()
	res.Algorithm = AlgorithmName(a)
	res.CreatedAt = time.Now().UTC()
	return res
}

// Summarize aggregates runs into a result. The delta to the best known cost
// is reported only when the instance carries one.
func Summarize(inst *problem.Instance, runs []Run) store.Result {
	res := store.Result{Instance: inst.Name, Runs: len(runs), BestKnownCost: inst.BestKnownCost}
	if len(runs) == 0 {
		return res
	}
	costs := make([]float64, len(runs))
	vehicles := make([]float64, len(runs))
	secs := make([]float64, len(runs))
	cheapest := 0
	for i, run := range runs {
		costs[i] = run.Cost
		vehicles[i] = float64(run.Vehicles)
		secs[i] = run.Elapsed.Seconds()
		if run.Unassigned > res.UnassignedMax {
			res.UnassignedMax = run.Unassigned
		}
		if run.Cost < runs[cheapest].Cost {
			cheapest = i
		}
	}
	res.CostMin = floats.Min(costs)
	res.CostMax = floats.Max(costs)
	res.CostMean = stat.Mean(costs, nil)
	if len(costs) > 1 {
		res.CostStdDev = stat.StdDev(costs, nil)
	}
	res.VehiclesMin = int(floats.Min(vehicles))
	res.VehiclesMax = int(floats.Max(vehicles))
	res.VehiclesMean = stat.Mean(vehicles, nil)
	res.TimeMeanSec = stat.Mean(secs, nil)
	res.Weights = runs[cheapest].Weights
	if bk := inst.BestKnownCost; bk != nil && *bk != 0 {
		d := (res.CostMean - *bk) / *bk * 100
		res.DeltaPct = &d
	}
	return res
}

// AlgorithmName labels a configuration, e.g. "best/random+radial".
func AlgorithmName(a config.Algorithm) string {
	kinds := make([]string, len(a.Ruins))
	for i, r := range a.Ruins {
		kinds[i] = r.Kind
	}
	return a.Insertion + "/" + strings.Join(kinds, "+")
}
