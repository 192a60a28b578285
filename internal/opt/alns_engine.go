package opt

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"

	"vrpsearch/internal/metrics"
	"vrpsearch/internal/problem"
	"vrpsearch/internal/route"
)

var (
	ErrNoStrategies = errors.New("search: at least one ruin strategy is required")
	ErrNoInserter   = errors.New("search: inserter is required")
	ErrUnbounded    = errors.New("search: iterations or time budget must be set")
)

// WeightedStrategy is a ruin strategy with its initial roulette weight.
type WeightedStrategy struct {
	Strategy Strategy
	Weight   float64
}

// Search is a ruin-and-recreate loop with adaptive strategy weights and
// simulated-annealing acceptance.
type Search struct {
	Problem    *problem.Problem
	Initial    *InitialSolutionBuilder
	Strategies []WeightedStrategy
	Inserter   Inserter
	Rand       *rand.Rand

	Iterations  int
	TimeBudget  time.Duration
	InitialTemp float64
	Cooling     float64
	// LocalSearch runs 2-opt on every route after insertion.
	LocalSearch bool

	Listeners *Listeners
	Metrics   *metrics.Solver
	Logger    log.FieldLogger
}

type Metrics struct {
	RuinSelects   map[string]int
	Iterations    int
	Improvements  int
	AcceptedWorse int
	Rejected      int
	InitialCost   float64
	BestCost      float64
	FinalCost     float64
	FinalWeights  map[string]float64
	Snapshots     []WeightSnapshot
}

type WeightSnapshot struct {
	Iteration int
	Weights   []float64
}

const snapshotEvery = 50

func (s *Search) validate() error {
	switch {
	case s.Problem == nil:
		return ErrNilProblem
	case s.Rand == nil:
		return ErrNilRandom
	case len(s.Strategies) == 0:
		return ErrNoStrategies
	case s.Inserter == nil:
		return ErrNoInserter
	case s.Iterations <= 0 && s.TimeBudget <= 0:
		return ErrUnbounded
	}
	return nil
}

// Run builds the initial solution and iterates until the iteration limit, the
// time budget or ctx ends the search. Cancellation is not an error: the best
// solution found so far is returned.
func (s *Search) Run(ctx context.Context) (*route.Solution, Metrics, error) {
	if err := s.validate(); err != nil {
		return nil, Metrics{}, err
	}
	logger := s.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	initial := s.Initial
	if initial == nil {
		initial = &InitialSolutionBuilder{Inserter: s.Inserter, Logger: logger}
	}
	started := time.Now()
	curr := initial.Build(s.Problem)
	best := curr
	m := Metrics{
		RuinSelects:  map[string]int{},
		InitialCost:  curr.Cost(),
		BestCost:     curr.Cost(),
		FinalWeights: map[string]float64{},
	}
	weights := make([]float64, len(s.Strategies))
	for i, ws := range s.Strategies {
		weights[i] = ws.Weight
		if weights[i] <= 0 {
			weights[i] = 1
		}
	}
	temp := 1.0
	if s.InitialTemp > 0 {
		temp = s.InitialTemp
	}
	cool := 0.995
	if s.Cooling > 0 && s.Cooling < 1 {
		cool = s.Cooling
	}
	var deadline time.Time
	if s.TimeBudget > 0 {
		deadline = started.Add(s.TimeBudget)
	}
	var twoOpt TwoOpt
	if s.LocalSearch {
		twoOpt = TwoOpt{Updater: &route.Updater{Costs: s.Problem.Costs(), Metrics: s.Metrics}, MaxPasses: 3}
	}
	s.Listeners.searchStarts(s.Problem, s, []*route.Solution{best})

	for it := 1; ; it++ {
		if s.Iterations > 0 && it > s.Iterations {
			break
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			break
		}
		if ctx.Err() != nil {
			logger.WithError(ctx.Err()).Info("search cancelled")
			break
		}
		m.Iterations++
		op := selectOp(weights, s.Rand)
		m.RuinSelects[s.Strategies[op].Strategy.Name()]++
		next := s.recreate(curr, s.Strategies[op].Strategy, twoOpt, initial.OpenAllVehicles)

		var outcome string
		if err := next.Validate(); err != nil {
			logger.WithError(err).Error("discarding corrupt candidate")
			outcome = "rejected"
			m.Rejected++
		} else if better(next, curr) {
			curr = next
			if better(next, best) {
				best = next
				weights[op] += 0.1
				m.Improvements++
				m.BestCost = best.Cost()
				outcome = "improved"
				logger.WithFields(log.Fields{"iteration": it, "cost": best.Cost()}).Debug("new best")
			} else {
				weights[op] += 0.01
				outcome = "accepted"
			}
		} else if len(next.Unassigned()) == len(curr.Unassigned()) &&
			s.Rand.Float64() < math.Exp(-(next.Cost()-curr.Cost())/(temp+1e-9)) {
			curr = next
			weights[op] += 0.01
			m.AcceptedWorse++
			outcome = "accepted_worse"
		} else {
			weights[op] = math.Max(0.01, weights[op]*0.999)
			m.Rejected++
			outcome = "rejected"
		}
		s.Metrics.Iteration(outcome)
		temp *= cool
		if m.Iterations%snapshotEvery == 0 {
			m.Snapshots = append(m.Snapshots, WeightSnapshot{Iteration: m.Iterations, Weights: append([]float64(nil), weights...)})
		}
		s.Listeners.iterationEnds(it, s.Problem, []*route.Solution{best})
	}

	m.FinalCost = curr.Cost()
	for i, ws := range s.Strategies {
		m.FinalWeights[ws.Strategy.Name()] = weights[i]
	}
	s.Listeners.searchEnds(s.Problem, s, []*route.Solution{best})
	s.Metrics.SearchFinished(time.Since(started).Seconds())
	logger.WithFields(log.Fields{
		"iterations":   m.Iterations,
		"improvements": m.Improvements,
		"cost":         best.Cost(),
		"unassigned":   len(best.Unassigned()),
	}).Info("search finished")
	return best, m, nil
}

// recreate applies one ruin-and-recreate cycle to a copy of curr.
func (s *Search) recreate(curr *route.Solution, st Strategy, twoOpt TwoOpt, keepEmpty bool) *route.Solution {
	cand := curr.Copy()
	routes := cand.Routes()
	pool := mergeJobs(st.Ruin(routes), cand.Unassigned())
	routes, unassigned := s.Inserter.Insert(routes, pool, math.Inf(1))
	if twoOpt.Updater != nil {
		for _, r := range routes {
			twoOpt.Improve(r)
		}
	}
	if !keepEmpty {
		routes = dropEmpty(routes)
	}
	return route.NewSolution(routes, unassigned)
}

// better reports whether a dominates b: fewer unassigned jobs first, then
// strictly lower cost.
func better(a, b *route.Solution) bool {
	if na, nb := len(a.Unassigned()), len(b.Unassigned()); na != nb {
		return na < nb
	}
	return a.Cost() < b.Cost()-1e-9
}

// mergeJobs appends the jobs of extra missing from pool.
func mergeJobs(pool, extra []*problem.Job) []*problem.Job {
	if len(extra) == 0 {
		return pool
	}
	seen := make(map[string]bool, len(pool))
	for _, j := range pool {
		seen[j.ID] = true
	}
	for _, j := range extra {
		if !seen[j.ID] {
			seen[j.ID] = true
			pool = append(pool, j)
		}
	}
	return pool
}

func dropEmpty(routes []*route.Route) []*route.Route {
	out := routes[:0]
	for _, r := range routes {
		if !r.IsEmpty() {
			out = append(out, r)
		}
	}
	return out
}

// selectOp picks an index by roulette wheel over weights.
func selectOp(weights []float64, rng *rand.Rand) int {
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if sum <= 0 {
		return 0
	}
	r := rng.Float64() * sum
	acc := 0.0
	for i, w := range weights {
		acc += w
		if r <= acc {
			return i
		}
	}
	return len(weights) - 1
}
