package opt

import (
	"math"

	log "github.com/sirupsen/logrus"

	"vrpsearch/internal/metrics"
	"vrpsearch/internal/problem"
	"vrpsearch/internal/route"
)

// Inserter places unassigned jobs into routes. It may open new routes as the
// fleet policy allows; jobs without a feasible placement whose marginal cost
// stays within costThreshold are returned unassigned.
type Inserter interface {
	Insert(routes []*route.Route, jobs []*problem.Job, costThreshold float64) ([]*route.Route, []*problem.Job)
}

type insertionBase struct {
	problem *problem.Problem
	updater *route.Updater
	metrics *metrics.Solver
	log     log.FieldLogger
}

func newInsertionBase(p *problem.Problem, m *metrics.Solver, l log.FieldLogger) insertionBase {
	if l == nil {
		l = log.StandardLogger()
	}
	return insertionBase{problem: p, updater: &route.Updater{Costs: p.Costs(), Metrics: m}, metrics: m, log: l}
}

// placement is one candidate position for a job. route is -1 when the job
// would open a new route for vehicle.
type placement struct {
	route   int
	vehicle *problem.Vehicle
	pos     int
	cost    float64
}

// placements returns the cheapest feasible position per route, and per
// vehicle that could open a new route, sorted by marginal cost.
func (b *insertionBase) placements(routes []*route.Route, job *problem.Job, threshold float64) []placement {
	var out []placement
	probe := route.NewJobActivity(job)
	for ri, r := range routes {
		if !r.Feasible() || r.Load()+job.Demand > r.Vehicle().Capacity() {
			continue
		}
		acts := r.Activities()
		best := placement{route: ri, vehicle: r.Vehicle(), pos: -1, cost: math.Inf(1)}
		cand := make([]route.Activity, len(acts)+1)
		for pos := 0; pos <= len(acts); pos++ {
			copy(cand, acts[:pos])
			cand[pos] = probe
			copy(cand[pos+1:], acts[pos:])
			s := b.updater.Evaluate(r.Vehicle(), r.Driver(), cand)
			if !s.Feasible {
				continue
			}
			if c := s.Cost - r.Cost(); c < best.cost {
				best.pos, best.cost = pos, c
			}
		}
		if best.pos >= 0 && best.cost <= threshold {
			out = append(out, best)
		}
	}
	for _, v := range b.openable(routes) {
		s := b.updater.Evaluate(v, nil, []route.Activity{probe})
		if s.Feasible && s.Cost <= threshold {
			out = append(out, placement{route: -1, vehicle: v, pos: 0, cost: s.Cost})
		}
	}
	sortPlacements(out)
	return out
}

// openable lists vehicles a new route may use: all of them under an infinite
// fleet, otherwise those not already backing a route.
func (b *insertionBase) openable(routes []*route.Route) []*problem.Vehicle {
	if b.problem.FleetSize() == problem.Infinite {
		return b.problem.Vehicles()
	}
	used := make(map[string]bool, len(routes))
	for _, r := range routes {
		used[r.Vehicle().ID] = true
	}
	var out []*problem.Vehicle
	for _, v := range b.problem.Vehicles() {
		if !used[v.ID] {
			out = append(out, v)
		}
	}
	return out
}

func sortPlacements(ps []placement) {
	for i := 1; i < len(ps); i++ {
		for j := i; j > 0 && ps[j].cost < ps[j-1].cost; j-- {
			ps[j], ps[j-1] = ps[j-1], ps[j]
		}
	}
}

func (b *insertionBase) apply(routes []*route.Route, job *problem.Job, p placement) []*route.Route {
	var r *route.Route
	if p.route < 0 {
		r = route.NewRoute(p.vehicle, nil)
		routes = append(routes, r)
	} else {
		r = routes[p.route]
	}
	r.Insert(p.pos, route.NewJobActivity(job))
	b.metrics.ActivityCreated()
	b.updater.Update(r)
	return routes
}

// run inserts one job per round; choose picks which job goes next from the
// current placements of every remaining job.
func (b *insertionBase) run(routes []*route.Route, jobs []*problem.Job, threshold float64, choose func([][]placement) int) ([]*route.Route, []*problem.Job) {
	remaining := append([]*problem.Job(nil), jobs...)
	var unassigned []*problem.Job
	for len(remaining) > 0 {
		opts := make([][]placement, 0, len(remaining))
		next := remaining[:0]
		for _, j := range remaining {
			ps := b.placements(routes, j, threshold)
			if len(ps) == 0 {
				b.log.WithField("job", j.ID).Debug("no feasible insertion")
				unassigned = append(unassigned, j)
				continue
			}
			next = append(next, j)
			opts = append(opts, ps)
		}
		remaining = next
		if len(remaining) == 0 {
			break
		}
		i := choose(opts)
		routes = b.apply(routes, remaining[i], opts[i][0])
		remaining = append(remaining[:i], remaining[i+1:]...)
	}
	return routes, unassigned
}

// BestInsertion places jobs in the given order, each at its cheapest feasible
// position across all routes and openable vehicles.
type BestInsertion struct {
	insertionBase
}

func NewBestInsertion(p *problem.Problem, m *metrics.Solver, l log.FieldLogger) *BestInsertion {
	return &BestInsertion{newInsertionBase(p, m, l)}
}

func (b *BestInsertion) Insert(routes []*route.Route, jobs []*problem.Job, costThreshold float64) ([]*route.Route, []*problem.Job) {
	var unassigned []*problem.Job
	for _, j := range jobs {
		ps := b.placements(routes, j, costThreshold)
		if len(ps) == 0 {
			b.log.WithField("job", j.ID).Debug("no feasible insertion")
			unassigned = append(unassigned, j)
			continue
		}
		routes = b.apply(routes, j, ps[0])
	}
	return routes, unassigned
}

// RegretInsertion inserts first the job that would lose most by waiting: the
// gap between its best and second-best route. Jobs with a single option go
// first.
type RegretInsertion struct {
	insertionBase
}

func NewRegretInsertion(p *problem.Problem, m *metrics.Solver, l log.FieldLogger) *RegretInsertion {
	return &RegretInsertion{newInsertionBase(p, m, l)}
}

func (b *RegretInsertion) Insert(routes []*route.Route, jobs []*problem.Job, costThreshold float64) ([]*route.Route, []*problem.Job) {
	return b.run(routes, jobs, costThreshold, func(opts [][]placement) int {
		best, bestRegret := 0, regret(opts[0])
		for i := 1; i < len(opts); i++ {
			r := regret(opts[i])
			if r > bestRegret || (r == bestRegret && opts[i][0].cost < opts[best][0].cost) {
				best, bestRegret = i, r
			}
		}
		return best
	})
}

func regret(ps []placement) float64 {
	if len(ps) < 2 {
		return math.Inf(1)
	}
	return ps[1].cost - ps[0].cost
}
