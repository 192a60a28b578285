package opt

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"vrpsearch/internal/problem"
	"vrpsearch/internal/route"
)

// RadialRuin removes a seed job and its most related neighbours. Relatedness
// is distance between job locations, reduced by the overlap of their time
// windows so that jobs served around the same time cluster together.
type RadialRuin struct {
	ruinBase
	fraction float64
	// TimeWeight scales the window-overlap bonus. Zero means pure distance.
	TimeWeight float64
}

func NewRadialRuin(p *problem.Problem, fraction float64, rng *rand.Rand, opts ...RuinOption) (*RadialRuin, error) {
	b, err := newRuinBase(p, fraction, rng, opts)
	if err != nil {
		return nil, err
	}
	r := &RadialRuin{ruinBase: b, fraction: fraction}
	r.log.Infof("initialise %s", r)
	return r, nil
}

func (r *RadialRuin) Name() string { return "radial" }

func (r *RadialRuin) SetFraction(f float64) error {
	if err := checkFraction(f); err != nil {
		return err
	}
	r.fraction = f
	return nil
}

func (r *RadialRuin) RemovalCount() int {
	return removalCount(len(r.problem.Jobs()), r.fraction)
}

func (r *RadialRuin) Ruin(routes []*route.Route) []*problem.Job {
	jobs := r.problem.Jobs()
	if len(jobs) == 0 {
		r.updateAll(routes)
		return nil
	}
	seed := jobs[r.rng.Intn(len(jobs))]
	return r.RuinAround(routes, seed, r.RemovalCount())
}

// RuinAround removes seed and the n-1 jobs most related to it.
func (r *RadialRuin) RuinAround(routes []*route.Route, seed *problem.Job, n int) []*problem.Job {
	type scored struct {
		job   *problem.Job
		score float64
	}
	rel := make([]scored, 0, len(r.problem.Jobs()))
	for _, j := range r.problem.Jobs() {
		if j.ID == seed.ID {
			continue
		}
		rel = append(rel, scored{job: j, score: r.relatedness(seed, j)})
	}
	sort.SliceStable(rel, func(a, b int) bool {
		if rel[a].score != rel[b].score {
			return rel[a].score < rel[b].score
		}
		return rel[a].job.ID < rel[b].job.ID
	})
	pool := []*problem.Job{seed}
	r.detach(seed, routes)
	for i := 0; i < len(rel) && len(pool) < n; i++ {
		pool = append(pool, rel[i].job)
		r.detach(rel[i].job, routes)
	}
	r.updateAll(routes)
	r.metrics.Ruined(r.Name(), len(pool))
	r.log.WithField("seed", seed.ID).Debugf("ruined %d jobs", len(pool))
	return pool
}

func (r *RadialRuin) relatedness(a, b *problem.Job) float64 {
	var d float64
	if ds, ok := r.problem.Costs().(problem.DistanceSource); ok {
		d = ds.Distance(a.LocationID, b.LocationID)
	} else {
		d = r.problem.Costs().TransportCost(a.LocationID, b.LocationID, 0, problem.NoDriver, nil)
	}
	if r.TimeWeight == 0 {
		return d
	}
	return d - r.TimeWeight*windowOverlap(a.TimeWindow, b.TimeWindow)
}

// windowOverlap is the length of the intersection of two windows. Unbounded
// windows contribute nothing.
func windowOverlap(a, b *problem.TimeWindow) float64 {
	if a == nil || b == nil || math.IsInf(a.End, 1) || math.IsInf(b.End, 1) {
		return 0
	}
	return math.Max(0, math.Min(a.End, b.End)-math.Max(a.Start, b.Start))
}

func (r *RadialRuin) String() string {
	return fmt.Sprintf("[name=radialRuin][fraction=%v]", r.fraction)
}
