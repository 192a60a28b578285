package opt

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	log "github.com/sirupsen/logrus"

	"vrpsearch/internal/metrics"
	"vrpsearch/internal/problem"
	"vrpsearch/internal/route"
)

var (
	ErrInvalidFraction = errors.New("ruin: fraction must be in (0,1]")
	ErrNilRandom       = errors.New("ruin: random source is required")
	ErrNilProblem      = errors.New("ruin: problem is required")
)

// Strategy destroys part of a solution. Implementations remove jobs from the
// given routes in place, recompute every route exactly once, and return the
// removed jobs as the unassigned pool.
type Strategy interface {
	Ruin(routes []*route.Route) []*problem.Job
	Name() string
}

// RuinOption configures the collaborators shared by ruin strategies.
type RuinOption func(*ruinBase)

func WithRemover(r route.Remover) RuinOption { return func(b *ruinBase) { b.remover = r } }

func WithUpdater(u route.StateUpdater) RuinOption { return func(b *ruinBase) { b.updater = u } }

func WithMetrics(m *metrics.Solver) RuinOption { return func(b *ruinBase) { b.metrics = m } }

func WithLogger(l log.FieldLogger) RuinOption { return func(b *ruinBase) { b.log = l } }

type ruinBase struct {
	problem *problem.Problem
	rng     *rand.Rand
	remover route.Remover
	updater route.StateUpdater
	metrics *metrics.Solver
	log     log.FieldLogger
}

func newRuinBase(p *problem.Problem, fraction float64, rng *rand.Rand, opts []RuinOption) (ruinBase, error) {
	if p == nil {
		return ruinBase{}, ErrNilProblem
	}
	if err := checkFraction(fraction); err != nil {
		return ruinBase{}, err
	}
	if rng == nil {
		return ruinBase{}, ErrNilRandom
	}
	b := ruinBase{problem: p, rng: rng, remover: route.JobRemover{}, log: log.StandardLogger()}
	for _, o := range opts {
		o(&b)
	}
	if b.updater == nil {
		b.updater = &route.Updater{Costs: p.Costs(), Metrics: b.metrics}
	}
	return b, nil
}

func checkFraction(f float64) error {
	if math.IsNaN(f) || f <= 0 || f > 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidFraction, f)
	}
	return nil
}

// removalCount is the exact ceil(J*f), not the ceil of the float product:
// 100*0.07 evaluates to 7.000000000000001, which a plain math.Ceil turns into
// 8. The product is nudged down by a tiny epsilon so that case removes 7.
func removalCount(jobs int, f float64) int {
	return int(math.Ceil(float64(jobs)*f - 1e-9))
}

// detach removes job from the first route holding it. A miss is normal: the
// job may currently be unassigned.
func (b *ruinBase) detach(job *problem.Job, routes []*route.Route) bool {
	for _, r := range routes {
		if b.remover.RemoveJob(job, r) {
			return true
		}
	}
	return false
}

// updateAll runs unconditionally so post-cycle state is consistent even when
// nothing was removed.
func (b *ruinBase) updateAll(routes []*route.Route) {
	for _, r := range routes {
		b.updater.Update(r)
	}
}

// RandomRuin removes a fraction of all jobs chosen uniformly at random.
type RandomRuin struct {
	ruinBase
	fraction float64
}

// NewRandomRuin validates its configuration up front: a fraction outside
// (0,1], a nil problem or a nil random source is an error.
func NewRandomRuin(p *problem.Problem, fraction float64, rng *rand.Rand, opts ...RuinOption) (*RandomRuin, error) {
	b, err := newRuinBase(p, fraction, rng, opts)
	if err != nil {
		return nil, err
	}
	r := &RandomRuin{ruinBase: b, fraction: fraction}
	r.log.Infof("initialise %s", r)
	return r, nil
}

func (r *RandomRuin) Name() string { return "random" }

func (r *RandomRuin) SetFraction(f float64) error {
	if err := checkFraction(f); err != nil {
		return err
	}
	r.fraction = f
	r.log.Infof("fraction set %s", r)
	return nil
}

// RemovalCount is the number of jobs one cycle removes: ceil(J*f) taken on
// the decimal value, so 100 jobs at 0.07 remove 7 rather than 8.
func (r *RandomRuin) RemovalCount() int {
	return removalCount(len(r.problem.Jobs()), r.fraction)
}

// Ruin removes RemovalCount jobs.
func (r *RandomRuin) Ruin(routes []*route.Route) []*problem.Job {
	return r.RuinN(routes, nil, r.RemovalCount())
}

// RuinTarget is Ruin with target forced into the pool first.
func (r *RandomRuin) RuinTarget(routes []*route.Route, target *problem.Job) []*problem.Job {
	return r.RuinN(routes, target, r.RemovalCount())
}

// RuinN removes n jobs in total. A non-nil target is detached from whichever
// route holds it, counts against n and is always part of the returned pool;
// the remaining picks are drawn without replacement from the other jobs. When
// fewer jobs exist than requested, all of them are ruined.
func (r *RandomRuin) RuinN(routes []*route.Route, target *problem.Job, n int) []*problem.Job {
	pool := make([]*problem.Job, 0, max(n, 0))
	if target != nil {
		removed := r.detach(target, routes)
		pool = append(pool, target)
		n--
		r.log.WithField("job", target.ID).Debugf("target removed=%t", removed)
	}
	available := make([]*problem.Job, 0, len(r.problem.Jobs()))
	for _, j := range r.problem.Jobs() {
		if target == nil || j.ID != target.ID {
			available = append(available, j)
		}
	}
	for i := 0; i < n && len(available) > 0; i++ {
		idx := r.rng.Intn(len(available))
		job := available[idx]
		available = append(available[:idx], available[idx+1:]...)
		pool = append(pool, job)
		r.detach(job, routes)
	}
	r.updateAll(routes)
	r.metrics.Ruined(r.Name(), len(pool))
	r.log.Debugf("ruined %d jobs across %d routes", len(pool), len(routes))
	return pool
}

func (r *RandomRuin) String() string {
	return fmt.Sprintf("[name=randomRuin][fraction=%v]", r.fraction)
}
