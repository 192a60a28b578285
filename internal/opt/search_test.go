package opt

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"

	"vrpsearch/internal/config"
	"vrpsearch/internal/problem"
	"vrpsearch/internal/route"
)

// scatter places n jobs on a seeded grid around a single depot.
func scatter(t *testing.T, n, capacity int) *problem.Problem {
	t.Helper()
	rng := rand.New(rand.NewSource(int64(n)))
	coords := map[string]problem.Coordinate{"depot": {X: 50, Y: 50}}
	var jobs []*problem.Job
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("j%02d", i)
		coords[id] = problem.Coordinate{X: float64(rng.Intn(100)), Y: float64(rng.Intn(100))}
		jobs = append(jobs, &problem.Job{ID: id, LocationID: id, Demand: 1})
	}
	vt := &problem.VehicleType{ID: "van", Capacity: capacity, CostPerDistance: 1}
	v := &problem.Vehicle{ID: "van", LocationID: "depot", Type: vt, ReturnToDepot: true}
	p, err := problem.New(jobs, []*problem.Vehicle{v}, problem.Infinite, &problem.EuclideanCosts{Coords: coords})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func testConfig(iterations int) config.Algorithm {
	cfg := config.Default()
	cfg.Iterations = iterations
	return cfg
}

func TestSearchImprovesAndStaysValid(t *testing.T) {
	p := scatter(t, 15, 5)
	s, err := NewSearch(p, testConfig(200), rand.New(rand.NewSource(7)), nil, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	best, m, err := s.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if err := best.Validate(); err != nil {
		t.Fatalf("best solution invalid: %v", err)
	}
	if best.JobCount() != 15 || len(best.Unassigned()) != 0 {
		t.Fatalf("jobs=%d unassigned=%d", best.JobCount(), len(best.Unassigned()))
	}
	if best.Cost() > m.InitialCost {
		t.Fatalf("best %v worse than initial %v", best.Cost(), m.InitialCost)
	}
	if m.Iterations != 200 || m.BestCost != best.Cost() {
		t.Fatalf("metrics = %+v", m)
	}
	if m.RuinSelects["random"]+m.RuinSelects["radial"] != 200 {
		t.Fatalf("ruin selects = %v", m.RuinSelects)
	}
	for _, r := range best.Routes() {
		if r.IsEmpty() {
			t.Fatalf("empty route kept without vehicle slots")
		}
	}
}

func TestSearchSeededDeterminism(t *testing.T) {
	p := scatter(t, 10, 4)
	run := func() (float64, map[string]int) {
		s, err := NewSearch(p, testConfig(60), rand.New(rand.NewSource(99)), nil, quietLogger())
		if err != nil {
			t.Fatal(err)
		}
		best, m, err := s.Run(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		return best.Cost(), m.RuinSelects
	}
	c1, s1 := run()
	c2, s2 := run()
	if c1 != c2 || fmt.Sprint(s1) != fmt.Sprint(s2) {
		t.Fatalf("same seed diverged: %v %v vs %v %v", c1, s1, c2, s2)
	}
}

func TestSearchCancelledReturnsInitial(t *testing.T) {
	p := scatter(t, 6, 3)
	s, err := NewSearch(p, testConfig(1000), rand.New(rand.NewSource(1)), nil, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	best, m, err := s.Run(ctx)
	if err != nil {
		t.Fatalf("cancellation is not an error: %v", err)
	}
	if m.Iterations != 0 || best.Cost() != m.InitialCost {
		t.Fatalf("iterations=%d cost=%v initial=%v", m.Iterations, best.Cost(), m.InitialCost)
	}
}

func TestSearchTimeBudget(t *testing.T) {
	p := scatter(t, 6, 3)
	cfg := testConfig(0)
	cfg.TimeBudget = 50 * time.Millisecond
	s, err := NewSearch(p, cfg, rand.New(rand.NewSource(1)), nil, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	start := time.Now()
	if _, _, err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if el := time.Since(start); el > 5*time.Second {
		t.Fatalf("time budget ignored: ran %v", el)
	}
}

func TestSearchValidation(t *testing.T) {
	p := scatter(t, 3, 3)
	ins := NewBestInsertion(p, nil, quietLogger())
	rr, err := NewRandomRuin(p, 0.5, rand.New(rand.NewSource(1)), WithLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}
	ok := func() *Search {
		return &Search{
			Problem:    p,
			Strategies: []WeightedStrategy{{Strategy: rr, Weight: 1}},
			Inserter:   ins,
			Rand:       rand.New(rand.NewSource(1)),
			Iterations: 1,
			Logger:     quietLogger(),
		}
	}
	cases := []struct {
		name string
		mut  func(*Search)
		want error
	}{
		{"no strategies", func(s *Search) { s.Strategies = nil }, ErrNoStrategies},
		{"no inserter", func(s *Search) { s.Inserter = nil }, ErrNoInserter},
		{"unbounded", func(s *Search) { s.Iterations = 0 }, ErrUnbounded},
		{"no rng", func(s *Search) { s.Rand = nil }, ErrNilRandom},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := ok()
			tc.mut(s)
			if _, _, err := s.Run(context.Background()); !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
		})
	}
	if _, _, err := ok().Run(context.Background()); err != nil {
		t.Fatalf("valid search failed: %v", err)
	}
}

type recorder struct {
	name  string
	log   *[]string
	iters int
}

func (r *recorder) SearchStarts(*problem.Problem, *Search, []*route.Solution) {
	*r.log = append(*r.log, "start:"+r.name)
}

func (r *recorder) SearchEnds(*problem.Problem, *Search, []*route.Solution) {
	*r.log = append(*r.log, "end:"+r.name)
}

func (r *recorder) IterationEnds(int, *problem.Problem, []*route.Solution) { r.iters++ }

type startsOnly struct{ log *[]string }

func (s startsOnly) SearchStarts(*problem.Problem, *Search, []*route.Solution) {
	*s.log = append(*s.log, "start:only")
}

func TestListenersDispatchByPriority(t *testing.T) {
	var events []string
	a := &recorder{name: "a", log: &events}
	b := &recorder{name: "b", log: &events}
	c := &recorder{name: "c", log: &events}
	d := &recorder{name: "d", log: &events}

	p := scatter(t, 4, 4)
	s, err := NewSearch(p, testConfig(3), rand.New(rand.NewSource(1)), nil, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	for _, reg := range []struct {
		l    any
		prio Priority
	}{{a, PriorityLow}, {b, PriorityHigh}, {c, PriorityMedium}, {d, PriorityHigh}, {startsOnly{&events}, PriorityMedium}} {
		if err := s.Listeners.Add(reg.l, reg.prio); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Listeners.Add(struct{}{}, PriorityHigh); !errors.Is(err, ErrNotListener) {
		t.Fatalf("want ErrNotListener, got %v", err)
	}
	if _, _, err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	want := "[start:b start:d start:c start:only start:a end:b end:d end:c end:a]"
	if got := fmt.Sprint(events); got != want {
		t.Fatalf("events = %s\nwant     %s", got, want)
	}
	if a.iters != 3 {
		t.Fatalf("iteration events = %d, want 3", a.iters)
	}
}

func TestStopWatch(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ticks := []time.Time{t0, t0.Add(3 * time.Second)}
	w := NewStopWatch(quietLogger())
	w.now = func() time.Time {
		next := ticks[0]
		ticks = ticks[1:]
		return next
	}
	w.SearchStarts(nil, nil, nil)
	w.SearchEnds(nil, nil, nil)
	if w.Elapsed() != 3*time.Second {
		t.Fatalf("elapsed = %v, want 3s", w.Elapsed())
	}
}

func TestProgressLoggerIsRateLimited(t *testing.T) {
	logger, hook := test.NewNullLogger()
	pl := NewProgressLogger(logger, time.Hour)
	for i := 1; i <= 5; i++ {
		pl.IterationEnds(i, nil, nil)
	}
	if len(hook.Entries) != 1 {
		t.Fatalf("log entries = %d, want 1", len(hook.Entries))
	}
	if hook.LastEntry().Data["iteration"] != 1 {
		t.Fatalf("first iteration should be logged, got %v", hook.LastEntry().Data)
	}
}

func TestSelectOp(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 50; i++ {
		if got := selectOp([]float64{0, 1, 0}, rng); got != 1 {
			t.Fatalf("selectOp = %d, want 1", got)
		}
	}
	if got := selectOp([]float64{0, 0}, rng); got != 0 {
		t.Fatalf("zero weights should pick 0, got %d", got)
	}
}
