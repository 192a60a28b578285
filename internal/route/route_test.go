package route

import (
	"errors"
	"testing"

	"vrpsearch/internal/problem"
)

type fixture struct {
	costs   *problem.CostMatrix
	vehicle *problem.Vehicle
	jobs    map[string]*problem.Job
}

// newFixture builds the 4-location matrix used throughout: depot "0" and
// jobs "1".."3"; travel time is half the distance.
func newFixture(t *testing.T) fixture {
	t.Helper()
	b := problem.NewMatrixBuilder(true)
	for _, e := range []struct {
		from, to string
		d        float64
	}{
		{"0", "1", 10}, {"0", "2", 20}, {"0", "3", 5},
		{"1", "2", 4}, {"1", "3", 1}, {"2", "3", 2},
	} {
		b.AddDistance(e.from, e.to, e.d).AddTime(e.from, e.to, e.d/2)
	}
	m, err := b.Build()
	if err != nil {
		t.Fatalf("build matrix: %v", err)
	}
	vt := &problem.VehicleType{ID: "t", Capacity: 10, CostPerDistance: 1}
	return fixture{
		costs:   m,
		vehicle: &problem.Vehicle{ID: "v1", LocationID: "0", Type: vt, ReturnToDepot: true},
		jobs: map[string]*problem.Job{
			"1": {ID: "1", LocationID: "1", Demand: 1},
			"2": {ID: "2", LocationID: "2", Demand: 1, Duration: 3, TimeWindow: &problem.TimeWindow{Start: 10, End: 50}},
			"3": {ID: "3", LocationID: "3", Demand: 1},
		},
	}
}

func (f fixture) route(ids ...string) *Route {
	r := NewRoute(f.vehicle, nil)
	for _, id := range ids {
		r.Insert(r.Len(), NewJobActivity(f.jobs[id]))
	}
	return r
}

func ids(r *Route) []string {
	out := []string{}
	for _, j := range r.Jobs() {
		out = append(out, j.ID)
	}
	return out
}

func TestUpdateForwardSimulation(t *testing.T) {
	f := newFixture(t)
	r := f.route("1", "3", "2")
	u := NewUpdater(f.costs)
	if !u.Update(r) {
		t.Fatalf("route should be feasible")
	}
	want := []struct{ arr, end float64 }{{5, 5}, {5.5, 5.5}, {6.5, 13}}
	for i, a := range r.Activities() {
		if a.ArrTime() != want[i].arr || a.EndTime() != want[i].end {
			t.Errorf("act %d: arr=%v end=%v, want %v", i, a.ArrTime(), a.EndTime(), want[i])
		}
	}
	if r.End().ArrTime() != 23 {
		t.Errorf("depot arrival = %v, want 23", r.End().ArrTime())
	}
	if r.Cost() != 33 {
		t.Errorf("cost = %v, want 33", r.Cost())
	}
}

func TestUpdateIsIdempotent(t *testing.T) {
	f := newFixture(t)
	r := f.route("2", "1", "3")
	u := NewUpdater(f.costs)
	ok1 := u.Update(r)
	cost1 := r.Cost()
	times1 := make([][2]float64, r.Len())
	for i, a := range r.Activities() {
		times1[i] = [2]float64{a.ArrTime(), a.EndTime()}
	}
	ok2 := u.Update(r)
	if ok1 != ok2 || cost1 != r.Cost() {
		t.Fatalf("second update changed result: %v/%v -> %v/%v", ok1, cost1, ok2, r.Cost())
	}
	for i, a := range r.Activities() {
		if times1[i] != [2]float64{a.ArrTime(), a.EndTime()} {
			t.Fatalf("act %d times changed", i)
		}
	}
}

func TestUpdateReportsInfeasibleWindow(t *testing.T) {
	f := newFixture(t)
	f.jobs["1"] = &problem.Job{ID: "1", LocationID: "1", TimeWindow: &problem.TimeWindow{Start: 0, End: 4}}
	r := f.route("1")
	u := NewUpdater(f.costs)
	if u.Update(r) {
		t.Fatalf("arrival 5 after latest start 4 should be infeasible")
	}
	if r.Feasible() {
		t.Fatalf("route should carry the infeasible verdict")
	}
	if r.Cost() != 20 {
		t.Fatalf("infeasible route still costed: got %v, want 20", r.Cost())
	}
}

func TestUpdateZeroBoundsAreBinding(t *testing.T) {
	zero := 0.0
	tests := []struct {
		name          string
		window        *problem.TimeWindow
		latestArrival *float64
		feasible      bool
	}{
		{"no window", nil, nil, true},
		{"window ends at arrival", &problem.TimeWindow{Start: 0, End: 5}, nil, true},
		{"window 0 to 0", &problem.TimeWindow{Start: 0, End: 0}, nil, false},
		{"vehicle latest arrival 0", nil, &zero, false},
	}
	for _, tt := range tests {
		f := newFixture(t)
		f.jobs["1"] = &problem.Job{ID: "1", LocationID: "1", TimeWindow: tt.window}
		f.vehicle.LatestArrival = tt.latestArrival
		r := f.route("1")
		if got := NewUpdater(f.costs).Update(r); got != tt.feasible {
			t.Fatalf("%s: arrival 5, feasible = %v, want %v", tt.name, got, tt.feasible)
		}
	}
}

func TestUpdateReportsCapacityViolation(t *testing.T) {
	f := newFixture(t)
	f.vehicle.Type = &problem.VehicleType{ID: "small", Capacity: 2, CostPerDistance: 1}
	r := f.route("1", "2", "3")
	if NewUpdater(f.costs).Update(r) {
		t.Fatalf("load 3 on capacity 2 should be infeasible")
	}
}

func TestUpdateEmptyRoute(t *testing.T) {
	f := newFixture(t)
	f.vehicle.Type.FixedCost = 100
	r := NewRoute(f.vehicle, nil)
	if !NewUpdater(f.costs).Update(r) || r.Cost() != 0 {
		t.Fatalf("empty route: feasible=%v cost=%v", r.Feasible(), r.Cost())
	}
}

func TestRemoveMissLeavesRouteUnchanged(t *testing.T) {
	f := newFixture(t)
	r := f.route("1", "3")
	before := ids(r)
	if (JobRemover{}).RemoveJob(f.jobs["2"], r) {
		t.Fatalf("job 2 is not in the route")
	}
	after := ids(r)
	if len(before) != len(after) {
		t.Fatalf("length changed: %v -> %v", before, after)
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("order changed: %v -> %v", before, after)
		}
	}
}

func TestRemoveDoesNotRecompute(t *testing.T) {
	f := newFixture(t)
	r := f.route("1", "3", "2")
	u := NewUpdater(f.costs)
	u.Update(r)
	if !(JobRemover{}).RemoveJob(f.jobs["2"], r) {
		t.Fatalf("remove failed")
	}
	if r.Cost() != 33 {
		t.Fatalf("cost should stay stale until update, got %v", r.Cost())
	}
	u.Update(r)
	// 0 -> 1 -> 3 -> 0
	if r.Cost() != 16 {
		t.Fatalf("cost after update = %v, want 16", r.Cost())
	}
}

func TestBatchOrderDoesNotMatter(t *testing.T) {
	f := newFixture(t)
	u := NewUpdater(f.costs)
	a := f.route("1", "2", "3")
	b := a.Copy()
	rm := JobRemover{}
	rm.RemoveJob(f.jobs["1"], a)
	rm.RemoveJob(f.jobs["3"], a)
	rm.RemoveJob(f.jobs["3"], b)
	rm.RemoveJob(f.jobs["1"], b)
	u.Update(a)
	u.Update(b)
	if a.Cost() != b.Cost() {
		t.Fatalf("costs differ: %v vs %v", a.Cost(), b.Cost())
	}
	if a.Activities()[0].ArrTime() != b.Activities()[0].ArrTime() {
		t.Fatalf("times differ")
	}
}

func TestCopyDoesNotAlias(t *testing.T) {
	f := newFixture(t)
	u := NewUpdater(f.costs)
	r := f.route("1", "3")
	u.Update(r)
	cp := r.Copy()
	JobRemover{}.RemoveJob(f.jobs["1"], r)
	u.Update(r)
	if cp.Len() != 2 || cp.Activities()[1].ArrTime() != 5.5 {
		t.Fatalf("copy affected by original: len=%d arr=%v", cp.Len(), cp.Activities()[1].ArrTime())
	}
	if !SameJob(cp.Activities()[1], r.Activities()[0]) {
		t.Fatalf("activities for job 3 should be the same job despite different times")
	}
}

func TestEvaluateDoesNotMutate(t *testing.T) {
	f := newFixture(t)
	u := NewUpdater(f.costs)
	r := f.route("1")
	u.Update(r)
	acts := []Activity{r.Activities()[0], NewJobActivity(f.jobs["3"])}
	s := u.Evaluate(f.vehicle, nil, acts)
	if s.Cost != 16 || !s.Feasible {
		t.Fatalf("evaluate = %+v", s)
	}
	if r.Activities()[0].ArrTime() != 5 || acts[1].ArrTime() != 0 {
		t.Fatalf("evaluate wrote cached times")
	}
}

func TestSolutionValidateAndCost(t *testing.T) {
	f := newFixture(t)
	u := NewUpdater(f.costs)
	r1, r2 := f.route("1"), f.route("3")
	u.Update(r1)
	u.Update(r2)
	s := NewSolution([]*Route{r1, r2}, nil)
	if s.Cost() != 30 {
		t.Fatalf("cost = %v, want 20+10", s.Cost())
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	r2.Insert(0, NewJobActivity(f.jobs["1"]))
	if err := s.Validate(); !errors.Is(err, ErrDoubleAssignment) {
		t.Fatalf("want ErrDoubleAssignment, got %v", err)
	}
}

func TestActivityKinds(t *testing.T) {
	j := &problem.Job{ID: "p", Kind: problem.Pickup, LocationID: "1"}
	if k := NewJobActivity(j).Kind(); k != KindPickup {
		t.Fatalf("kind = %v", k)
	}
	f := newFixture(t)
	r := NewRoute(f.vehicle, nil)
	if r.Start().Kind() != KindStart || r.End().Kind() != KindEnd || r.Start().Job() != nil {
		t.Fatalf("bad terminals")
	}
	if r.Driver() != problem.NoDriver {
		t.Fatalf("nil driver should map to NoDriver")
	}
}
