// Package route holds the mutable part of a solution: routes as ordered
// activity sequences, and the two-phase API that edits them (Remover) and
// then recomputes their derived state (Updater).
package route

import (
	"fmt"
	"strings"

	"vrpsearch/internal/problem"
)

// Route is the visit sequence of one vehicle. The activity order is the only
// source of truth; cost, feasibility and activity times are derived by the
// Updater and have no setters.
type Route struct {
	vehicle  *problem.Vehicle
	driver   *problem.Driver
	start    *Terminal
	end      *Terminal
	acts     []Activity
	cost     float64
	feasible bool
}

// NewRoute opens an empty route for v. A nil driver means problem.NoDriver.
func NewRoute(v *problem.Vehicle, d *problem.Driver) *Route {
	if d == nil {
		d = problem.NoDriver
	}
	return &Route{vehicle: v, driver: d, start: newStart(v), end: newEnd(v), feasible: true}
}

func (r *Route) Vehicle() *problem.Vehicle {
	return r.vehicle
}

func (r *Route) Driver() *problem.Driver {
	return r.driver
}

func (r *Route) Start() *Terminal {
	return r.start
}

func (r *Route) End() *Terminal {
	return r.end
}

// Activities returns the job activities in visit order. The slice is shared;
// use Insert and a Remover to change it.
func (r *Route) Activities() []Activity {
	return r.acts
}

func (r *Route) Len() int {
	return len(r.acts)
}

func (r *Route) IsEmpty() bool {
	return len(r.acts) == 0
}

// Cost is the value computed by the last Update.
func (r *Route) Cost() float64 {
	return r.cost
}

// Feasible is the verdict of the last Update.
func (r *Route) Feasible() bool {
	return r.feasible
}

// Load sums the demand of all job activities.
func (r *Route) Load() int {
	n := 0
	for _, a := range r.acts {
		n += a.Demand()
	}
	return n
}

func (r *Route) indexOf(job *problem.Job) int {
	for i, a := range r.acts {
		if j := a.Job(); j != nil && j.ID == job.ID {
			return i
		}
	}
	return -1
}

func (r *Route) HasJob(job *problem.Job) bool { return job != nil && r.indexOf(job) >= 0 }

func (r *Route) Jobs() []*problem.Job {
	out := make([]*problem.Job, 0, len(r.acts))
	for _, a := range r.acts {
		if j := a.Job(); j != nil {
			out = append(out, j)
		}
	}
	return out
}

// Insert places a at position pos (0..Len). Route state is not recomputed.
func (r *Route) Insert(pos int, a Activity) {
	if pos < 0 || pos > len(r.acts) {
		panic(fmt.Sprintf("route: insert position %d out of range [0,%d]", pos, len(r.acts)))
	}
	r.acts = append(r.acts, nil)
	copy(r.acts[pos+1:], r.acts[pos:])
	r.acts[pos] = a
}

// Reverse flips the activities in [i, k]. Route state is not recomputed.
func (r *Route) Reverse(i, k int) {
	for ; i < k; i, k = i+1, k-1 {
		r.acts[i], r.acts[k] = r.acts[k], r.acts[i]
	}
}

func (r *Route) removeAt(i int) {
	copy(r.acts[i:], r.acts[i+1:])
	r.acts[len(r.acts)-1] = nil
	r.acts = r.acts[:len(r.acts)-1]
}

// Copy duplicates the route including every activity's cached state, so the
// copy can be mutated without affecting r.
func (r *Route) Copy() *Route {
	cp := &Route{
		vehicle:  r.vehicle,
		driver:   r.driver,
		start:    r.start.Duplicate().(*Terminal),
		end:      r.end.Duplicate().(*Terminal),
		acts:     make([]Activity, len(r.acts)),
		cost:     r.cost,
		feasible: r.feasible,
	}
	for i, a := range r.acts {
		cp.acts[i] = a.Duplicate()
	}
	return cp
}

func (r *Route) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[vehicle=%s][cost=%.2f][feasible=%t]", r.vehicle.ID, r.cost, r.feasible)
	for _, a := range r.acts {
		fmt.Fprintf(&b, " %s", a.Job().ID)
	}
	return b.String()
}
