package route

import (
	"errors"
	"fmt"

	"vrpsearch/internal/problem"
)

// ErrDoubleAssignment is returned by Validate when a job sits in two routes.
var ErrDoubleAssignment = errors.New("solution: job assigned more than once")

// Solution wraps a route set with its total cost, the sum of route costs.
// Routes are mutated in place during a ruin/recreate cycle; a new Solution is
// built afterwards instead of patching an existing one.
type Solution struct {
	routes     []*Route
	unassigned []*problem.Job
	cost       float64
}

// NewSolution takes ownership of routes and sums their cached costs.
func NewSolution(routes []*Route, unassigned []*problem.Job) *Solution {
	s := &Solution{routes: routes, unassigned: unassigned}
	for _, r := range routes {
		s.cost += r.Cost()
	}
	return s
}

func (s *Solution) Routes() []*Route { return s.routes }

// Unassigned lists jobs the insertion could not place.
func (s *Solution) Unassigned() []*problem.Job { return s.unassigned }

func (s *Solution) Cost() float64 { return s.cost }

// ActiveRoutes counts routes with at least one job.
func (s *Solution) ActiveRoutes() int {
	n := 0
	for _, r := range s.routes {
		if !r.IsEmpty() {
			n++
		}
	}
	return n
}

func (s *Solution) JobCount() int {
	n := 0
	for _, r := range s.routes {
		n += r.Len()
	}
	return n
}

// Feasible reports whether every route passed its last Update.
func (s *Solution) Feasible() bool {
	for _, r := range s.routes {
		if !r.Feasible() {
			return false
		}
	}
	return true
}

// Copy returns a deep copy whose routes and activities share no mutable state
// with s.
func (s *Solution) Copy() *Solution {
	routes := make([]*Route, len(s.routes))
	for i, r := range s.routes {
		routes[i] = r.Copy()
	}
	return &Solution{routes: routes, unassigned: append([]*problem.Job(nil), s.unassigned...), cost: s.cost}
}

// Validate checks that no job appears twice across routes and the unassigned
// list.
func (s *Solution) Validate() error {
	seen := map[string]string{}
	for i, r := range s.routes {
		for _, j := range r.Jobs() {
			where := fmt.Sprintf("route %d", i)
			if prev, ok := seen[j.ID]; ok {
				return fmt.Errorf("%w: %s in %s and %s", ErrDoubleAssignment, j.ID, prev, where)
			}
			seen[j.ID] = where
		}
	}
	for _, j := range s.unassigned {
		if prev, ok := seen[j.ID]; ok {
			return fmt.Errorf("%w: %s in %s and unassigned", ErrDoubleAssignment, j.ID, prev)
		}
		seen[j.ID] = "unassigned"
	}
	return nil
}
