package route

import (
	"math"

	"vrpsearch/internal/metrics"
	"vrpsearch/internal/problem"
)

// Schedule is the outcome of simulating a vehicle along an activity sequence.
type Schedule struct {
	Cost      float64
	Feasible  bool
	Departure float64
	// Arrival is the time the vehicle finishes: at the depot when it returns,
	// otherwise at the end of the last activity.
	Arrival float64
	Load    int
}

// StateUpdater recomputes a route's derived state and reports feasibility.
type StateUpdater interface {
	Update(r *Route) bool
}

// Updater recomputes route state by forward simulation. It is called once per
// route after a batch of structural edits, never per edit.
type Updater struct {
	Costs   problem.TransportCosts
	Metrics *metrics.Solver
}

func NewUpdater(costs problem.TransportCosts) *Updater {
	return &Updater{Costs: costs}
}

// Update rewrites the arrival/end times of every activity and the route cost,
// and reports whether the route is feasible. Infeasible routes are still
// fully timed and costed; the caller decides what to do with them.
func (u *Updater) Update(r *Route) bool {
	s := u.simulate(r.vehicle, r.driver, r.acts, r)
	r.cost = s.Cost
	r.feasible = s.Feasible
	u.Metrics.RouteUpdated(s.Feasible)
	return s.Feasible
}

// Evaluate simulates acts for vehicle v without touching any cached state.
func (u *Updater) Evaluate(v *problem.Vehicle, d *problem.Driver, acts []Activity) Schedule {
	if d == nil {
		d = problem.NoDriver
	}
	return u.simulate(v, d, acts, nil)
}

func (u *Updater) simulate(v *problem.Vehicle, d *problem.Driver, acts []Activity, r *Route) Schedule {
	dep := math.Max(v.EarliestStart, 0)
	s := Schedule{Feasible: true, Departure: dep, Arrival: dep}
	if r != nil {
		stamp(r.start, s.Departure, s.Departure)
	}
	if len(acts) == 0 {
		if r != nil {
			stamp(r.end, s.Departure, s.Departure)
		}
		return s
	}
	if v.Type != nil {
		s.Cost += v.Type.FixedCost
	}
	t := s.Departure
	prev := v.LocationID
	for _, a := range acts {
		s.Cost += u.Costs.TransportCost(prev, a.LocationID(), t, d, v)
		arr := t + u.Costs.TransportTime(prev, a.LocationID(), t, d, v)
		if arr > a.LatestStart() {
			s.Feasible = false
		}
		end := math.Max(arr, a.EarliestStart()) + a.Duration()
		s.Cost += serviceCost(a, v)
		if r != nil {
			stamp(a, arr, end)
		}
		s.Load += a.Demand()
		t = end
		prev = a.LocationID()
	}
	if v.ReturnToDepot {
		s.Cost += u.Costs.TransportCost(prev, v.LocationID, t, d, v)
		t += u.Costs.TransportTime(prev, v.LocationID, t, d, v)
		if t > v.LatestReturn() {
			s.Feasible = false
		}
	}
	if r != nil {
		stamp(r.end, t, t)
	}
	if s.Load > v.Capacity() {
		s.Feasible = false
	}
	s.Arrival = t
	return s
}

// serviceCost prices the time spent at an activity like driving time.
func serviceCost(a Activity, v *problem.Vehicle) float64 {
	if v.Type == nil {
		return 0
	}
	return a.Duration() * v.Type.CostPerTime
}

func stamp(a Activity, arr, end float64) {
	a.SetArrTime(arr)
	a.SetEndTime(end)
}
