// Package problem defines the read-only vehicle routing problem: jobs, the
// fleet and the transport-cost model the search operates on.
package problem

import (
	"errors"
	"fmt"
)

var (
	ErrNoCosts    = errors.New("problem: transport costs are required")
	ErrNoVehicles = errors.New("problem: jobs given but no vehicles")
)

// Problem is immutable after New returns. Job order is preserved as given so
// that seeded searches replay identically.
type Problem struct {
	jobs      []*Job
	byID      map[string]*Job
	vehicles  []*Vehicle
	fleetSize FleetSize
	costs     TransportCosts
}

// New validates and indexes the problem definition.
func New(jobs []*Job, vehicles []*Vehicle, fleet FleetSize, costs TransportCosts) (*Problem, error) {
	if costs == nil {
		return nil, ErrNoCosts
	}
	if len(jobs) > 0 && len(vehicles) == 0 {
		return nil, ErrNoVehicles
	}
	locs, _ := costs.(LocationSet)
	p := &Problem{
		jobs:      append([]*Job(nil), jobs...),
		byID:      make(map[string]*Job, len(jobs)),
		vehicles:  append([]*Vehicle(nil), vehicles...),
		fleetSize: fleet,
		costs:     costs,
	}
	for _, j := range jobs {
		if j == nil {
			return nil, fmt.Errorf("problem: nil job")
		}
		if err := j.validate(); err != nil {
			return nil, fmt.Errorf("problem: %w", err)
		}
		if _, dup := p.byID[j.ID]; dup {
			return nil, fmt.Errorf("problem: duplicate job id %q", j.ID)
		}
		if locs != nil && !locs.Has(j.LocationID) {
			return nil, fmt.Errorf("problem: job %s: unknown location %q", j.ID, j.LocationID)
		}
		p.byID[j.ID] = j
	}
	seen := map[string]struct{}{}
	for _, v := range vehicles {
		if v == nil || v.ID == "" {
			return nil, fmt.Errorf("problem: vehicle without id")
		}
		if _, dup := seen[v.ID]; dup {
			return nil, fmt.Errorf("problem: duplicate vehicle id %q", v.ID)
		}
		seen[v.ID] = struct{}{}
		if locs != nil && !locs.Has(v.LocationID) {
			return nil, fmt.Errorf("problem: vehicle %s: unknown location %q", v.ID, v.LocationID)
		}
	}
	return p, nil
}

// Jobs returns the job universe. Callers must not modify the slice.
func (p *Problem) Jobs() []*Job { return p.jobs }

func (p *Problem) Job(id string) (*Job, bool) {
	j, ok := p.byID[id]
	return j, ok
}

// Vehicles returns the fleet. Callers must not modify the slice.
func (p *Problem) Vehicles() []*Vehicle { return p.vehicles }

func (p *Problem) FleetSize() FleetSize { return p.fleetSize }

func (p *Problem) Costs() TransportCosts { return p.costs }

func (p *Problem) String() string {
	return fmt.Sprintf("[jobs=%d][vehicles=%d][fleetSize=%s]", len(p.jobs), len(p.vehicles), p.fleetSize)
}
