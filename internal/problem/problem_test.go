package problem

import (
	"math"
	"testing"
)

func TestMatrixSymmetricLookups(t *testing.T) {
	m, err := NewMatrixBuilder(true).
		AddDistance("0", "1", 10).AddTime("0", "1", 5).
		AddDistance("0", "2", 20).AddTime("0", "2", 10).
		AddDistance("1", "2", 4).AddTime("1", "2", 2).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if d := m.Distance("1", "0"); d != 10 {
		t.Fatalf("mirrored distance = %v, want 10", d)
	}
	if tt := m.TransportTime("2", "1", 0, nil, nil); tt != 2 {
		t.Fatalf("mirrored time = %v, want 2", tt)
	}
	vt := &VehicleType{ID: "t", CostPerDistance: 1, CostPerTime: 2}
	v := &Vehicle{ID: "v", LocationID: "0", Type: vt}
	if c := m.TransportCost("0", "2", 0, NoDriver, v); c != 40 {
		t.Fatalf("cost = %v, want 20*1 + 10*2", c)
	}
	if d := m.Distance("0", "9"); !math.IsInf(d, 1) {
		t.Fatalf("unknown location should be +Inf, got %v", d)
	}
}

func TestMatrixMissingEntry(t *testing.T) {
	_, err := NewMatrixBuilder(false).AddDistance("a", "b", 1).Build()
	if err == nil {
		t.Fatalf("expected error for missing b -> a")
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	costs := &EuclideanCosts{Coords: map[string]Coordinate{"0": {}, "1": {X: 1}}}
	veh := []*Vehicle{{ID: "v", LocationID: "0"}}
	cases := []struct {
		name string
		jobs []*Job
		veh  []*Vehicle
	}{
		{"duplicate id", []*Job{{ID: "a", LocationID: "1"}, {ID: "a", LocationID: "1"}}, veh},
		{"negative demand", []*Job{{ID: "a", LocationID: "1", Demand: -1}}, veh},
		{"inverted window", []*Job{{ID: "a", LocationID: "1", TimeWindow: &TimeWindow{Start: 5, End: 2}}}, veh},
		{"unknown location", []*Job{{ID: "a", LocationID: "x"}}, veh},
		{"no vehicles", []*Job{{ID: "a", LocationID: "1"}}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.jobs, tc.veh, Finite, costs); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
	if _, err := New(nil, veh, Finite, nil); err != ErrNoCosts {
		t.Fatalf("want ErrNoCosts, got %v", err)
	}
}

func TestParseInstance(t *testing.T) {
	doc := []byte(`
name: cost-matrix
bestKnownCost: 42
fleetSize: infinite
vehicleTypes:
  - {id: type, capacity: 2, costPerDistance: 1, costPerTime: 2}
vehicles:
  - {id: vehicle, location: "0", type: type}
jobs:
  - {id: "1", location: "1", demand: 1}
  - {id: "2", location: "2", demand: 1, timeWindow: {start: 0, end: 50}}
  - {id: "3", kind: delivery, location: "3", demand: 1, duration: 2}
matrix:
  symmetric: true
  entries:
    - {from: "0", to: "1", distance: 10, time: 5}
    - {from: "0", to: "2", distance: 20, time: 10}
    - {from: "0", to: "3", distance: 5, time: 2.5}
    - {from: "1", to: "2", distance: 4, time: 2}
    - {from: "1", to: "3", distance: 1, time: 0.5}
    - {from: "2", to: "3", distance: 2, time: 1}
`)
	inst, err := Parse(doc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	p := inst.Problem
	if inst.Name != "cost-matrix" || inst.BestKnownCost == nil || *inst.BestKnownCost != 42 {
		t.Fatalf("bad header: %+v", inst)
	}
	if len(p.Jobs()) != 3 || p.Jobs()[0].ID != "1" {
		t.Fatalf("jobs not in file order: %v", p.Jobs())
	}
	if p.FleetSize() != Infinite {
		t.Fatalf("fleet size = %v", p.FleetSize())
	}
	if !p.Vehicles()[0].ReturnToDepot {
		t.Fatalf("returnToDepot should default to true")
	}
	j, ok := p.Job("3")
	if !ok || j.Kind != Delivery || j.Duration != 2 {
		t.Fatalf("job 3 = %+v", j)
	}
	j2, _ := p.Job("2")
	if j2.TimeWindow.Latest() != 50 {
		t.Fatalf("tw latest = %v", j2.TimeWindow.Latest())
	}
}

func TestParseInstanceBindingBounds(t *testing.T) {
	doc := []byte(`
vehicleTypes: [{id: type, capacity: 1}]
vehicles:
  - {id: closed, location: a, type: type, latestArrival: 0}
  - {id: open, location: a, type: type}
jobs:
  - {id: zero, location: a, timeWindow: {start: 0, end: 0}}
  - {id: startOnly, location: a, timeWindow: {start: 3}}
  - {id: none, location: a}
coordinates: {a: [0, 0]}
`)
	inst, err := Parse(doc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	p := inst.Problem
	tests := []struct {
		job      string
		earliest float64
		latest   float64
	}{
		{"zero", 0, 0},
		{"startOnly", 3, math.Inf(1)},
		{"none", 0, math.Inf(1)},
	}
	for _, tt := range tests {
		j, ok := p.Job(tt.job)
		if !ok {
			t.Fatalf("job %s missing", tt.job)
		}
		if got := j.TimeWindow.Earliest(); got != tt.earliest {
			t.Fatalf("%s: earliest = %v, want %v", tt.job, got, tt.earliest)
		}
		if got := j.TimeWindow.Latest(); got != tt.latest {
			t.Fatalf("%s: latest = %v, want %v", tt.job, got, tt.latest)
		}
	}
	if got := p.Vehicles()[0].LatestReturn(); got != 0 {
		t.Fatalf("latestArrival 0 should bind, got %v", got)
	}
	if got := p.Vehicles()[1].LatestReturn(); !math.IsInf(got, 1) {
		t.Fatalf("missing latestArrival should be unbounded, got %v", got)
	}
}

func TestParseInstanceUnknownType(t *testing.T) {
	doc := []byte(`
vehicles: [{id: v, location: a, type: missing}]
coordinates: {a: [0, 0]}
`)
	if _, err := Parse(doc); err == nil {
		t.Fatalf("expected unknown type error")
	}
}

func TestHaversineCosts(t *testing.T) {
	c := &EuclideanCosts{Geo: true, Coords: map[string]Coordinate{
		"phx": {X: -112.074, Y: 33.448},
		"tus": {X: -110.974, Y: 32.222},
	}}
	d := c.Distance("phx", "tus")
	if d < 160000 || d > 180000 {
		t.Fatalf("phoenix-tucson distance = %v m", d)
	}
}
