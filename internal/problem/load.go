package problem

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Instance is a named problem plus optional reference figures for benchmarking.
type Instance struct {
	Name              string
	Problem           *Problem
	BestKnownCost     *float64
	BestKnownVehicles *float64
}

type instanceFile struct {
	Name              string                `yaml:"name"`
	BestKnownCost     *float64              `yaml:"bestKnownCost"`
	BestKnownVehicles *float64              `yaml:"bestKnownVehicles"`
	FleetSize         string                `yaml:"fleetSize"`
	VehicleTypes      []vehicleTypeEntry    `yaml:"vehicleTypes"`
	Vehicles          []vehicleEntry        `yaml:"vehicles"`
	Jobs              []jobEntry            `yaml:"jobs"`
	Matrix            *matrixEntry          `yaml:"matrix"`
	Coordinates       map[string][2]float64 `yaml:"coordinates"`
	Speed             float64               `yaml:"speed"`
	Geo               bool                  `yaml:"geo"`
}

type vehicleTypeEntry struct {
	ID              string  `yaml:"id"`
	Capacity        int     `yaml:"capacity"`
	FixedCost       float64 `yaml:"fixedCost"`
	CostPerDistance float64 `yaml:"costPerDistance"`
	CostPerTime     float64 `yaml:"costPerTime"`
}

type vehicleEntry struct {
	ID            string  `yaml:"id"`
	Location      string  `yaml:"location"`
	Type          string  `yaml:"type"`
	EarliestStart float64  `yaml:"earliestStart"`
	LatestArrival *float64 `yaml:"latestArrival"`
	ReturnToDepot *bool    `yaml:"returnToDepot"`
}

type jobEntry struct {
	ID         string  `yaml:"id"`
	Kind       string  `yaml:"kind"`
	Location   string  `yaml:"location"`
	Demand     int     `yaml:"demand"`
	Duration   float64 `yaml:"duration"`
	TimeWindow *struct {
		Start float64  `yaml:"start"`
		End   *float64 `yaml:"end"`
	} `yaml:"timeWindow"`
}

type matrixEntry struct {
	Symmetric bool `yaml:"symmetric"`
	Entries   []struct {
		From     string  `yaml:"from"`
		To       string  `yaml:"to"`
		Distance float64 `yaml:"distance"`
		Time     float64 `yaml:"time"`
	} `yaml:"entries"`
}

// Load reads a YAML instance file. The file name (without extension) is the
// fallback instance name.
func Load(path string) (*Instance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load instance: %w", err)
	}
	inst, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load instance %s: %w", path, err)
	}
	if inst.Name == "" {
		inst.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return inst, nil
}

func Parse(data []byte) (*Instance, error) {
	var f instanceFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse instance: %w", err)
	}
	fleet, err := ParseFleetSize(f.FleetSize)
	if err != nil {
		return nil, err
	}
	costs, err := f.costs()
	if err != nil {
		return nil, err
	}
	types := make(map[string]*VehicleType, len(f.VehicleTypes))
	for _, t := range f.VehicleTypes {
		types[t.ID] = &VehicleType{ID: t.ID, Capacity: t.Capacity, FixedCost: t.FixedCost, CostPerDistance: t.CostPerDistance, CostPerTime: t.CostPerTime}
	}
	vehicles := make([]*Vehicle, 0, len(f.Vehicles))
	for _, v := range f.Vehicles {
		vt, ok := types[v.Type]
		if !ok {
			return nil, fmt.Errorf("parse instance: vehicle %s: unknown type %q", v.ID, v.Type)
		}
		ret := true
		if v.ReturnToDepot != nil {
			ret = *v.ReturnToDepot
		}
		vehicles = append(vehicles, &Vehicle{ID: v.ID, LocationID: v.Location, Type: vt, EarliestStart: v.EarliestStart, LatestArrival: v.LatestArrival, ReturnToDepot: ret})
	}
	jobs := make([]*Job, 0, len(f.Jobs))
	for _, j := range f.Jobs {
		kind, err := ParseJobKind(j.Kind)
		if err != nil {
			return nil, fmt.Errorf("parse instance: job %s: %w", j.ID, err)
		}
		job := &Job{ID: j.ID, Kind: kind, LocationID: j.Location, Demand: j.Demand, Duration: j.Duration}
		if j.TimeWindow != nil {
			end := math.Inf(1)
			if j.TimeWindow.End != nil {
				end = *j.TimeWindow.End
			}
			job.TimeWindow = &TimeWindow{Start: j.TimeWindow.Start, End: end}
		}
		jobs = append(jobs, job)
	}
	p, err := New(jobs, vehicles, fleet, costs)
	if err != nil {
		return nil, err
	}
	return &Instance{Name: f.Name, Problem: p, BestKnownCost: f.BestKnownCost, BestKnownVehicles: f.BestKnownVehicles}, nil
}

func (f *instanceFile) costs() (TransportCosts, error) {
	switch {
	case f.Matrix != nil && len(f.Coordinates) > 0:
		return nil, fmt.Errorf("parse instance: matrix and coordinates are mutually exclusive")
	case f.Matrix != nil:
		b := NewMatrixBuilder(f.Matrix.Symmetric)
		for _, e := range f.Matrix.Entries {
			b.AddDistance(e.From, e.To, e.Distance).AddTime(e.From, e.To, e.Time)
		}
		return b.Build()
	case len(f.Coordinates) > 0:
		coords := make(map[string]Coordinate, len(f.Coordinates))
		for id, xy := range f.Coordinates {
			coords[id] = Coordinate{X: xy[0], Y: xy[1]}
		}
		return &EuclideanCosts{Coords: coords, Speed: f.Speed, Geo: f.Geo}, nil
	}
	return nil, ErrNoCosts
}
