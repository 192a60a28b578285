package problem

import (
	"fmt"
	"math"
)

// VehicleType carries capacity and the cost coefficients shared by vehicles.
type VehicleType struct {
	ID              string
	Capacity        int
	FixedCost       float64
	CostPerDistance float64
	CostPerTime     float64
}

type Vehicle struct {
	ID            string
	LocationID    string
	Type          *VehicleType
	EarliestStart float64
	LatestArrival *float64 // nil means unbounded
	ReturnToDepot bool
}

// LatestReturn returns the latest arrival at the home location, +Inf if unbounded.
func (v *Vehicle) LatestReturn() float64 {
	if v.LatestArrival == nil {
		return math.Inf(1)
	}
	return *v.LatestArrival
}

// Capacity returns the type capacity; vehicles without a type are uncapacitated.
func (v *Vehicle) Capacity() int {
	if v.Type == nil {
		return math.MaxInt
	}
	return v.Type.Capacity
}

func (v *Vehicle) String() string {
	return fmt.Sprintf("[id=%s][loc=%s]", v.ID, v.LocationID)
}

// Driver is optional; routes without one use NoDriver.
type Driver struct {
	ID string
}

// NoDriver is the driver of routes that have none assigned.
var NoDriver = &Driver{ID: "noDriver"}

// FleetSize is the policy governing how often a vehicle may be used.
type FleetSize int

const (
	// Finite allows each vehicle at most one route.
	Finite FleetSize = iota
	// Infinite treats vehicles as templates that can back any number of routes.
	Infinite
)

func (f FleetSize) String() string {
	if f == Infinite {
		return "infinite"
	}
	return "finite"
}

func ParseFleetSize(s string) (FleetSize, error) {
	switch s {
	case "", "finite":
		return Finite, nil
	case "infinite":
		return Infinite, nil
	}
	return Finite, fmt.Errorf("unknown fleet size %q", s)
}
