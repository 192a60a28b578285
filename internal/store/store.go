package store

import (
	"context"
	"errors"
	"time"
)

// Result is the summary of one benchmark: repeated searches on one instance.
type Result struct {
	ID        string    `json:"id"`
	Instance  string    `json:"instance"`
	Algorithm string    `json:"algorithm"`
	Runs      int       `json:"runs"`
	CreatedAt time.Time `json:"createdAt"`

	CostMin    float64 `json:"costMin"`
	CostMean   float64 `json:"costMean"`
	CostMax    float64 `json:"costMax"`
	CostStdDev float64 `json:"costStdDev"`

	VehiclesMin  int     `json:"vehiclesMin"`
	VehiclesMean float64 `json:"vehiclesMean"`
	VehiclesMax  int     `json:"vehiclesMax"`

	TimeMeanSec   float64 `json:"timeMeanSec"`
	UnassignedMax int     `json:"unassignedMax"`

	BestKnownCost *float64 `json:"bestKnownCost,omitempty"`
	// DeltaPct is the mean cost relative to the best known cost, in percent.
	DeltaPct *float64 `json:"deltaPct,omitempty"`
	// Weights are the final strategy weights of the cheapest run.
	Weights map[string]float64 `json:"weights,omitempty"`
}

// Writer receives finished benchmark results.
type Writer interface {
	SaveResult(ctx context.Context, r Result) error
}

// Store is the persistence interface used by the benchmark harness and the API
// server.
type Store interface {
	Writer
	GetResult(ctx context.Context, id string) (Result, error)
	// ListResults returns results newest first. An empty instance lists all.
	ListResults(ctx context.Context, instance string, limit int) ([]Result, error)
}

var ErrNotFound = errors.New("not found")

func clampLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 100
	}
	return limit
}
