package opt

import (
	"fmt"
	"math/rand"

	log "github.com/sirupsen/logrus"

	"vrpsearch/internal/config"
	"vrpsearch/internal/metrics"
	"vrpsearch/internal/problem"
)

// NewSearch assembles a Search for p from an algorithm configuration. All
// randomness, in the driver and in every ruin strategy, comes from rng.
func NewSearch(p *problem.Problem, cfg config.Algorithm, rng *rand.Rand, m *metrics.Solver, l log.FieldLogger) (*Search, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if l == nil {
		l = log.StandardLogger()
	}
	var ins Inserter
	switch cfg.Insertion {
	case config.InsertionRegret:
		ins = NewRegretInsertion(p, m, l)
	default:
		ins = NewBestInsertion(p, m, l)
	}
	s := &Search{
		Problem:     p,
		Initial:     &InitialSolutionBuilder{Inserter: ins, OpenAllVehicles: cfg.OpenAllVehicles, Logger: l},
		Inserter:    ins,
		Rand:        rng,
		Iterations:  cfg.Iterations,
		TimeBudget:  cfg.TimeBudget,
		InitialTemp: cfg.Acceptance.InitialTemp,
		Cooling:     cfg.Acceptance.Cooling,
		LocalSearch: cfg.LocalSearch,
		Listeners:   &Listeners{},
		Metrics:     m,
		Logger:      l,
	}
	opts := []RuinOption{WithMetrics(m), WithLogger(l)}
	for i, rc := range cfg.Ruins {
		var (
			st  Strategy
			err error
		)
		switch rc.Kind {
		case config.RuinRadial:
			var rr *RadialRuin
			if rr, err = NewRadialRuin(p, rc.Fraction, rng, opts...); err == nil {
				rr.TimeWeight = rc.TimeWeight
				st = rr
			}
		default:
			st, err = NewRandomRuin(p, rc.Fraction, rng, opts...)
		}
		if err != nil {
			return nil, fmt.Errorf("new search: ruin %d: %w", i, err)
		}
		s.Strategies = append(s.Strategies, WeightedStrategy{Strategy: st, Weight: rc.Weight})
	}
	return s, nil
}
