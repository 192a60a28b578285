package opt

import (
	"math"

	log "github.com/sirupsen/logrus"

	"vrpsearch/internal/problem"
	"vrpsearch/internal/route"
)

// InitialSolutionBuilder constructs the starting solution by handing every job
// to an Inserter.
type InitialSolutionBuilder struct {
	Inserter Inserter
	// OpenAllVehicles pre-opens one empty route per vehicle. Otherwise no route
	// exists up front and the Inserter opens them on demand.
	OpenAllVehicles bool
	Logger          log.FieldLogger
}

// Build never fails on a well-formed problem. Jobs the Inserter cannot place
// end up in the solution's unassigned list.
func (b *InitialSolutionBuilder) Build(p *problem.Problem) *route.Solution {
	logger := b.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	logger.Info("create initial solution")
	var routes []*route.Route
	if b.OpenAllVehicles {
		for _, v := range p.Vehicles() {
			routes = append(routes, route.NewRoute(v, nil))
		}
	}
	jobs := append([]*problem.Job(nil), p.Jobs()...)
	routes, unassigned := b.Inserter.Insert(routes, jobs, math.Inf(1))
	s := route.NewSolution(routes, unassigned)
	for _, j := range unassigned {
		logger.WithField("job", j.ID).Warn("job could not be placed in the initial solution")
	}
	logger.WithFields(log.Fields{
		"cost":       s.Cost(),
		"routes":     s.ActiveRoutes(),
		"unassigned": len(unassigned),
	}).Info("initial solution created")
	return s
}
