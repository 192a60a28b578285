package opt

import (
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"vrpsearch/internal/problem"
	"vrpsearch/internal/route"
)

// ProgressLogger reports the best solution at most once per interval.
type ProgressLogger struct {
	logger  log.FieldLogger
	limiter *rate.Limiter
}

func NewProgressLogger(l log.FieldLogger, every time.Duration) *ProgressLogger {
	if l == nil {
		l = log.StandardLogger()
	}
	return &ProgressLogger{logger: l, limiter: rate.NewLimiter(rate.Every(every), 1)}
}

func (p *ProgressLogger) IterationEnds(i int, _ *problem.Problem, solutions []*route.Solution) {
	if !p.limiter.Allow() {
		return
	}
	f := log.Fields{"iteration": i}
	if len(solutions) > 0 && solutions[0] != nil {
		f["cost"] = solutions[0].Cost()
		f["routes"] = solutions[0].ActiveRoutes()
		f["unassigned"] = len(solutions[0].Unassigned())
	}
	p.logger.WithFields(f).Info("search progress")
}
