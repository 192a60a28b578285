package events

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"vrpsearch/internal/opt"
	"vrpsearch/internal/problem"
	"vrpsearch/internal/route"
)

// Notifier is a search listener that publishes start and end events for one
// run. Publish failures are logged and never interrupt the search.
type Notifier struct {
	Broker   Broker
	Instance string
	RunID    string
	Logger   log.FieldLogger
	// Timeout bounds each publish. Zero means two seconds.
	Timeout time.Duration
}

var (
	_ opt.SearchStartsListener = (*Notifier)(nil)
	_ opt.SearchEndsListener   = (*Notifier)(nil)
)

func (n *Notifier) SearchStarts(_ *problem.Problem, _ *opt.Search, sols []*route.Solution) {
	n.publish(TypeSearchStarted, sols)
}

func (n *Notifier) SearchEnds(_ *problem.Problem, _ *opt.Search, sols []*route.Solution) {
	n.publish(TypeSearchFinished, sols)
}

func (n *Notifier) publish(typ string, sols []*route.Solution) {
	evt := Event{Type: typ, RunID: n.RunID, Instance: n.Instance, TS: time.Now().UTC()}
	if len(sols) > 0 && sols[0] != nil {
		evt.Cost = sols[0].Cost()
		evt.Routes = sols[0].ActiveRoutes()
		evt.Unassigned = len(sols[0].Unassigned())
	}
	timeout := n.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := n.Broker.Publish(ctx, n.Instance, evt); err != nil {
		logger := n.Logger
		if logger == nil {
			logger = log.StandardLogger()
		}
		logger.WithError(err).WithFields(log.Fields{"instance": n.Instance, "run": n.RunID}).Warn("event publish failed")
	}
}
