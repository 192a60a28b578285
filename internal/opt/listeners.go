package opt

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"vrpsearch/internal/problem"
	"vrpsearch/internal/route"
)

// Priority orders listener dispatch; higher runs first.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	default:
		return "low"
	}
}

var ErrNotListener = errors.New("listeners: value implements no listener interface")

type SearchStartsListener interface {
	SearchStarts(p *problem.Problem, s *Search, solutions []*route.Solution)
}

type SearchEndsListener interface {
	SearchEnds(p *problem.Problem, s *Search, solutions []*route.Solution)
}

type IterationEndsListener interface {
	IterationEnds(i int, p *problem.Problem, solutions []*route.Solution)
}

type registered struct {
	l    any
	prio Priority
	seq  int
}

// Listeners is a priority-ordered registry of lifecycle listeners. A listener
// may implement any subset of the listener interfaces.
type Listeners struct {
	mu      sync.RWMutex
	entries []registered
	seq     int
}

func (ls *Listeners) Add(l any, prio Priority) error {
	switch l.(type) {
	case SearchStartsListener, SearchEndsListener, IterationEndsListener:
	default:
		return fmt.Errorf("%w: %T", ErrNotListener, l)
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.entries = append(ls.entries, registered{l: l, prio: prio, seq: ls.seq})
	ls.seq++
	sort.SliceStable(ls.entries, func(i, j int) bool {
		if ls.entries[i].prio != ls.entries[j].prio {
			return ls.entries[i].prio > ls.entries[j].prio
		}
		return ls.entries[i].seq < ls.entries[j].seq
	})
	return nil
}

func (ls *Listeners) Len() int {
	if ls == nil {
		return 0
	}
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	return len(ls.entries)
}

func (ls *Listeners) snapshot() []registered {
	if ls == nil {
		return nil
	}
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	return append([]registered(nil), ls.entries...)
}

func (ls *Listeners) searchStarts(p *problem.Problem, s *Search, sols []*route.Solution) {
	for _, e := range ls.snapshot() {
		if l, ok := e.l.(SearchStartsListener); ok {
			l.SearchStarts(p, s, sols)
		}
	}
}

func (ls *Listeners) searchEnds(p *problem.Problem, s *Search, sols []*route.Solution) {
	for _, e := range ls.snapshot() {
		if l, ok := e.l.(SearchEndsListener); ok {
			l.SearchEnds(p, s, sols)
		}
	}
}

func (ls *Listeners) iterationEnds(i int, p *problem.Problem, sols []*route.Solution) {
	for _, e := range ls.snapshot() {
		if l, ok := e.l.(IterationEndsListener); ok {
			l.IterationEnds(i, p, sols)
		}
	}
}

// StopWatch measures the wall time of a search.
type StopWatch struct {
	Logger log.FieldLogger
	now    func() time.Time

	mu      sync.Mutex
	started time.Time
	ran     time.Duration
}

func NewStopWatch(l log.FieldLogger) *StopWatch {
	return &StopWatch{Logger: l, now: time.Now}
}

func (w *StopWatch) SearchStarts(_ *problem.Problem, _ *Search, _ []*route.Solution) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ran = 0
	w.started = w.clock()
}

func (w *StopWatch) SearchEnds(_ *problem.Problem, _ *Search, _ []*route.Solution) {
	w.mu.Lock()
	w.ran = w.clock().Sub(w.started)
	ran := w.ran
	w.mu.Unlock()
	if w.Logger != nil {
		w.Logger.WithField("seconds", ran.Seconds()).Info("computation time")
	}
}

// Elapsed is the duration of the last completed search.
func (w *StopWatch) Elapsed() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ran
}

func (w *StopWatch) clock() time.Time {
	if w.now == nil {
		return time.Now()
	}
	return w.now()
}
