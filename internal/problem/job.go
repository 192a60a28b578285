package problem

import (
	"fmt"
	"math"
)

// JobKind tells the route layer which activity variant a job produces.
type JobKind int

const (
	Service JobKind = iota
	Pickup
	Delivery
)

func (k JobKind) String() string {
	switch k {
	case Service:
		return "service"
	case Pickup:
		return "pickup"
	case Delivery:
		return "delivery"
	}
	return fmt.Sprintf("JobKind(%d)", int(k))
}

// ParseJobKind maps the instance-file spelling of a kind. Empty means service.
func ParseJobKind(s string) (JobKind, error) {
	switch s {
	case "", "service":
		return Service, nil
	case "pickup":
		return Pickup, nil
	case "delivery":
		return Delivery, nil
	}
	return Service, fmt.Errorf("unknown job kind %q", s)
}

// TimeWindow bounds the start of an operation. Both ends are binding, so
// End 0 allows a start at time 0 only. A nil *TimeWindow is unbounded.
type TimeWindow struct {
	Start float64
	End   float64
}

// Earliest returns the earliest allowed start, 0 for a nil window.
func (tw *TimeWindow) Earliest() float64 {
	if tw == nil {
		return 0
	}
	return tw.Start
}

// Latest returns the latest allowed start, +Inf for a nil window.
func (tw *TimeWindow) Latest() float64 {
	if tw == nil {
		return math.Inf(1)
	}
	return tw.End
}

// Job is a unit of demand. Jobs are shared by pointer and must not be
// modified once the Problem is built.
type Job struct {
	ID         string
	Kind       JobKind
	LocationID string
	Demand     int
	Duration   float64
	TimeWindow *TimeWindow
}

func (j *Job) String() string {
	return fmt.Sprintf("[id=%s][kind=%s][loc=%s][demand=%d]", j.ID, j.Kind, j.LocationID, j.Demand)
}

func (j *Job) validate() error {
	if j.ID == "" {
		return fmt.Errorf("job: empty id")
	}
	if j.LocationID == "" {
		return fmt.Errorf("job %s: empty location", j.ID)
	}
	if j.Demand < 0 {
		return fmt.Errorf("job %s: negative demand %d", j.ID, j.Demand)
	}
	if j.Duration < 0 {
		return fmt.Errorf("job %s: negative duration %v", j.ID, j.Duration)
	}
	if j.TimeWindow != nil && j.TimeWindow.End < j.TimeWindow.Start {
		return fmt.Errorf("job %s: time window end %v before start %v", j.ID, j.TimeWindow.End, j.TimeWindow.Start)
	}
	return nil
}
