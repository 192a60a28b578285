package route

import (
	"fmt"

	"vrpsearch/internal/problem"
)

// Kind discriminates the activity variants that can appear in a route.
type Kind int

const (
	KindService Kind = iota
	KindPickup
	KindDelivery
	KindStart
	KindEnd
)

func (k Kind) String() string {
	switch k {
	case KindService:
		return "service"
	case KindPickup:
		return "pickup"
	case KindDelivery:
		return "delivery"
	case KindStart:
		return "start"
	case KindEnd:
		return "end"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Activity is one stop of a route. Arrival and end times are cached values
// written by the Updater; they are stale between a structural change and the
// next Update call.
type Activity interface {
	Kind() Kind
	// Job is nil for depot terminals.
	Job() *problem.Job
	LocationID() string
	Duration() float64
	Demand() int
	EarliestStart() float64
	LatestStart() float64
	ArrTime() float64
	EndTime() float64
	SetArrTime(float64)
	SetEndTime(float64)
	// Duplicate returns an independent copy carrying the same cached times.
	Duplicate() Activity
}

// SameJob reports whether a and b stand for the same job. Cached times are
// not compared.
func SameJob(a, b Activity) bool {
	if a == nil || b == nil {
		return false
	}
	ja, jb := a.Job(), b.Job()
	return ja != nil && jb != nil && ja.ID == jb.ID
}

// JobActivity is the activity produced by a service, pickup or delivery job.
type JobActivity struct {
	kind    Kind
	job     *problem.Job
	arrTime float64
	endTime float64
}

// NewJobActivity derives the activity variant from the job kind.
func NewJobActivity(job *problem.Job) *JobActivity {
	return &JobActivity{kind: kindOf(job.Kind), job: job}
}

func kindOf(k problem.JobKind) Kind {
	switch k {
	case problem.Pickup:
		return KindPickup
	case problem.Delivery:
		return KindDelivery
	default:
		return KindService
	}
}

func (a *JobActivity) Kind() Kind {
	return a.kind
}

func (a *JobActivity) Job() *problem.Job {
	return a.job
}

func (a *JobActivity) LocationID() string {
	return a.job.LocationID
}

func (a *JobActivity) Duration() float64 {
	return a.job.Duration
}

func (a *JobActivity) Demand() int {
	return a.job.Demand
}

func (a *JobActivity) EarliestStart() float64 {
	return a.job.TimeWindow.Earliest()
}

func (a *JobActivity) LatestStart() float64 {
	return a.job.TimeWindow.Latest()
}

func (a *JobActivity) ArrTime() float64 {
	return a.arrTime
}

func (a *JobActivity) EndTime() float64 {
	return a.endTime
}

func (a *JobActivity) SetArrTime(t float64) {
	a.arrTime = t
}

func (a *JobActivity) SetEndTime(t float64) {
	a.endTime = t
}

func (a *JobActivity) Duplicate() Activity {
	cp := *a
	return &cp
}

func (a *JobActivity) String() string {
	return fmt.Sprintf("[type=%s][job=%s][arr=%.2f][end=%.2f]", a.kind, a.job.ID, a.arrTime, a.endTime)
}

// Terminal is the start or end depot of a route.
type Terminal struct {
	kind     Kind
	location string
	earliest float64
	latest   float64
	arrTime  float64
	endTime  float64
}

func newStart(v *problem.Vehicle) *Terminal {
	return &Terminal{kind: KindStart, location: v.LocationID, earliest: v.EarliestStart, latest: v.LatestReturn()}
}

func newEnd(v *problem.Vehicle) *Terminal {
	return &Terminal{kind: KindEnd, location: v.LocationID, earliest: v.EarliestStart, latest: v.LatestReturn()}
}

func (t *Terminal) Kind() Kind {
	return t.kind
}

func (t *Terminal) Job() *problem.Job {
	return nil
}

func (t *Terminal) LocationID() string {
	return t.location
}

func (t *Terminal) Duration() float64 {
	return 0
}

func (t *Terminal) Demand() int {
	return 0
}

func (t *Terminal) EarliestStart() float64 {
	return t.earliest
}

func (t *Terminal) LatestStart() float64 {
	return t.latest
}

func (t *Terminal) ArrTime() float64 {
	return t.arrTime
}

func (t *Terminal) EndTime() float64 {
	return t.endTime
}

func (t *Terminal) SetArrTime(v float64) {
	t.arrTime = v
}

func (t *Terminal) SetEndTime(v float64) {
	t.endTime = v
}

func (t *Terminal) Duplicate() Activity {
	cp := *t
	return &cp
}
