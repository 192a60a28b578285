package route

import "vrpsearch/internal/problem"

// Remover detaches a job from a route without recomputing route state.
type Remover interface {
	RemoveJob(job *problem.Job, r *Route) bool
}

// JobRemover is the default Remover.
type JobRemover struct{}

// RemoveJob drops the activity of job from r and reports whether it was
// there. A miss leaves r untouched. Cost and times stay stale until the next
// Updater.Update.
func (JobRemover) RemoveJob(job *problem.Job, r *Route) bool {
	if job == nil {
		return false
	}
	i := r.indexOf(job)
	if i < 0 {
		return false
	}
	r.removeAt(i)
	return true
}
