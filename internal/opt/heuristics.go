package opt

import "vrpsearch/internal/route"

// TwoOpt improves a single route by reversing segments while that lowers the
// route cost and keeps it feasible.
type TwoOpt struct {
	Updater *route.Updater
	// MaxPasses bounds the number of full sweeps. Zero means one pass.
	MaxPasses int
}

// Improve reorders r in place and reports whether anything changed. Route
// state is recomputed once at the end when it did.
func (o TwoOpt) Improve(r *route.Route) bool {
	n := r.Len()
	if n < 3 || !r.Feasible() {
		return false
	}
	passes := o.MaxPasses
	if passes <= 0 {
		passes = 1
	}
	best := r.Cost()
	changed := false
	cand := make([]route.Activity, n)
	for it := 0; it < passes; it++ {
		improved := false
		for i := 0; i < n-1; i++ {
			for k := i + 1; k < n; k++ {
				twoOptSwap(cand, r.Activities(), i, k)
				s := o.Updater.Evaluate(r.Vehicle(), r.Driver(), cand)
				if s.Feasible && s.Cost+1e-6 < best {
					r.Reverse(i, k)
					best = s.Cost
					improved = true
				}
			}
		}
		if !improved {
			break
		}
		changed = true
	}
	if changed {
		o.Updater.Update(r)
	}
	return changed
}

// twoOptSwap writes ord with [i,k] reversed into out.
func twoOptSwap(out, ord []route.Activity, i, k int) {
	copy(out, ord[:i])
	pos := i
	for j := k; j >= i; j-- {
		out[pos] = ord[j]
		pos++
	}
	copy(out[pos:], ord[k+1:])
}
