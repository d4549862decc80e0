package attendance

import "github.com/verte-zerg/bunk/internal/model"

// Delta is a signed change to the attended and conducted counters.
type Delta struct {
	Attend  int
	Conduct int
}

// contribution is what a status adds to the counters when it is recorded.
func contribution(s model.Status) Delta {
	switch s {
	case model.Present:
		return Delta{Attend: 1, Conduct: 1}
	case model.Absent:
		return Delta{Conduct: 1}
	default:
		return Delta{}
	}
}

// StatusDelta undoes the old status and applies the new one as a single delta.
func StatusDelta(oldStatus, newStatus model.Status) Delta {
	if oldStatus == newStatus {
		return Delta{}
	}
	undo := contribution(oldStatus)
	apply := contribution(newStatus)
	return Delta{
		Attend:  apply.Attend - undo.Attend,
		Conduct: apply.Conduct - undo.Conduct,
	}
}

// Reconcile returns the counters after a day's status changes from oldStatus
// to newStatus. Equal statuses leave the counters untouched.
func Reconcile(oldStatus, newStatus model.Status, c model.Counters) model.Counters {
	if oldStatus == newStatus {
		return c
	}
	return Apply(c, StatusDelta(oldStatus, newStatus))
}

// Apply adds d to c. Conducted is clamped to [0, FixedTotal] first and
// attended is then clamped to [0, new conducted].
func Apply(c model.Counters, d Delta) model.Counters {
	conducted := clamp(c.Conducted+d.Conduct, 0, c.FixedTotal)
	attended := clamp(c.Attended+d.Attend, 0, conducted)
	return model.Counters{
		Conducted:  conducted,
		Attended:   attended,
		FixedTotal: c.FixedTotal,
	}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
