package attendance

import (
	"math/rand"
	"testing"

	"github.com/verte-zerg/bunk/internal/model"
)

var allStatuses = []model.Status{model.Present, model.Absent, model.NoClass}

func TestStatusDeltaTable(t *testing.T) {
	tests := []struct {
		from, to model.Status
		want     Delta
	}{
		{model.NoClass, model.Present, Delta{Attend: 1, Conduct: 1}},
		{model.NoClass, model.Absent, Delta{Conduct: 1}},
		{model.Present, model.NoClass, Delta{Attend: -1, Conduct: -1}},
		{model.Absent, model.NoClass, Delta{Conduct: -1}},
		{model.Present, model.Absent, Delta{Attend: -1}},
		{model.Absent, model.Present, Delta{Attend: 1}},
		{model.Present, model.Present, Delta{}},
	}
	for _, tt := range tests {
		if got := StatusDelta(tt.from, tt.to); got != tt.want {
			t.Fatalf("%s -> %s: expected %+v, got %+v", tt.from, tt.to, tt.want, got)
		}
	}
}

func TestReconcilePresentToAbsent(t *testing.T) {
	got := Reconcile(model.Present, model.Absent, model.Counters{Conducted: 10, Attended: 8, FixedTotal: 60})
	want := model.Counters{Conducted: 10, Attended: 7, FixedTotal: 60}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestReconcileSameStatusIsNoop(t *testing.T) {
	counters := []model.Counters{
		{Conducted: 0, Attended: 0, FixedTotal: 1},
		{Conducted: 10, Attended: 8, FixedTotal: 60},
		{Conducted: 60, Attended: 60, FixedTotal: 60},
	}
	for _, c := range counters {
		for _, s := range allStatuses {
			if got := Reconcile(s, s, c); got != c {
				t.Fatalf("%s -> %s on %+v: expected unchanged, got %+v", s, s, c, got)
			}
		}
	}
}

func TestReconcileRoundTrip(t *testing.T) {
	c := model.Counters{Conducted: 19, Attended: 16, FixedTotal: 60}
	marked := Reconcile(model.NoClass, model.Present, c)
	if marked.Conducted != 20 || marked.Attended != 17 {
		t.Fatalf("unexpected counters after marking present: %+v", marked)
	}
	if back := Reconcile(model.Present, model.NoClass, marked); back != c {
		t.Fatalf("expected round trip to %+v, got %+v", c, back)
	}
}

func TestReconcileClampsAtFixedTotal(t *testing.T) {
	full := model.Counters{Conducted: 45, Attended: 40, FixedTotal: 45}
	got := Reconcile(model.NoClass, model.Present, full)
	if got.Conducted != 45 {
		t.Fatalf("expected conducted clamped to 45, got %d", got.Conducted)
	}
	if got.Attended != 41 {
		t.Fatalf("expected attended 41, got %d", got.Attended)
	}
}

func TestReconcileClampsAtZero(t *testing.T) {
	empty := model.Counters{FixedTotal: 10}
	got := Reconcile(model.Present, model.NoClass, empty)
	if got != empty {
		t.Fatalf("expected zero counters, got %+v", got)
	}
	got = Reconcile(model.Absent, model.Present, empty)
	if got.Attended > got.Conducted {
		t.Fatalf("attended exceeds conducted: %+v", got)
	}
}

func TestReconcileKeepsInvariantsOverRandomSequences(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	for run := 0; run < 200; run++ {
		total := 1 + rnd.Intn(30)
		c := model.Counters{FixedTotal: total}
		days := map[int]model.Status{}
		for step := 0; step < 300; step++ {
			day := rnd.Intn(total + 10)
			old, ok := days[day]
			if !ok {
				old = model.NoClass
			}
			next := allStatuses[rnd.Intn(len(allStatuses))]
			c = Reconcile(old, next, c)
			days[day] = next
			if err := CheckCounters(c); err != nil {
				t.Fatalf("run %d step %d: %v (%+v)", run, step, err, c)
			}
		}
	}
}

func TestReconcileMatchesLogWithinTotal(t *testing.T) {
	rnd := rand.New(rand.NewSource(11))
	const total = 500
	c := model.Counters{FixedTotal: total}
	records := map[string]model.DailyRecord{}
	dates := []string{"2026-01-05", "2026-01-06", "2026-01-07", "2026-01-08", "2026-01-09"}
	for step := 0; step < 1000; step++ {
		date := dates[rnd.Intn(len(dates))]
		rec, ok := records[date]
		if !ok {
			rec = model.DailyRecord{}
			records[date] = rec
		}
		old, ok := rec["ml"]
		if !ok {
			old = model.NoClass
		}
		next := allStatuses[rnd.Intn(len(allStatuses))]
		c = Reconcile(old, next, c)
		rec["ml"] = next

		attended, conducted := Tally(records, "ml")
		if attended != c.Attended || conducted != c.Conducted {
			t.Fatalf("step %d: counters %+v diverged from log %d/%d", step, c, attended, conducted)
		}
	}
}
