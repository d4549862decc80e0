package attendance

import (
	"testing"

	"github.com/verte-zerg/bunk/internal/model"
)

func TestFindDrift(t *testing.T) {
	sem := model.Semester{
		Subjects: []model.Subject{
			{ID: "ml", Name: "Machine Learning", ConductedClasses: 2, ClassesAttended: 1, FixedTotalClasses: 75},
			{ID: "dbms", Name: "Database Management Systems", ConductedClasses: 19, ClassesAttended: 15, FixedTotalClasses: 60},
		},
		DailyRecords: map[string]model.DailyRecord{
			"2026-02-02": {"ml": model.Present, "dbms": model.Absent},
			"2026-02-03": {"ml": model.Absent, "gone": model.Present},
			"2026-02-04": {"ml": model.NoClass},
		},
	}
	drift := FindDrift(sem)
	if len(drift) != 1 {
		t.Fatalf("expected 1 drifting subject, got %d", len(drift))
	}
	d := drift[0]
	if d.Subject.ID != "dbms" {
		t.Fatalf("expected dbms to drift, got %s", d.Subject.ID)
	}
	if d.LogConducted != 1 || d.LogAttended != 0 || d.ConductedDelta != 18 || d.AttendedDelta != 15 {
		t.Fatalf("unexpected drift: %+v", d)
	}
}

func TestRunningPercentages(t *testing.T) {
	records := map[string]model.DailyRecord{
		"2026-02-03": {"ml": model.Absent},
		"2026-02-02": {"ml": model.Present},
		"2026-02-04": {"ml": model.NoClass},
		"2026-02-05": {"ml": model.Present},
	}
	got := RunningPercentages(records, "ml")
	want := []float64{100, 50, 100 * 2.0 / 3.0}
	if len(got) != len(want) {
		t.Fatalf("expected %d points, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("point %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}
