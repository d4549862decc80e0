package stats

import (
	"context"
	"sort"

	"github.com/verte-zerg/bunk/internal/attendance"
	"github.com/verte-zerg/bunk/internal/model"
	"github.com/verte-zerg/bunk/internal/store"
)

// Row is one subject with its derived stats and running-percentage trend.
type Row struct {
	Subject model.Subject         `json:"subject"`
	Stats   model.AttendanceStats `json:"stats"`
	Trend   []float64             `json:"trend,omitempty"`
}

// Report contains precomputed data for stats rendering.
type Report struct {
	SemesterID   string `json:"semesterId"`
	SemesterName string `json:"semesterName"`
	Rows         []Row  `json:"subjects"`
	Attended     int    `json:"attended"`
	Conducted    int    `json:"conducted"`
	LoggedDays   int    `json:"loggedDays"`
}

// BuildReport loads a semester and prepares it for rendering.
func BuildReport(ctx context.Context, st *store.Store, semesterID string) (Report, error) {
	sem, err := st.LoadSemester(ctx, semesterID)
	if err != nil {
		return Report{}, err
	}
	return NewReport(sem), nil
}

// NewReport derives a report from a semester snapshot.
func NewReport(sem model.Semester) Report {
	report := Report{
		SemesterID:   sem.ID,
		SemesterName: sem.Name,
		Rows:         make([]Row, 0, len(sem.Subjects)),
		LoggedDays:   len(sem.DailyRecords),
	}
	for _, sub := range sem.Subjects {
		report.Rows = append(report.Rows, Row{
			Subject: sub,
			Stats:   attendance.ForSubject(sub),
			Trend:   attendance.RunningPercentages(sem.DailyRecords, sub.ID),
		})
		report.Attended += sub.ClassesAttended
		report.Conducted += sub.ConductedClasses
	}
	return report
}

// Overall is the running percentage across all subjects.
func (r Report) Overall() float64 {
	if r.Conducted == 0 {
		return 100
	}
	return float64(r.Attended) / float64(r.Conducted) * 100
}

// AtRisk returns up to n subjects that are not safe, the ones needing the
// most classes first. n <= 0 returns all of them.
func AtRisk(rows []Row, n int) []Row {
	var risky []Row
	for _, row := range rows {
		if row.Stats.Level != model.Safe {
			risky = append(risky, row)
		}
	}
	sort.SliceStable(risky, func(i, j int) bool {
		a, b := risky[i].Stats, risky[j].Stats
		if a.Reachable != b.Reachable {
			return !a.Reachable
		}
		if a.ClassesNeededToReachTarget == b.ClassesNeededToReachTarget {
			return a.Percentage < b.Percentage
		}
		return a.ClassesNeededToReachTarget > b.ClassesNeededToReachTarget
	})
	if n > 0 && n < len(risky) {
		risky = risky[:n]
	}
	return risky
}
