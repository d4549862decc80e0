package attendance

import (
	"sort"

	"github.com/verte-zerg/bunk/internal/model"
)

// Tally sums the daily log for one subject: present counts as attended and
// conducted, absent as conducted only.
func Tally(records map[string]model.DailyRecord, subjectID string) (attended, conducted int) {
	for _, rec := range records {
		switch rec[subjectID] {
		case model.Present:
			attended++
			conducted++
		case model.Absent:
			conducted++
		}
	}
	return attended, conducted
}

// Drift describes a subject whose counters disagree with its daily log.
type Drift struct {
	Subject        model.Subject
	LogAttended    int
	LogConducted   int
	AttendedDelta  int
	ConductedDelta int
}

// FindDrift compares every subject's counters with the sum of its log.
// Counters edited manually show up here; the result is sorted by subject name.
func FindDrift(sem model.Semester) []Drift {
	var out []Drift
	for _, sub := range sem.Subjects {
		attended, conducted := Tally(sem.DailyRecords, sub.ID)
		if attended == sub.ClassesAttended && conducted == sub.ConductedClasses {
			continue
		}
		out = append(out, Drift{
			Subject:        sub,
			LogAttended:    attended,
			LogConducted:   conducted,
			AttendedDelta:  sub.ClassesAttended - attended,
			ConductedDelta: sub.ConductedClasses - conducted,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Subject.Name == out[j].Subject.Name {
			return out[i].Subject.ID < out[j].Subject.ID
		}
		return out[i].Subject.Name < out[j].Subject.Name
	})
	return out
}

// RunningPercentages returns the running attendance percentage after each
// logged day that held a class for the subject, in date order.
func RunningPercentages(records map[string]model.DailyRecord, subjectID string) []float64 {
	dates := make([]string, 0, len(records))
	for date := range records {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	var out []float64
	attended, conducted := 0, 0
	for _, date := range dates {
		switch records[date][subjectID] {
		case model.Present:
			attended++
			conducted++
		case model.Absent:
			conducted++
		default:
			continue
		}
		out = append(out, 100*float64(attended)/float64(conducted))
	}
	return out
}
