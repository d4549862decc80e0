// Package model defines shared data structures.
package model

import (
	"fmt"
	"strings"
)

// DateLayout is the ISO calendar date format used as daily record keys.
const DateLayout = "2006-01-02"

// Status is the recorded state of one subject on one date.
type Status string

// Daily statuses. NoClass is the default for dates with no stored entry.
const (
	Present Status = "present"
	Absent  Status = "absent"
	NoClass Status = "no-class"
)

// ParseStatus accepts the canonical names and a few short aliases.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "present", "p":
		return Present, nil
	case "absent", "a", "x":
		return Absent, nil
	case "no-class", "noclass", "none", "n", "-":
		return NoClass, nil
	}
	return "", fmt.Errorf("unknown status %q (use present, absent or no-class)", s)
}

// Valid reports whether s is one of the three statuses.
func (s Status) Valid() bool {
	return s == Present || s == Absent || s == NoClass
}

// Level is the safety classification of a subject.
type Level string

// Safety levels.
const (
	Safe    Level = "safe"
	Warning Level = "warning"
	Danger  Level = "danger"
)

// Counters are the running totals the reconciler works on.
type Counters struct {
	Conducted  int
	Attended   int
	FixedTotal int
}

// AttendanceStats holds the derived view of one subject.
type AttendanceStats struct {
	Percentage                 float64 `json:"percentage"`
	ClassesMissed              int     `json:"classesMissed"`
	Level                      Level   `json:"status"`
	ClassesNeededToReachTarget int     `json:"classesNeededToReachTarget"`
	ClassesCanMiss             int     `json:"classesCanMiss"`

	Remaining              int  `json:"remaining"`
	TargetAttended         int  `json:"targetAttended"`
	PotentialFinalAttended int  `json:"potentialFinalAttended"`
	Reachable              bool `json:"reachable"`
}

// Subject is one tracked course within a semester.
type Subject struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	ConductedClasses  int    `json:"conductedClasses"`
	ClassesAttended   int    `json:"classesAttended"`
	FixedTotalClasses int    `json:"fixedTotalClasses"`
}

// Counters returns the subject's reconciler inputs.
func (s Subject) Counters() Counters {
	return Counters{
		Conducted:  s.ConductedClasses,
		Attended:   s.ClassesAttended,
		FixedTotal: s.FixedTotalClasses,
	}
}

// WithCounters returns a copy of s carrying c.
func (s Subject) WithCounters(c Counters) Subject {
	s.ConductedClasses = c.Conducted
	s.ClassesAttended = c.Attended
	s.FixedTotalClasses = c.FixedTotal
	return s
}

// DailyRecord maps subject id to status for one date.
type DailyRecord map[string]Status

// Semester aggregates subjects and the daily log.
type Semester struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name"`
	Subjects     []Subject              `json:"subjects"`
	DailyRecords map[string]DailyRecord `json:"dailyRecords"`
}

// Lookup returns the stored status and whether an entry exists.
func (s Semester) Lookup(date, subjectID string) (Status, bool) {
	rec, ok := s.DailyRecords[date]
	if !ok {
		return NoClass, false
	}
	st, ok := rec[subjectID]
	if !ok {
		return NoClass, false
	}
	return st, true
}

// StatusOn returns the status for the pair, defaulting to NoClass.
func (s Semester) StatusOn(date, subjectID string) Status {
	st, _ := s.Lookup(date, subjectID)
	return st
}

// Subject finds a subject by id.
func (s Semester) Subject(id string) (Subject, bool) {
	for _, sub := range s.Subjects {
		if sub.ID == id {
			return sub, true
		}
	}
	return Subject{}, false
}

// SemesterInfo is a semester header without subjects or records.
type SemesterInfo struct {
	ID           string
	Name         string
	SubjectCount int
	Current      bool
}

// Document is the exported dataset keyed by semester id.
type Document map[string]Semester

// NewSemester describes a semester to create.
type NewSemester struct {
	Name     string `validate:"required,max=120"`
	CopyFrom string
}

// NewSubject describes a subject to add.
type NewSubject struct {
	Name       string `validate:"required,max=120"`
	FixedTotal int    `validate:"min=1"`
}
