package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/verte-zerg/bunk/internal/attendance"
	"github.com/verte-zerg/bunk/internal/model"
)

// SetDayStatus records status for a subject on day and reconciles the
// subject's counters in the same transaction. It returns the subject after
// the change and whether anything was written.
func (s *Store) SetDayStatus(ctx context.Context, semesterID, day, subjectID string, status model.Status) (model.Subject, bool, error) {
	if !status.Valid() {
		return model.Subject{}, false, fmt.Errorf("invalid status %q", status)
	}
	day, err := ParseDay(day)
	if err != nil {
		return model.Subject{}, false, err
	}
	var (
		updated model.Subject
		changed bool
	)
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		sub, err := getSubject(ctx, tx, semesterID, subjectID)
		if err != nil {
			return err
		}
		old, err := dayStatus(ctx, tx, semesterID, day, subjectID)
		if err != nil {
			return err
		}
		updated = sub
		if old == status {
			return nil
		}
		updated = sub.WithCounters(attendance.Reconcile(old, status, sub.Counters()))
		if err := updateCounters(ctx, tx, semesterID, updated); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO daily_records (semester_id, day, subject_id, status) VALUES (?, ?, ?, ?)
			 ON CONFLICT(semester_id, day, subject_id) DO UPDATE SET status = excluded.status`,
			semesterID, day, subjectID, string(status))
		if err != nil {
			return err
		}
		changed = true
		log.Debug("day status changed",
			"semester", semesterID, "day", day, "subject", subjectID,
			"from", old, "to", status,
			"attended", updated.ClassesAttended, "conducted", updated.ConductedClasses)
		return nil
	})
	if err != nil {
		return model.Subject{}, false, fmt.Errorf("failed to set day status: %w", err)
	}
	return updated, changed, nil
}

func dayStatus(ctx context.Context, q queryer, semesterID, day, subjectID string) (model.Status, error) {
	var raw string
	err := q.QueryRowContext(ctx,
		`SELECT status FROM daily_records WHERE semester_id = ? AND day = ? AND subject_id = ?`,
		semesterID, day, subjectID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return model.NoClass, nil
	}
	if err != nil {
		return "", err
	}
	return model.Status(raw), nil
}

// DayStatus returns the recorded status, or no-class when nothing is stored.
func (s *Store) DayStatus(ctx context.Context, semesterID, day, subjectID string) (model.Status, error) {
	day, err := ParseDay(day)
	if err != nil {
		return "", err
	}
	return dayStatus(ctx, s.db, semesterID, day, subjectID)
}

// DayRecords returns the stored entries for one date.
func (s *Store) DayRecords(ctx context.Context, semesterID, day string) (model.DailyRecord, error) {
	day, err := ParseDay(day)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT subject_id, status FROM daily_records WHERE semester_id = ? AND day = ?`, semesterID, day)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	rec := model.DailyRecord{}
	for rows.Next() {
		var id, status string
		if err := rows.Scan(&id, &status); err != nil {
			return nil, err
		}
		rec[id] = model.Status(status)
	}
	return rec, rows.Err()
}

func loadRecords(ctx context.Context, q queryer, semesterID string) (map[string]model.DailyRecord, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT day, subject_id, status FROM daily_records WHERE semester_id = ? ORDER BY day ASC`, semesterID)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	records := map[string]model.DailyRecord{}
	for rows.Next() {
		var day, id, status string
		if err := rows.Scan(&day, &id, &status); err != nil {
			return nil, err
		}
		rec, ok := records[day]
		if !ok {
			rec = model.DailyRecord{}
			records[day] = rec
		}
		rec[id] = model.Status(status)
	}
	return records, rows.Err()
}

// Drift compares every subject's counters with the totals implied by the
// stored daily log.
func (s *Store) Drift(ctx context.Context, semesterID string) ([]attendance.Drift, error) {
	sem, err := s.LoadSemester(ctx, semesterID)
	if err != nil {
		return nil, err
	}
	return attendance.FindDrift(sem), nil
}
