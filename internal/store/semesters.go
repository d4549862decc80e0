package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/verte-zerg/bunk/internal/model"
)

func newSemesterID() string {
	return "sem-" + uuid.NewString()
}

// CreateSemester adds a semester and makes it current. With CopyFrom set the
// source subjects are copied with their counters reset to zero.
func (s *Store) CreateSemester(ctx context.Context, ns model.NewSemester) (model.SemesterInfo, error) {
	ns.Name = cleanName(ns.Name)
	if err := validateInput(ns); err != nil {
		return model.SemesterInfo{}, err
	}
	info := model.SemesterInfo{ID: newSemesterID(), Name: ns.Name, Current: true}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var subjects []model.Subject
		if ns.CopyFrom != "" {
			if err := semesterExists(ctx, tx, ns.CopyFrom); err != nil {
				return err
			}
			src, err := listSubjects(ctx, tx, ns.CopyFrom)
			if err != nil {
				return err
			}
			for _, sub := range src {
				sub.ConductedClasses = 0
				sub.ClassesAttended = 0
				subjects = append(subjects, sub)
			}
		}
		if err := insertSemester(ctx, tx, info.ID, info.Name); err != nil {
			return err
		}
		for i, sub := range subjects {
			if err := insertSubject(ctx, tx, info.ID, sub, i); err != nil {
				return err
			}
		}
		info.SubjectCount = len(subjects)
		return setSetting(ctx, tx, settingCurrentSemester, info.ID)
	})
	if err != nil {
		return model.SemesterInfo{}, fmt.Errorf("failed to create semester: %w", err)
	}
	log.Debug("semester created", "id", info.ID, "name", info.Name, "copied", info.SubjectCount)
	return info, nil
}

// EnsureSemester creates an empty semester named name when none exist and
// returns the current one.
func (s *Store) EnsureSemester(ctx context.Context, name string) (model.SemesterInfo, error) {
	info, err := s.CurrentSemester(ctx)
	if err == nil {
		return info, nil
	}
	if !errors.Is(err, ErrNoSemester) {
		return model.SemesterInfo{}, err
	}
	return s.CreateSemester(ctx, model.NewSemester{Name: name})
}

func insertSemester(ctx context.Context, q queryer, id, name string) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO semesters (id, name, position, created_at)
		 VALUES (?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM semesters), ?)`,
		id, name, time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

func semesterExists(ctx context.Context, q queryer, id string) error {
	var found string
	err := q.QueryRowContext(ctx, `SELECT id FROM semesters WHERE id = ?`, id).Scan(&found)
	return notFound(err, ErrSemesterNotFound, id)
}

// ListSemesters returns all semesters in creation order.
func (s *Store) ListSemesters(ctx context.Context) ([]model.SemesterInfo, error) {
	current, _, err := getSetting(ctx, s.db, settingCurrentSemester)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT sem.id, sem.name, COUNT(sub.id)
		 FROM semesters sem
		 LEFT JOIN subjects sub ON sub.semester_id = sem.id
		 GROUP BY sem.id, sem.name, sem.position
		 ORDER BY sem.position ASC`)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var result []model.SemesterInfo
	for rows.Next() {
		var info model.SemesterInfo
		if err := rows.Scan(&info.ID, &info.Name, &info.SubjectCount); err != nil {
			return nil, err
		}
		result = append(result, info)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	markCurrent(result, current)
	return result, nil
}

// markCurrent flags the current semester, falling back to the first one when
// the stored setting is missing or stale.
func markCurrent(infos []model.SemesterInfo, current string) {
	for i := range infos {
		if infos[i].ID == current {
			infos[i].Current = true
			return
		}
	}
	if len(infos) > 0 {
		infos[0].Current = true
	}
}

// CurrentSemester returns the semester selected with UseSemester.
func (s *Store) CurrentSemester(ctx context.Context) (model.SemesterInfo, error) {
	infos, err := s.ListSemesters(ctx)
	if err != nil {
		return model.SemesterInfo{}, err
	}
	for _, info := range infos {
		if info.Current {
			return info, nil
		}
	}
	return model.SemesterInfo{}, ErrNoSemester
}

// UseSemester makes id the current semester.
func (s *Store) UseSemester(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := semesterExists(ctx, tx, id); err != nil {
			return err
		}
		return setSetting(ctx, tx, settingCurrentSemester, id)
	})
}

// RenameSemester changes a semester's display name.
func (s *Store) RenameSemester(ctx context.Context, id, name string) error {
	ns := model.NewSemester{Name: cleanName(name)}
	if err := validateInput(ns); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE semesters SET name = ? WHERE id = ?`, ns.Name, id)
	if err != nil {
		return err
	}
	return requireRow(res, ErrSemesterNotFound, id)
}

// DeleteSemester removes a semester with its subjects and daily log. The
// last remaining semester cannot be deleted.
func (s *Store) DeleteSemester(ctx context.Context, id string) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := semesterExists(ctx, tx, id); err != nil {
			return err
		}
		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM semesters`).Scan(&count); err != nil {
			return err
		}
		if count <= 1 {
			return ErrLastSemester
		}
		for _, stmt := range []string{
			`DELETE FROM daily_records WHERE semester_id = ?`,
			`DELETE FROM subjects WHERE semester_id = ?`,
			`DELETE FROM semesters WHERE id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return err
			}
		}
		current, ok, err := getSetting(ctx, tx, settingCurrentSemester)
		if err != nil {
			return err
		}
		if ok && current != id {
			return nil
		}
		var first string
		if err := tx.QueryRowContext(ctx, `SELECT id FROM semesters ORDER BY position ASC LIMIT 1`).Scan(&first); err != nil {
			return err
		}
		return setSetting(ctx, tx, settingCurrentSemester, first)
	})
	if err != nil {
		return err
	}
	log.Debug("semester deleted", "id", id)
	return nil
}

// ResetSemester zeroes every subject's counters and clears the daily log.
func (s *Store) ResetSemester(ctx context.Context, id string) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := semesterExists(ctx, tx, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE subjects SET conducted = 0, attended = 0 WHERE semester_id = ?`, id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM daily_records WHERE semester_id = ?`, id)
		return err
	})
	if err != nil {
		return err
	}
	log.Debug("semester reset", "id", id)
	return nil
}

// LoadSemester returns a snapshot of a semester with subjects and the full log.
func (s *Store) LoadSemester(ctx context.Context, id string) (model.Semester, error) {
	var sem model.Semester
	err := s.db.QueryRowContext(ctx, `SELECT id, name FROM semesters WHERE id = ?`, id).Scan(&sem.ID, &sem.Name)
	if err != nil {
		return model.Semester{}, notFound(err, ErrSemesterNotFound, id)
	}
	subjects, err := listSubjects(ctx, s.db, id)
	if err != nil {
		return model.Semester{}, err
	}
	records, err := loadRecords(ctx, s.db, id)
	if err != nil {
		return model.Semester{}, err
	}
	sem.Subjects = subjects
	sem.DailyRecords = records
	return sem, nil
}

func requireRow(res sql.Result, sentinel error, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", sentinel, id)
	}
	return nil
}
