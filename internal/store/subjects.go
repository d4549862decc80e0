package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/verte-zerg/bunk/internal/attendance"
	"github.com/verte-zerg/bunk/internal/model"
)

func insertSubject(ctx context.Context, q queryer, semesterID string, sub model.Subject, position int) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO subjects (semester_id, id, name, fixed_total, conducted, attended, position)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		semesterID, sub.ID, sub.Name, sub.FixedTotalClasses, sub.ConductedClasses, sub.ClassesAttended, position)
	return err
}

func listSubjects(ctx context.Context, q queryer, semesterID string) ([]model.Subject, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, name, conducted, attended, fixed_total
		 FROM subjects WHERE semester_id = ? ORDER BY position ASC, id ASC`, semesterID)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var result []model.Subject
	for rows.Next() {
		var sub model.Subject
		if err := rows.Scan(&sub.ID, &sub.Name, &sub.ConductedClasses, &sub.ClassesAttended, &sub.FixedTotalClasses); err != nil {
			return nil, err
		}
		result = append(result, sub)
	}
	return result, rows.Err()
}

func getSubject(ctx context.Context, q queryer, semesterID, subjectID string) (model.Subject, error) {
	var sub model.Subject
	err := q.QueryRowContext(ctx,
		`SELECT id, name, conducted, attended, fixed_total
		 FROM subjects WHERE semester_id = ? AND id = ?`, semesterID, subjectID).
		Scan(&sub.ID, &sub.Name, &sub.ConductedClasses, &sub.ClassesAttended, &sub.FixedTotalClasses)
	if err != nil {
		return model.Subject{}, notFound(err, ErrSubjectNotFound, subjectID)
	}
	return sub, nil
}

func updateCounters(ctx context.Context, q queryer, semesterID string, sub model.Subject) error {
	_, err := q.ExecContext(ctx,
		`UPDATE subjects SET conducted = ?, attended = ?, fixed_total = ?
		 WHERE semester_id = ? AND id = ?`,
		sub.ConductedClasses, sub.ClassesAttended, sub.FixedTotalClasses, semesterID, sub.ID)
	return err
}

// ListSubjects returns a semester's subjects in insertion order.
func (s *Store) ListSubjects(ctx context.Context, semesterID string) ([]model.Subject, error) {
	if err := semesterExists(ctx, s.db, semesterID); err != nil {
		return nil, err
	}
	return listSubjects(ctx, s.db, semesterID)
}

// GetSubject returns one subject.
func (s *Store) GetSubject(ctx context.Context, semesterID, subjectID string) (model.Subject, error) {
	return getSubject(ctx, s.db, semesterID, subjectID)
}

// ResolveSubject finds a subject by exact id, then case-insensitive name,
// then unique id prefix.
func (s *Store) ResolveSubject(ctx context.Context, semesterID, ref string) (model.Subject, error) {
	subjects, err := s.ListSubjects(ctx, semesterID)
	if err != nil {
		return model.Subject{}, err
	}
	return MatchSubject(subjects, ref)
}

// MatchSubject applies ResolveSubject's lookup rules to an in-memory list.
func MatchSubject(subjects []model.Subject, ref string) (model.Subject, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.Subject{}, fmt.Errorf("%w: empty reference", ErrSubjectNotFound)
	}
	for _, sub := range subjects {
		if sub.ID == ref {
			return sub, nil
		}
	}
	var byName []model.Subject
	for _, sub := range subjects {
		if strings.EqualFold(sub.Name, ref) {
			byName = append(byName, sub)
		}
	}
	if len(byName) == 1 {
		return byName[0], nil
	}
	if len(byName) > 1 {
		return model.Subject{}, fmt.Errorf("subject name %q is ambiguous; use its id", ref)
	}
	var byPrefix []model.Subject
	for _, sub := range subjects {
		if strings.HasPrefix(sub.ID, ref) {
			byPrefix = append(byPrefix, sub)
		}
	}
	switch len(byPrefix) {
	case 1:
		return byPrefix[0], nil
	case 0:
		return model.Subject{}, fmt.Errorf("%w: %s", ErrSubjectNotFound, ref)
	}
	return model.Subject{}, fmt.Errorf("subject id prefix %q matches %d subjects", ref, len(byPrefix))
}

// AddSubject appends a subject with zeroed counters.
func (s *Store) AddSubject(ctx context.Context, semesterID string, ns model.NewSubject) (model.Subject, error) {
	ns.Name = cleanName(ns.Name)
	if err := validateInput(ns); err != nil {
		return model.Subject{}, err
	}
	sub := model.Subject{ID: uuid.NewString(), Name: ns.Name, FixedTotalClasses: ns.FixedTotal}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := semesterExists(ctx, tx, semesterID); err != nil {
			return err
		}
		var position int
		err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(position), -1) + 1 FROM subjects WHERE semester_id = ?`, semesterID).Scan(&position)
		if err != nil {
			return err
		}
		return insertSubject(ctx, tx, semesterID, sub, position)
	})
	if err != nil {
		return model.Subject{}, fmt.Errorf("failed to add subject: %w", err)
	}
	log.Debug("subject added", "semester", semesterID, "id", sub.ID, "name", sub.Name, "total", sub.FixedTotalClasses)
	return sub, nil
}

// RemoveSubject deletes a subject. Its daily entries stay in the log.
func (s *Store) RemoveSubject(ctx context.Context, semesterID, subjectID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM subjects WHERE semester_id = ? AND id = ?`, semesterID, subjectID)
	if err != nil {
		return err
	}
	if err := requireRow(res, ErrSubjectNotFound, subjectID); err != nil {
		return err
	}
	log.Debug("subject removed", "semester", semesterID, "id", subjectID)
	return nil
}

// RenameSubject changes a subject's display name.
func (s *Store) RenameSubject(ctx context.Context, semesterID, subjectID, name string) error {
	name = cleanName(name)
	if err := validateInput(model.NewSubject{Name: name, FixedTotal: 1}); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE subjects SET name = ? WHERE semester_id = ? AND id = ?`, name, semesterID, subjectID)
	if err != nil {
		return err
	}
	return requireRow(res, ErrSubjectNotFound, subjectID)
}

// SetFixedTotal changes the planned class count, pulling the counters down
// when they no longer fit.
func (s *Store) SetFixedTotal(ctx context.Context, semesterID, subjectID string, total int) (model.Subject, error) {
	if total < 1 {
		return model.Subject{}, &ValidationError{Field: "fixed total", Message: "must be at least 1"}
	}
	var updated model.Subject
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		sub, err := getSubject(ctx, tx, semesterID, subjectID)
		if err != nil {
			return err
		}
		updated = sub.WithCounters(attendance.ClampToTotal(sub.Counters(), total))
		return updateCounters(ctx, tx, semesterID, updated)
	})
	if err != nil {
		return model.Subject{}, err
	}
	log.Debug("fixed total changed", "semester", semesterID, "id", subjectID, "total", total)
	return updated, nil
}

// AdjustSubject applies a manual counter edit. It reports false when the
// edit was rejected by the counter bounds.
func (s *Store) AdjustSubject(ctx context.Context, semesterID, subjectID string, kind attendance.AdjustKind) (model.Subject, bool, error) {
	var (
		updated model.Subject
		changed bool
	)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		sub, err := getSubject(ctx, tx, semesterID, subjectID)
		if err != nil {
			return err
		}
		c, ok := attendance.Adjust(sub.Counters(), kind)
		updated = sub.WithCounters(c)
		changed = ok
		if !ok {
			return nil
		}
		return updateCounters(ctx, tx, semesterID, updated)
	})
	if err != nil {
		return model.Subject{}, false, err
	}
	log.Debug("subject adjusted", "semester", semesterID, "id", subjectID, "kind", kind, "changed", changed)
	return updated, changed, nil
}
