package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/verte-zerg/bunk/internal/attendance"
	"github.com/verte-zerg/bunk/internal/model"
)

// ExportDocument snapshots every semester.
func (s *Store) ExportDocument(ctx context.Context) (model.Document, error) {
	infos, err := s.ListSemesters(ctx)
	if err != nil {
		return nil, err
	}
	doc := model.Document{}
	for _, info := range infos {
		sem, err := s.LoadSemester(ctx, info.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to export semester %s: %w", info.ID, err)
		}
		if sem.Subjects == nil {
			sem.Subjects = []model.Subject{}
		}
		doc[info.ID] = sem
	}
	return doc, nil
}

// WriteDocument encodes doc as indented JSON.
func WriteDocument(w io.Writer, doc model.Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// ReadDocument decodes an exported document.
func ReadDocument(r io.Reader) (model.Document, error) {
	var doc model.Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return doc, nil
}

// CheckSemester validates ids, counters, dates and statuses of sem.
func CheckSemester(sem model.Semester) error {
	if cleanName(sem.Name) == "" {
		return fmt.Errorf("semester %s: name is required", sem.ID)
	}
	seen := make(map[string]bool, len(sem.Subjects))
	for _, sub := range sem.Subjects {
		if sub.ID == "" {
			return fmt.Errorf("semester %s: subject %q has no id", sem.ID, sub.Name)
		}
		if seen[sub.ID] {
			return fmt.Errorf("semester %s: duplicate subject id %s", sem.ID, sub.ID)
		}
		seen[sub.ID] = true
		if err := attendance.CheckCounters(sub.Counters()); err != nil {
			return fmt.Errorf("semester %s: subject %s (%s): %w", sem.ID, sub.ID, sub.Name, err)
		}
	}
	for day, rec := range sem.DailyRecords {
		if _, err := ParseDay(day); err != nil {
			return fmt.Errorf("semester %s: %w", sem.ID, err)
		}
		for id, st := range rec {
			if !st.Valid() {
				return fmt.Errorf("semester %s: %s: subject %s has invalid status %q", sem.ID, day, id, st)
			}
		}
	}
	return nil
}

// ImportDocument stores every semester in doc, replacing semesters that
// share an id. Nothing is written unless the whole document is valid.
func (s *Store) ImportDocument(ctx context.Context, doc model.Document) ([]model.SemesterInfo, error) {
	keys := make([]string, 0, len(doc))
	for key := range doc {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	sems := make([]model.Semester, 0, len(keys))
	for _, key := range keys {
		sem := doc[key]
		if sem.ID == "" {
			sem.ID = key
		}
		if sem.ID != key {
			return nil, fmt.Errorf("semester key %s does not match id %s", key, sem.ID)
		}
		sem.Name = cleanName(sem.Name)
		if err := CheckSemester(sem); err != nil {
			return nil, err
		}
		sems = append(sems, sem)
	}

	var infos []model.SemesterInfo
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, sem := range sems {
			if err := replaceSemester(ctx, tx, sem); err != nil {
				return fmt.Errorf("semester %s: %w", sem.ID, err)
			}
			infos = append(infos, model.SemesterInfo{ID: sem.ID, Name: sem.Name, SubjectCount: len(sem.Subjects)})
		}
		if len(sems) == 0 {
			return nil
		}
		current, ok, err := getSetting(ctx, tx, settingCurrentSemester)
		if err != nil {
			return err
		}
		if ok && semesterExists(ctx, tx, current) == nil {
			return nil
		}
		return setSetting(ctx, tx, settingCurrentSemester, sems[0].ID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to import document: %w", err)
	}
	log.Debug("document imported", "semesters", len(infos))
	return infos, nil
}

func replaceSemester(ctx context.Context, tx *sql.Tx, sem model.Semester) error {
	err := semesterExists(ctx, tx, sem.ID)
	switch {
	case err == nil:
		if _, err := tx.ExecContext(ctx, `UPDATE semesters SET name = ? WHERE id = ?`, sem.Name, sem.ID); err != nil {
			return err
		}
		for _, stmt := range []string{
			`DELETE FROM daily_records WHERE semester_id = ?`,
			`DELETE FROM subjects WHERE semester_id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, stmt, sem.ID); err != nil {
				return err
			}
		}
	case errors.Is(err, ErrSemesterNotFound):
		if err := insertSemester(ctx, tx, sem.ID, sem.Name); err != nil {
			return err
		}
	default:
		return err
	}
	for i, sub := range sem.Subjects {
		sub.Name = cleanName(sub.Name)
		if err := insertSubject(ctx, tx, sem.ID, sub, i); err != nil {
			return err
		}
	}
	for day, rec := range sem.DailyRecords {
		day, _ = ParseDay(day)
		for id, st := range rec {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO daily_records (semester_id, day, subject_id, status) VALUES (?, ?, ?, ?)
				 ON CONFLICT(semester_id, day, subject_id) DO UPDATE SET status = excluded.status`,
				sem.ID, day, id, string(st))
			if err != nil {
				return err
			}
		}
	}
	return nil
}
