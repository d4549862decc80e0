package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/verte-zerg/bunk/internal/model"
)

// LegacySubject is a subject from the single-semester format, where
// totalClasses counted conducted classes and no fixed total existed.
type LegacySubject struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	TotalClasses    int    `json:"totalClasses"`
	ClassesAttended int    `json:"classesAttended"`
}

// ReadLegacy decodes a legacy subject array.
func ReadLegacy(r io.Reader) ([]LegacySubject, error) {
	var subjects []LegacySubject
	if err := json.NewDecoder(r).Decode(&subjects); err != nil {
		return nil, fmt.Errorf("failed to decode legacy subjects: %w", err)
	}
	return subjects, nil
}

// MigrateLegacy maps legacy subjects to the current shape. The fixed total
// comes from totals by subject id, else fallback, and is raised to the
// conducted count when that is larger. Negative counts become zero and
// attended is capped at conducted.
func MigrateLegacy(legacy []LegacySubject, totals map[string]int, fallback int) []model.Subject {
	if fallback < 1 {
		fallback = 1
	}
	result := make([]model.Subject, 0, len(legacy))
	for _, ls := range legacy {
		total, ok := totals[ls.ID]
		if !ok || total < 1 {
			total = fallback
		}
		conducted := max(ls.TotalClasses, 0)
		attended := min(max(ls.ClassesAttended, 0), conducted)
		total = max(total, conducted)
		result = append(result, model.Subject{
			ID:                ls.ID,
			Name:              cleanName(ls.Name),
			ConductedClasses:  conducted,
			ClassesAttended:   attended,
			FixedTotalClasses: total,
		})
	}
	return result
}

// ImportLegacy stores migrated legacy subjects as a new current semester.
func (s *Store) ImportLegacy(ctx context.Context, name string, legacy []LegacySubject, totals map[string]int, fallback int) (model.SemesterInfo, error) {
	subjects := MigrateLegacy(legacy, totals, fallback)
	sem := model.Semester{ID: newSemesterID(), Name: cleanName(name), Subjects: subjects}
	if err := validateInput(model.NewSemester{Name: sem.Name}); err != nil {
		return model.SemesterInfo{}, err
	}
	if err := CheckSemester(sem); err != nil {
		return model.SemesterInfo{}, err
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := replaceSemester(ctx, tx, sem); err != nil {
			return err
		}
		return setSetting(ctx, tx, settingCurrentSemester, sem.ID)
	})
	if err != nil {
		return model.SemesterInfo{}, fmt.Errorf("failed to import legacy subjects: %w", err)
	}
	log.Debug("legacy subjects imported", "semester", sem.ID, "subjects", len(subjects))
	return model.SemesterInfo{ID: sem.ID, Name: sem.Name, SubjectCount: len(subjects), Current: true}, nil
}
