// Package attendance contains the attendance statistics and reconciliation rules.
package attendance

import (
	"fmt"

	"github.com/verte-zerg/bunk/internal/model"
)

const (
	// TargetPct is the end-of-semester attendance target.
	TargetPct = 80
	// WarningPct is the running-percentage cutoff below which a subject is in danger.
	WarningPct = 75
)

// Compute derives the attendance stats for one subject.
//
// Callers must pass attended <= conducted <= fixedTotal and fixedTotal >= 1.
func Compute(attended, conducted, fixedTotal int) model.AttendanceStats {
	percentage := 100.0
	if conducted > 0 {
		percentage = 100 * float64(attended) / float64(conducted)
	}

	// Running bar, compared in integers so 80.0% is never read as 79.999%.
	level := model.Safe
	switch {
	case conducted == 0:
	case 100*attended < WarningPct*conducted:
		level = model.Danger
	case 100*attended < TargetPct*conducted:
		level = model.Warning
	}

	// Consecutive classes needed: smallest x with (a+x)/(c+x) >= 0.8.
	needed := 0
	if raw := TargetPct*conducted - 100*attended; raw > 0 {
		needed = ceilDiv(raw, 100-TargetPct)
	}

	remaining := fixedTotal - conducted
	if remaining < 0 {
		remaining = 0
	}
	target := ceilDiv(TargetPct*fixedTotal, 100)
	potential := attended + remaining

	canMiss := 0
	reachable := potential >= target
	if reachable {
		canMiss = potential - target
	} else {
		level = model.Danger
	}

	return model.AttendanceStats{
		Percentage:                 percentage,
		ClassesMissed:              conducted - attended,
		Level:                      level,
		ClassesNeededToReachTarget: needed,
		ClassesCanMiss:             canMiss,
		Remaining:                  remaining,
		TargetAttended:             target,
		PotentialFinalAttended:     potential,
		Reachable:                  reachable,
	}
}

// ForSubject is Compute over a subject's counters.
func ForSubject(s model.Subject) model.AttendanceStats {
	return Compute(s.ClassesAttended, s.ConductedClasses, s.FixedTotalClasses)
}

// FormatPercent renders a percentage with the given number of decimals.
func FormatPercent(pct float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	return fmt.Sprintf("%.*f%%", decimals, pct)
}

func ceilDiv(n, d int) int {
	if n <= 0 {
		return 0
	}
	return (n + d - 1) / d
}
