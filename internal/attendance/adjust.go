package attendance

import (
	"fmt"
	"strings"

	"github.com/verte-zerg/bunk/internal/model"
)

// AdjustKind is a manual +/- edit of a subject's counters.
type AdjustKind int

// Manual adjustments.
const (
	AttendUp AdjustKind = iota
	AttendDown
	MissUp
	MissDown
)

func (k AdjustKind) String() string {
	switch k {
	case AttendUp:
		return "attend+"
	case AttendDown:
		return "attend-"
	case MissUp:
		return "miss+"
	case MissDown:
		return "miss-"
	}
	return fmt.Sprintf("AdjustKind(%d)", int(k))
}

// ParseAdjustKind maps "attend"/"miss" plus an undo flag to a kind.
func ParseAdjustKind(action string, undo bool) (AdjustKind, error) {
	switch strings.ToLower(strings.TrimSpace(action)) {
	case "attend", "attended", "present":
		if undo {
			return AttendDown, nil
		}
		return AttendUp, nil
	case "miss", "missed", "absent":
		if undo {
			return MissDown, nil
		}
		return MissUp, nil
	}
	return 0, fmt.Errorf("unknown adjustment %q (use attend or miss)", action)
}

// Adjust applies a manual edit. It reports false when the edit would break
// attended <= conducted <= fixed total, leaving c unchanged.
func Adjust(c model.Counters, kind AdjustKind) (model.Counters, bool) {
	switch kind {
	case AttendUp:
		if c.Conducted >= c.FixedTotal {
			return c, false
		}
		c.Attended++
		c.Conducted++
	case AttendDown:
		if c.Attended <= 0 || c.Conducted <= 0 {
			return c, false
		}
		c.Attended--
		c.Conducted--
	case MissUp:
		if c.Conducted >= c.FixedTotal {
			return c, false
		}
		c.Conducted++
	case MissDown:
		if c.Conducted <= c.Attended {
			return c, false
		}
		c.Conducted--
	default:
		return c, false
	}
	return c, true
}

// ClampToTotal sets a new fixed total and pulls the counters down to fit it.
// Totals below 1 are raised to 1.
func ClampToTotal(c model.Counters, total int) model.Counters {
	if total < 1 {
		total = 1
	}
	c.FixedTotal = total
	c.Conducted = clamp(c.Conducted, 0, total)
	c.Attended = clamp(c.Attended, 0, c.Conducted)
	return c
}

// CheckCounters reports the first invariant the counters violate.
func CheckCounters(c model.Counters) error {
	switch {
	case c.FixedTotal < 1:
		return fmt.Errorf("fixed total %d must be at least 1", c.FixedTotal)
	case c.Conducted < 0 || c.Conducted > c.FixedTotal:
		return fmt.Errorf("conducted %d must be between 0 and fixed total %d", c.Conducted, c.FixedTotal)
	case c.Attended < 0 || c.Attended > c.Conducted:
		return fmt.Errorf("attended %d must be between 0 and conducted %d", c.Attended, c.Conducted)
	}
	return nil
}
