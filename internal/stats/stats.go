// Package stats contains attendance reporting for the terminal.
package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/verte-zerg/bunk/internal/attendance"
	"github.com/verte-zerg/bunk/internal/model"
)

const (
	sparkChars          = " .:-=+*#%@"
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
	minTrendWidth       = 8
	maxTrendWidth       = 40
)

var levelColors = map[model.Level]string{
	model.Safe:    "\x1b[32m",
	model.Warning: "\x1b[33m",
	model.Danger:  "\x1b[31m",
}

// RenderOptions controls RenderSemester output.
type RenderOptions struct {
	Decimals    int
	Color       bool
	TrendWidth  int
	TrendWindow int
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// Trend smooths a running-percentage series and keeps the newest width points.
func Trend(values []float64, window, width int) string {
	smoothed := MovingAverage(values, window)
	if width > 0 && len(smoothed) > width {
		smoothed = smoothed[len(smoothed)-width:]
	}
	return Sparkline(smoothed)
}

// RenderSemester prints the per-subject attendance table for a report.
func RenderSemester(w io.Writer, report Report, opts RenderOptions) error {
	if _, err := fmt.Fprintln(w, report.SemesterName); err != nil {
		return err
	}
	if len(report.Rows) == 0 {
		_, err := fmt.Fprintln(w, "No subjects yet. Add one with `bunk subject add`.")
		return err
	}

	headers := []string{"Subject", "Attended", "Total", "%", "Status", "Need", "Can miss", "Trend"}
	rows := make([][]string, 0, len(report.Rows))
	for _, r := range report.Rows {
		s := r.Stats
		status := string(s.Level)
		if !s.Reachable {
			status += "!"
		}
		if opts.Color {
			status = levelColors[s.Level] + status + colorReset
		}
		rows = append(rows, []string{
			r.Subject.Name,
			fmt.Sprintf("%d/%d", r.Subject.ClassesAttended, r.Subject.ConductedClasses),
			fmt.Sprintf("%d", r.Subject.FixedTotalClasses),
			attendance.FormatPercent(s.Percentage, opts.Decimals),
			status,
			fmt.Sprintf("%d", s.ClassesNeededToReachTarget),
			fmt.Sprintf("%d", s.ClassesCanMiss),
			Trend(r.Trend, opts.TrendWindow, opts.TrendWidth),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 5: true, 6: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "\nOverall: %s (%d/%d)\n",
		attendance.FormatPercent(report.Overall(), opts.Decimals), report.Attended, report.Conducted); err != nil {
		return err
	}
	for _, r := range report.Rows {
		if r.Stats.Reachable {
			continue
		}
		if _, err := fmt.Fprintf(w, "! %s cannot reach %d%% (best case %d of %d)\n",
			r.Subject.Name, attendance.TargetPct, r.Stats.PotentialFinalAttended, r.Subject.FixedTotalClasses); err != nil {
			return err
		}
	}
	return nil
}

// RenderDrift prints subjects whose counters disagree with the daily log.
func RenderDrift(w io.Writer, drift []attendance.Drift) error {
	if len(drift) == 0 {
		_, err := fmt.Fprintln(w, "Counters match the daily log.")
		return err
	}
	headers := []string{"Subject", "Counters", "Log", "Unlogged attended", "Unlogged conducted"}
	rows := make([][]string, 0, len(drift))
	for _, d := range drift {
		rows = append(rows, []string{
			d.Subject.Name,
			fmt.Sprintf("%d/%d", d.Subject.ClassesAttended, d.Subject.ConductedClasses),
			fmt.Sprintf("%d/%d", d.LogAttended, d.LogConducted),
			fmt.Sprintf("%+d", d.AttendedDelta),
			fmt.Sprintf("%+d", d.ConductedDelta),
		})
	}
	for _, line := range formatTable(headers, rows, map[int]bool{1: true, 2: true, 3: true, 4: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// TrendWidthFor picks a sparkline width that fits a terminal of totalWidth.
func TrendWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		totalWidth = terminalWidthBackup
	}
	return max(minTrendWidth, min(maxTrendWidth, totalWidth/4))
}

// TerminalWidth returns the stdout width, or a fallback when it is not a tty.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

// ShouldUseColor reports whether w is a terminal and NO_COLOR is unset.
func ShouldUseColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

// RenderDay prints every subject's recorded status for one date. Subjects
// with no stored entry show as "-".
func RenderDay(w io.Writer, sem model.Semester, day string) error {
	if _, err := fmt.Fprintf(w, "%s  %s\n", sem.Name, day); err != nil {
		return err
	}
	if len(sem.Subjects) == 0 {
		_, err := fmt.Fprintln(w, "No subjects yet.")
		return err
	}
	rows := make([][]string, 0, len(sem.Subjects))
	for _, sub := range sem.Subjects {
		label := "-"
		if st, ok := sem.Lookup(day, sub.ID); ok {
			label = string(st)
		}
		rows = append(rows, []string{sub.Name, label})
	}
	for _, line := range formatTable([]string{"Subject", "Status"}, rows, nil) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
