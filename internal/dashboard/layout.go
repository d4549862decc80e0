package dashboard

import (
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/bunk/internal/model"
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#3A8FC8"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8FC83A"))
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	modalStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#3A8FC8")).
			Padding(1, 2)

	levelStyles = map[model.Level]lipgloss.Style{
		model.Safe:    lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")),
		model.Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("#FAAD14")),
		model.Danger:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")),
	}
)

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Background(lipgloss.Color("#2F3B45")).
		Bold(true)
	return styles
}

// nameColumn gives the first column whatever width the fixed columns leave.
func nameColumn(title string, total int, fixed []table.Column) []table.Column {
	used := 0
	for _, col := range fixed {
		used += col.Width + 1
	}
	cols := []table.Column{{Title: title, Width: max(12, total-used-1)}}
	return append(cols, fixed...)
}

// fitTableHeight resizes t so its rendered view fills exactly target lines.
func fitTableHeight(t *table.Model, target int) {
	target = max(1, target)
	height := max(1, target-1)
	t.SetHeight(height)
	for i := 0; i < 2; i++ {
		viewHeight := lipgloss.Height(t.View())
		if viewHeight == target {
			return
		}
		height = max(1, height+target-viewHeight)
		t.SetHeight(height)
	}
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}

// truncateStyled cuts a line that may carry ANSI styling to width cells.
func truncateStyled(s string, width int) string {
	if width <= 0 {
		return s
	}
	return ansi.Truncate(s, width, "...")
}

func modalWidth(width int) int {
	return max(40, min(width-4, 64))
}
