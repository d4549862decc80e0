// Package dashboard provides the Bubble Tea attendance dashboard.
package dashboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/bunk/internal/attendance"
	"github.com/verte-zerg/bunk/internal/model"
	"github.com/verte-zerg/bunk/internal/stats"
	"github.com/verte-zerg/bunk/internal/store"
)

const (
	tabSubjects = iota
	tabDailyLog
	tabReport
)

const (
	formName = iota
	formTotal
)

// Options configures the dashboard.
type Options struct {
	Decimals     int
	DefaultTotal int
	// Now returns the current time; nil means time.Now.
	Now func() time.Time
}

// Model implements the Bubble Tea dashboard.
type Model struct {
	store      *store.Store
	semesterID string
	opts       Options

	sem    model.Semester
	report stats.Report
	day    time.Time

	tabs         []string
	activeTab    int
	subjectTable table.Model
	dayTable     table.Model
	reportView   viewport.Model

	width  int
	height int

	formMode   bool
	formInputs []textinput.Model
	formIndex  int
	formError  string

	errMsg    string
	noticeMsg string
}

// NewModel constructs a dashboard for one semester.
func NewModel(st *store.Store, semesterID string, opts Options) *Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.DefaultTotal < 1 {
		opts.DefaultTotal = 1
	}
	m := &Model{
		store:      st,
		semesterID: semesterID,
		opts:       opts,
		tabs:       []string{"Subjects", "Daily Log", "Report"},
		reportView: viewport.New(0, 0),
	}
	m.day = truncateDay(opts.Now())
	m.subjectTable = newTable()
	m.dayTable = newTable()
	m.subjectTable.Focus()
	m.initForm()
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.formMode {
			return m.updateForm(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q":
		return m, tea.Quit
	case "tab":
		m.moveTab(1)
		return m, tea.ClearScreen
	case "shift+tab":
		m.moveTab(-1)
		return m, tea.ClearScreen
	case "1", "2", "3":
		m.setTab(int(key[0] - '1'))
		return m, tea.ClearScreen
	case "+":
		return m.startForm()
	}

	switch m.activeTab {
	case tabSubjects:
		switch key {
		case "a":
			m.adjust(attendance.AttendUp)
			return m, nil
		case "A":
			m.adjust(attendance.AttendDown)
			return m, nil
		case "m":
			m.adjust(attendance.MissUp)
			return m, nil
		case "M":
			m.adjust(attendance.MissDown)
			return m, nil
		}
		var cmd tea.Cmd
		m.subjectTable, cmd = m.subjectTable.Update(msg)
		return m, cmd
	case tabDailyLog:
		switch key {
		case "left", "h":
			m.shiftDay(-1)
			return m, nil
		case "right", "l":
			m.shiftDay(1)
			return m, nil
		case "t":
			m.day = truncateDay(m.opts.Now())
			m.refresh()
			return m, nil
		case "p":
			m.mark(model.Present)
			return m, nil
		case "x":
			m.mark(model.Absent)
			return m, nil
		case "n":
			m.mark(model.NoClass)
			return m, nil
		}
		var cmd tea.Cmd
		m.dayTable, cmd = m.dayTable.Update(msg)
		return m, cmd
	default:
		switch key {
		case "g", "home":
			m.reportView.GotoTop()
			return m, nil
		case "G", "end":
			m.reportView.GotoBottom()
			return m, nil
		}
		var cmd tea.Cmd
		m.reportView, cmd = m.reportView.Update(msg)
		return m, cmd
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.formMode {
		return fitLines(m.renderForm(), m.width, m.height)
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func newTable() table.Model {
	t := table.New(table.WithHeight(1))
	t.SetStyles(tableStyles())
	return t
}

func (m *Model) initForm() {
	m.formInputs = []textinput.Model{
		newFormInput("Name:  ", "Machine Learning"),
		newFormInput("Total: ", strconv.Itoa(m.opts.DefaultTotal)),
	}
}

func newFormInput(prompt, placeholder string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.Placeholder = placeholder
	input.CharLimit = 120
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := max(1, lipgloss.Height(activeNavStyle.Render("X")))
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if m.errMsg != "" || m.noticeMsg != "" {
		footerHeight++
	}
	bodyHeight = max(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.reportView.Width = m.width
	m.reportView.Height = bodyHeight
	m.subjectTable.SetColumns(subjectColumns(m.width))
	m.subjectTable.SetWidth(m.width)
	fitTableHeight(&m.subjectTable, bodyHeight)
	m.dayTable.SetColumns(dayColumns(m.width))
	m.dayTable.SetWidth(m.width)
	fitTableHeight(&m.dayTable, bodyHeight)
	for i := range m.formInputs {
		promptWidth := lipgloss.Width(m.formInputs[i].Prompt)
		m.formInputs[i].Width = max(10, modalWidth(m.width)-6-promptWidth)
	}
	m.renderReport()
}

func subjectColumns(width int) []table.Column {
	return nameColumn("Subject", width, []table.Column{
		{Title: "Att/Cond", Width: 9},
		{Title: "Total", Width: 6},
		{Title: "%", Width: 8},
		{Title: "Status", Width: 8},
		{Title: "Need", Width: 5},
		{Title: "Can miss", Width: 8},
	})
}

func dayColumns(width int) []table.Column {
	return nameColumn("Subject", width, []table.Column{
		{Title: "Status", Width: 9},
		{Title: "Att/Cond", Width: 9},
		{Title: "%", Width: 8},
	})
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	m.setTab(((m.activeTab+delta)%count + count) % count)
}

func (m *Model) setTab(tab int) {
	if tab < 0 || tab >= len(m.tabs) {
		return
	}
	m.activeTab = tab
	m.subjectTable.Blur()
	m.dayTable.Blur()
	switch tab {
	case tabSubjects:
		m.subjectTable.Focus()
		m.subjectTable.SetCursor(m.dayTable.Cursor())
	case tabDailyLog:
		m.dayTable.Focus()
		m.dayTable.SetCursor(m.subjectTable.Cursor())
	}
}

func (m *Model) refresh() {
	sem, err := m.store.LoadSemester(context.Background(), m.semesterID)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.sem = sem
	m.report = stats.NewReport(sem)
	m.subjectTable.SetRows(m.subjectRows())
	m.dayTable.SetRows(m.dayRows())
	m.renderReport()
	m.updateLayout()
}

func (m *Model) subjectRows() []table.Row {
	rows := make([]table.Row, 0, len(m.report.Rows))
	for _, r := range m.report.Rows {
		rows = append(rows, table.Row{
			r.Subject.Name,
			fmt.Sprintf("%d/%d", r.Subject.ClassesAttended, r.Subject.ConductedClasses),
			strconv.Itoa(r.Subject.FixedTotalClasses),
			attendance.FormatPercent(r.Stats.Percentage, m.opts.Decimals),
			levelLabel(r.Stats),
			strconv.Itoa(r.Stats.ClassesNeededToReachTarget),
			strconv.Itoa(r.Stats.ClassesCanMiss),
		})
	}
	return rows
}

func (m *Model) dayRows() []table.Row {
	day := m.day.Format(model.DateLayout)
	rows := make([]table.Row, 0, len(m.report.Rows))
	for _, r := range m.report.Rows {
		status, recorded := m.sem.Lookup(day, r.Subject.ID)
		label := string(status)
		if !recorded {
			label = "-"
		}
		rows = append(rows, table.Row{
			r.Subject.Name,
			label,
			fmt.Sprintf("%d/%d", r.Subject.ClassesAttended, r.Subject.ConductedClasses),
			attendance.FormatPercent(r.Stats.Percentage, m.opts.Decimals),
		})
	}
	return rows
}

func levelLabel(s model.AttendanceStats) string {
	if !s.Reachable {
		return string(s.Level) + "!"
	}
	return string(s.Level)
}

func (m *Model) renderReport() {
	var buf bytes.Buffer
	err := stats.RenderSemester(&buf, m.report, stats.RenderOptions{
		Decimals:    m.opts.Decimals,
		TrendWidth:  stats.TrendWidthFor(m.width),
		TrendWindow: 1,
	})
	if err != nil {
		m.reportView.SetContent(fmt.Sprintf("Failed to render report: %v", err))
		return
	}
	m.reportView.SetContent(strings.TrimRight(buf.String(), "\n"))
}

func (m *Model) selected(t table.Model) (model.Subject, bool) {
	idx := t.Cursor()
	if idx < 0 || idx >= len(m.report.Rows) {
		return model.Subject{}, false
	}
	return m.report.Rows[idx].Subject, true
}

func (m *Model) adjust(kind attendance.AdjustKind) {
	sub, ok := m.selected(m.subjectTable)
	if !ok {
		return
	}
	_, changed, err := m.store.AdjustSubject(context.Background(), m.semesterID, sub.ID, kind)
	m.setResult(err)
	if err == nil && !changed {
		m.noticeMsg = fmt.Sprintf("%s: %s not possible", sub.Name, kind)
	}
	m.refresh()
}

func (m *Model) mark(status model.Status) {
	sub, ok := m.selected(m.dayTable)
	if !ok {
		return
	}
	day := m.day.Format(model.DateLayout)
	updated, changed, err := m.store.SetDayStatus(context.Background(), m.semesterID, day, sub.ID, status)
	m.setResult(err)
	if err == nil && changed {
		m.noticeMsg = fmt.Sprintf("%s %s: %s (%d/%d)", day, sub.Name, status, updated.ClassesAttended, updated.ConductedClasses)
	}
	m.refresh()
}

func (m *Model) setResult(err error) {
	m.noticeMsg = ""
	m.errMsg = ""
	if err != nil {
		m.errMsg = err.Error()
	}
}

func (m *Model) shiftDay(days int) {
	m.day = m.day.AddDate(0, 0, days)
	m.dayTable.SetRows(m.dayRows())
}

func truncateDay(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	info := fmt.Sprintf("%s  overall %s (%d/%d)", m.sem.Name,
		attendance.FormatPercent(m.report.Overall(), m.opts.Decimals), m.report.Attended, m.report.Conducted)
	if m.activeTab == tabDailyLog {
		info += "  day " + m.day.Format("Mon 2006-01-02")
	}
	line := headerStyle.Render(info)
	if counts := m.renderLevelCounts(); counts != "" {
		line += "  " + counts
	}
	return tabs + "\n" + truncateStyled(line, m.width)
}

func (m *Model) renderLevelCounts() string {
	counts := map[model.Level]int{}
	for _, r := range m.report.Rows {
		counts[r.Stats.Level]++
	}
	parts := make([]string, 0, 3)
	for _, level := range []model.Level{model.Safe, model.Warning, model.Danger} {
		if counts[level] == 0 {
			continue
		}
		parts = append(parts, levelStyles[level].Render(fmt.Sprintf("%d %s", counts[level], level)))
	}
	return strings.Join(parts, " ")
}

func (m *Model) renderBody() string {
	if len(m.report.Rows) == 0 && m.activeTab != tabReport {
		return "No subjects yet. Press + to add one."
	}
	switch m.activeTab {
	case tabSubjects:
		return m.subjectTable.View()
	case tabDailyLog:
		return m.dayTable.View()
	default:
		return m.reportView.View()
	}
}

func (m *Model) renderHelp() string {
	help := "Tabs: tab  Attend: a/A  Miss: m/M  Add: +  Quit: q"
	switch m.activeTab {
	case tabDailyLog:
		help = "Tabs: tab  Day: left/right  Today: t  Present: p  Absent: x  No class: n  Add: +  Quit: q"
	case tabReport:
		help = "Tabs: tab  Scroll: up/down/pgup/pgdn  Add: +  Quit: q"
	}
	return headerStyle.Render(truncateLine(help, m.width))
}

func (m *Model) renderFooter() string {
	switch {
	case m.errMsg != "":
		return m.renderHelp() + "\n" + errorStyle.Render(truncateLine(m.errMsg, m.width))
	case m.noticeMsg != "":
		return m.renderHelp() + "\n" + noticeStyle.Render(truncateLine(m.noticeMsg, m.width))
	}
	return m.renderHelp()
}

func (m *Model) startForm() (tea.Model, tea.Cmd) {
	m.formMode = true
	m.formError = ""
	for i := range m.formInputs {
		m.formInputs[i].SetValue("")
	}
	return m, m.setFormIndex(formName)
}

func (m *Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.formMode = false
		m.formError = ""
		return m, nil
	case tea.KeyEnter:
		if m.formIndex == formName {
			return m, m.setFormIndex(formTotal)
		}
		if err := m.submitForm(); err != nil {
			m.formError = err.Error()
			return m, nil
		}
		m.formMode = false
		m.formError = ""
		return m, nil
	case tea.KeyTab, tea.KeyDown:
		return m, m.setFormIndex(m.formIndex + 1)
	case tea.KeyShiftTab, tea.KeyUp:
		return m, m.setFormIndex(m.formIndex - 1)
	}
	var cmd tea.Cmd
	m.formInputs[m.formIndex], cmd = m.formInputs[m.formIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFormIndex(idx int) tea.Cmd {
	count := len(m.formInputs)
	m.formIndex = (idx%count + count) % count
	var cmd tea.Cmd
	for i := range m.formInputs {
		if i == m.formIndex {
			cmd = m.formInputs[i].Focus()
		} else {
			m.formInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) submitForm() error {
	name := strings.TrimSpace(m.formInputs[formName].Value())
	total := m.opts.DefaultTotal
	if raw := strings.TrimSpace(m.formInputs[formTotal].Value()); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return errors.New("total must be a whole number")
		}
		total = parsed
	}
	sub, err := m.store.AddSubject(context.Background(), m.semesterID, model.NewSubject{Name: name, FixedTotal: total})
	if err != nil {
		var verr *store.ValidationError
		if errors.As(err, &verr) {
			return verr
		}
		return err
	}
	m.setResult(nil)
	m.noticeMsg = fmt.Sprintf("added %s (%d classes)", sub.Name, sub.FixedTotalClasses)
	m.refresh()
	m.subjectTable.SetCursor(len(m.report.Rows) - 1)
	m.dayTable.SetCursor(len(m.report.Rows) - 1)
	return nil
}

func (m *Model) renderForm() string {
	lines := []string{titleStyle.Render("Add subject to " + m.sem.Name)}
	for _, input := range m.formInputs {
		lines = append(lines, input.View())
	}
	lines = append(lines, headerStyle.Render("tab: next field  enter: save  esc: cancel"))
	if m.formError != "" {
		lines = append(lines, errorStyle.Render(m.formError))
	}
	box := modalStyle.Width(modalWidth(m.width)).Render(strings.Join(lines, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
