package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/stairwalk/internal/storage"
)

// maxReports is the number of stored runs loaded into the browser.
const maxReports = 100

// ReportsModel is the Bubble Tea model browsing stored run reports.
type ReportsModel struct {
	store    *storage.Store
	reports  []storage.Report
	runs     table.Model
	timings  table.Model
	detail   bool // Showing timings of the selected run
	help     help.Model
	keys     ReportsKeyMap
	width    int
	height   int
	err      error
	quitting bool
}

// NewReportsModel creates a new reports browser.
func NewReportsModel(store *storage.Store, width, height int) ReportsModel {
	m := ReportsModel{
		store:  store,
		help:   help.New(),
		keys:   DefaultReportsKeyMap(),
		width:  width,
		height: height,
	}
	m.runs = m.createRunsTable()
	m.timings = newTable(timingColumns(width), height-8)
	m.loadReports()
	return m
}

func (m *ReportsModel) createRunsTable() table.Model {
	columns := []table.Column{
		{Title: "Run", Width: 8},
		{Title: "Date", Width: 14},
		{Title: "Seed", Width: 8},
		{Title: "Ticks", Width: 8},
		{Title: "Dt", Width: 6},
		{Title: "Infeasible", Width: 10},
		{Title: "Solves", Width: 8},
	}
	return newTable(columns, m.height-8) // Leave room for header, help, and margins
}

// loadReports loads the most recent runs.
func (m *ReportsModel) loadReports() {
	m.reports = nil
	if m.store != nil {
		m.reports, m.err = m.store.RecentReports(maxReports)
	}

	rows := make([]table.Row, len(m.reports))
	for i, r := range m.reports {
		id := r.RunID
		if len(id) > 8 {
			id = id[:8]
		}
		rows[i] = table.Row{
			id,
			r.CreatedAt.Format("Jan 02 15:04"),
			fmt.Sprintf("%d", r.Seed),
			fmt.Sprintf("%d", r.Ticks),
			r.Dt.String(),
			fmt.Sprintf("%d", r.InfeasibleTicks),
			fmt.Sprintf("%d", r.Solves),
		}
	}
	m.runs.SetRows(rows)
	m.runs.GotoTop()
}

// showTimings loads the timings of the selected run.
func (m *ReportsModel) showTimings() {
	i := m.runs.Cursor()
	if m.store == nil || i < 0 || i >= len(m.reports) {
		return
	}
	timings, err := m.store.ReportTimings(m.reports[i].RunID)
	if err != nil {
		m.err = err
		return
	}
	m.timings.SetRows(storedTimingRows(timings))
	m.timings.GotoTop()
	m.detail = true
}

// Init initializes the reports model.
func (m ReportsModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the reports browser.
func (m ReportsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Back):
			if m.detail {
				m.detail = false
				return m, nil
			}
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Select):
			if !m.detail {
				m.showTimings()
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.runs.SetHeight(max(m.height-8, 3))
		m.timings.SetHeight(max(m.height-8, 3))
		m.help.Width = msg.Width
		return m, nil
	}

	if m.detail {
		m.timings, cmd = m.timings.Update(msg)
	} else {
		m.runs, cmd = m.runs.Update(msg)
	}
	return m, cmd
}

// View renders the reports browser.
func (m ReportsModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	title := "RUN REPORTS"
	if m.detail {
		title = fmt.Sprintf("RUN %s - PROCESS TIMINGS", m.reports[m.runs.Cursor()].RunID)
	}
	b.WriteString(titleStyle.Render(centerText(title, m.width)))
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(panelStyle.Render(fmt.Sprintf("Cannot read reports: %v", m.err)))
	case m.detail:
		b.WriteString(panelStyle.Render(m.timings.View()))
	case len(m.reports) == 0:
		emptyStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true).
			Padding(2, 4)
		b.WriteString(panelStyle.Render(emptyStyle.Render("No runs recorded yet.\nRun `stairwalk run` to store one.")))
	default:
		b.WriteString(panelStyle.Render(m.runs.View()))
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

// centerText pads text to center it within width.
func centerText(text string, width int) string {
	w := lipgloss.Width(text)
	if w >= width {
		return text
	}
	return strings.Repeat(" ", (width-w)/2) + text
}

// RunReports runs the reports browser until the user quits.
func RunReports(store *storage.Store, width, height int) error {
	p := tea.NewProgram(
		NewReportsModel(store, width, height),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
