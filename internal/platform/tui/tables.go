package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/stairwalk/internal/sim"
	"github.com/vovakirdan/stairwalk/internal/storage"
)

// timingColumns are the columns of every per-process timing table.
func timingColumns(width int) []table.Column {
	columns := []table.Column{
		{Title: "Process", Width: 18},
		{Title: "Group", Width: 6},
		{Title: "Calls", Width: 8},
		{Title: "Failures", Width: 8},
		{Title: "Average", Width: 10},
	}
	// Give spare width to the process name
	if extra := width - 4 - 18 - 6 - 8 - 8 - 10 - 10; extra > 0 {
		columns[0].Width += min(extra, 12)
	}
	return columns
}

// newTable creates a focused table with the shared styles.
func newTable(columns []table.Column, height int) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(max(height, 3)),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)
	return t
}

func formatAverage(d time.Duration) string {
	return d.Round(100 * time.Nanosecond).String()
}

// simTimingRows converts live scheduler timings into table rows.
func simTimingRows(timings []sim.Timing) []table.Row {
	rows := make([]table.Row, len(timings))
	for i, t := range timings {
		rows[i] = table.Row{
			t.Name,
			string(t.Group),
			fmt.Sprintf("%d", t.Calls),
			fmt.Sprintf("%d", t.Failures),
			formatAverage(t.Average()),
		}
	}
	return rows
}

// storedTimingRows converts stored timings into table rows.
func storedTimingRows(timings []storage.ProcessTiming) []table.Row {
	rows := make([]table.Row, len(timings))
	for i, t := range timings {
		rows[i] = table.Row{
			t.Name,
			t.Group,
			fmt.Sprintf("%d", t.Calls),
			fmt.Sprintf("%d", t.Failures),
			formatAverage(t.Average),
		}
	}
	return rows
}

var panelStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("240")).
	Padding(0, 1)

var titleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("229"))

var helpStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("241"))
