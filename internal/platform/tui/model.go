package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/stairwalk/internal/core"
	"github.com/vovakirdan/stairwalk/internal/render"
	"github.com/vovakirdan/stairwalk/internal/session"
)

// Viewer layout constants
const (
	chromeLines = 2 // Status and help lines below the drawing
	minSpeed    = 0.125
	maxSpeed    = 8.0
	maxCatchUp  = 10 // Max ticks run per frame
)

// Builder creates a session drawing on r. The viewer calls it once at
// start and again on every restart.
type Builder func(r render.Renderer) (*session.Session, error)

// Model is the Bubble Tea model for watching a simulation. Ticks run on
// the Update goroutine through Session.Step; the kinematics thread runs in
// the background for the lifetime of the session.
type Model struct {
	ctx      context.Context
	build    Builder
	sess     *session.Session
	renderer *render.ScreenRenderer
	screen   *core.Screen
	config   core.RuntimeConfig

	paused  bool
	speed   float64
	pending time.Duration // Simulated time owed to the simulation
	err     error         // Last step error

	showTimings bool
	timings     table.Model
	help        help.Model
	keys        ViewerKeyMap
	quitting    bool
}

// NewModel builds the first session and starts its kinematics thread.
// The thread stops when ctx ends or the model is closed.
func NewModel(ctx context.Context, build Builder, cfg core.RuntimeConfig) (Model, error) {
	m := Model{
		ctx:     ctx,
		build:   build,
		config:  cfg,
		speed:   1,
		help:    help.New(),
		keys:    DefaultViewerKeyMap(),
		timings: newTable(timingColumns(cfg.ScreenW), cfg.ScreenH-8),
	}
	m.screen = core.NewScreen(cfg.ScreenW, m.drawHeight())
	if err := m.reset(); err != nil {
		return Model{}, err
	}
	return m, nil
}

func (m Model) drawHeight() int {
	return max(m.config.ScreenH-chromeLines, 1)
}

// reset replaces the current session with a fresh one.
// On failure the current session keeps running.
func (m *Model) reset() error {
	renderer := render.NewScreenRenderer()
	sess, err := m.build(renderer)
	if err != nil {
		return fmt.Errorf("tui: build session: %w", err)
	}
	if err := sess.StartKinematics(m.ctx); err != nil {
		sess.Close()
		return fmt.Errorf("tui: start kinematics: %w", err)
	}
	if m.sess != nil {
		m.sess.Close()
	}
	m.sess, m.renderer = sess, renderer
	m.pending = 0
	m.err = nil
	return nil
}

// Close stops the current session.
func (m Model) Close() {
	if m.sess != nil {
		m.sess.Close()
	}
}

// Session returns the session currently shown.
func (m Model) Session() *session.Session {
	return m.sess
}

// Init starts the frame loop.
func (m Model) Init() tea.Cmd {
	return tickCmd(m.config.TickRate)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.config.ScreenW = msg.Width
		m.config.ScreenH = msg.Height
		m.screen.Resize(msg.Width, m.drawHeight())
		m.timings.SetHeight(max(msg.Height-8, 3))
		m.timings.SetColumns(timingColumns(msg.Width))
		m.help.Width = msg.Width
		return m, nil

	case TickMsg:
		return m.handleTick()
	}

	if m.showTimings {
		var cmd tea.Cmd
		m.timings, cmd = m.timings.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Pause):
		m.paused = !m.paused
		m.pending = 0
	case key.Matches(msg, m.keys.Step):
		m.err = m.sess.Step(m.ctx, 1)
	case key.Matches(msg, m.keys.Faster):
		m.speed = min(m.speed*2, maxSpeed)
	case key.Matches(msg, m.keys.Slower):
		m.speed = max(m.speed/2, minSpeed)
	case key.Matches(msg, m.keys.Timings):
		m.showTimings = !m.showTimings
		m.timings.SetRows(simTimingRows(m.sess.Sim.Timings()))
	case key.Matches(msg, m.keys.Screenshot):
		m.saveScreenshot()
	case key.Matches(msg, m.keys.Restart):
		if err := m.reset(); err != nil {
			m.err = err
		}
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	default:
		if m.showTimings {
			var cmd tea.Cmd
			m.timings, cmd = m.timings.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// handleTick advances the simulation by the simulated time owed for one
// frame at the current speed.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	if !m.paused {
		dt := m.sess.Sim.Dt()
		m.pending += time.Duration(float64(frameInterval(m.config.TickRate)) * m.speed)
		n := int(m.pending / dt)
		if n > maxCatchUp {
			n = maxCatchUp
			m.pending = 0
		} else {
			m.pending -= time.Duration(n) * dt
		}
		if n > 0 {
			m.err = m.sess.Step(m.ctx, n)
		}
	}
	if m.showTimings {
		m.timings.SetRows(simTimingRows(m.sess.Sim.Timings()))
	}
	return m, tickCmd(m.config.TickRate)
}

// saveScreenshot saves the current screen to a file.
func (m *Model) saveScreenshot() {
	m.draw()

	// Create screenshots directory
	dir := filepath.Join(os.Getenv("HOME"), ".stairwalk", "screenshots")
	//nolint:errcheck // Best-effort directory creation
	os.MkdirAll(dir, 0o755)

	// Generate filename with timestamp
	timestamp := time.Now().Format("20060102_150405")
	path := filepath.Join(dir, fmt.Sprintf("stairwalk_%s.txt", timestamp))

	//nolint:errcheck // Best-effort save, simulation continues regardless
	os.WriteFile(path, []byte(m.screen.String()), 0o600)
}

func (m Model) draw() {
	m.renderer.Draw(m.screen, render.StaircaseViewport(m.screen.Width(), m.screen.Height()))
}

var (
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	pausedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// status is the one-line summary under the drawing.
func (m Model) status() string {
	clock := m.sess.Sim.Clock()
	parts := []string{
		fmt.Sprintf("t=%.2fs", clock.Seconds()),
		fmt.Sprintf("phase %s", m.sess.FSM.CurrentPhase()),
		fmt.Sprintf("ticks %d", clock.Ticks),
		fmt.Sprintf("x%g", m.speed),
		fmt.Sprintf("solves %d", m.sess.Kinematics.Solves()),
		fmt.Sprintf("infeasible %d", m.sess.Support.Infeasible()),
	}
	line := statusStyle.Render(strings.Join(parts, "  "))
	if m.paused {
		line += "  " + pausedStyle.Render("PAUSED")
	}
	if m.err != nil {
		line += "  " + errorStyle.Render(m.err.Error())
	}
	return line
}

// View renders the current state to a string for display.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	if m.showTimings {
		b.WriteString(titleStyle.Render(centerText("PROCESS TIMINGS", m.config.ScreenW)))
		b.WriteString("\n\n")
		b.WriteString(panelStyle.Render(m.timings.View()))
	} else {
		m.draw()
		b.WriteString(RenderScreen(m.screen))
	}
	b.WriteString("\n")
	b.WriteString(m.status())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

// Run starts the Bubble Tea program for a new viewer and closes the
// session it ends with.
func Run(ctx context.Context, build Builder, cfg core.RuntimeConfig) error {
	model, err := NewModel(ctx, build, cfg)
	if err != nil {
		return err
	}

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.Close()
	} else {
		model.Close()
	}
	return err
}
