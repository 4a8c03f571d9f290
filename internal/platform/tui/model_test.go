package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/stairwalk/internal/config"
	"github.com/vovakirdan/stairwalk/internal/core"
	"github.com/vovakirdan/stairwalk/internal/render"
	"github.com/vovakirdan/stairwalk/internal/session"
)

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(t *testing.T) Model {
	t.Helper()
	cfg := config.Default()
	build := func(r render.Renderer) (*session.Session, error) {
		return session.New(cfg, session.WithRenderer(r))
	}
	m, err := NewModel(context.Background(), build, core.RuntimeConfig{ScreenW: 60, ScreenH: 20, TickRate: 30})
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm
}

func TestModelTickAdvancesSimulation(t *testing.T) {
	m := newTestModel(t)

	m = update(t, m, TickMsg(time.Now()))
	assert.Equal(t, uint64(1), m.Session().Sim.Clock().Ticks)
	assert.NoError(t, m.err)
}

func TestModelPauseAndStep(t *testing.T) {
	m := newTestModel(t)

	m = update(t, m, keyMsg("p"))
	assert.True(t, m.paused)
	m = update(t, m, TickMsg(time.Now()))
	assert.Zero(t, m.Session().Sim.Clock().Ticks)

	m = update(t, m, keyMsg("n"))
	assert.Equal(t, uint64(1), m.Session().Sim.Clock().Ticks)
}

func TestModelSpeedLimits(t *testing.T) {
	m := newTestModel(t)

	for i := 0; i < 10; i++ {
		m = update(t, m, keyMsg("+"))
	}
	assert.Equal(t, maxSpeed, m.speed)
	for i := 0; i < 10; i++ {
		m = update(t, m, keyMsg("-"))
	}
	assert.Equal(t, minSpeed, m.speed)
}

func TestModelRestart(t *testing.T) {
	m := newTestModel(t)
	first := m.Session()

	m = update(t, m, keyMsg("n"))
	m = update(t, m, keyMsg("r"))
	assert.NotSame(t, first, m.Session())
	assert.Zero(t, m.Session().Sim.Clock().Ticks)
}

func TestModelView(t *testing.T) {
	m := newTestModel(t)
	m = update(t, m, TickMsg(time.Now()))

	view := m.View()
	assert.Contains(t, view, "phase")
	assert.Contains(t, view, "ticks 1")

	m = update(t, m, keyMsg("t"))
	assert.Contains(t, m.View(), "PROCESS TIMINGS")

	m = update(t, m, keyMsg("q"))
	assert.Empty(t, m.View())
}

func TestRenderScreenKeepsRunes(t *testing.T) {
	s := core.NewScreen(4, 2)
	s.Set(1, 0, '#', core.ColorWhite)
	s.Set(2, 1, 'o', core.ColorRed)

	out := RenderScreen(s)
	assert.Equal(t, 2, strings.Count(out, "\n")+1)
	assert.Contains(t, out, "#")
	assert.Contains(t, out, "o")
}
