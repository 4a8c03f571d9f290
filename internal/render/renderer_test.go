package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/vovakirdan/stairwalk/internal/core"
)

func TestHandleLifetime(t *testing.T) {
	r := NewScreenRenderer()
	h := r.Point(r3.Vec{}, core.ColorRed)
	l := r.Line(r3.Vec{}, r3.Vec{X: 1}, core.ColorRed)
	assert.Equal(t, 2, r.Len())

	h.Remove()
	assert.Equal(t, 1, r.Len())
	h.Remove()
	assert.Equal(t, 1, r.Len())

	RemoveAll([]Handle{l, nil})
	assert.Zero(t, r.Len())
}

func TestDegenerateShapes(t *testing.T) {
	two := []r3.Vec{{}, {X: 1}}
	for name, r := range map[string]Renderer{"screen": NewScreenRenderer(), "nop": NopRenderer{}} {
		t.Run(name, func(t *testing.T) {
			_, err := r.Polygon(two, core.ColorCyan)
			assert.ErrorIs(t, err, ErrDegenerate)
			_, err = r.Cone(r3.Vec{}, two, core.ColorCyan)
			assert.ErrorIs(t, err, ErrDegenerate)
			_, err = r.Polyhedron(append(two, r3.Vec{Y: 1}), core.ColorCyan)
			assert.ErrorIs(t, err, ErrDegenerate)

			h, err := r.Polygon(append(two, r3.Vec{Y: 1}), core.ColorCyan)
			require.NoError(t, err)
			h.Remove()
		})
	}
}

func TestDrawPointsOnTop(t *testing.T) {
	r := NewScreenRenderer()
	r.Point(r3.Vec{}, core.ColorRed)
	r.Line(r3.Vec{X: -1}, r3.Vec{X: 1}, core.ColorGreen)
	_, err := r.Polygon([]r3.Vec{{X: -0.5, Y: -0.5}, {X: 0.5, Y: -0.5}, {X: 0.5, Y: 0.5}, {X: -0.5, Y: 0.5}}, core.ColorCyan)
	require.NoError(t, err)

	screen := core.NewScreen(40, 20)
	vp := core.FitViewport(1.5, 40, 20)
	r.Draw(screen, vp)

	x, y := vp.Project(0, 0)
	assert.Equal(t, core.Cell{Rune: 'o', Color: core.ColorRed}, screen.GetCell(x, y))
	lx, ly := vp.Project(-1, 0)
	assert.Equal(t, '.', screen.GetCell(lx, ly).Rune)
	px, py := vp.Project(0.5, 0.5)
	assert.Equal(t, '#', screen.GetCell(px, py).Rune)
	assert.Equal(t, core.BackgroundNormal, screen.Background())
}

func TestDrawBackgroundAndClear(t *testing.T) {
	r := NewScreenRenderer()
	h := r.Point(r3.Vec{}, core.ColorRed)
	screen := core.NewScreen(10, 5)
	vp := core.FitViewport(1, 10, 5)

	r.SetBackground(core.BackgroundAlarm)
	r.Draw(screen, vp)
	assert.Equal(t, core.BackgroundAlarm, screen.Background())
	assert.Contains(t, screen.String(), "o")

	h.Remove()
	r.Draw(screen, vp)
	assert.Equal(t, strings.Repeat(" ", 10), row(screen, 2))
}

func TestConeAndPolyhedronDraw(t *testing.T) {
	r := NewScreenRenderer()
	_, err := r.Cone(r3.Vec{}, []r3.Vec{{X: 1, Y: 1}, {X: -1, Y: 1}, {X: 0, Y: -1}}, core.ColorYellow)
	require.NoError(t, err)
	_, err = r.Polyhedron([]r3.Vec{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}, {Z: 1}, {Z: -1}}, core.ColorCyan)
	require.NoError(t, err)

	screen := core.NewScreen(40, 20)
	r.Draw(screen, core.FitViewport(1.5, 40, 20))
	out := screen.String()
	assert.Contains(t, out, "+")
	assert.Contains(t, out, "*")
}

func row(s *core.Screen, y int) string {
	return strings.Split(s.String(), "\n")[y]
}
