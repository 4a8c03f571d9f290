package terrain

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestGenerateStaircaseScenario(t *testing.T) {
	p := StaircaseParams{
		Radius:      1.4,
		AngularStep: 0.5,
		Height:      1.4,
		Roughness:   0.5,
		Friction:    0.7,
		StepDimX:    0.2,
		StepDimY:    0.1,
	}

	steps, err := GenerateStaircase(p, NewRand(42))
	require.NoError(t, err)
	require.Len(t, steps, 26)

	for i, s := range steps {
		assert.Equal(t, 0.7, s.Friction, "step %d friction", i)
		assert.Equal(t, 0.2, s.HalfX, "step %d half-length", i)
		assert.Equal(t, 0.1, s.HalfY, "step %d half-width", i)
		assert.True(t, s.Visible, "step %d should be visible", i)
		assert.Equal(t, i, s.Index)
	}
}

func TestGenerateStaircaseCount(t *testing.T) {
	tests := []struct {
		step     float64
		expected int
	}{
		{0.5, 26},
		{1.0, 14},
		{3.0, 6},
		{6.0, 4},
		{0.1, 2 * 63},
	}

	for _, tc := range tests {
		p := DefaultStaircaseParams()
		p.AngularStep = tc.step
		steps, err := GenerateStaircase(p, NewRand(1))
		require.NoError(t, err)
		assert.Len(t, steps, tc.expected, "angular step %v", tc.step)
		assert.Equal(t, tc.expected, 2*int(math.Ceil(2*math.Pi/tc.step)))
	}
}

func TestGenerateStaircaseDeterminism(t *testing.T) {
	p := DefaultStaircaseParams()

	a, err := GenerateStaircase(p, NewRand(7))
	require.NoError(t, err)
	b, err := GenerateStaircase(p, NewRand(7))
	require.NoError(t, err)
	require.Equal(t, a, b)

	c, err := GenerateStaircase(p, NewRand(8))
	require.NoError(t, err)
	assert.NotEqual(t, a, c, "different seeds should give different perturbations")
}

func TestGenerateStaircaseGeometry(t *testing.T) {
	p := DefaultStaircaseParams()
	p.Roughness = 0

	steps, err := GenerateStaircase(p, NewRand(3))
	require.NoError(t, err)

	left, right := steps[2], steps[3] // second angular step
	theta := p.AngularStep

	assert.InDelta(t, p.Radius*math.Cos(theta), left.Pos.X, 1e-12)
	assert.InDelta(t, p.Radius*math.Sin(theta), left.Pos.Y, 1e-12)
	assert.InDelta(t, p.Radius+0.5*p.Height*math.Sin(theta), left.Pos.Z, 1e-12)
	assert.InDelta(t, theta+0.5*math.Pi, left.RPY.Z, 1e-12)

	offset := theta + 0.5*p.AngularStep
	assert.InDelta(t, 1.3*p.Radius*math.Cos(offset), right.Pos.X, 1e-12)
	assert.InDelta(t, 1.3*p.Radius*math.Sin(offset), right.Pos.Y, 1e-12)
	assert.InDelta(t, p.Radius+0.5*p.Height*math.Sin(offset), right.Pos.Z, 1e-12)
	assert.InDelta(t, offset+0.5*math.Pi, right.RPY.Z, 1e-12)

	// Flat steps have a vertical normal
	n := left.Normal()
	assert.InDelta(t, 1.0, n.Z, 1e-12)
}

func TestGenerateStaircaseRoughnessBounds(t *testing.T) {
	p := DefaultStaircaseParams()
	steps, err := GenerateStaircase(p, NewRand(99))
	require.NoError(t, err)

	for _, s := range steps {
		assert.LessOrEqual(t, math.Abs(s.RPY.X), p.Roughness/2)
		assert.LessOrEqual(t, math.Abs(s.RPY.Y), p.Roughness/2)
	}
}

func TestGenerateStaircaseInvalidStep(t *testing.T) {
	for _, step := range []float64{0, -0.5, 2 * math.Pi, 7, math.NaN()} {
		p := DefaultStaircaseParams()
		p.AngularStep = step
		steps, err := GenerateStaircase(p, NewRand(1))
		assert.Nil(t, steps)
		assert.True(t, errors.Is(err, ErrInvalidParameter), "step %v: got %v", step, err)
	}
}

func TestGenerateStaircaseNilRand(t *testing.T) {
	_, err := GenerateStaircase(DefaultStaircaseParams(), nil)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

// fixedRand returns the same value for every draw.
type fixedRand float64

func (f fixedRand) Float64() float64 { return float64(f) }

func TestGenerateStaircaseUsesSource(t *testing.T) {
	p := DefaultStaircaseParams()
	steps, err := GenerateStaircase(p, fixedRand(1.0))
	require.NoError(t, err)

	// u = 1 gives the maximal perturbation of +roughness/2 on each axis
	assert.InDelta(t, p.Roughness/2, steps[0].RPY.X, 1e-12)
	assert.InDelta(t, p.Roughness/2, steps[0].RPY.Y, 1e-12)
	assert.InDelta(t, p.Roughness/2+0.5*math.Pi, steps[0].RPY.Z, 1e-12)
}

func TestSurfaceVertices(t *testing.T) {
	s := Surface{HalfX: 0.2, HalfY: 0.1, Pos: r3.Vec{X: 1, Y: 2, Z: 3}}
	v := s.Vertices()

	expected := [4]r3.Vec{
		{X: 1.2, Y: 2.1, Z: 3},
		{X: 0.8, Y: 2.1, Z: 3},
		{X: 0.8, Y: 1.9, Z: 3},
		{X: 1.2, Y: 1.9, Z: 3},
	}
	for i := range v {
		assert.InDelta(t, expected[i].X, v[i].X, 1e-12)
		assert.InDelta(t, expected[i].Y, v[i].Y, 1e-12)
		assert.InDelta(t, expected[i].Z, v[i].Z, 1e-12)
	}

	// A quarter-turn yaw swaps the extents
	s.RPY = r3.Vec{Z: math.Pi / 2}
	v = s.Vertices()
	assert.InDelta(t, 1-0.1, v[0].X, 1e-12)
	assert.InDelta(t, 2+0.2, v[0].Y, 1e-12)
}
