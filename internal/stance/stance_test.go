package stance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/vovakirdan/stairwalk/internal/terrain"
)

func flatStep(x, y float64, index int) *terrain.Surface {
	return &terrain.Surface{
		HalfX:    0.2,
		HalfY:    0.1,
		Pos:      r3.Vec{X: x, Y: y},
		Friction: 0.7,
		Visible:  true,
		Index:    index,
	}
}

func TestStanceValidate(t *testing.T) {
	left := flatStep(0, 0.1, 0)
	right := flatStep(0, -0.1, 1)

	tests := []struct {
		name    string
		stance  Stance
		wantErr bool
	}{
		{"double support both feet", Stance{Left: left, Right: right, Phase: DoubleSupportRight}, false},
		{"double support one foot", Stance{Left: left, Phase: DoubleSupportLeft}, false},
		{"double support no contact", Stance{Phase: DoubleSupportLeft}, true},
		{"single support left", Stance{Left: left, Phase: SingleSupportLeft}, false},
		{"single support two feet", Stance{Left: left, Right: right, Phase: SingleSupportRight}, true},
		{"single support free", Stance{Phase: SingleSupportRight}, true},
		{"unknown phase", Stance{Left: left, Phase: "??"}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.stance.Validate()
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidStance)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStanceContactsOrder(t *testing.T) {
	left := flatStep(0, 0.1, 4)
	right := flatStep(0, -0.1, 5)

	contacts := Stance{Left: left, Right: right, Phase: DoubleSupportLeft}.Contacts()
	require.Len(t, contacts, 2)
	assert.Equal(t, 4, contacts[0].Index)
	assert.Equal(t, 5, contacts[1].Index)

	assert.Empty(t, Stance{Phase: DoubleSupportLeft}.Contacts())
}

func TestSupportPolygon(t *testing.T) {
	st := Stance{
		Left:  flatStep(0, 0.2, 0),
		Right: flatStep(0, -0.2, 1),
		Phase: DoubleSupportRight,
	}

	poly := st.SupportPolygon()
	require.Len(t, poly, 4, "two aligned rectangles span a single rectangle")

	assert.True(t, Contains(poly, r3.Vec{}))
	assert.True(t, Contains(poly, r3.Vec{X: 0.19, Y: 0.29}))
	assert.False(t, Contains(poly, r3.Vec{X: 0.3, Y: 0}))
	assert.False(t, Contains(poly, r3.Vec{X: 0, Y: 0.35}))

	assert.Empty(t, Stance{Phase: DoubleSupportLeft}.SupportPolygon())
}

func TestConvexHullDropsInteriorPoints(t *testing.T) {
	points := []r3.Vec{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1},
		{X: 0.5, Y: 0.5}, {X: 0.2, Y: 0.7},
	}
	hull := ConvexHull(points)
	assert.Len(t, hull, 4)

	// Counter-clockwise orientation
	area := 0.0
	for i := range hull {
		a, b := hull[i], hull[(i+1)%len(hull)]
		area += a.X*b.Y - b.X*a.Y
	}
	assert.Greater(t, area, 0.0)
}

func TestPhase(t *testing.T) {
	assert.True(t, SingleSupportLeft.IsSingleSupport())
	assert.True(t, SingleSupportRight.IsSingleSupport())
	assert.True(t, DoubleSupportLeft.IsDoubleSupport())
	assert.False(t, DoubleSupportRight.IsSingleSupport())
}
