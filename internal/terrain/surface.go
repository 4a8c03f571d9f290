// Package terrain models the contact surfaces a legged robot can step on and
// generates the spiral staircase the walking simulation runs over.
package terrain

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Surface is a rectangular contact area (one staircase step).
// It is an immutable value: the generator creates it once and every other
// component only reads it. Identity is position plus generation index.
type Surface struct {
	HalfX    float64 // Half-length along the local x axis
	HalfY    float64 // Half-width along the local y axis
	Pos      r3.Vec  // Center position in the world frame
	RPY      r3.Vec  // Roll, pitch, yaw (X, Y, Z) in radians
	Friction float64 // Static friction coefficient
	Visible  bool    // Whether renderers should draw it
	Index    int     // Position in the generated sequence
}

// Rotation returns the columns of the surface's rotation matrix
// R = Rz(yaw) · Ry(pitch) · Rx(roll). The columns are the local x, y and z
// axes expressed in the world frame.
func (s Surface) Rotation() (ex, ey, ez r3.Vec) {
	sr, cr := math.Sincos(s.RPY.X)
	sp, cp := math.Sincos(s.RPY.Y)
	sy, cy := math.Sincos(s.RPY.Z)

	ex = r3.Vec{X: cy * cp, Y: sy * cp, Z: -sp}
	ey = r3.Vec{X: cy*sp*sr - sy*cr, Y: sy*sp*sr + cy*cr, Z: cp * sr}
	ez = r3.Vec{X: cy*sp*cr + sy*sr, Y: sy*sp*cr - cy*sr, Z: cp * cr}
	return ex, ey, ez
}

// Normal returns the unit contact normal (local z axis).
func (s Surface) Normal() r3.Vec {
	_, _, ez := s.Rotation()
	return ez
}

// Vertices returns the four corners of the surface in the world frame,
// counter-clockwise when seen from above the normal.
func (s Surface) Vertices() [4]r3.Vec {
	ex, ey, _ := s.Rotation()
	ax := r3.Scale(s.HalfX, ex)
	ay := r3.Scale(s.HalfY, ey)
	return [4]r3.Vec{
		r3.Add(s.Pos, r3.Add(ax, ay)),
		r3.Add(s.Pos, r3.Sub(ay, ax)),
		r3.Sub(s.Pos, r3.Add(ax, ay)),
		r3.Add(s.Pos, r3.Sub(ax, ay)),
	}
}
