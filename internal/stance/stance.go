// Package stance describes which feet of the robot touch which staircase
// steps, together with the center-of-mass target for that contact set.
package stance

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/vovakirdan/stairwalk/internal/terrain"
)

// ErrInvalidStance is returned by Validate when the contact set does not
// match the phase.
var ErrInvalidStance = errors.New("stance: invalid stance")

// Phase tags a stance with its support phase. The suffix names the foot the
// phase refers to: for single support it is the supporting foot, for double
// support it is the foot that was placed last.
type Phase string

const (
	DoubleSupportLeft  Phase = "DS-L"
	DoubleSupportRight Phase = "DS-R"
	SingleSupportLeft  Phase = "SS-L"
	SingleSupportRight Phase = "SS-R"
)

// IsSingleSupport reports whether exactly one foot is in contact.
func (p Phase) IsSingleSupport() bool {
	return p == SingleSupportLeft || p == SingleSupportRight
}

// IsDoubleSupport reports whether both feet are expected in contact.
func (p Phase) IsDoubleSupport() bool {
	return p == DoubleSupportLeft || p == DoubleSupportRight
}

// Stance is the contact configuration for one phase of the walk.
// A nil foot is free (swinging).
type Stance struct {
	Left  *terrain.Surface
	Right *terrain.Surface
	COM   r3.Vec // Target center of mass
	Phase Phase
}

// IsSingleSupport reports whether the stance is a single-support phase.
func (s Stance) IsSingleSupport() bool {
	return s.Phase.IsSingleSupport()
}

// IsDoubleSupport reports whether the stance is a double-support phase.
func (s Stance) IsDoubleSupport() bool {
	return s.Phase.IsDoubleSupport()
}

// Contacts returns the non-free contacts, left first.
func (s Stance) Contacts() []terrain.Surface {
	contacts := make([]terrain.Surface, 0, 2)
	if s.Left != nil {
		contacts = append(contacts, *s.Left)
	}
	if s.Right != nil {
		contacts = append(contacts, *s.Right)
	}
	return contacts
}

// Validate checks that the contact set is consistent with the phase:
// double support needs at least one contact, single support exactly one.
func (s Stance) Validate() error {
	n := len(s.Contacts())
	switch {
	case s.Phase.IsDoubleSupport():
		if n == 0 {
			return fmt.Errorf("%w: %s has no contacts", ErrInvalidStance, s.Phase)
		}
	case s.Phase.IsSingleSupport():
		if n != 1 {
			return fmt.Errorf("%w: %s has %d contacts", ErrInvalidStance, s.Phase, n)
		}
	default:
		return fmt.Errorf("%w: unknown phase %q", ErrInvalidStance, s.Phase)
	}
	return nil
}

// SupportPolygon returns the horizontal projection of the convex hull of all
// contact vertices, counter-clockwise, with Z set to zero. It is empty when
// the stance has no contacts.
func (s Stance) SupportPolygon() []r3.Vec {
	var points []r3.Vec
	for _, c := range s.Contacts() {
		for _, v := range c.Vertices() {
			points = append(points, r3.Vec{X: v.X, Y: v.Y})
		}
	}
	return ConvexHull(points)
}

// ConvexHull computes the 2D convex hull (X, Y) of the points using the
// monotone chain algorithm. Collinear points are dropped.
func ConvexHull(points []r3.Vec) []r3.Vec {
	if len(points) < 3 {
		return append([]r3.Vec(nil), points...)
	}

	pts := append([]r3.Vec(nil), points...)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})

	hull := make([]r3.Vec, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && cross2(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross2(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

// cross2 is the z component of (a - o) × (b - o).
func cross2(o, a, b r3.Vec) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// Contains reports whether the horizontal point (x, y) lies inside or on the
// boundary of a counter-clockwise convex polygon.
func Contains(polygon []r3.Vec, p r3.Vec) bool {
	if len(polygon) < 3 {
		return false
	}
	for i := range polygon {
		a := polygon[i]
		b := polygon[(i+1)%len(polygon)]
		if cross2(a, b, p) < 0 {
			return false
		}
	}
	return true
}
