// Package support decides whether the current stance can hold the robot up
// and, when it can, how the required wrench splits over the contacts.
//
// Each contact is modelled by its four corners, each carrying a linearized
// friction cone with four edges. Forces are nonnegative combinations of the
// edges, which keeps every vertex force inside the cone and the centre of
// pressure inside the surface. The distribution is the solution of a small
// linear program solved with gonum's simplex.
package support

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/vovakirdan/stairwalk/internal/stance"
	"github.com/vovakirdan/stairwalk/internal/terrain"
)

// ErrInfeasibleSupport means no contact force distribution produces the
// requested wrench.
var ErrInfeasibleSupport = errors.New("support: infeasible support")

// Gravity is the gravity acceleration in the world frame.
var Gravity = r3.Vec{Z: -9.81}

const (
	edgesPerVertex  = 4
	columnsPerPatch = 4 * edgesPerVertex
	simplexTol      = 1e-10
)

// Wrench is a net force and a torque about the centre of mass.
type Wrench struct {
	Force  r3.Vec
	Torque r3.Vec
}

// ContactForce is the resultant force applied on one surface.
type ContactForce struct {
	Surface  terrain.Surface
	Force    r3.Vec    // Sum of the vertex forces
	Vertices [4]r3.Vec // Force at each surface corner, same order as Surface.Vertices
}

// Normal returns the component of the force along the surface normal.
func (c ContactForce) Normal() float64 {
	return r3.Dot(c.Force, c.Surface.Normal())
}

// Tangential returns the magnitude of the force in the surface plane.
func (c ContactForce) Tangential() float64 {
	n := c.Surface.Normal()
	return r3.Norm(r3.Sub(c.Force, r3.Scale(r3.Dot(c.Force, n), n)))
}

// Distribution is the per-contact force split, in stance contact order.
type Distribution []ContactForce

// Total returns the sum of all contact forces.
func (d Distribution) Total() r3.Vec {
	var f r3.Vec
	for _, c := range d {
		f = r3.Add(f, c.Force)
	}
	return f
}

// Analyzer computes contact force distributions.
type Analyzer struct {
	// FrictionMargin shrinks every friction coefficient by this fraction.
	FrictionMargin float64
}

// NewAnalyzer returns an analyzer using the given friction margin in [0, 1).
func NewAnalyzer(margin float64) *Analyzer {
	return &Analyzer{FrictionMargin: margin}
}

// FindForAcceleration returns the distribution that gives the centre of
// mass the acceleration comdd under gravity, with zero angular momentum
// change.
func (a *Analyzer) FindForAcceleration(comdd r3.Vec, st stance.Stance, com r3.Vec, mass float64) (Distribution, error) {
	w := Wrench{Force: r3.Scale(mass, r3.Sub(comdd, Gravity))}
	return a.Find(w, st, com)
}

// Find returns contact forces whose sum is w.Force and whose torque about
// com is w.Torque. It maximises the smallest per-contact normal force while
// penalising the total, so every contact carries load when possible.
func (a *Analyzer) Find(w Wrench, st stance.Stance, com r3.Vec) (Distribution, error) {
	contacts := st.Contacts()
	if len(contacts) == 0 {
		return nil, fmt.Errorf("%w: no contacts", ErrInfeasibleSupport)
	}
	if a.FrictionMargin < 0 || a.FrictionMargin >= 1 {
		return nil, fmt.Errorf("%w: friction margin %v", ErrInfeasibleSupport, a.FrictionMargin)
	}

	nc := len(contacts)
	nLambda := nc * columnsPerPatch
	tCol := nLambda
	rows := 6 + nc
	cols := nLambda + 1 + nc

	A := mat.NewDense(rows, cols, nil)
	b := make([]float64, rows)
	c := make([]float64, cols)
	edges := make([]r3.Vec, nLambda)

	for ci, s := range contacts {
		for vi, p := range s.Vertices() {
			lever := r3.Sub(p, com)
			for ei, g := range a.coneEdges(s) {
				j := ci*columnsPerPatch + vi*edgesPerVertex + ei
				edges[j] = g
				tau := r3.Cross(lever, g)
				A.Set(0, j, g.X)
				A.Set(1, j, g.Y)
				A.Set(2, j, g.Z)
				A.Set(3, j, tau.X)
				A.Set(4, j, tau.Y)
				A.Set(5, j, tau.Z)
				// Edges have unit normal component, so the row sum is
				// the contact normal force.
				A.Set(6+ci, j, 1)
				c[j] = 1
			}
		}
		A.Set(6+ci, tCol, -1)
		A.Set(6+ci, tCol+1+ci, -1)
	}
	c[tCol] = -1
	b[0], b[1], b[2] = w.Force.X, w.Force.Y, w.Force.Z
	b[3], b[4], b[5] = w.Torque.X, w.Torque.Y, w.Torque.Z

	for i := range b {
		if b[i] < 0 {
			b[i] = -b[i]
			for j := 0; j < cols; j++ {
				A.Set(i, j, -A.At(i, j))
			}
		}
	}

	_, x, err := solve(c, A, b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInfeasibleSupport, err)
	}

	dist := make(Distribution, nc)
	for ci, s := range contacts {
		dist[ci].Surface = s
		for vi := 0; vi < 4; vi++ {
			var f r3.Vec
			for ei := 0; ei < edgesPerVertex; ei++ {
				j := ci*columnsPerPatch + vi*edgesPerVertex + ei
				f = r3.Add(f, r3.Scale(x[j], edges[j]))
			}
			dist[ci].Vertices[vi] = f
			dist[ci].Force = r3.Add(dist[ci].Force, f)
		}
	}
	return dist, nil
}

// coneEdges returns the four edges of the linearized friction cone of s,
// each with unit normal component.
func (a *Analyzer) coneEdges(s terrain.Surface) [edgesPerVertex]r3.Vec {
	ex, ey, n := s.Rotation()
	mu := s.Friction * (1 - a.FrictionMargin) / math.Sqrt2
	var out [edgesPerVertex]r3.Vec
	i := 0
	for _, sx := range [2]float64{1, -1} {
		for _, sy := range [2]float64{1, -1} {
			t := r3.Add(r3.Scale(sx*mu, ex), r3.Scale(sy*mu, ey))
			out[i] = r3.Add(n, t)
			i++
		}
	}
	return out
}

// solve runs the simplex and turns its panics on malformed input into
// errors.
func solve(c []float64, A mat.Matrix, b []float64) (f float64, x []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("simplex: %v", r)
		}
	}()
	return lp.Simplex(c, A, b, simplexTol, nil)
}
