// Package render draws the walking simulation. Drawers are auxiliary tick
// processes that keep a set of shapes on a Renderer up to date; the
// ScreenRenderer rasterizes those shapes top-down into a core.Screen.
package render

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/vovakirdan/stairwalk/internal/core"
)

// ErrDegenerate is returned for shapes with too few vertices.
var ErrDegenerate = errors.New("render: degenerate shape")

// Handle keeps a shape visible until Remove is called. Remove is
// idempotent.
type Handle interface {
	Remove()
}

// Renderer is a retained-mode drawing surface in world coordinates.
type Renderer interface {
	Point(p r3.Vec, c core.Color) Handle
	Line(a, b r3.Vec, c core.Color) Handle
	Polygon(vertices []r3.Vec, c core.Color) (Handle, error)
	// Cone draws the rays from apex through every section vertex and the
	// section outline.
	Cone(apex r3.Vec, section []r3.Vec, c core.Color) (Handle, error)
	Polyhedron(vertices []r3.Vec, c core.Color) (Handle, error)
	SetBackground(c core.Color)
}

// RemoveAll removes every handle and returns an empty slice reusing hs.
func RemoveAll(hs []Handle) []Handle {
	for _, h := range hs {
		if h != nil {
			h.Remove()
		}
	}
	return hs[:0]
}

func checkVertices(kind string, vertices []r3.Vec, min int) error {
	if len(vertices) < min {
		return fmt.Errorf("%w: %s with %d vertices", ErrDegenerate, kind, len(vertices))
	}
	return nil
}

// NopRenderer discards every shape. It still rejects degenerate shapes so
// headless runs report the same drawing errors as interactive ones.
type NopRenderer struct{}

type nopHandle struct{}

func (nopHandle) Remove() {}

func (NopRenderer) Point(r3.Vec, core.Color) Handle       { return nopHandle{} }
func (NopRenderer) Line(_, _ r3.Vec, _ core.Color) Handle { return nopHandle{} }
func (NopRenderer) SetBackground(core.Color)              {}

func (NopRenderer) Polygon(vertices []r3.Vec, _ core.Color) (Handle, error) {
	if err := checkVertices("polygon", vertices, 3); err != nil {
		return nil, err
	}
	return nopHandle{}, nil
}

func (NopRenderer) Cone(_ r3.Vec, section []r3.Vec, _ core.Color) (Handle, error) {
	if err := checkVertices("cone section", section, 3); err != nil {
		return nil, err
	}
	return nopHandle{}, nil
}

func (NopRenderer) Polyhedron(vertices []r3.Vec, _ core.Color) (Handle, error) {
	if err := checkVertices("polyhedron", vertices, 4); err != nil {
		return nil, err
	}
	return nopHandle{}, nil
}
