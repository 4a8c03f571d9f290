package render

import (
	"sort"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/vovakirdan/stairwalk/internal/core"
	"github.com/vovakirdan/stairwalk/internal/stance"
)

type shapeKind int

const (
	shapePoint shapeKind = iota
	shapeLine
	shapePolygon
	shapeCone
	shapePolyhedron
)

// Runes used for each shape kind, from back to front.
var shapeRunes = map[shapeKind]rune{
	shapePolygon:    '#',
	shapePolyhedron: '*',
	shapeCone:       '+',
	shapeLine:       '.',
	shapePoint:      'o',
}

type shape struct {
	kind   shapeKind
	points []r3.Vec
	color  core.Color
}

// ScreenRenderer keeps shapes in memory and rasterizes a top-down view of
// them on demand.
type ScreenRenderer struct {
	mu         sync.Mutex
	next       uint64
	shapes     map[uint64]shape
	background core.Color
}

// NewScreenRenderer returns an empty renderer with the normal background.
func NewScreenRenderer() *ScreenRenderer {
	return &ScreenRenderer{
		shapes:     make(map[uint64]shape),
		background: core.BackgroundNormal,
	}
}

type screenHandle struct {
	r  *ScreenRenderer
	id uint64
}

func (h screenHandle) Remove() {
	h.r.mu.Lock()
	delete(h.r.shapes, h.id)
	h.r.mu.Unlock()
}

func (r *ScreenRenderer) add(kind shapeKind, c core.Color, points ...r3.Vec) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.shapes[r.next] = shape{kind: kind, points: append([]r3.Vec(nil), points...), color: c}
	return screenHandle{r: r, id: r.next}
}

func (r *ScreenRenderer) Point(p r3.Vec, c core.Color) Handle {
	return r.add(shapePoint, c, p)
}

func (r *ScreenRenderer) Line(a, b r3.Vec, c core.Color) Handle {
	return r.add(shapeLine, c, a, b)
}

func (r *ScreenRenderer) Polygon(vertices []r3.Vec, c core.Color) (Handle, error) {
	if err := checkVertices("polygon", vertices, 3); err != nil {
		return nil, err
	}
	return r.add(shapePolygon, c, vertices...), nil
}

func (r *ScreenRenderer) Cone(apex r3.Vec, section []r3.Vec, c core.Color) (Handle, error) {
	if err := checkVertices("cone section", section, 3); err != nil {
		return nil, err
	}
	return r.add(shapeCone, c, append([]r3.Vec{apex}, section...)...), nil
}

func (r *ScreenRenderer) Polyhedron(vertices []r3.Vec, c core.Color) (Handle, error) {
	if err := checkVertices("polyhedron", vertices, 4); err != nil {
		return nil, err
	}
	return r.add(shapePolyhedron, c, vertices...), nil
}

func (r *ScreenRenderer) SetBackground(c core.Color) {
	r.mu.Lock()
	r.background = c
	r.mu.Unlock()
}

// Background returns the current background color.
func (r *ScreenRenderer) Background() core.Color {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.background
}

// Len returns the number of visible shapes.
func (r *ScreenRenderer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.shapes)
}

// Draw clears dst and rasterizes every shape projected on the horizontal
// plane through vp. Areas are drawn first so points and lines stay on top.
func (r *ScreenRenderer) Draw(dst *core.Screen, vp core.Viewport) {
	r.mu.Lock()
	ids := make([]uint64, 0, len(r.shapes))
	for id := range r.shapes {
		ids = append(ids, id)
	}
	shapes := make([]shape, 0, len(ids))
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		shapes = append(shapes, r.shapes[id])
	}
	bg := r.background
	r.mu.Unlock()

	sort.SliceStable(shapes, func(i, j int) bool { return shapes[i].kind > shapes[j].kind })

	dst.Clear()
	dst.SetBackground(bg)
	for _, s := range shapes {
		drawShape(dst, vp, s)
	}
}

func drawShape(dst *core.Screen, vp core.Viewport, s shape) {
	ch := shapeRunes[s.kind]
	line := func(a, b r3.Vec) {
		x0, y0 := vp.Project(a.X, a.Y)
		x1, y1 := vp.Project(b.X, b.Y)
		dst.DrawLine(x0, y0, x1, y1, ch, s.color)
	}
	outline := func(points []r3.Vec) {
		for i := range points {
			line(points[i], points[(i+1)%len(points)])
		}
	}

	switch s.kind {
	case shapePoint:
		x, y := vp.Project(s.points[0].X, s.points[0].Y)
		dst.Set(x, y, ch, s.color)
	case shapeLine:
		line(s.points[0], s.points[1])
	case shapePolygon:
		outline(s.points)
	case shapePolyhedron:
		outline(stance.ConvexHull(s.points))
	case shapeCone:
		apex, section := s.points[0], s.points[1:]
		for _, v := range section {
			line(apex, v)
		}
		outline(section)
	}
}
