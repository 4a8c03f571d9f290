// Package core provides fundamental types and utilities shared by the
// simulation and its terminal front end. It has no dependency on Bubble Tea
// so drawing logic stays pure and testable.
package core

import "math"

// Rect represents an axis-aligned rectangle in screen cells.
type Rect struct {
	X, Y int // Top-left corner position
	W, H int // Width and height
}

// NewRect creates a new rectangle with the given position and dimensions.
func NewRect(x, y, w, h int) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// Right returns the x-coordinate of the right edge.
func (r Rect) Right() int {
	return r.X + r.W
}

// Bottom returns the y-coordinate of the bottom edge.
func (r Rect) Bottom() int {
	return r.Y + r.H
}

// Contains returns true if the point (x, y) is inside this rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.Right() && y >= r.Y && y < r.Bottom()
}

// Viewport maps a horizontal world window (meters) onto screen cells.
// Terminal cells are roughly twice as tall as they are wide, so the
// vertical scale is halved to keep circles round.
type Viewport struct {
	CenterX, CenterY float64 // World point shown at the screen center
	Scale            float64 // Cells per meter along X
	Width, Height    int     // Screen size in cells
}

// FitViewport returns a viewport centered on the origin that shows a square
// world region of the given half-size on a screen of the given dimensions.
func FitViewport(halfSize float64, width, height int) Viewport {
	if halfSize <= 0 {
		halfSize = 1
	}
	sx := float64(width) / (2 * halfSize)
	sy := 2 * float64(height) / (2 * halfSize)
	return Viewport{
		Scale:  math.Min(sx, sy),
		Width:  width,
		Height: height,
	}
}

// Project converts world (x, y) into screen cell coordinates. World +Y
// points up on screen.
func (v Viewport) Project(x, y float64) (int, int) {
	cx := float64(v.Width)/2 + (x-v.CenterX)*v.Scale
	cy := float64(v.Height)/2 - (y-v.CenterY)*v.Scale/2
	return int(math.Round(cx)), int(math.Round(cy))
}

// Abs returns the absolute value of an integer.
func Abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
