package core

import (
	"strings"
	"testing"
)

func TestNewScreen(t *testing.T) {
	s := NewScreen(80, 24)

	if s.Width() != 80 {
		t.Errorf("Width() = %d, expected 80", s.Width())
	}
	if s.Height() != 24 {
		t.Errorf("Height() = %d, expected 24", s.Height())
	}

	for y := 0; y < s.Height(); y++ {
		for x := 0; x < s.Width(); x++ {
			if s.GetCell(x, y).Rune != ' ' {
				t.Errorf("New screen should be filled with spaces, got %q at (%d, %d)", s.GetCell(x, y).Rune, x, y)
			}
		}
	}
}

func TestScreenSetGet(t *testing.T) {
	s := NewScreen(10, 10)

	s.Set(5, 5, 'X', ColorRed)
	if got := s.GetCell(5, 5); got.Rune != 'X' || got.Color != ColorRed {
		t.Errorf("GetCell(5, 5) = %+v, expected red 'X'", got)
	}

	// Out of bounds should be silent
	s.Set(-1, 0, 'A', ColorDefault)
	s.Set(100, 0, 'A', ColorDefault)
	s.Set(0, -1, 'A', ColorDefault)
	s.Set(0, 100, 'A', ColorDefault)

	if s.GetCell(-1, 0).Rune != ' ' {
		t.Error("Out of bounds Get should return space")
	}
	if s.GetCell(100, 0).Rune != ' ' {
		t.Error("Out of bounds Get should return space")
	}
}

func TestScreenClear(t *testing.T) {
	s := NewScreen(10, 10)
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			s.Set(x, y, 'X', ColorGreen)
		}
	}

	s.Clear()

	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			if s.GetCell(x, y).Rune != ' ' {
				t.Errorf("After Clear, expected space at (%d, %d), got %q", x, y, s.GetCell(x, y).Rune)
			}
		}
	}
}

func TestScreenDrawLine(t *testing.T) {
	tests := []struct {
		name           string
		x0, y0, x1, y1 int
		cells          int
	}{
		{"horizontal", 0, 0, 4, 0, 5},
		{"vertical", 2, 0, 2, 3, 4},
		{"diagonal", 0, 0, 3, 3, 4},
		{"reversed", 4, 2, 0, 2, 5},
		{"single point", 1, 1, 1, 1, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := NewScreen(10, 10)
			s.DrawLine(tc.x0, tc.y0, tc.x1, tc.y1, '*', ColorYellow)

			count := strings.Count(s.String(), "*")
			if count != tc.cells {
				t.Errorf("DrawLine drew %d cells, expected %d", count, tc.cells)
			}
			if s.GetCell(tc.x0, tc.y0).Rune != '*' || s.GetCell(tc.x1, tc.y1).Rune != '*' {
				t.Error("DrawLine should include both endpoints")
			}
		})
	}
}

func TestScreenDrawText(t *testing.T) {
	s := NewScreen(10, 3)
	s.DrawText(2, 1, "Hello", ColorWhite)

	if got := row(s, 1); got != "  Hello   " {
		t.Errorf("row 1 = %q, expected %q", got, "  Hello   ")
	}

	// Clipped at the right edge
	s.DrawText(8, 0, "abc", ColorWhite)
	if got := row(s, 0); got != "        ab" {
		t.Errorf("row 0 = %q, expected clipped text", got)
	}
}

func TestScreenBackgroundAndResize(t *testing.T) {
	s := NewScreen(4, 4)
	s.SetBackground(BackgroundAlarm)
	if s.Background() != BackgroundAlarm {
		t.Errorf("Background() = %v, expected alarm color", s.Background())
	}

	s.Set(1, 1, 'X', ColorDefault)
	s.Resize(6, 2)
	if s.Width() != 6 || s.Height() != 2 {
		t.Errorf("Resize() gave %dx%d, expected 6x2", s.Width(), s.Height())
	}
	if strings.Contains(s.String(), "X") {
		t.Error("Resize should discard content")
	}
}

func TestScreenString(t *testing.T) {
	s := NewScreen(3, 2)
	s.Set(0, 0, 'A', ColorDefault)
	s.Set(2, 1, 'B', ColorDefault)

	if got := s.String(); got != "A  \n  B" {
		t.Errorf("String() = %q, expected %q", got, "A  \n  B")
	}
}

func row(s *Screen, y int) string {
	return strings.Split(s.String(), "\n")[y]
}
