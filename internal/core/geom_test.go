package core

import "testing"

func TestRectContains(t *testing.T) {
	r := NewRect(10, 10, 20, 15)

	tests := []struct {
		name     string
		x, y     int
		expected bool
	}{
		{"inside", 15, 15, true},
		{"top-left corner", 10, 10, true},
		{"bottom-right edge (exclusive)", 30, 25, false},
		{"outside left", 5, 15, false},
		{"outside right", 35, 15, false},
		{"outside top", 15, 5, false},
		{"outside bottom", 15, 30, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := r.Contains(tc.x, tc.y)
			if result != tc.expected {
				t.Errorf("Contains(%d, %d) = %v, expected %v", tc.x, tc.y, result, tc.expected)
			}
		})
	}
}

func TestViewportProject(t *testing.T) {
	v := FitViewport(2.0, 80, 24)

	x, y := v.Project(0, 0)
	if x != 40 || y != 12 {
		t.Errorf("Project(0, 0) = (%d, %d), expected screen center (40, 12)", x, y)
	}

	// +X goes right, +Y goes up
	xr, _ := v.Project(1, 0)
	_, yu := v.Project(0, 1)
	if xr <= 40 {
		t.Errorf("Project(1, 0) x = %d, expected right of center", xr)
	}
	if yu >= 12 {
		t.Errorf("Project(0, 1) y = %d, expected above center", yu)
	}

	// The whole window fits vertically
	_, top := v.Project(0, 2)
	_, bottom := v.Project(0, -2)
	if top < 0 || bottom > 24 {
		t.Errorf("vertical extent [%d, %d] should fit in 24 rows", top, bottom)
	}
}

func TestColorByName(t *testing.T) {
	if ColorByName("b") != ColorBlue || ColorByName("g") != ColorGreen || ColorByName("r") != ColorRed {
		t.Error("ColorByName should map b/g/r to blue/green/red")
	}
	if ColorByName("?") != ColorDefault {
		t.Error("unknown color names should map to ColorDefault")
	}
}
