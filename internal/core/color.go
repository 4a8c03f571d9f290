package core

// Color represents a foreground color for a screen cell.
// Uses ANSI 256-color codes for terminal compatibility.
type Color uint8

// Predefined colors for drawn primitives.
const (
	ColorDefault Color = iota
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorMagenta
	ColorCyan
	ColorWhite
	ColorBrightRed
	ColorBrightGreen
	ColorBrightYellow
	ColorBrightBlue
	ColorBrightMagenta
	ColorBrightCyan
	ColorBrightWhite
	ColorOrange
	ColorGray
)

// Background colors used by the viewer. BackgroundAlarm is shown while the
// support analyzer reports that no contact forces can hold the robot.
const (
	BackgroundNormal = ColorBlue
	BackgroundAlarm  = ColorRed
)

// ColorByName maps the single-letter names used in drawer settings
// ("b-", "g-", "r-") to colors. Unknown names map to ColorDefault.
func ColorByName(name string) Color {
	switch name {
	case "r":
		return ColorRed
	case "g":
		return ColorGreen
	case "b":
		return ColorBlue
	case "y":
		return ColorYellow
	case "m":
		return ColorMagenta
	case "c":
		return ColorCyan
	case "w":
		return ColorWhite
	case "k":
		return ColorGray
	default:
		return ColorDefault
	}
}
