package config

import (
	_ "embed"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/vovakirdan/stairwalk/internal/robot"
	"github.com/vovakirdan/stairwalk/internal/terrain"
	"github.com/vovakirdan/stairwalk/internal/walk"
)

//go:embed defaults/stairwalk.yaml
var defaultYAML []byte

// DefaultYAML returns the embedded default configuration file.
func DefaultYAML() []byte {
	return append([]byte(nil), defaultYAML...)
}

// Default returns the built-in configuration, matching the embedded file.
func Default() Config {
	offset := r3.Vec{X: 0.05}
	return Config{
		Simulation: SimulationConfig{
			Dt:               30 * time.Millisecond,
			KinematicsPeriod: 30 * time.Millisecond,
			Seed:             42,
			Realtime:         1,
		},
		Staircase: terrain.DefaultStaircaseParams(),
		Walking: WalkingConfig{
			FSMParams:     walk.DefaultFSMParams(),
			InitCOMOffset: []float64{offset.X, offset.Y, offset.Z},
		},
		Control: walk.ControlParams{
			Kp:              10,
			Kd:              6.3,
			MaxAccel:        5,
			PreviewSteps:    10,
			PreviewTimestep: 0.1,
			TubeRadius:      0.02,
		},
		Robot: RobotConfig{
			Mass:      39,
			LegLength: 0.7,
			Params:    robot.DefaultParams(),
		},
		Support: SupportConfig{FrictionMargin: 0.1},
		View:    ViewConfig{Width: 80, Height: 24},
		Extras: []string{
			"com_trail",
			"forces",
			"left_foot_trail",
			"preview",
			"right_foot_trail",
			"support_areas",
			"tube",
		},
	}
}
