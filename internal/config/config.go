// Package config provides YAML-based configuration loading for the
// staircase walking simulation.
package config

import (
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/vovakirdan/stairwalk/internal/robot"
	"github.com/vovakirdan/stairwalk/internal/terrain"
	"github.com/vovakirdan/stairwalk/internal/walk"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("config: invalid")

// Config contains the whole simulation configuration.
type Config struct {
	Simulation SimulationConfig        `yaml:"simulation"`
	Staircase  terrain.StaircaseParams `yaml:"staircase"`
	Walking    WalkingConfig           `yaml:"walking"`
	Control    walk.ControlParams      `yaml:"control"`
	Robot      RobotConfig             `yaml:"robot"`
	Support    SupportConfig           `yaml:"support"`
	View       ViewConfig              `yaml:"view"`
	Extras     []string                `yaml:"extras"` // Drawer names, in scheduling order
}

// SimulationConfig defines the tick loop and the kinematics thread timing.
type SimulationConfig struct {
	Dt               time.Duration `yaml:"dt"`
	KinematicsPeriod time.Duration `yaml:"kinematics_period"`
	Seed             uint64        `yaml:"seed"`
	Realtime         float64       `yaml:"realtime"` // 1 = wall-clock rate
}

// WalkingConfig defines the footstep state machine.
type WalkingConfig struct {
	walk.FSMParams `yaml:",inline"`
	InitCOMOffset  []float64 `yaml:"init_com_offset"`
}

// FSM returns the state machine parameters with the initial COM offset.
func (w WalkingConfig) FSM() walk.FSMParams {
	p := w.FSMParams
	if len(w.InitCOMOffset) == 3 {
		p.InitOffset = r3.Vec{X: w.InitCOMOffset[0], Y: w.InitCOMOffset[1], Z: w.InitCOMOffset[2]}
	}
	return p
}

// RobotConfig defines the robot model and its kinematic tasks.
type RobotConfig struct {
	Mass         float64 `yaml:"mass"`       // [kg]
	LegLength    float64 `yaml:"leg_length"` // [m]
	robot.Params `yaml:",inline"`
}

// SupportConfig defines the contact force analysis.
type SupportConfig struct {
	FrictionMargin float64 `yaml:"friction_margin"`
}

// ViewConfig defines rendering outputs.
type ViewConfig struct {
	FramesDir string `yaml:"frames_dir"`
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
}

// Validate checks every section and returns the first problem found.
func (c Config) Validate() error {
	s := c.Simulation
	if s.Dt <= 0 {
		return fmt.Errorf("%w: simulation.dt %v", ErrInvalid, s.Dt)
	}
	if s.KinematicsPeriod <= 0 {
		return fmt.Errorf("%w: simulation.kinematics_period %v", ErrInvalid, s.KinematicsPeriod)
	}
	if s.Realtime < 0 {
		return fmt.Errorf("%w: simulation.realtime %v", ErrInvalid, s.Realtime)
	}

	st := c.Staircase
	if _, err := terrain.StepCount(st.AngularStep); err != nil {
		return fmt.Errorf("%w: staircase: %v", ErrInvalid, err)
	}
	if !(st.Radius > 0) || !(st.Friction > 0) || !(st.StepDimX > 0) || !(st.StepDimY > 0) || st.Roughness < 0 {
		return fmt.Errorf("%w: staircase dimensions", ErrInvalid)
	}

	if err := c.Walking.FSM().Validate(); err != nil {
		return fmt.Errorf("%w: walking: %v", ErrInvalid, err)
	}
	if n := len(c.Walking.InitCOMOffset); n != 0 && n != 3 {
		return fmt.Errorf("%w: walking.init_com_offset needs 3 values, got %d", ErrInvalid, n)
	}
	if err := c.Control.Validate(); err != nil {
		return fmt.Errorf("%w: control: %v", ErrInvalid, err)
	}

	if !(c.Robot.Mass > 0) || c.Robot.LegLength < 0 {
		return fmt.Errorf("%w: robot mass %v leg length %v", ErrInvalid, c.Robot.Mass, c.Robot.LegLength)
	}
	if err := c.Robot.Params.Validate(); err != nil {
		return fmt.Errorf("%w: robot: %v", ErrInvalid, err)
	}
	if m := c.Support.FrictionMargin; m < 0 || m >= 1 {
		return fmt.Errorf("%w: support.friction_margin %v", ErrInvalid, m)
	}

	seen := make(map[string]bool, len(c.Extras))
	for _, name := range c.Extras {
		if seen[name] {
			return fmt.Errorf("%w: extra %q listed twice", ErrInvalid, name)
		}
		seen[name] = true
	}
	return nil
}
