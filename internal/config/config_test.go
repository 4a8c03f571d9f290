package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestEmbeddedMatchesDefault(t *testing.T) {
	cfg, err := parse(DefaultYAML())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	require.NoError(t, cfg.Validate())
}

func TestLoadCustomOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	data := []byte(`
simulation:
  dt: 10ms
  seed: 7
staircase:
  roughness: 0
walking:
  init_com_offset: [0, 0.1, 0]
extras: [tube]
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Millisecond, cfg.Simulation.Dt)
	assert.Equal(t, uint64(7), cfg.Simulation.Seed)
	assert.Equal(t, 30*time.Millisecond, cfg.Simulation.KinematicsPeriod, "unset keys keep defaults")
	assert.Zero(t, cfg.Staircase.Roughness)
	assert.Equal(t, 1.4, cfg.Staircase.Radius)
	assert.Equal(t, []string{"tube"}, cfg.Extras)
	assert.Equal(t, r3.Vec{Y: 0.1}, cfg.Walking.FSM().InitOffset)
	assert.Equal(t, 39.0, cfg.Robot.Mass)
	assert.Equal(t, 10000.0, cfg.Robot.Weights.Contact)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("simulation: [1, 2"), 0o644))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "failed to parse config")

	invalid := filepath.Join(t.TempDir(), "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("staircase:\n  angular_step: 7\n"), 0o644))
	_, err = Load(invalid)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero dt", func(c *Config) { c.Simulation.Dt = 0 }},
		{"zero kinematics period", func(c *Config) { c.Simulation.KinematicsPeriod = 0 }},
		{"negative realtime", func(c *Config) { c.Simulation.Realtime = -1 }},
		{"zero step", func(c *Config) { c.Staircase.AngularStep = 0 }},
		{"zero friction", func(c *Config) { c.Staircase.Friction = 0 }},
		{"zero ss duration", func(c *Config) { c.Walking.SSDuration = 0 }},
		{"short offset", func(c *Config) { c.Walking.InitCOMOffset = []float64{1} }},
		{"no preview", func(c *Config) { c.Control.PreviewSteps = 0 }},
		{"zero mass", func(c *Config) { c.Robot.Mass = 0 }},
		{"negative link pose gain", func(c *Config) { c.Robot.Gains.LinkPose = -1 }},
		{"nan com weight", func(c *Config) { c.Robot.Weights.COM = math.NaN() }},
		{"infinite contact weight", func(c *Config) { c.Robot.Weights.Contact = math.Inf(1) }},
		{"nan posture", func(c *Config) { c.Robot.Posture = []float64{0, math.NaN()} }},
		{"full margin", func(c *Config) { c.Support.FrictionMargin = 1 }},
		{"duplicate extra", func(c *Config) { c.Extras = []string{"tube", "tube"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
	assert.NoError(t, Default().Validate())
}

func TestTerrainPresets(t *testing.T) {
	cfg := Default()
	assert.True(t, ApplyTerrainPreset(&cfg, TerrainFlat))
	assert.Zero(t, cfg.Staircase.Roughness)
	assert.True(t, ApplyTerrainPreset(&cfg, TerrainRough))
	assert.Equal(t, 0.8, cfg.Staircase.Roughness)
	assert.False(t, ApplyTerrainPreset(&cfg, "icy"))
	assert.Equal(t, 0.8, cfg.Staircase.Roughness)
}
