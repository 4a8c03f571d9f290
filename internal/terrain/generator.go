package terrain

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrInvalidParameter is returned when staircase parameters cannot produce
// a staircase.
var ErrInvalidParameter = errors.New("terrain: invalid parameter")

// rightRadiusRatio places right-foot steps on an outer ring.
const rightRadiusRatio = 1.3

// StaircaseParams configures the spiral staircase generator.
type StaircaseParams struct {
	Radius      float64 `yaml:"radius"`       // Staircase radius [m]
	AngularStep float64 `yaml:"angular_step"` // Angle between consecutive steps [rad]
	Height      float64 `yaml:"height"`       // Altitude variation [m]
	Roughness   float64 `yaml:"roughness"`    // Amplitude of step roll, pitch and yaw [rad]
	Friction    float64 `yaml:"friction"`     // Foot/step friction coefficient
	StepDimX    float64 `yaml:"step_dim_x"`   // Half-length of each step [m]
	StepDimY    float64 `yaml:"step_dim_y"`   // Half-width of each step [m]
}

// DefaultStaircaseParams returns the staircase used by the walking demo.
func DefaultStaircaseParams() StaircaseParams {
	return StaircaseParams{
		Radius:      1.4,
		AngularStep: 0.5,
		Height:      1.4,
		Roughness:   0.5,
		Friction:    0.7,
		StepDimX:    0.2,
		StepDimY:    0.1,
	}
}

// Rand is the random source consumed by the generator.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	Float64() float64
}

// NewRand returns a deterministic source for the given seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// StepCount returns the number of angular steps covering one revolution,
// ceil(2π / angularStep).
func StepCount(angularStep float64) (int, error) {
	if math.IsNaN(angularStep) || angularStep <= 0 || angularStep >= 2*math.Pi {
		return 0, fmt.Errorf("%w: angular step %v must be in (0, 2π)", ErrInvalidParameter, angularStep)
	}
	return int(math.Ceil(2 * math.Pi / angularStep)), nil
}

// GenerateStaircase builds a slanted spiral staircase with tilted steps.
//
// For every angular step θ it emits a left step on the inner ring and a
// right step on the outer ring, half a step further. Each step is tilted by
// a roll/pitch/yaw perturbation drawn uniformly in
// [-roughness/2, roughness/2) per axis. The result has
// 2·ceil(2π/AngularStep) surfaces and depends only on p and the draws from
// rng.
func GenerateStaircase(p StaircaseParams, rng Rand) ([]Surface, error) {
	n, err := StepCount(p.AngularStep)
	if err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: nil random source", ErrInvalidParameter)
	}

	steps := make([]Surface, 0, 2*n)
	for i := 0; i < n; i++ {
		theta := float64(i) * p.AngularStep
		left := p.step(theta, p.Radius, rng)
		left.Index = len(steps)
		steps = append(steps, left)

		right := p.step(theta+0.5*p.AngularStep, rightRadiusRatio*p.Radius, rng)
		right.Index = len(steps)
		steps = append(steps, right)
	}
	return steps, nil
}

// step places one surface at angle theta on a ring of the given radius.
func (p StaircaseParams) step(theta, radius float64, rng Rand) Surface {
	sin, cos := math.Sincos(theta)
	roll := p.Roughness * (rng.Float64() - 0.5)
	pitch := p.Roughness * (rng.Float64() - 0.5)
	yaw := p.Roughness * (rng.Float64() - 0.5)

	return Surface{
		HalfX: p.StepDimX,
		HalfY: p.StepDimY,
		Pos: r3.Vec{
			X: radius * cos,
			Y: radius * sin,
			Z: p.Radius + 0.5*p.Height*sin,
		},
		RPY:      r3.Vec{X: roll, Y: pitch, Z: yaw + theta + 0.5*math.Pi},
		Friction: p.Friction,
		Visible:  true,
	}
}
