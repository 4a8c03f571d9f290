package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/stairwalk/internal/terrain"
)

var stairsCmd = &cobra.Command{
	Use:   "stairs",
	Short: "Print the generated staircase",
	Long: `Generate the staircase from the config and seed and print every surface:
centre position, roll/pitch/yaw, half extents and friction.

The same seed always gives the same staircase.

Examples:
  stairwalk stairs
  stairwalk stairs --seed 7 --terrain flat`,
	RunE: runStairs,
}

func runStairs(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	surfaces, err := terrain.GenerateStaircase(cfg.Staircase, terrain.NewRand(cfg.Simulation.Seed))
	if err != nil {
		return err
	}

	fmt.Printf("Staircase - seed %d, %d surfaces\n", cfg.Simulation.Seed, len(surfaces))
	fmt.Println()

	// Print header
	fmt.Printf("  %-4s  %-5s  %-26s  %-24s  %-13s  %s\n", "#", "Foot", "Position [m]", "RPY [rad]", "Half [m]", "Friction")
	fmt.Printf("  %-4s  %-5s  %-26s  %-24s  %-13s  %s\n", "-", "----", "------------", "---------", "--------", "--------")

	for _, s := range surfaces {
		foot := "left"
		if s.Index%2 == 1 {
			foot = "right"
		}
		fmt.Printf("  %-4d  %-5s  %7.3f %7.3f %7.3f    %6.3f %6.3f %6.3f    %5.2f x %5.2f  %.2f\n",
			s.Index, foot,
			s.Pos.X, s.Pos.Y, s.Pos.Z,
			s.RPY.X, s.RPY.Y, s.RPY.Z,
			s.HalfX, s.HalfY, s.Friction)
	}
	return nil
}
