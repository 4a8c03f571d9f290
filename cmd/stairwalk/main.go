// stairwalk simulates a legged robot walking up a procedurally generated
// spiral staircase.
//
// Usage:
//
//	stairwalk run            - Run the simulation headless and print timings
//	stairwalk view           - Watch the simulation in the terminal
//	stairwalk serve          - Start SSH server, one simulation per session
//	stairwalk stairs         - Print the generated staircase surfaces
//	stairwalk reports [run]  - Show stored timing reports
//	stairwalk extras         - List the available drawers
//
// Global flags:
//
//	--config <path>    - Simulation config YAML
//	--seed <value>     - Staircase seed (overrides config)
//	--dt <duration>    - Tick period (overrides config)
//	--terrain <preset> - Staircase roughness: flat, normal, rough
//	--db <path>        - Reports database (default: ~/.stairwalk/reports.db)
//	--log-level <lvl>  - debug, info, warn, error
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/stairwalk/internal/config"
)

var (
	// Global flags
	flagConfig   string
	flagSeed     uint64
	flagDt       time.Duration
	flagTerrain  string
	flagDBPath   string
	flagLogLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "stairwalk",
	Short: "Stairwalk - legged robot staircase walking simulation",
	Long: `Stairwalk runs a multi-rate walking simulation: a tick loop sequences
footsteps, plans the centre of mass and checks contact forces while a
kinematics thread solves the robot's tasks in the background.

Available commands:
  run      - Run headless, print process timings, store a report
  view     - Interactive terminal viewer
  serve    - Start SSH server, each connection gets its own simulation
  stairs   - Print the generated staircase
  reports  - Show stored timing reports
  extras   - List the drawers that can be enabled in config

Examples:
  stairwalk run --steps 2000
  stairwalk run --duration 30s --metrics-addr :9090
  stairwalk view --terrain rough
  stairwalk stairs --seed 7
  stairwalk serve --ssh :2222`,
	SilenceUsage: true,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to simulation config YAML")
	rootCmd.PersistentFlags().Uint64Var(&flagSeed, "seed", 0, "Staircase seed (overrides config when set)")
	rootCmd.PersistentFlags().DurationVar(&flagDt, "dt", 0, "Tick period, e.g. 30ms (overrides config when set)")
	rootCmd.PersistentFlags().StringVar(&flagTerrain, "terrain", "", "Terrain preset: flat, normal, rough")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "~/.stairwalk/reports.db", "Path to reports database")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")

	// Add subcommands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(stairsCmd)
	rootCmd.AddCommand(reportsCmd)
	rootCmd.AddCommand(extrasCmd)
}

// loadConfig reads the config file and applies the global flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Simulation.Seed = flagSeed
	}
	if flags.Changed("dt") {
		cfg.Simulation.Dt = flagDt
	}
	if flagTerrain != "" {
		if !config.ApplyTerrainPreset(&cfg, config.TerrainPreset(flagTerrain)) {
			return cfg, fmt.Errorf("unknown terrain preset %q (use flat, normal, rough)", flagTerrain)
		}
	}
	return cfg, cfg.Validate()
}

// newLogger creates the stderr logger at the --log-level level.
func newLogger() (*log.Logger, error) {
	level, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level: %w", err)
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "stairwalk",
		Level:           level,
	}), nil
}
