package main

import (
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/stairwalk/internal/core"
	"github.com/vovakirdan/stairwalk/internal/platform/tui"
	"github.com/vovakirdan/stairwalk/internal/render"
	"github.com/vovakirdan/stairwalk/internal/session"
)

var (
	flagFPS     int
	flagLogFile string
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Watch the simulation in the terminal",
	Long: `Open a top-down terminal view of the staircase, the feet, the centre of
mass and every drawer enabled in the config's extras list.

The background turns red while no contact forces can support the robot.

Controls:
  P/Space    - Pause
  N          - Step one tick
  +/-        - Faster/slower
  T          - Process timings
  R          - Restart
  Ctrl+S     - Screenshot to ~/.stairwalk/screenshots
  Q/Ctrl+C   - Quit

Examples:
  stairwalk view
  stairwalk view --terrain rough --seed 11
  stairwalk view --log-file /tmp/stairwalk.log --log-level debug`,
	RunE: runView,
}

func init() {
	viewCmd.Flags().IntVar(&flagFPS, "fps", 30, "Viewer refresh rate (frames per second)")
	viewCmd.Flags().StringVar(&flagLogFile, "log-file", "", "Write logs to this file (the screen is taken by the viewer)")
}

func runView(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := log.New(io.Discard)
	if flagLogFile != "" {
		f, err := os.OpenFile(flagLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return err
		}
		defer f.Close()
		level, err := log.ParseLevel(flagLogLevel)
		if err != nil {
			return err
		}
		logger = log.NewWithOptions(f, log.Options{ReportTimestamp: true, Prefix: "stairwalk", Level: level})
	}

	// Get terminal size
	rc := core.DefaultConfig()
	rc.TickRate = flagFPS
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		rc.ScreenW = w
		rc.ScreenH = h
	}

	build := func(r render.Renderer) (*session.Session, error) {
		return session.New(cfg, session.WithRenderer(r), session.WithLogger(logger))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
	defer stop()
	return tui.Run(ctx, build, rc)
}
