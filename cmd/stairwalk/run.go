package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/stairwalk/internal/metrics"
	"github.com/vovakirdan/stairwalk/internal/session"
	"github.com/vovakirdan/stairwalk/internal/storage"
)

var (
	flagSteps       int
	flagDuration    time.Duration
	flagMetricsAddr string
	flagNoSave      bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the simulation headless",
	Long: `Run the simulation without a display.

By default the simulation steps --steps ticks as fast as possible while the
kinematics thread solves at its own period. With --duration it runs the
real-time tick loop for that long instead. Ctrl+C stops early.

Afterwards the per-process timing table is printed and a report is stored
in the reports database (disable with --no-save).

Examples:
  stairwalk run
  stairwalk run --steps 5000 --seed 3
  stairwalk run --duration 1m --metrics-addr :9090`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntVar(&flagSteps, "steps", 1000, "Number of ticks to run")
	runCmd.Flags().DurationVar(&flagDuration, "duration", 0, "Run the real-time loop for this long instead of --steps")
	runCmd.Flags().StringVar(&flagMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	runCmd.Flags().BoolVar(&flagNoSave, "no-save", false, "Do not store the timing report")
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	if flagDuration <= 0 && flagSteps <= 0 {
		return errors.New("--steps must be positive")
	}

	m := metrics.New()
	sess, err := session.New(cfg, session.WithLogger(logger), session.WithMetrics(m))
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	if flagMetricsAddr != "" {
		srv := &http.Server{
			Addr:              flagMetricsAddr,
			Handler:           metricsMux(m),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("serving metrics", "addr", flagMetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelShutdown()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		// Ends the metrics server once the simulation is done.
		defer cancel()
		return simulate(gctx, sess)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	sess.Stop()

	if err := sess.Sim.WriteTimings(os.Stdout); err != nil {
		return err
	}
	fmt.Printf("\nticks %d (%.2fs simulated), kinematics solves %d, infeasible support ticks %d\n",
		sess.Sim.Clock().Ticks, sess.Sim.Clock().Seconds(), sess.Kinematics.Solves(), sess.Support.Infeasible())

	if flagNoSave {
		return nil
	}
	return saveReport(sess.Report())
}

// simulate runs either the fixed-step or the real-time mode.
func simulate(ctx context.Context, sess *session.Session) error {
	if flagDuration > 0 {
		if err := sess.Start(ctx); err != nil {
			return err
		}
		timer := time.NewTimer(flagDuration)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
		}
		sess.Stop()
		return nil
	}

	if err := sess.StartKinematics(ctx); err != nil {
		return err
	}
	err := sess.Step(ctx, flagSteps)
	sess.Stop()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func metricsMux(m *metrics.Metrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return mux
}

func saveReport(r storage.Report) error {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	runID, err := store.SaveReport(r)
	if err != nil {
		return err
	}
	fmt.Printf("report saved as %s\n", runID)
	return nil
}
