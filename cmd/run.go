package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/reticle/internal/actuate"
	"github.com/xkilldash9x/reticle/internal/config"
	"github.com/xkilldash9x/reticle/internal/coordinator"
	"github.com/xkilldash9x/reticle/internal/detect"
	"github.com/xkilldash9x/reticle/internal/geom"
	"github.com/xkilldash9x/reticle/internal/observability"
)

// newRunCmd creates the `run` command: the full detect-plan-execute-trigger
// loop against the simulated actuator and the synthetic orbiting target.
func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Runs the coordination loop against a synthetic target",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Flags override the config file and environment through viper.
			if err := viper.BindPFlag("run.tick_rate", cmd.Flags().Lookup("tick-rate")); err != nil {
				return err
			}
			if err := viper.BindPFlag("run.duration", cmd.Flags().Lookup("duration")); err != nil {
				return err
			}
			if err := viper.BindPFlag("run.preset", cmd.Flags().Lookup("preset")); err != nil {
				return err
			}
			if err := viper.BindPFlag("run.seed", cmd.Flags().Lookup("seed")); err != nil {
				return err
			}
			if err := viper.BindPFlag("motion.profile", cmd.Flags().Lookup("profile")); err != nil {
				return err
			}
			return viper.BindPFlag("trigger.enabled", cmd.Flags().Lookup("trigger"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return err
			}
			return runLoop(cmd.Context(), cfg)
		},
	}

	runCmd.Flags().Float64("tick-rate", 60.0, "decision loop frequency in Hz")
	runCmd.Flags().Duration("duration", 0, "how long to run (0 runs until interrupted)")
	runCmd.Flags().String("preset", "", "trigger tolerance preset (ultra_precision, high_precision, balanced, relaxed, ultra_relaxed)")
	runCmd.Flags().Int64("seed", 0, "seed for the synthetic target (0 uses the clock)")
	runCmd.Flags().String("profile", "balanced", "motion decay profile (aggressive, balanced, gentle, linear)")
	runCmd.Flags().Bool("trigger", true, "evaluate the trigger and fire activations")

	return runCmd
}

func runLoop(ctx context.Context, cfg *config.Config) error {
	logger := observability.GetLogger()

	seed := cfg.Run.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	sim := actuate.NewSim(geom.Vector2{
		X: float64(cfg.Frame.CaptureSize) / 2,
		Y: float64(cfg.Frame.CaptureSize) / 2,
	})
	chain, err := actuate.NewChain(logger, sim)
	if err != nil {
		return err
	}

	coord, err := coordinator.New(cfg.Coordinator(), chain, logger)
	if err != nil {
		return err
	}

	detector := detect.NewSynthetic(cfg.Frame.CaptureSize, cfg.Run.OrbitRadius, cfg.Run.OrbitPeriod, seed)

	if cfg.Run.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Run.Duration)
		defer cancel()
	}

	coord.Start(ctx)
	defer coord.Wait()

	logger.Info("coordination loop starting",
		zap.Float64("tick_rate", cfg.Run.TickRate),
		zap.Duration("duration", cfg.Run.Duration),
		zap.Int64("seed", seed))

	g, gctx := errgroup.WithContext(ctx)

	// Decision loop: detect, select, track. Paced by a rate limiter so a
	// slow tick never causes a burst of catch-up iterations.
	g.Go(func() error {
		limiter := rate.NewLimiter(rate.Limit(cfg.Run.TickRate), 1)
		for {
			if err := limiter.Wait(gctx); err != nil {
				// Near the deadline the limiter reports its own "would
				// exceed" error, possibly before the context has actually
				// expired. Wait out the remainder and surface the context
				// error so shutdown stays orderly.
				<-gctx.Done()
				return gctx.Err()
			}

			candidates, err := detector.Detect(gctx)
			if err != nil {
				logger.Warn("detection failed", zap.Error(err))
				continue
			}
			cand, ok := detect.Select(candidates, coord.Frame().Center())
			if !ok {
				continue
			}
			coord.Track(gctx, cand, false)
		}
	})

	// Periodic status reporting.
	g.Go(func() error {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				st := coord.Status()
				logger.Info("status",
					zap.Bool("busy", st.Busy),
					zap.Uint64("submitted", st.Executor.Submitted),
					zap.Uint64("completed", st.Executor.Completed),
					zap.Uint64("superseded", st.Executor.Superseded),
					zap.Uint64("failures", st.Executor.Failures),
					zap.String("trigger", string(st.Trigger.State)),
					zap.Uint64("fires", st.Trigger.Fires))
			}
		}
	})

	err = g.Wait()

	st := coord.Status()
	logger.Info("coordination loop finished",
		zap.Int("moves", sim.Moves()),
		zap.Float64("pointer_x", sim.Position().X),
		zap.Float64("pointer_y", sim.Position().Y),
		zap.Uint64("fires", st.Trigger.Fires),
		zap.Uint64("completed", st.Executor.Completed))

	// Cancellation and the duration deadline are orderly shutdowns.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
