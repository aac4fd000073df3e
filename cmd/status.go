package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xkilldash9x/reticle/internal/config"
	"github.com/xkilldash9x/reticle/internal/frame"
	"github.com/xkilldash9x/reticle/internal/trigger"
)

// newStatusCmd creates the `status` command, which resolves the effective
// configuration and prints the derived frame geometry and trigger tiers.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Prints the resolved configuration and derived geometry",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return err
			}

			fr, err := frame.New(cfg.Frame)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			effH, effV := fr.EffectiveFOV()

			fmt.Fprintf(out, "frame:\n")
			fmt.Fprintf(out, "  capture:        %dpx of %dx%d\n", cfg.Frame.CaptureSize, cfg.Frame.DisplayWidth, cfg.Frame.DisplayHeight)
			fmt.Fprintf(out, "  horizontal fov: %.2f deg\n", cfg.Frame.HorizontalFOV)
			fmt.Fprintf(out, "  vertical fov:   %.2f deg (derived)\n", fr.VerticalFOV())
			fmt.Fprintf(out, "  effective fov:  %.2f x %.2f deg\n", effH, effV)
			fmt.Fprintf(out, "  aim offset:     %.2f box heights\n", cfg.Frame.AimOffsetRatio)

			fmt.Fprintf(out, "motion:\n")
			fmt.Fprintf(out, "  bands:   micro<=%.0f medium<=%.0f large<=%.0f humanized<=%.0f\n",
				cfg.Motion.MicroThreshold, cfg.Motion.MediumThreshold, cfg.Motion.LargeThreshold, cfg.Motion.HumanizedCeiling)
			fmt.Fprintf(out, "  profile: %s\n", cfg.Motion.Profile)
			fmt.Fprintf(out, "  pacing:  base %s, variance %s\n", cfg.Motion.BaseStepDelay, cfg.Motion.DelayVariance)

			fmt.Fprintf(out, "trigger:\n")
			fmt.Fprintf(out, "  enabled: %v, mode %s\n", cfg.Trigger.Enabled, cfg.Trigger.Mode)
			fmt.Fprintf(out, "  tolerance: %.2f deg | %.3f/%.3f norm\n",
				cfg.Trigger.AngleThreshold, cfg.Trigger.NormThresholdX, cfg.Trigger.NormThresholdY)
			fmt.Fprintf(out, "  window: %s x%d, cooldown %s\n", cfg.Trigger.Window, cfg.Trigger.RequiredSamples, cfg.Trigger.Cooldown)
			fmt.Fprintf(out, "  presets: ")
			for i, p := range trigger.Presets() {
				if i > 0 {
					fmt.Fprintf(out, ", ")
				}
				fmt.Fprintf(out, "%s", p)
			}
			fmt.Fprintln(out)
			return nil
		},
	}
}
