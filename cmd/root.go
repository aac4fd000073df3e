package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/reticle/internal/config"
	"github.com/xkilldash9x/reticle/internal/observability"
)

// NewRootCommand builds a fresh root command tree. A new instance per
// invocation keeps flag state from leaking between executions in tests.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:     "reticle",
		Short:   "Reticle is a pointer motion-planning and trigger-coordination core.",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initializeConfig(cfgFile); err != nil {
				return err
			}

			var loggerCfg config.LoggerConfig
			if err := viper.UnmarshalKey("logger", &loggerCfg); err != nil {
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "reticle"})
				return fmt.Errorf("failed to unmarshal logger config: %w", err)
			}
			observability.InitializeLogger(loggerCfg)

			observability.GetLogger().Debug("starting reticle", zap.String("version", Version))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newStatusCmd())

	return rootCmd
}

// Execute runs the root command under the given signal-aware context.
func Execute(ctx context.Context) error {
	err := NewRootCommand().ExecuteContext(ctx)
	if err != nil {
		observability.GetLogger().Error("command execution failed", zap.Error(err))
	}
	return err
}

// initializeConfig wires viper to the config file, environment, and defaults.
func initializeConfig(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("RETICLE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	config.SetDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// No config file is fine; defaults and env vars carry the run.
	}
	return nil
}
