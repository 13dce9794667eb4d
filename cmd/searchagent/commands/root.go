package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/LouYuanbo1/searchagent/internal/config"
	"github.com/LouYuanbo1/searchagent/internal/infra/logger"
	"github.com/spf13/cobra"
)

var (
	embeddedConfig []byte
	configPath     string
	logLevel       string

	// cfg is loaded before any subcommand runs.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "searchagent",
	Short: "searchagent discovers how sites search and scrapes the articles they return.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if configPath != "" {
			cfg, err = config.ParseConfigFile(configPath)
		} else {
			cfg, err = config.ParseConfig(embeddedConfig)
		}
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		return logger.Setup(cfg)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a JSON config file, overrides the embedded one")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level, overrides log.level from the config")
}

// ExecuteContext runs the CLI. appConfig is the config used when --config is not given.
func ExecuteContext(ctx context.Context, appConfig []byte) {
	embeddedConfig = appConfig
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
