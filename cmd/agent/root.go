package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/config"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/logger"
)

type rootFlags struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "agent",
		Short:         "Route natural-language requests to weather, calculator and email tools.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", config.DefaultConfigFile, "path to the YAML config file")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")

	cmd.AddCommand(
		newAskCmd(flags),
		newDispatchCmd(flags),
		newServeCmd(flags),
		newToolsCmd(flags),
		newApproverCmd(flags),
		newHashKeyCmd(),
		newMigrateCmd(flags),
	)
	return cmd
}

// loadConfig reads the configuration and installs the default logger
// writing to w. The returned function flushes the logger.
func (f *rootFlags) loadConfig(w io.Writer) (*config.Config, func(), error) {
	cfg, err := config.LoadFrom(f.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
	}

	log, closer := logger.NewWithWriter(cfg.Logging, w)
	slog.SetDefault(log)
	return cfg, closer.Close, nil
}
