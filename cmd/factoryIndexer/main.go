package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Layr-Labs/factory-event-indexer/pkg/config"
	"github.com/Layr-Labs/factory-event-indexer/pkg/logger"
)

var networksFile string

func main() {
	rootCmd := &cobra.Command{
		Use:           "factory-indexer",
		Short:         "Index factory contract events across EVM chains",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&networksFile, "networks", "", "path to a networks YAML file (overrides NETWORK_* env vars)")

	rootCmd.AddCommand(runCmd, migrateCmd, sweepCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the environment and builds the process logger from it.
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadFromEnv(networksFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Debug})
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}
	return cfg, l, nil
}
