// Package cli wires the pharmastore commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/01moynul/pharmastore-golang/internal/config"
	"github.com/01moynul/pharmastore-golang/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "pharmastore",
	Short: "Multi-tenant pharmacy storefront API",
	Long: `Pharmastore serves the storefront, cart, order and payment API for many
pharmacies from one deployment.

Configuration is read from the environment and an optional .env file.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads configuration and builds the logger every command needs.
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return cfg, log, nil
}
