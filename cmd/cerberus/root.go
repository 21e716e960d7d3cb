package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "cerberus",
	Short: "Cerberus - runtime admission and resilience guard",
	Long: `Cerberus is a runtime admission and resilience guard for HTTP services.

It proxies requests to an upstream service through a fixed guard chain:
  - Operator kill switches with an attributed audit trail
  - Fixed-window per-endpoint rate limiting
  - Per-dependency circuit breakers
  - A shadow/enforce admission decision layer
  - A pluggable drift guard`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
