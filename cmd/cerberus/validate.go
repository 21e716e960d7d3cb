package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"veridian-hq/cerberus/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load and validate a configuration file without starting the server.

Exits non-zero when the configuration is invalid.

Examples:
  # Validate the default config
  cerberus validate

  # Validate a specific file
  cerberus validate --config /etc/cerberus/config.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
		if err != nil {
			return fmt.Errorf("configuration invalid: %w", err)
		}
		fmt.Printf("✓ Configuration valid\n")
		fmt.Printf("  listen:   %s\n", cfg.Server.ListenAddress)
		fmt.Printf("  upstream: %s\n", cfg.Server.UpstreamURL)
		fmt.Printf("  audit:    %s\n", cfg.Audit.Backend)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
